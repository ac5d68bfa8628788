package apiserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/acorn-io/kids-market/pkg/backend"
	"github.com/acorn-io/kids-market/pkg/version"
	ghandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type apiServer struct {
	ctx  context.Context
	log  *logrus.Entry
	port int
}

func NewAPIServer(ctx context.Context, log *logrus.Entry, port int) *apiServer {
	return &apiServer{
		ctx:  ctx,
		log:  log,
		port: port,
	}
}

func newRouter(log *logrus.Entry, backend backend.Backend) http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(loggingMiddleware(log))
	h := newHandler(backend)

	// When functioning properly, these routes will return the version of tha app that is running
	router.Path("/").HandlerFunc(h.root)
	router.Path("/healthz").HandlerFunc(h.root)

	api := router.PathPrefix("/v1").Subrouter()

	// POSTing admin credentials returns a bearer token for the routes below
	api.Path("/sessions").Methods("POST").HandlerFunc(h.createSession)

	requireToken := tokenAuthMiddleware(backend)
	api.Path("/children").Methods("GET").Handler(requireToken(http.HandlerFunc(h.listChildren)))

	// All routes using this authedRoutes subrouter will require token based authentication
	authedRoutes := api.PathPrefix("/children/{child}").Subrouter()
	authedRoutes.Use(requireToken)

	// These are for the tasks sub-resource of a child
	authedRoutes.Path("/tasks").Methods("POST").HandlerFunc(h.createTask)
	authedRoutes.Path("/tasks/{task}").Methods("PUT").HandlerFunc(h.updateTask)
	authedRoutes.Path("/tasks/{task}").Methods("DELETE").HandlerFunc(h.deleteTask)

	// Note: this allows not found urls to be logged via the middleware
	// It **HAS** to be defined after all other paths are defined.
	router.NotFoundHandler = router.NewRoute().HandlerFunc(http.NotFound).GetHandler()

	return ghandlers.CORS()(router)
}

func (a *apiServer) Start(backend backend.Backend) error {
	logrus.Infof("Version: %s", version.Get())

	// Below this point is where the server is started and graceful shutdown occurs.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.port),
		Handler:           newRouter(a.log, backend),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		a.log.WithField("port", a.port).Info("starting api server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Fatalf("listen: %s\n", err)
		}
	}()

	go backend.StartPurgerDaemon(a.ctx.Done())

	<-a.ctx.Done()

	a.log.Info("shutting down the api server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		a.log.WithError(err).Error("unable to shutdown the api server gracefully")
		return err
	}

	return nil
}
