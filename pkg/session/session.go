package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/acorn-io/kids-market/pkg/auth"
	"github.com/acorn-io/kids-market/pkg/db"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Opener verifies the backend dependencies and constructs the store handle.
type Opener func(ctx context.Context) (db.Database, error)

// DBOpener returns an Opener for the given SQL dialect and DSN.
func DBOpener(dialect, dsn string, config *gorm.Config, opts ...db.Option) Opener {
	return func(ctx context.Context) (db.Database, error) {
		return db.New(ctx, dialect, dsn, config, opts...)
	}
}

// Session owns the one backend connection every client component shares.
// It is initialized lazily on the first Ready call and signals readiness
// exactly once. If initialization fails the failure is logged and the
// session never becomes ready.
type Session struct {
	open    Opener
	persist auth.Persistence

	initOnce sync.Once
	ready    chan struct{}

	mu        sync.Mutex
	isReady   bool
	callbacks []func()
	db        db.Database
	auth      *auth.Client
}

func New(open Opener, persist auth.Persistence) *Session {
	return &Session{
		open:    open,
		persist: persist,
		ready:   make(chan struct{}),
	}
}

// Ready blocks until the session is ready, starting initialization if no one
// has yet. It returns ctx.Err() if ctx is done first.
func (s *Session) Ready(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	default:
	}

	s.initOnce.Do(func() {
		go s.init()
	})

	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnReady registers fn to run once the session is ready. fn runs immediately
// if it already is.
func (s *Session) OnReady(fn func()) {
	s.mu.Lock()
	if !s.isReady {
		s.callbacks = append(s.callbacks, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

func (s *Session) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isReady
}

// Auth returns the authentication client, or nil before the session is ready.
func (s *Session) Auth() *auth.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth
}

// DB returns the store handle, or nil before the session is ready.
func (s *Session) DB() db.Database {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

func (s *Session) Close() error {
	database := s.DB()
	if database == nil {
		return nil
	}
	return database.Close()
}

func (s *Session) init() {
	log := logrus.WithField("component", "session")
	log.Debug("checking backend dependencies")

	// The handle outlives any single caller, so it is not bound to one
	// caller's context.
	database, err := s.openSafely(context.Background())
	if err != nil {
		log.Errorf("backend dependency error: %v", err)
		return
	}

	s.mu.Lock()
	s.db = database
	s.auth = auth.NewClient(auth.NewProvider(database), s.persist)
	s.isReady = true
	callbacks := s.callbacks
	s.callbacks = nil
	close(s.ready)
	s.mu.Unlock()

	log.Info("backend initialized")
	for _, fn := range callbacks {
		fn()
	}
}

func (s *Session) openSafely(ctx context.Context) (database db.Database, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("constructing database handle: %v", r)
		}
	}()
	return s.open(ctx)
}
