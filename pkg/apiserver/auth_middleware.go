package apiserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/acorn-io/kids-market/pkg/backend"
	"github.com/sirupsen/logrus"
)

type ContextKey string

const AdminUID ContextKey = "adminUID"

func tokenAuthMiddleware(b backend.Backend) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logrus.Debugf("request URL path: %s", r.URL.Path)
			authorization := r.Header.Get("Authorization")
			if !strings.HasPrefix(authorization, "Bearer ") {
				writeError(w, http.StatusUnauthorized, errors.New("bearer token required"))
				return
			}
			token := strings.TrimPrefix(authorization, "Bearer ")

			uid, err := b.Authenticate(token)
			if err != nil {
				logrus.Debugf("rejected token: %v", err)
				writeError(w, http.StatusForbidden, errors.New("forbidden to use"))
				return
			}

			ctx := context.WithValue(r.Context(), AdminUID, uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func adminUIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(AdminUID).(string)
	return uid
}
