// Package sessiontest builds ready sessions over throwaway sqlite stores.
package sessiontest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/acorn-io/kids-market/pkg/db"
	"github.com/acorn-io/kids-market/pkg/prefs"
	"github.com/acorn-io/kids-market/pkg/session"
	"github.com/stretchr/testify/require"
)

// Env is a ready session plus the local storage behind it.
type Env struct {
	Session *session.Session
	Storage *prefs.Memory
	DSN     string
}

// Wrap lets a test intercept store calls, for example to inject failures.
type Wrap func(db.Database) db.Database

// New returns a ready session over a fresh sqlite file.
func New(t testing.TB, wrap Wrap) *Env {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "store.sqlite") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	return Open(t, dsn, prefs.NewMemory(), wrap)
}

// Open returns a ready session over dsn using storage as local storage.
func Open(t testing.TB, dsn string, storage *prefs.Memory, wrap Wrap) *Env {
	t.Helper()
	open := session.DBOpener("sqlite", dsn, nil, db.WithPollInterval(0))
	s := session.New(func(ctx context.Context) (db.Database, error) {
		database, err := open(ctx)
		if err != nil || wrap == nil {
			return database, err
		}
		return wrap(database), nil
	}, storage)
	t.Cleanup(func() { _ = s.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, s.Ready(ctx))

	return &Env{
		Session: s,
		Storage: storage,
		DSN:     dsn,
	}
}

// Peer returns a second ready session sharing env's store handle, with its
// own signed-in identity and local storage. Writes from either session reach
// live queries on both.
func Peer(t testing.TB, env *Env) *Env {
	t.Helper()
	shared := env.Session.DB()
	storage := prefs.NewMemory()
	s := session.New(func(ctx context.Context) (db.Database, error) {
		return borrowed{shared}, nil
	}, storage)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, s.Ready(ctx))

	return &Env{
		Session: s,
		Storage: storage,
		DSN:     env.DSN,
	}
}

// borrowed leaves closing the store to its owner.
type borrowed struct {
	db.Database
}

func (borrowed) Close() error { return nil }
