package commands

import (
	"context"
	"fmt"

	"github.com/acorn-io/kids-market/pkg/db"
	"github.com/acorn-io/kids-market/pkg/prefs"
	"github.com/acorn-io/kids-market/pkg/session"
	"github.com/acorn-io/kids-market/pkg/ui"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

// device is everything a client command works with: the backend session,
// local storage and the console it draws on.
type device struct {
	session *session.Session
	storage *prefs.Store
	creds   *prefs.CredentialCache
	screen  *ui.Console
}

func openDevice(ctx context.Context, c *cli.Context) (*device, error) {
	storage, err := prefs.Open(c.String("prefs-path"))
	if err != nil {
		return nil, fmt.Errorf("opening local storage: %w", err)
	}

	open := session.DBOpener(c.String("sql-dialect"), c.String("sql-dsn"), &gorm.Config{
		Logger: db.NewLogger(c.String("log-level")),
	}, db.WithPollInterval(c.Duration("poll-interval")))

	d := &device{
		session: session.New(open, storage),
		storage: storage,
		creds:   prefs.NewCredentialCache(storage),
		screen:  ui.NewConsole(c.App.Writer),
	}

	readyCtx, cancel := context.WithTimeout(ctx, c.Duration("ready-timeout"))
	defer cancel()
	if err := d.session.Ready(readyCtx); err != nil {
		d.Close()
		return nil, fmt.Errorf("backend not ready: %w", err)
	}

	return d, nil
}

func (d *device) Close() {
	if err := d.session.Close(); err != nil {
		logrus.Errorf("failed to close session: %v", err)
	}
	if err := d.storage.Close(); err != nil {
		logrus.Errorf("failed to close local storage: %v", err)
	}
}

func clientFlags() []cli.Flag {
	flags := append(StoreFlags(), ClientFlags()...)
	return append(flags, GlobalFlags()...)
}
