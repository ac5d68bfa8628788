package commands

import (
	"time"

	"github.com/acorn-io/kids-market/pkg/apiserver"
	"github.com/acorn-io/kids-market/pkg/backend"
	"github.com/acorn-io/kids-market/pkg/db"
	"github.com/acorn-io/kids-market/pkg/rand"
	"github.com/acorn-io/kids-market/pkg/version"
	"github.com/rancher/wrangler/pkg/signals"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

const generatedSecretLength = 48

type apiServerCommand struct{}

func (s *apiServerCommand) Execute(c *cli.Context) error {
	ctx := signals.SetupSignalContext()

	log := logrus.WithField("command", "api-server")

	log.Infof("version: %v", version.Get())

	database, err := db.New(ctx, c.String("sql-dialect"), c.String("sql-dsn"), &gorm.Config{
		Logger: db.NewLogger(c.String("log-level")),
	})
	if err != nil {
		return err
	}
	defer database.Close()

	secret := c.String("jwt-secret")
	if secret == "" {
		log.Warn("no jwt secret configured, generating one; issued tokens will not survive a restart")
		secret = rand.StringWithAll(generatedSecretLength)
	}

	back, err := backend.NewBackend([]byte(secret), c.Duration("token-ttl"),
		c.Int64("purge-interval-seconds"), c.Int64("anonymous-max-age-seconds"), database)
	if err != nil {
		return err
	}

	apiServer := apiserver.NewAPIServer(ctx, log, c.Int("port"))

	if err := apiServer.Start(back); err != nil {
		return err
	}

	return nil
}

func serverCommand() *cli.Command {
	cmd := apiServerCommand{}

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Usage:   "Port for the HTTP Server Port",
			EnvVars: []string{"KIDS_MARKET_PORT", "PORT"},
			Value:   4315,
		},
		&cli.StringFlag{
			Name:    "jwt-secret",
			Usage:   "Secret used to sign session tokens",
			EnvVars: []string{"KIDS_MARKET_JWT_SECRET", "JWT_SECRET"},
		},
		&cli.DurationFlag{
			Name:    "token-ttl",
			Usage:   "How long a session token stays valid",
			EnvVars: []string{"KIDS_MARKET_TOKEN_TTL"},
			Value:   24 * time.Hour,
		},
		&cli.Int64Flag{
			Name:    "purge-interval-seconds",
			Usage:   "How often to purge orphaned children and stale anonymous accounts",
			EnvVars: []string{"KIDS_MARKET_PURGE_INTERVAL_SECONDS"},
			Value:   3600,
		},
		&cli.Int64Flag{
			Name:    "anonymous-max-age-seconds",
			Usage:   "Age after which anonymous accounts that never joined are purged, 0 to keep them",
			EnvVars: []string{"KIDS_MARKET_ANONYMOUS_MAX_AGE_SECONDS"},
			Value:   7 * 24 * 3600,
		},
	}
	flags = append(flags, StoreFlags()...)

	return &cli.Command{
		Name:   "api-server",
		Usage:  "kids-market api server",
		Action: cmd.Execute,
		Flags:  append(flags, GlobalFlags()...),
		Before: Before,
	}
}
