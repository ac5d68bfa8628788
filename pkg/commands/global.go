package commands

import (
	"fmt"
	"path"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func GlobalFlags() []cli.Flag {
	globalFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log Level",
			Aliases: []string{"l"},
			EnvVars: []string{"LOGLEVEL"},
			Value:   "info",
		},
		&cli.BoolFlag{
			Name:  "log-caller",
			Usage: "log the caller (aka line number and file)",
		},
	}

	return globalFlags
}

// StoreFlags select the shared record store.
func StoreFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "sql-dialect",
			Usage:   "The type of sql to use, sqlite or mysql",
			EnvVars: []string{"KIDS_MARKET_SQL_DIALECT", "SQL_DIALECT"},
			Value:   "sqlite",
		},
		&cli.StringFlag{
			Name:    "sql-dsn",
			Usage:   "The DSN to use to connect to",
			EnvVars: []string{"KIDS_MARKET_SQL_DSN", "SQL_DSN"},
			Value:   "file:kids-market.sqlite?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		},
	}
}

// ClientFlags configure the device side: local storage and how long to wait
// for the backend.
func ClientFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "prefs-path",
			Usage:   "Local storage file for cached sign-in state",
			EnvVars: []string{"KIDS_MARKET_PREFS_PATH"},
			Value:   "kids-market-prefs.sqlite",
		},
		&cli.DurationFlag{
			Name:    "ready-timeout",
			Usage:   "How long to wait for the backend to become ready",
			EnvVars: []string{"KIDS_MARKET_READY_TIMEOUT"},
			Value:   30 * time.Second,
		},
		&cli.DurationFlag{
			Name:    "poll-interval",
			Usage:   "How often live views re-read the store for changes made elsewhere",
			EnvVars: []string{"KIDS_MARKET_POLL_INTERVAL"},
			Value:   2 * time.Second,
		},
	}
}

func Before(c *cli.Context) error {
	formatter := &logrus.JSONFormatter{}

	if c.Bool("log-caller") {
		logrus.SetReportCaller(true)

		formatter.CallerPrettyfier = func(f *runtime.Frame) (string, string) {
			return "", fmt.Sprintf("%s:%d", path.Base(f.File), f.Line)
		}
	}

	logrus.SetFormatter(formatter)

	switch c.String("log-level") {
	case "trace":
		logrus.SetLevel(logrus.TraceLevel)
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		return fmt.Errorf("unknown log level %q", c.String("log-level"))
	}

	return nil
}
