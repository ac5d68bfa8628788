package db

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// gormLogger sends gorm's query log through logrus so it shares the
// formatter and level configured for the rest of the process.
type gormLogger struct {
	level logger.LogLevel
}

// NewLogger maps the process log level onto gorm's log levels. SQL statements
// are only logged at debug and trace.
func NewLogger(level string) logger.Interface {
	l := logger.Warn
	switch level {
	case "trace", "debug":
		l = logger.Info
	case "error":
		l = logger.Error
	}
	return &gormLogger{level: l}
}

func (g *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormLogger{level: level}
}

func (g *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= logger.Info {
		logrus.WithContext(ctx).Infof(msg, data...)
	}
}

func (g *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= logger.Warn {
		logrus.WithContext(ctx).Warnf(msg, data...)
	}
}

func (g *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= logger.Error {
		logrus.WithContext(ctx).Errorf(msg, data...)
	}
}

func (g *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && g.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		logrus.WithContext(ctx).WithError(err).WithFields(logrus.Fields{
			"sql":      sql,
			"rows":     rows,
			"duration": elapsed,
		}).Error("query failed")
	case elapsed > slowQueryThreshold && g.level >= logger.Warn:
		sql, rows := fc()
		logrus.WithContext(ctx).WithFields(logrus.Fields{
			"sql":      sql,
			"rows":     rows,
			"duration": elapsed,
		}).Warn("slow query")
	case g.level >= logger.Info:
		sql, rows := fc()
		logrus.WithContext(ctx).WithFields(logrus.Fields{
			"sql":      sql,
			"rows":     rows,
			"duration": elapsed,
		}).Debug("query")
	}
}
