package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mwantia/poifilters/pkg/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQuery = 200 * time.Millisecond

// gormLogger routes GORM output into the store's LoggerService.
type gormLogger struct {
	log   log.LoggerService
	level logger.LogLevel
}

func newGormLogger(l log.LoggerService, level logger.LogLevel) logger.Interface {
	return &gormLogger{log: l, level: level}
}

func (g *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *gormLogger) Info(_ context.Context, msg string, args ...any) {
	if g.level >= logger.Info {
		g.log.Debug(msg, args...)
	}
}

func (g *gormLogger) Warn(_ context.Context, msg string, args ...any) {
	if g.level >= logger.Warn {
		g.log.Warn(msg, args...)
	}
}

func (g *gormLogger) Error(_ context.Context, msg string, args ...any) {
	if g.level >= logger.Error {
		g.log.Error(msg, args...)
	}
}

func (g *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && g.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		g.log.With("rows", rows).With("elapsed", elapsed).Error("%s: %v", sql, err)
	case elapsed > slowQuery && g.level >= logger.Warn:
		sql, rows := fc()
		g.log.With("rows", rows).With("elapsed", elapsed).Warn("slow query: %s", sql)
	case g.level >= logger.Info:
		sql, rows := fc()
		g.log.With("rows", rows).With("elapsed", elapsed).Debug("%s", sql)
	}
}

var _ logger.Interface = (*gormLogger)(nil)

func levelName(level logger.LogLevel) string {
	switch level {
	case logger.Silent:
		return "silent"
	case logger.Error:
		return "error"
	case logger.Warn:
		return "warn"
	case logger.Info:
		return "info"
	}
	return fmt.Sprintf("level(%d)", level)
}

// ParseQueryLog maps a configured level name to a GORM log level. Unknown
// names disable the query log.
func ParseQueryLog(name string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "error":
		return logger.Error
	case "warn", "warning":
		return logger.Warn
	case "info", "debug":
		return logger.Info
	}
	return logger.Silent
}
