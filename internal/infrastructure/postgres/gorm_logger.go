package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability/logctx"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const componentDB = "postgres"

// GormLogger forwards gorm's diagnostics to the request-scoped logger.
// Successful queries are logged at debug; slow ones and failures at warn/error.
type GormLogger struct {
	log   observability.Logger
	slow  time.Duration
	level gormlogger.LogLevel
}

func NewGormLogger(logger observability.Logger, slow time.Duration) *GormLogger {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if slow <= 0 {
		slow = 200 * time.Millisecond
	}
	return &GormLogger{
		log:   logger.With(observability.F("component", componentDB)),
		slow:  slow,
		level: gormlogger.Warn,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *l
	c.level = level
	return &c
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.logger(ctx).Info("db_info", observability.F("detail", fmt.Sprintf(msg, args...)))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.logger(ctx).Warn("db_warn", observability.F("detail", fmt.Sprintf(msg, args...)))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.logger(ctx).Error("db_error", observability.F("detail", fmt.Sprintf(msg, args...)))
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []observability.Field{
		observability.F("sql", sql),
		observability.F("rows", rows),
		observability.F("latency_ms", elapsed.Milliseconds()),
	}

	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		l.logger(ctx).Error("db_query_failed", append(fields, observability.F("error", err))...)
	case elapsed > l.slow && l.level >= gormlogger.Warn:
		l.logger(ctx).Warn("db_query_slow", fields...)
	case l.level >= gormlogger.Info:
		l.logger(ctx).Debug("db_query", fields...)
	}
}

func (l *GormLogger) logger(ctx context.Context) observability.Logger {
	return logctx.FromOr(ctx, l.log)
}
