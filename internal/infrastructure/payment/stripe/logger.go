package stripe

import (
	"fmt"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
)

// leveledLogger routes stripe-go's client diagnostics into the service logger.
type leveledLogger struct {
	log observability.Logger
}

func newLeveledLogger(logger observability.Logger) *leveledLogger {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &leveledLogger{log: logger.With(observability.F("component", "stripe_client"))}
}

func (l *leveledLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug("stripe_client", observability.F("detail", fmt.Sprintf(format, v...)))
}

func (l *leveledLogger) Infof(format string, v ...interface{}) {
	l.log.Debug("stripe_client", observability.F("detail", fmt.Sprintf(format, v...)))
}

func (l *leveledLogger) Warnf(format string, v ...interface{}) {
	l.log.Warn("stripe_client", observability.F("detail", fmt.Sprintf(format, v...)))
}

func (l *leveledLogger) Errorf(format string, v ...interface{}) {
	l.log.Error("stripe_client", observability.F("detail", fmt.Sprintf(format, v...)))
}
