package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// New builds the application logger. format is "json" or "text"; an
// unknown level falls back to info.
func New(level, format string) *logrus.Logger {
	log := logrus.New()
	if format == "text" {
		log.Formatter = &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339}
	} else {
		log.Formatter = &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "severity",
				logrus.FieldKeyMsg:   "message",
			},
			TimestampFormat: time.RFC3339Nano,
		}
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	log.Out = os.Stdout
	return log
}

// Discard returns a logger that writes nowhere.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type ctxKeyLog struct{}

func WithLogger(ctx context.Context, log logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, ctxKeyLog{}, log)
}

// FromContext returns the request-scoped logger, or the standard logrus
// logger when none was attached.
func FromContext(ctx context.Context) logrus.FieldLogger {
	if log, ok := ctx.Value(ctxKeyLog{}).(logrus.FieldLogger); ok {
		return log
	}
	return logrus.StandardLogger()
}
