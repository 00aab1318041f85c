package logging

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"lambda-events/internal/config"
	"lambda-events/pkg/lambda"
)

// New builds a logger from the logging configuration. Unknown levels fall
// back to info.
func New(cfg config.LoggingConfig, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stderr
	}

	logger := logrus.New()
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(cfg.Format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}

// ForInvocation returns an entry carrying the request-scoped fields of lc.
func ForInvocation(logger logrus.FieldLogger, lc *lambda.Context) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"request_id":       lc.AwsRequestID,
		"function":         lc.FunctionName,
		"function_version": lc.FunctionVersion,
	})
}

// Observer logs every completed invocation. Timeouts and panics are errors,
// handler failures are warnings.
func Observer(logger logrus.FieldLogger) lambda.Observer {
	return func(lc *lambda.Context, report lambda.Report) {
		fields := logrus.Fields{
			"request_id":   report.RequestID,
			"function":     report.FunctionName,
			"completed_by": string(report.Source),
			"latency_ms":   float64(report.Duration.Nanoseconds()) / 1000000,
			"remaining_ms": report.Remaining.Milliseconds(),
			"memory_mb":    lc.MemoryLimitInMB,
		}

		entry := logger.WithFields(fields)
		switch {
		case errors.Is(report.Err, lambda.ErrTimeout):
			entry.WithError(report.Err).Error("Invocation timed out")
		case errors.Is(report.Err, lambda.ErrHandlerPanic):
			entry.WithError(report.Err).Error("Handler panicked")
		case report.Err != nil:
			entry.WithError(report.Err).Warn("Invocation failed")
		default:
			entry.Info("Invocation completed")
		}
	}
}
