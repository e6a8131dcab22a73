package cli

import (
	"context"
	"strings"

	"github.com/labstack/gommon/log"
)

func newLogger(prefix, level string) *log.Logger {
	logger := log.New(prefix)
	logger.SetHeader("${time_rfc3339} ${level} ${prefix}")
	logger.SetLevel(parseLevel(level))
	return logger
}

func parseLevel(level string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

// logReporter writes follow-up failures from the services as warnings.
type logReporter struct {
	logger *log.Logger
}

func (r logReporter) ReportFailure(_ context.Context, op string, err error) {
	r.logger.Warnf("%s: %v", op, err)
}
