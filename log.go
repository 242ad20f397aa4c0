package rulepeg

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a logrus logger writing to `out` at `level`
// ("debug", "info", "warn"...) and using either the "text" or the
// "json" formatter.
func NewLogger(out io.Writer, level, format string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)

	switch format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format `%s`", format)
	}
	return logger, nil
}

// discardLogger is used by parsers created without a logger
func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.WarnLevel)
	return logger
}
