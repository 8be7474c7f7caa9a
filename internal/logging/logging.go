package logging

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/cinematch/backend/internal/config"
)

// New builds the root logger entry tagged with the service name
func New(cfg config.LogConfig, service string, out io.Writer) (*logrus.Entry, error) {
	logger := logrus.New()
	if out != nil {
		logger.SetOutput(out)
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return logger.WithField("service", service), nil
}
