package engine

import (
	"github.com/sirupsen/logrus"
)

// SetupLogging configures the process-wide logrus logger.
func SetupLogging(level string, json bool) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return &ConfigurationError{Reason: "log level", Err: err}
	}
	logrus.SetLevel(lvl)
	if json {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
