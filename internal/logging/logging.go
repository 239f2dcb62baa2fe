package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a JSON logger tagged with the service name.
// Unknown levels fall back to info.
func New(service, level string) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	return logger.WithField("service", service)
}
