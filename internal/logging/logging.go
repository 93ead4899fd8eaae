// Package logging builds the shared structured logger.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger at the given level. Release mode emits JSON lines,
// anything else a human-readable format.
func New(level, runMode string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	if runMode == "release" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
