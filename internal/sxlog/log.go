// Package sxlog provides the structured logger shared across sx's
// components, wrapping logrus so every log line carries a component
// and (for an indexing run) a run_id for correlation.
package sxlog

import "github.com/sirupsen/logrus"

// New returns a logger tagged with component. It never returns nil:
// with no prior configuration it falls back to logrus's standard logger.
func New(component string) *logrus.Entry {
	return logrus.StandardLogger().WithField("component", component)
}

// SetDebug raises the standard logger to debug level.
func SetDebug(debug bool) {
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
		return
	}
	logrus.SetLevel(logrus.InfoLevel)
}

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
