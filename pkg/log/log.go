// Package log holds the process-wide zap logger shared by the binaries.
package log

import "go.uber.org/zap"

var logger = zap.NewNop()

// Init replaces the no-op default. prod selects the JSON production
// encoder, otherwise the human-readable development one.
func Init(prod bool) error {
	var err error
	if prod {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	return err
}

// L returns the current logger. Safe to call before Init.
func L() *zap.Logger {
	return logger
}

// Sync flushes buffered log entries, for use in deferred shutdown paths.
func Sync() {
	_ = logger.Sync()
}
