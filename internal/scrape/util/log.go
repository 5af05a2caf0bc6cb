package util

import (
	"log"
	"sync/atomic"
)

var verbose atomic.Bool

// SetVerbose turns page-level trace logging on or off.
func SetVerbose(v bool) { verbose.Store(v) }

// Debugf logs only in verbose mode.
func Debugf(format string, args ...any) {
	if verbose.Load() {
		log.Printf(format, args...)
	}
}
