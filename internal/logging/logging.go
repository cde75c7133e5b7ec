// Package logging holds the process-wide log setup. Everything else logs with
// the standard logger and a bracketed level prefix.
package logging

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

var debug atomic.Bool

// Setup configures the standard logger and the debug switch from a level name.
func Setup(level string) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	debug.Store(strings.EqualFold(strings.TrimSpace(level), "debug"))
}

// Debugf logs a [DEBUG] line when the level is debug.
func Debugf(format string, args ...any) {
	if !debug.Load() {
		return
	}
	log.Output(2, "[DEBUG] "+fmt.Sprintf(format, args...))
}
