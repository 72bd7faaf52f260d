// Package goroutine launches background work that must never crash the process.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

// SafeGo runs fn on a new goroutine, logging instead of propagating a panic.
func SafeGo(log logger.Interface, name string, fn func()) {
	go func() {
		defer Recover(log, name)
		fn()
	}()
}

// Recover logs a recovered panic with its stack. It must be deferred directly.
func Recover(log logger.Interface, name string) {
	if r := recover(); r != nil {
		log.Errorw("goroutine panicked",
			"goroutine", name,
			"panic", fmt.Sprintf("%v", r),
			"stack", string(debug.Stack()),
		)
	}
}
