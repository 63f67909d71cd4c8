// -----------------------------------------------------------------------
// Safe Goroutine - Panic-protected goroutine wrappers
// -----------------------------------------------------------------------

package common

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/ternarybob/arbor"
)

// goroutineCounter tracks spawned goroutines for diagnostics
var goroutineCounter int64

// GetGoroutineCount returns the number of goroutines spawned via SafeGo
func GetGoroutineCount() int64 {
	return atomic.LoadInt64(&goroutineCounter)
}

// PanicError carries a recovered panic value and the stack it was raised on.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// SafeGo runs a function in a goroutine with panic recovery.
// Panics are logged but don't crash the service.
//
// Example:
//
//	common.SafeGo(logger, "warmWatchlist", func() {
//	    warmer.Run(ctx)
//	})
func SafeGo(logger arbor.ILogger, name string, fn func()) {
	atomic.AddInt64(&goroutineCounter, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logPanic(logger, name, r, stackOf())
			}
		}()

		fn()
	}()
}

// GoResult runs fn in a goroutine and delivers its result on the returned channel.
// A panic inside fn is converted into a *PanicError. The channel is buffered so the
// goroutine never blocks if the caller stops listening.
func GoResult[T any](logger arbor.ILogger, name string, fn func() T, onPanic func(*PanicError) T) <-chan T {
	atomic.AddInt64(&goroutineCounter, 1)

	out := make(chan T, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				pe := &PanicError{Value: r, Stack: stackOf()}
				logPanic(logger, name, r, pe.Stack)
				out <- onPanic(pe)
			}
		}()

		out <- fn()
	}()
	return out
}

func stackOf() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

func logPanic(logger arbor.ILogger, name string, r any, stackTrace string) {
	if logger != nil {
		logger.Error().
			Str("goroutine", name).
			Str("panic", fmt.Sprintf("%v", r)).
			Str("stack", stackTrace).
			Msg("Recovered from panic in goroutine - continuing service operation")
		return
	}
	fmt.Fprintf(os.Stderr, "PANIC in goroutine %s: %v\n%s\n", name, r, stackTrace)
}
