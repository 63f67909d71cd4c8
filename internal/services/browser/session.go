// Package browser drives isolated headless Chrome sessions for pages that only
// render their data client-side.
package browser

import (
	"context"
	"errors"
)

// ErrWaitTimeout is returned when an element does not appear within the wait bound.
var ErrWaitTimeout = errors.New("timed out waiting for element")

// ErrLaunchFailed is returned when no browser process could be started.
var ErrLaunchFailed = errors.New("browser launch failed")

// Session is one isolated browser. Close must be safe to call more than once.
type Session interface {
	Navigate(ctx context.Context, url string) error
	WaitText(ctx context.Context, selector string) (string, error)
	Close() error
}

// Launcher starts browser sessions.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}
