// Package ownership resolves institutional ownership percentage through an
// ordered chain of unreliable sources.
package ownership

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ternarybob/tickerscope/internal/models"
)

// OutcomeKind tags what a resolver attempt produced.
type OutcomeKind int

const (
	// OutcomeSuccess carries a percentage.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeNoData means the source answered but had no usable value.
	OutcomeNoData
	// OutcomeTimeout means the source did not answer within its bound.
	OutcomeTimeout
	// OutcomeUnrecoverable means the source cannot work this session (credentials, setup).
	OutcomeUnrecoverable
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeNoData:
		return "no_data"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeUnrecoverable:
		return "unrecoverable"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the tagged result of one resolver attempt.
type Outcome struct {
	Kind    OutcomeKind
	Percent float64
	Source  models.OwnershipSource
	Err     error

	// Fallback is the outcome of a delegated resolver, when this resolver used one.
	Fallback *Outcome
}

// Success returns a successful outcome.
func Success(source models.OwnershipSource, percent float64) Outcome {
	return Outcome{Kind: OutcomeSuccess, Percent: percent, Source: source}
}

// NoData returns a no-data outcome. err may be nil.
func NoData(source models.OwnershipSource, err error) Outcome {
	return Outcome{Kind: OutcomeNoData, Source: source, Err: err}
}

// TimedOut returns a timeout outcome.
func TimedOut(source models.OwnershipSource, err error) Outcome {
	return Outcome{Kind: OutcomeTimeout, Source: source, Err: err}
}

// Unrecoverable returns an outcome that disables the source for the session.
func Unrecoverable(source models.OwnershipSource, err error) Outcome {
	return Outcome{Kind: OutcomeUnrecoverable, Source: source, Err: err}
}

// OK reports whether the outcome carries a valid percentage.
func (o Outcome) OK() bool {
	return o.Kind == OutcomeSuccess && validPercent(o.Percent)
}

func validPercent(p float64) bool {
	return !math.IsNaN(p) && p >= 0 && p <= 100
}

// Attempt records one resolver attempt within a resolution.
type Attempt struct {
	Source   models.OwnershipSource
	Kind     OutcomeKind
	Skipped  bool // disabled for the session, not invoked
	Err      error
	Duration time.Duration
}

// Summary converts the attempt to its presentation shape.
func (a Attempt) Summary() models.AttemptSummary {
	s := models.AttemptSummary{
		Source:   a.Source,
		Outcome:  a.Kind.String(),
		Duration: a.Duration,
	}
	if a.Skipped {
		s.Outcome = "disabled"
	}
	if a.Err != nil {
		s.Detail = a.Err.Error()
	}
	return s
}

// ErrResolutionFailed matches every *ResolutionFailure with errors.Is.
var ErrResolutionFailed = errors.New("ownership resolution failed")

// ResolutionFailure is returned when no resolver produced a value.
// Callers treat it as "data unavailable".
type ResolutionFailure struct {
	Ticker   string
	Attempts []Attempt
	// Cause is set when the caller's context ended the resolution early
	Cause error
}

func (f *ResolutionFailure) Error() string {
	parts := make([]string, 0, len(f.Attempts))
	for _, a := range f.Attempts {
		label := a.Kind.String()
		if a.Skipped {
			label = "disabled"
		}
		parts = append(parts, fmt.Sprintf("%s=%s", a.Source, label))
	}
	msg := fmt.Sprintf("ownership unavailable for %s [%s]", f.Ticker, strings.Join(parts, ", "))
	if f.Cause != nil {
		msg += ": " + f.Cause.Error()
	}
	return msg
}

// Is makes errors.Is(err, ErrResolutionFailed) true.
func (f *ResolutionFailure) Is(target error) bool {
	return target == ErrResolutionFailed
}

// Unwrap exposes the cancellation cause, if any.
func (f *ResolutionFailure) Unwrap() error {
	return f.Cause
}
