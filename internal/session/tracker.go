// Package session tracks the evolving state of one real-time measurement
// session and decides when the streamed value has converged.
//
// The ring streams continuous updates with no explicit "final reading"
// marker, so completion is inferred from quiescence: once a non-zero value
// has been observed and has stopped changing for a stability window, the
// reading is accepted as final. A session that never stabilizes is abandoned
// at an overall ceiling, keeping whatever value it had.
package session

import (
	"context"
	"sync"
	"time"
)

// Defaults for the convergence heuristic. Both are empirically chosen against
// real hardware, not documented device constants; treat them as tunables.
const (
	DefaultStabilityWindow = 4 * time.Second
	DefaultCeiling         = 60 * time.Second
	DefaultPollCadence     = time.Second
)

// Outcome is the terminal state of a session wait.
type Outcome int

const (
	// OutcomeStable means the value stopped changing for the stability window.
	OutcomeStable Outcome = iota
	// OutcomeTimeout means the overall ceiling elapsed first. Any value
	// accepted before the ceiling is kept.
	OutcomeTimeout
	// OutcomeCanceled means the caller's context ended the wait.
	OutcomeCanceled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStable:
		return "stable"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Reading is a snapshot of the session state: the accepted primary value, the
// optional secondary value (blood pressure diastolic), and bookkeeping about
// the observation stream.
type Reading struct {
	Value        float64
	Secondary    float64
	HasValue     bool
	HasSecondary bool
	LastUpdate   time.Time
	Observations int
}

// Options configures a Tracker. Zero fields fall back to the defaults above.
type Options struct {
	StabilityWindow time.Duration
	Ceiling         time.Duration
	PollCadence     time.Duration

	// Clock overrides the time source, for tests. Nil means time.Now.
	Clock func() time.Time
}

// Tracker accumulates decoded observations for one in-progress measurement.
// Observe is called from the notification callback; Wait polls the
// convergence predicate on a fixed cadence. The two run on separate
// goroutines and synchronize on the tracker's mutex; the Reading state has a
// single owner and is never aliased.
type Tracker struct {
	mu      sync.Mutex
	reading Reading

	startedAt time.Time
	window    time.Duration
	ceiling   time.Duration
	cadence   time.Duration
	now       func() time.Time
}

// NewTracker creates a tracker for a session starting now.
func NewTracker(opts Options) *Tracker {
	if opts.StabilityWindow <= 0 {
		opts.StabilityWindow = DefaultStabilityWindow
	}
	if opts.Ceiling <= 0 {
		opts.Ceiling = DefaultCeiling
	}
	if opts.PollCadence <= 0 {
		opts.PollCadence = DefaultPollCadence
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Tracker{
		startedAt: opts.Clock(),
		window:    opts.StabilityWindow,
		ceiling:   opts.Ceiling,
		cadence:   opts.PollCadence,
		now:       opts.Clock,
	}
}

// Observe folds one accepted observation into the session state. Callers only
// pass real samples; the zero "still measuring" sentinel is filtered out by
// the decoder and never reaches the tracker, so an accepted value cannot be
// overwritten by an in-progress frame.
func (t *Tracker) Observe(value float64, secondary float64, hasSecondary bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.reading.Value = value
	t.reading.HasValue = true
	if hasSecondary {
		t.reading.Secondary = secondary
		t.reading.HasSecondary = true
	}
	t.reading.LastUpdate = t.now()
	t.reading.Observations++
}

// Snapshot returns a copy of the current session reading.
func (t *Tracker) Snapshot() Reading {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reading
}

// stable reports whether the reading has converged: at least one observation,
// a value present, and no change for the full stability window.
func (t *Tracker) stable(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reading.Observations > 0 &&
		t.reading.HasValue &&
		now.Sub(t.reading.LastUpdate) >= t.window
}

// expired reports whether the overall session ceiling has elapsed.
func (t *Tracker) expired(now time.Time) bool {
	return now.Sub(t.startedAt) >= t.ceiling
}

// Wait blocks until the session reaches a terminal state: stable, timed out
// at the ceiling, or canceled via ctx. It evaluates the convergence predicate
// once per poll cadence; the wait is always bounded by the ceiling.
func (t *Tracker) Wait(ctx context.Context) (Reading, Outcome) {
	ticker := time.NewTicker(t.cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return t.Snapshot(), OutcomeCanceled
		case <-ticker.C:
			now := t.now()
			if t.stable(now) {
				return t.Snapshot(), OutcomeStable
			}
			if t.expired(now) {
				return t.Snapshot(), OutcomeTimeout
			}
		}
	}
}
