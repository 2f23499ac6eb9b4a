package tracker

import (
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/spacetracker/internal/clock"
	"github.com/rpggio/spacetracker/internal/domain/space"
)

// Options configures a Tracker.
type Options struct {
	MinDurationMinutes float64
	AbandonTimeout     time.Duration
	TabOwner           string
	NewID              func() string
}

func (o Options) withDefaults() Options {
	if o.MinDurationMinutes <= 0 {
		o.MinDurationMinutes = space.DefaultMinDurationMinutes
	}
	if o.AbandonTimeout <= 0 {
		o.AbandonTimeout = space.DefaultAbandonTimeout
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

// Tracker turns observations into start/heartbeat/end transitions for at most
// one active session. It is not safe for concurrent use; the Runner owns it.
type Tracker struct {
	clock  clock.Clock
	opts   Options
	active *space.Session
}

// New creates an idle Tracker.
func New(clk clock.Clock, opts Options) *Tracker {
	if clk == nil {
		clk = clock.System{}
	}
	return &Tracker{clock: clk, opts: opts.withDefaults()}
}

// MinDurationMinutes returns the configured eligibility threshold.
func (t *Tracker) MinDurationMinutes() float64 {
	return t.opts.MinDurationMinutes
}

// Active returns a copy of the active session, if any.
func (t *Tracker) Active() (space.Session, bool) {
	if t.active == nil {
		return space.Session{}, false
	}
	return *t.active, true
}

// Resume adopts a previously persisted active session. It is a no-op when a
// session is already active or the given session has ended.
func (t *Tracker) Resume(sess space.Session) bool {
	if t.active != nil || !sess.Active() {
		return false
	}
	s := sess
	t.active = &s
	return true
}

// Observe applies one observation and returns the resulting events.
func (t *Tracker) Observe(obs space.Observation) ([]Event, error) {
	if err := obs.Validate(); err != nil {
		return nil, err
	}
	now := t.clock.Now()

	if !obs.Present {
		if t.active == nil {
			return nil, nil
		}
		return []Event{t.finalize(now, space.EndLeft)}, nil
	}

	if t.active == nil {
		return []Event{t.start(obs, now)}, nil
	}

	if t.active.Identity().Same(obs.Identity()) {
		t.active.Refresh(now)
		return []Event{{Type: EventHeartbeat, Session: *t.active, At: now}}, nil
	}

	ended := t.finalize(now, space.EndSwitched)
	started := t.start(obs, now)
	return []Event{ended, started}, nil
}

// Sweep finalizes an active session that has gone without a fresh
// observation for the abandonment timeout.
func (t *Tracker) Sweep() []Event {
	if t.active == nil {
		return nil
	}
	now := t.clock.Now()
	if !t.active.Stale(now, t.opts.AbandonTimeout) {
		return nil
	}
	return []Event{t.finalize(now, space.EndAbandoned)}
}

func (t *Tracker) start(obs space.Observation, now time.Time) Event {
	id := obs.Identity()
	sessionID := id.SpaceID
	if sessionID == "" {
		sessionID = t.opts.NewID()
	}
	t.active = &space.Session{
		ID:         sessionID,
		SpaceID:    id.SpaceID,
		Title:      id.Title,
		Host:       id.Host,
		StartTime:  now,
		LastSeenAt: now,
		TabOwner:   t.opts.TabOwner,
	}
	return Event{Type: EventStarted, Session: *t.active, At: now}
}

func (t *Tracker) finalize(now time.Time, reason space.EndReason) Event {
	sess := *t.active
	t.active = nil
	sess.Finalize(now, reason, t.opts.MinDurationMinutes)
	return Event{Type: EventEnded, Session: sess, At: now}
}
