package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/spacetracker/internal/clock"
	"github.com/rpggio/spacetracker/internal/domain/space"
	"github.com/rpggio/spacetracker/internal/domain/tracker"
	"github.com/rpggio/spacetracker/internal/repository"
)

// Options configures a Registry.
type Options struct {
	MinDurationMinutes float64
	AbandonTimeout     time.Duration
	HistoryLimit       int
}

func (o Options) withDefaults() Options {
	if o.MinDurationMinutes <= 0 {
		o.MinDurationMinutes = space.DefaultMinDurationMinutes
	}
	if o.AbandonTimeout <= 0 {
		o.AbandonTimeout = space.DefaultAbandonTimeout
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = space.HistoryLimit
	}
	return o
}

// Registry owns the active session slot and the completed history for one
// tracking context. All mutations are serialized and persisted.
type Registry struct {
	mu        sync.Mutex
	store     Store
	clock     clock.Clock
	opts      Options
	logger    *slog.Logger
	active    *space.Session
	completed []space.Session
	rewards   []RewardOutcome
	listeners []Listener
	dirty     map[string]bool
}

// New creates an empty Registry. Call Restore to load persisted state.
func New(store Store, clk clock.Clock, opts Options, logger *slog.Logger) *Registry {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		store:  store,
		clock:  clk,
		opts:   opts.withDefaults(),
		logger: logger,
		dirty:  make(map[string]bool),
	}
}

// Subscribe registers a listener for session notifications.
func (r *Registry) Subscribe(l Listener) {
	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()
}

// HandleEvent routes a tracker event to the matching handler.
func (r *Registry) HandleEvent(ctx context.Context, ev tracker.Event) {
	switch ev.Type {
	case tracker.EventStarted:
		r.OnSessionStarted(ctx, ev.Session)
	case tracker.EventHeartbeat:
		r.OnHeartbeat(ctx, ev.Session)
	case tracker.EventEnded:
		r.OnSessionEnded(ctx, ev.Session)
	default:
		r.logger.Warn("unknown tracker event", "type", ev.Type)
	}
}

// OnSessionStarted makes sess the active session. A different session still
// occupying the slot is finalized and archived first.
func (r *Registry) OnSessionStarted(ctx context.Context, sess space.Session) {
	r.mu.Lock()
	var out []Notification
	if archived, ok := r.displaceLocked(sess); ok {
		out = append(out, endedNotification(archived))
	}
	s := sess
	r.active = &s
	r.persistLocked(ctx, KeyActiveSession, KeyCompletedSessions)
	listeners := r.listenersLocked()
	r.mu.Unlock()

	out = append(out, Notification{Type: tracker.EventStarted, Session: sess})
	r.notify(listeners, out)
}

// OnHeartbeat refreshes the active session in place and persists it, so an
// abrupt exit loses at most one heartbeat of elapsed time.
func (r *Registry) OnHeartbeat(ctx context.Context, sess space.Session) {
	r.mu.Lock()
	var out []Notification
	if archived, ok := r.displaceLocked(sess); ok {
		r.logger.Warn("heartbeat for unexpected session", "session_id", sess.ID, "replaced", archived.ID)
		out = append(out, endedNotification(archived))
		r.persistLocked(ctx, KeyCompletedSessions)
	}
	s := sess
	r.active = &s
	r.persistLocked(ctx, KeyActiveSession)
	listeners := r.listenersLocked()
	r.mu.Unlock()

	out = append(out, Notification{Type: tracker.EventHeartbeat, Session: sess})
	r.notify(listeners, out)
}

// OnSessionEnded archives sess and clears the active slot if it holds sess.
func (r *Registry) OnSessionEnded(ctx context.Context, sess space.Session) {
	r.mu.Lock()
	r.appendCompletedLocked(sess)
	if r.active != nil && r.active.SameSession(sess) {
		r.active = nil
	}
	r.persistLocked(ctx, KeyActiveSession, KeyCompletedSessions)
	listeners := r.listenersLocked()
	r.mu.Unlock()

	r.notify(listeners, []Notification{endedNotification(sess)})
}

// RecordRewardOutcome appends a backend reward answer to the bounded history.
func (r *Registry) RecordRewardOutcome(ctx context.Context, outcome RewardOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if outcome.RecordedAt.IsZero() {
		outcome.RecordedAt = r.clock.Now()
	}
	r.rewards = append(r.rewards, outcome)
	if over := len(r.rewards) - RewardHistoryLimit; over > 0 {
		r.rewards = append([]RewardOutcome(nil), r.rewards[over:]...)
	}
	r.persistLocked(ctx, KeyRewardHistory)
}

// Restore loads persisted state. An active session that started at least the
// abandonment timeout ago is finalized at the current time. The surviving
// active session, if any, is returned so the tracker can resume it.
func (r *Registry) Restore(ctx context.Context) (*space.Session, error) {
	r.mu.Lock()

	var active *space.Session
	if err := r.load(ctx, KeyActiveSession, &active); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	var completed []space.Session
	if err := r.load(ctx, KeyCompletedSessions, &completed); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	var rewards []RewardOutcome
	if err := r.load(ctx, KeyRewardHistory, &rewards); err != nil {
		r.mu.Unlock()
		return nil, err
	}

	r.completed = nil
	for _, s := range completed {
		r.appendCompletedLocked(s)
	}
	r.rewards = rewards
	r.active = nil

	var out []Notification
	if active != nil && active.Active() {
		now := r.clock.Now()
		if active.Expired(now, r.opts.AbandonTimeout) {
			recovered := *active
			recovered.Finalize(now, space.EndAbandoned, r.opts.MinDurationMinutes)
			r.appendCompletedLocked(recovered)
			r.persistLocked(ctx, KeyActiveSession, KeyCompletedSessions)
			out = append(out, endedNotification(recovered))
			r.logger.Info("recovered abandoned session", "session_id", recovered.ID, "duration_minutes", recovered.DurationMinutes)
		} else {
			s := *active
			r.active = &s
		}
	}

	var resumed *space.Session
	if r.active != nil {
		s := *r.active
		resumed = &s
	}
	listeners := r.listenersLocked()
	r.mu.Unlock()

	r.notify(listeners, out)
	return resumed, nil
}

// Snapshot returns a copy of the current state.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		Completed: append([]space.Session{}, r.completed...),
		Rewards:   append([]RewardOutcome{}, r.rewards...),
		Stats:     computeStats(r.completed),
	}
	if r.active != nil {
		s := *r.active
		snap.Active = &s
	}
	return snap
}

// displaceLocked archives the active session when it is not sess.
func (r *Registry) displaceLocked(sess space.Session) (space.Session, bool) {
	if r.active == nil || r.active.SameSession(sess) {
		return space.Session{}, false
	}
	archived := *r.active
	end := sess.StartTime
	if end.IsZero() || end.Before(archived.StartTime) {
		end = r.clock.Now()
	}
	archived.Finalize(end, space.EndReplaced, r.opts.MinDurationMinutes)
	r.appendCompletedLocked(archived)
	r.active = nil
	return archived, true
}

func (r *Registry) appendCompletedLocked(sess space.Session) {
	r.completed = append(r.completed, sess)
	if over := len(r.completed) - r.opts.HistoryLimit; over > 0 {
		r.completed = append([]space.Session(nil), r.completed[over:]...)
	}
}

// persistLocked marks keys dirty and writes every dirty key. Failed writes
// stay dirty and are retried on the next mutation.
func (r *Registry) persistLocked(ctx context.Context, keys ...string) {
	for _, key := range keys {
		r.dirty[key] = true
	}
	for key := range r.dirty {
		if err := r.write(ctx, key); err != nil {
			r.logger.Error("failed to persist registry state", "key", key, "error", err)
			continue
		}
		delete(r.dirty, key)
	}
}

func (r *Registry) write(ctx context.Context, key string) error {
	var value any
	switch key {
	case KeyActiveSession:
		value = r.active
	case KeyCompletedSessions:
		value = r.completed
	case KeyRewardHistory:
		value = r.rewards
	default:
		return fmt.Errorf("%w: unknown key %q", ErrPersistence, key)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", ErrPersistence, key, err)
	}
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrPersistence, key, err)
	}
	return nil
}

func (r *Registry) load(ctx context.Context, key string, dst any) error {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", key, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

func (r *Registry) listenersLocked() []Listener {
	return append([]Listener(nil), r.listeners...)
}

func (r *Registry) notify(listeners []Listener, out []Notification) {
	for _, n := range out {
		for _, l := range listeners {
			r.deliver(l, n)
		}
	}
}

func (r *Registry) deliver(l Listener, n Notification) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Debug("listener failed", "type", n.Type, "panic", p)
		}
	}()
	l(n)
}

func endedNotification(sess space.Session) Notification {
	return Notification{Type: tracker.EventEnded, Session: sess, RewardEligible: sess.RewardEligible}
}
