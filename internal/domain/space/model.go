package space

import (
	"strings"
	"time"
)

// DefaultMinDurationMinutes is the reward eligibility threshold used when none is configured.
const DefaultMinDurationMinutes = 1.0

// DefaultAbandonTimeout bounds how long an active session may go without a fresh observation.
const DefaultAbandonTimeout = 30 * time.Minute

// HistoryLimit is the number of completed sessions retained.
const HistoryLimit = 100

// EndReason records why a session was finalized.
type EndReason string

const (
	EndLeft      EndReason = "left"
	EndSwitched  EndReason = "switched"
	EndAbandoned EndReason = "abandoned"
	EndReplaced  EndReason = "replaced"
)

// Observation is a single sample of the hosting page.
type Observation struct {
	Present bool   `json:"present"`
	SpaceID string `json:"spaceId,omitempty"`
	Title   string `json:"title,omitempty"`
	Host    string `json:"host,omitempty"`
}

// Absent is the "no space" observation.
var Absent = Observation{}

// Validate reports whether a present observation carries an identity.
func (o Observation) Validate() error {
	if !o.Present {
		return nil
	}
	if strings.TrimSpace(o.SpaceID) == "" && strings.TrimSpace(o.Title) == "" && strings.TrimSpace(o.Host) == "" {
		return ErrInvalidObservation
	}
	return nil
}

// Identity returns the logical space identity of the observation.
func (o Observation) Identity() Identity {
	return Identity{
		SpaceID: strings.TrimSpace(o.SpaceID),
		Title:   strings.TrimSpace(o.Title),
		Host:    strings.TrimSpace(o.Host),
	}
}

// Identity identifies a logical space. The platform space id wins when both
// sides carry one; otherwise title and host are compared.
type Identity struct {
	SpaceID string
	Title   string
	Host    string
}

// Same reports whether two identities refer to the same space.
func (i Identity) Same(other Identity) bool {
	if i.SpaceID != "" && other.SpaceID != "" {
		return i.SpaceID == other.SpaceID
	}
	return i.Title == other.Title && i.Host == other.Host
}

// Session is one contiguous period of presence in a single space.
type Session struct {
	ID              string     `json:"id"`
	SpaceID         string     `json:"spaceId,omitempty"`
	Title           string     `json:"title"`
	Host            string     `json:"host"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	LastSeenAt      time.Time  `json:"lastSeenAt"`
	DurationMinutes float64    `json:"durationMinutes"`
	RewardEligible  bool       `json:"rewardEligible"`
	TabOwner        string     `json:"tabOwner,omitempty"`
	EndReason       EndReason  `json:"endReason,omitempty"`
}

// Identity returns the session's space identity.
func (s Session) Identity() Identity {
	return Identity{SpaceID: s.SpaceID, Title: s.Title, Host: s.Host}
}

// Active reports whether the session has not been finalized.
func (s Session) Active() bool {
	return s.EndTime == nil
}

// Refresh recomputes the running duration. Duration never decreases.
func (s *Session) Refresh(now time.Time) {
	minutes := Minutes(s.StartTime, now)
	if minutes > s.DurationMinutes {
		s.DurationMinutes = minutes
	}
	if now.After(s.LastSeenAt) {
		s.LastSeenAt = now
	}
}

// Finalize freezes the session at now and computes eligibility.
func (s *Session) Finalize(now time.Time, reason EndReason, minDurationMinutes float64) {
	if now.Before(s.StartTime) {
		now = s.StartTime
	}
	end := now
	s.EndTime = &end
	s.DurationMinutes = Minutes(s.StartTime, end)
	s.RewardEligible = Eligible(s.DurationMinutes, minDurationMinutes)
	s.EndReason = reason
}

// Stale reports whether the session has gone without an observation for timeout.
func (s Session) Stale(now time.Time, timeout time.Duration) bool {
	last := s.LastSeenAt
	if last.IsZero() || last.Before(s.StartTime) {
		last = s.StartTime
	}
	return now.Sub(last) >= timeout
}

// Expired reports whether the session started at least timeout before now.
func (s Session) Expired(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.StartTime) >= timeout
}

// Minutes returns the non-negative elapsed minutes between start and end.
func Minutes(start, end time.Time) float64 {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return d.Minutes()
}

// Eligible applies the reward eligibility threshold.
func Eligible(durationMinutes, minDurationMinutes float64) bool {
	return durationMinutes >= minDurationMinutes
}

// SameSession reports whether two values describe the same session instance.
func (s Session) SameSession(other Session) bool {
	return s.ID == other.ID && s.StartTime.Equal(other.StartTime)
}
