package reward

import (
	"fmt"
	"time"
)

// DefaultDailyCap is the per-user daily cap used when none is configured.
const DefaultDailyCap = 100

// Category is the kind of event a reward is issued for.
type Category string

const (
	CategoryFeedback Category = "feedback"
	CategorySpace    Category = "space"
	CategoryReport   Category = "report"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryFeedback, CategorySpace, CategoryReport:
		return true
	}
	return false
}

// AutoClaimed reports whether rewards of this category settle on creation.
// Space rewards wait for an explicit claim.
func (c Category) AutoClaimed() bool {
	return c != CategorySpace
}

const dayLayout = "2006-01-02"

// Day is a UTC calendar date formatted as YYYY-MM-DD.
type Day string

// DayOf returns the UTC calendar date of t.
func DayOf(t time.Time) Day {
	return Day(t.UTC().Format(dayLayout))
}

// Time returns midnight UTC of the day.
func (d Day) Time() (time.Time, error) {
	t, err := time.ParseInLocation(dayLayout, string(d), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing day %q: %w", d, err)
	}
	return t, nil
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b Day) (int, error) {
	ta, err := a.Time()
	if err != nil {
		return 0, err
	}
	tb, err := b.Time()
	if err != nil {
		return 0, err
	}
	return int(tb.Sub(ta).Hours() / 24), nil
}

// Reward is an issued reward. Only Claimed changes after creation.
type Reward struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Amount    int        `json:"amount"`
	Reason    Category   `json:"reason"`
	Source    string     `json:"source,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	Claimed   bool       `json:"claimed"`
	ClaimedAt *time.Time `json:"claimedAt,omitempty"`
}

// UserRewardState is the per-user accounting record.
type UserRewardState struct {
	UserID           string      `json:"userId"`
	TotalAccumulated int         `json:"totalAccumulated"`
	DailyEarned      map[Day]int `json:"dailyEarned"`
	LastRewardDate   *Day        `json:"lastRewardDate,omitempty"`
	CurrentStreak    int         `json:"currentStreak"`
	DailyCap         int         `json:"dailyCap"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// NewUserRewardState returns the zero state for a user.
func NewUserRewardState(userID string, dailyCap int, now time.Time) *UserRewardState {
	return &UserRewardState{
		UserID:      userID,
		DailyEarned: make(map[Day]int),
		DailyCap:    dailyCap,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Earned returns the amount earned on day.
func (s *UserRewardState) Earned(day Day) int {
	return s.DailyEarned[day]
}

// Remaining returns how much can still be earned on day.
func (s *UserRewardState) Remaining(day Day) int {
	if r := s.DailyCap - s.Earned(day); r > 0 {
		return r
	}
	return 0
}

// record adds amount on day, clamped to the cap, and advances the streak.
// It returns the amount actually recorded.
func (s *UserRewardState) record(day Day, amount int, now time.Time) (int, error) {
	if amount > s.Remaining(day) {
		amount = s.Remaining(day)
	}
	if amount <= 0 {
		return 0, nil
	}

	if s.LastRewardDate == nil {
		s.CurrentStreak = 1
	} else {
		gap, err := DaysBetween(*s.LastRewardDate, day)
		if err != nil {
			return 0, err
		}
		switch {
		case gap == 1:
			s.CurrentStreak++
		case gap > 1:
			s.CurrentStreak = 1
		}
	}
	if s.LastRewardDate == nil || *s.LastRewardDate < day {
		d := day
		s.LastRewardDate = &d
	}

	if s.DailyEarned == nil {
		s.DailyEarned = make(map[Day]int)
	}
	s.DailyEarned[day] += amount
	s.TotalAccumulated += amount
	s.UpdatedAt = now
	return amount, nil
}

// DenyReason explains why a grant did not happen.
type DenyReason string

const (
	DenyNotEligible DenyReason = "not_eligible"
	DenyDailyCap    DenyReason = "daily_cap"
	DenyGate        DenyReason = "gate"
)

// GrantRequest asks the ledger to consider a reward.
type GrantRequest struct {
	UserID   string
	Category Category
	Eligible bool
	// Source identifies the triggering event, e.g. a space tracking id.
	Source string
}

// Grant is the ledger's answer to a GrantRequest.
type Grant struct {
	Granted bool       `json:"granted"`
	Amount  int        `json:"amount"`
	Reward  *Reward    `json:"reward,omitempty"`
	Denied  DenyReason `json:"denied,omitempty"`
}

// StateView is the externally visible reward summary for one user.
type StateView struct {
	UserID           string `json:"userId"`
	TotalAccumulated int    `json:"totalAccumulated"`
	DailyEarned      int    `json:"dailyEarned"`
	DailyCap         int    `json:"dailyCap"`
	RemainingCap     int    `json:"remainingCap"`
	CurrentStreak    int    `json:"currentStreak"`
	LastRewardDate   *Day   `json:"lastRewardDate"`
}

// ListOptions filters reward listings.
type ListOptions struct {
	Claimed *bool
	Limit   int
	Offset  int
}
