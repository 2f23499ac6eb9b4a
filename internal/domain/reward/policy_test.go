package reward_test

import (
	"testing"
	"time"

	"github.com/rpggio/spacetracker/internal/domain/reward"
	"github.com/stretchr/testify/require"
)

func TestUnit_StableVectors(t *testing.T) {
	cases := []struct {
		parts []string
		want  float64
	}{
		{[]string{""}, 0.7966707284832713},
		{[]string{"alice", "space", "2026-03-14"}, 0.4631729718316214},
		{[]string{"alice", "feedback", "2026-03-14"}, 0.1928151381683575},
		{[]string{"bob", "report", "2026-03-14"}, 0.5477465934789894},
	}
	for _, tc := range cases {
		got := reward.Unit(tc.parts...)
		require.InDelta(t, tc.want, got, 1e-12, "parts %v", tc.parts)
		require.GreaterOrEqual(t, got, 0.0)
		require.Less(t, got, 1.0)
	}
}

func TestSeededGate_DeterministicPerDay(t *testing.T) {
	gate := reward.NewSeededGate()
	day := reward.Day("2026-03-14")

	// alice draws 0.463 for space (p=0.5) and 0.193 for feedback (p=0.3).
	require.True(t, gate.Admit("alice", reward.CategorySpace, day))
	require.True(t, gate.Admit("alice", reward.CategoryFeedback, day))
	// bob draws 0.615 for space and 0.548 for report.
	require.False(t, gate.Admit("bob", reward.CategorySpace, day))
	require.False(t, gate.Admit("bob", reward.CategoryReport, day))

	for i := 0; i < 10; i++ {
		require.True(t, gate.Admit("alice", reward.CategorySpace, day))
		require.False(t, gate.Admit("bob", reward.CategorySpace, day))
	}
	require.False(t, gate.Admit("alice", "bonus", day))
}

func TestSeededGate_MagnitudeWithinRange(t *testing.T) {
	gate := reward.NewSeededGate()
	day := reward.Day("2026-03-14")

	require.Equal(t, 2, gate.Magnitude("alice", reward.CategorySpace, day, 0))
	require.Equal(t, gate.Magnitude("alice", reward.CategorySpace, day, 7), gate.Magnitude("alice", reward.CategorySpace, day, 7))

	for cat, r := range reward.DefaultRanges() {
		for earned := 0; earned < 200; earned++ {
			n := gate.Magnitude("carol", cat, day, earned)
			require.GreaterOrEqual(t, n, r.Min)
			require.LessOrEqual(t, n, r.Max)
		}
	}
}

func TestUnconditional_AlwaysAdmits(t *testing.T) {
	policy := reward.Unconditional{Ranges: reward.DefaultRanges()}
	require.True(t, policy.Admit("bob", reward.CategoryReport, "2026-03-14"))
	n := policy.Magnitude("bob", reward.CategoryReport, "2026-03-14", 0)
	require.GreaterOrEqual(t, n, 1)
	require.LessOrEqual(t, n, 5)
}

func TestDay_Gaps(t *testing.T) {
	d := reward.DayOf(time.Date(2026, 12, 31, 23, 59, 0, 0, time.FixedZone("X", -5*3600)))
	require.Equal(t, reward.Day("2027-01-01"), d)

	gap, err := reward.DaysBetween("2026-02-28", "2026-03-01")
	require.NoError(t, err)
	require.Equal(t, 1, gap)

	gap, err = reward.DaysBetween("2026-03-01", "2026-03-06")
	require.NoError(t, err)
	require.Equal(t, 5, gap)

	_, err = reward.DaysBetween("yesterday", "2026-03-06")
	require.Error(t, err)
}

func TestCategory_ClaimDefaults(t *testing.T) {
	require.False(t, reward.CategorySpace.AutoClaimed())
	require.True(t, reward.CategoryFeedback.AutoClaimed())
	require.True(t, reward.CategoryReport.AutoClaimed())
}
