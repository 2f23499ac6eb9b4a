package reward

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// Range is an inclusive amount range.
type Range struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// DefaultProbabilities are the per-category gate probabilities.
func DefaultProbabilities() map[Category]float64 {
	return map[Category]float64{
		CategoryFeedback: 0.3,
		CategorySpace:    0.5,
		CategoryReport:   0.1,
	}
}

// DefaultRanges are the per-category magnitude ranges.
func DefaultRanges() map[Category]Range {
	return map[Category]Range{
		CategoryFeedback: {Min: 1, Max: 10},
		CategorySpace:    {Min: 1, Max: 25},
		CategoryReport:   {Min: 1, Max: 5},
	}
}

// Unit hashes parts with 64-bit FNV-1a and maps the result onto [0,1).
// Parts are joined with "|".
func Unit(parts ...string) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.Join(parts, "|")))
	return float64(h.Sum64()>>11) / (1 << 53)
}

// SeededGate admits a grant when the seeded draw for (user, category, day)
// falls below the category probability. A user cannot re-roll within a day.
type SeededGate struct {
	Probabilities map[Category]float64
	Ranges        map[Category]Range
}

// NewSeededGate returns the gate with default probabilities and ranges.
func NewSeededGate() SeededGate {
	return SeededGate{Probabilities: DefaultProbabilities(), Ranges: DefaultRanges()}
}

func (g SeededGate) Admit(userID string, category Category, day Day) bool {
	p, ok := g.Probabilities[category]
	if !ok {
		return false
	}
	return Unit(userID, string(category), string(day)) < p
}

func (g SeededGate) Magnitude(userID string, category Category, day Day, earned int) int {
	return seededMagnitude(g.Ranges, userID, category, day, earned)
}

// Unconditional skips the gate and draws only the magnitude. It is the
// legacy policy, bounded by the daily cap alone.
type Unconditional struct {
	Ranges map[Category]Range
}

func (Unconditional) Admit(string, Category, Day) bool {
	return true
}

func (u Unconditional) Magnitude(userID string, category Category, day Day, earned int) int {
	return seededMagnitude(u.Ranges, userID, category, day, earned)
}

func seededMagnitude(ranges map[Category]Range, userID string, category Category, day Day, earned int) int {
	r, ok := ranges[category]
	if !ok {
		r = DefaultRanges()[category]
	}
	if r.Max < r.Min {
		r.Max = r.Min
	}
	span := r.Max - r.Min + 1
	n := r.Min + int(Unit(userID, string(category), string(day), strconv.Itoa(earned))*float64(span))
	if n > r.Max {
		n = r.Max
	}
	return n
}
