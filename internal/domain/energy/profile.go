// Package energy maps hours of the day to the user's configured energy
// levels and declares which levels each subject category prefers.
package energy

import (
	"github.com/bacready/bacready-api/internal/domain"
)

// Level is a coarse energy classification derived from the 0-10 value.
type Level string

// Possible energy levels.
const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Bucket thresholds for deriving a Level from a 0-10 value.
const (
	highThreshold   = 7
	mediumThreshold = 4
)

// Profile resolves hour-of-day to an energy value and level using the
// user's per-bucket settings.
type Profile struct {
	levels domain.EnergyLevels
}

// NewProfile creates a Profile from the user's configured energy levels.
func NewProfile(levels domain.EnergyLevels) *Profile {
	return &Profile{levels: levels}
}

// ValueAt returns the 1-10 energy value for the given hour of day.
// Hours outside [0,24) are normalized; the night bucket wraps past midnight.
func (p *Profile) ValueAt(hour int) int {
	hour = ((hour % 24) + 24) % 24
	switch {
	case hour >= 5 && hour < 12:
		return p.levels.Morning
	case hour >= 12 && hour < 17:
		return p.levels.Afternoon
	case hour >= 17 && hour < 22:
		return p.levels.Evening
	default:
		return p.levels.Night
	}
}

// LevelAt returns the coarse energy level for the given hour of day:
// value >= 7 is high, value >= 4 is medium, anything lower is low.
func (p *Profile) LevelAt(hour int) Level {
	return LevelFor(p.ValueAt(hour))
}

// LevelFor classifies a raw energy value.
func LevelFor(value int) Level {
	switch {
	case value >= highThreshold:
		return LevelHigh
	case value >= mediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// PreferredLevels returns the level ordering a subject category prefers,
// best match first. Hard-core subjects want peak energy, memorization works
// best at moderate energy, languages tolerate low-energy slots.
func PreferredLevels(category domain.SubjectCategory) []Level {
	switch category {
	case domain.CategoryHardCore:
		return []Level{LevelHigh, LevelMedium, LevelLow}
	case domain.CategoryMemorization:
		return []Level{LevelMedium, LevelLow, LevelHigh}
	case domain.CategoryLanguage:
		return []Level{LevelLow, LevelMedium, LevelHigh}
	default:
		return []Level{LevelMedium, LevelHigh, LevelLow}
	}
}

// MatchRank returns the position of the given level in the category's
// preference order: 0 is the best match. Unknown levels rank last.
func MatchRank(category domain.SubjectCategory, level Level) int {
	for i, preferred := range PreferredLevels(category) {
		if preferred == level {
			return i
		}
	}
	return len(PreferredLevels(category))
}
