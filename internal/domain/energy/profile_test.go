package energy

import (
	"testing"

	"github.com/bacready/bacready-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestValueAtBuckets(t *testing.T) {
	t.Parallel()

	profile := NewProfile(domain.EnergyLevels{
		Morning:   8,
		Afternoon: 6,
		Evening:   7,
		Night:     2,
	})

	testCases := []struct {
		hour     int
		expected int
	}{
		{4, 2},  // Night ends at 05:00
		{5, 8},  // Morning starts at 05:00
		{11, 8}, // Last morning hour
		{12, 6}, // Afternoon starts at 12:00
		{16, 6}, // Last afternoon hour
		{17, 7}, // Evening starts at 17:00
		{21, 7}, // Last evening hour
		{22, 2}, // Night starts at 22:00
		{23, 2},
		{0, 2}, // Night wraps past midnight
		{3, 2},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, profile.ValueAt(tc.hour), "hour %d", tc.hour)
	}
}

func TestValueAtNormalizesHours(t *testing.T) {
	t.Parallel()

	profile := NewProfile(domain.EnergyLevels{Morning: 9, Afternoon: 5, Evening: 6, Night: 1})

	assert.Equal(t, profile.ValueAt(8), profile.ValueAt(32))
	assert.Equal(t, profile.ValueAt(22), profile.ValueAt(-2))
}

func TestLevelFor(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		value    int
		expected Level
	}{
		{10, LevelHigh},
		{7, LevelHigh},
		{6, LevelMedium},
		{4, LevelMedium},
		{3, LevelLow},
		{0, LevelLow},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, LevelFor(tc.value), "value %d", tc.value)
	}
}

func TestPreferredLevels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []Level{LevelHigh, LevelMedium, LevelLow}, PreferredLevels(domain.CategoryHardCore))
	assert.Equal(t, []Level{LevelMedium, LevelLow, LevelHigh}, PreferredLevels(domain.CategoryMemorization))
	assert.Equal(t, []Level{LevelLow, LevelMedium, LevelHigh}, PreferredLevels(domain.CategoryLanguage))
	assert.Equal(t, []Level{LevelMedium, LevelHigh, LevelLow}, PreferredLevels(domain.CategoryOther))
}

func TestMatchRank(t *testing.T) {
	t.Parallel()

	// Lower rank is a better match.
	assert.Equal(t, 0, MatchRank(domain.CategoryHardCore, LevelHigh))
	assert.Equal(t, 2, MatchRank(domain.CategoryHardCore, LevelLow))
	assert.Equal(t, 0, MatchRank(domain.CategoryLanguage, LevelLow))
	assert.Equal(t, 1, MatchRank(domain.CategoryOther, LevelHigh))
}
