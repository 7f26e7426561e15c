package scheduling

import (
	"math"

	"github.com/bacready/bacready-api/internal/domain"
)

// PlanPomodoros returns how many pomodoro work cycles fit a session of the
// given duration, rounding to the nearest whole cycle. Every study session
// plans at least one cycle.
func PlanPomodoros(durationMinutes int, settings domain.PomodoroSettings) int {
	if settings.WorkMinutes <= 0 {
		return 1
	}
	cycles := int(math.Round(float64(durationMinutes) / float64(settings.WorkMinutes)))
	if cycles < 1 {
		return 1
	}
	return cycles
}
