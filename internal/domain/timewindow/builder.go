package timewindow

import (
	"time"

	"github.com/bacready/bacready-api/internal/domain"
)

// DayWindows holds the ordered, disjoint study windows for one calendar day.
// A day excluded by the user's study days, or fully consumed by subtraction,
// carries an empty Windows slice; that is a valid outcome, not an error.
type DayWindows struct {
	Date    time.Time `json:"date"`
	Windows []Window  `json:"windows"`
}

// TotalMinutes returns the summed duration of the day's windows.
func (d DayWindows) TotalMinutes() int {
	total := 0
	for _, w := range d.Windows {
		total += w.Duration()
	}
	return total
}

// Builder derives available study windows from user settings.
type Builder struct {
	settings *domain.Settings
}

// NewBuilder creates a Builder for the given settings.
func NewBuilder(settings *domain.Settings) *Builder {
	if settings == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("settings cannot be nil")
	}
	return &Builder{settings: settings}
}

// Build returns one DayWindows entry per calendar day in [startDate, endDate]
// (inclusive), in chronological order. For each study day it starts from the
// raw [study_start, study_end) window and subtracts the sleep window, the
// exercise window when enabled, and each prayer block when enabled.
func (b *Builder) Build(startDate, endDate time.Time) []DayWindows {
	start := domain.DateOnly(startDate)
	end := domain.DateOnly(endDate)

	var days []DayWindows
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		days = append(days, DayWindows{
			Date:    date,
			Windows: b.BuildDay(date),
		})
	}
	return days
}

// BuildDay computes the available windows for a single day.
func (b *Builder) BuildDay(date time.Time) []Window {
	if !b.settings.IsStudyDay(date.Weekday()) {
		return nil
	}

	windows := []Window{{Start: b.settings.StudyStart, End: b.settings.StudyEnd}}

	// The sleep window may wrap past midnight (e.g. 23:00-06:00).
	windows = subtractWrapping(windows, b.settings.SleepStart, b.settings.SleepEnd)

	if b.settings.ExerciseEnabled {
		windows = subtract(windows, b.settings.ExerciseStart, b.settings.ExerciseEnd)
	}

	if b.settings.PrayerTimesEnabled {
		for _, prayerStart := range b.settings.PrayerTimes.All() {
			windows = subtract(windows, prayerStart, prayerStart+b.settings.PrayerDurationMinutes)
		}
	}

	return windows
}
