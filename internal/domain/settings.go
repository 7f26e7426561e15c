package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Settings-specific validation errors
var (
	// ErrSettingsUserIDEmpty is returned when settings have no user ID.
	ErrSettingsUserIDEmpty = errors.New("settings user ID cannot be empty")

	// ErrInvalidEnergyLevel is returned when an energy level is outside 0-10.
	ErrInvalidEnergyLevel = errors.New("energy level must be between 0 and 10")

	// ErrInvalidPriorityWeight is returned when a priority weight is outside 0-100.
	ErrInvalidPriorityWeight = errors.New("priority weight must be between 0 and 100")
)

// defaultDurationMinutes is the session duration used for coefficients with
// no entry in the duration-by-coefficient table.
const defaultDurationMinutes = 60

// EnergyLevels holds the user's self-assessed energy (0-10) per time-of-day
// bucket. The energy profile maps each hour to one of these buckets.
type EnergyLevels struct {
	Morning   int `json:"morning"`   // [05:00, 12:00)
	Afternoon int `json:"afternoon"` // [12:00, 17:00)
	Evening   int `json:"evening"`   // [17:00, 22:00)
	Night     int `json:"night"`     // [22:00, 05:00), wraps past midnight
}

// PomodoroSettings holds the user's pomodoro timer parameters in minutes.
type PomodoroSettings struct {
	WorkMinutes           int `json:"work_minutes"`
	ShortBreakMinutes     int `json:"short_break_minutes"`
	LongBreakMinutes      int `json:"long_break_minutes"`
	CyclesBeforeLongBreak int `json:"cycles_before_long_break"`
}

// PriorityWeights holds the five weights (each 0-100, need not sum to 100)
// applied to the normalized priority signals.
type PriorityWeights struct {
	Coefficient    int `json:"coefficient"`
	ExamProximity  int `json:"exam_proximity"`
	Difficulty     int `json:"difficulty"`
	Inactivity     int `json:"inactivity"`
	PerformanceGap int `json:"performance_gap"`
}

// PrayerTimes holds the start minute (from local midnight) of each of the
// five daily prayers. Each prayer blocks PrayerDurationMinutes when enabled.
type PrayerTimes struct {
	Fajr    int `json:"fajr"`
	Dhuhr   int `json:"dhuhr"`
	Asr     int `json:"asr"`
	Maghrib int `json:"maghrib"`
	Isha    int `json:"isha"`
}

// All returns the prayer start minutes in chronological order.
func (p PrayerTimes) All() []int {
	return []int{p.Fajr, p.Dhuhr, p.Asr, p.Maghrib, p.Isha}
}

// Settings holds a user's configurable study-time and weighting preferences.
// All time-of-day fields are minutes from local midnight.
type Settings struct {
	UserID uuid.UUID `json:"user_id"`

	StudyDays  []time.Weekday `json:"study_days"`
	StudyStart int            `json:"study_start"`
	StudyEnd   int            `json:"study_end"`

	SleepStart int `json:"sleep_start"` // May wrap past midnight
	SleepEnd   int `json:"sleep_end"`

	ExerciseEnabled bool `json:"exercise_enabled"`
	ExerciseStart   int  `json:"exercise_start"`
	ExerciseEnd     int  `json:"exercise_end"`

	Energy   EnergyLevels     `json:"energy"`
	Pomodoro PomodoroSettings `json:"pomodoro"`
	Weights  PriorityWeights  `json:"weights"`

	// DurationByCoefficient maps a subject coefficient (1-7) to the session
	// duration in minutes. Lookups for unmapped coefficients fall back to
	// the declared default of 60 minutes.
	DurationByCoefficient map[int]int `json:"duration_by_coefficient"`

	PrayerTimesEnabled    bool        `json:"prayer_times_enabled"`
	PrayerDurationMinutes int         `json:"prayer_duration_minutes"`
	PrayerTimes           PrayerTimes `json:"prayer_times"`

	MaxSessionsPerSubjectPerDay int `json:"max_sessions_per_subject_per_day"`
	MaxHardSessionsPerDay       int `json:"max_hard_sessions_per_day"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultSettings returns the declared defaults for a user who has never
// configured anything: study every day 08:00-22:00, sleep 23:00-06:00,
// no exercise window, balanced weights, the standard duration ladder.
func DefaultSettings(userID uuid.UUID) *Settings {
	now := time.Now().UTC()
	return &Settings{
		UserID: userID,
		StudyDays: []time.Weekday{
			time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
			time.Thursday, time.Friday, time.Saturday,
		},
		StudyStart: 8 * 60,
		StudyEnd:   22 * 60,
		SleepStart: 23 * 60,
		SleepEnd:   6 * 60,
		Energy: EnergyLevels{
			Morning:   8,
			Afternoon: 6,
			Evening:   7,
			Night:     3,
		},
		Pomodoro: PomodoroSettings{
			WorkMinutes:           25,
			ShortBreakMinutes:     5,
			LongBreakMinutes:      15,
			CyclesBeforeLongBreak: 4,
		},
		Weights: PriorityWeights{
			Coefficient:    30,
			ExamProximity:  25,
			Difficulty:     15,
			Inactivity:     15,
			PerformanceGap: 15,
		},
		DurationByCoefficient: map[int]int{
			1: 30, 2: 40, 3: 50, 4: 60, 5: 75, 6: 80, 7: 90,
		},
		PrayerTimesEnabled:    false,
		PrayerDurationMinutes: 20,
		PrayerTimes: PrayerTimes{
			Fajr:    5 * 60,
			Dhuhr:   12*60 + 30,
			Asr:     15*60 + 30,
			Maghrib: 18 * 60,
			Isha:    19*60 + 30,
		},
		MaxSessionsPerSubjectPerDay: 2,
		MaxHardSessionsPerDay:       3,
		CreatedAt:                   now,
		UpdatedAt:                   now,
	}
}

// DurationForCoefficient resolves the session duration for a subject
// coefficient. Unmapped coefficients always resolve to the 60-minute default.
func (s *Settings) DurationForCoefficient(coefficient int) int {
	if minutes, ok := s.DurationByCoefficient[coefficient]; ok && minutes > 0 {
		return minutes
	}
	return defaultDurationMinutes
}

// IsStudyDay reports whether the given weekday is one of the user's study days.
func (s *Settings) IsStudyDay(day time.Weekday) bool {
	for _, d := range s.StudyDays {
		if d == day {
			return true
		}
	}
	return false
}

// Validate checks if the Settings have valid data.
// Returns an error if any field fails validation.
func (s *Settings) Validate() error {
	if s.UserID == uuid.Nil {
		return ErrSettingsUserIDEmpty
	}

	if err := validTimeOfDay("study_start", s.StudyStart); err != nil {
		return err
	}
	if err := validTimeOfDay("study_end", s.StudyEnd); err != nil {
		return err
	}
	if s.StudyEnd <= s.StudyStart {
		return NewValidationError("study_end", "must be after study start", ErrInvalidTimeRange)
	}

	for _, level := range []int{s.Energy.Morning, s.Energy.Afternoon, s.Energy.Evening, s.Energy.Night} {
		if level < 0 || level > 10 {
			return ErrInvalidEnergyLevel
		}
	}

	for _, weight := range []int{
		s.Weights.Coefficient, s.Weights.ExamProximity, s.Weights.Difficulty,
		s.Weights.Inactivity, s.Weights.PerformanceGap,
	} {
		if weight < 0 || weight > 100 {
			return ErrInvalidPriorityWeight
		}
	}

	if s.Pomodoro.WorkMinutes <= 0 {
		return NewValidationError("pomodoro.work_minutes", "must be positive", ErrValidation)
	}

	if s.PrayerTimesEnabled && s.PrayerDurationMinutes <= 0 {
		return NewValidationError("prayer_duration_minutes", "must be positive when prayer times are enabled", ErrValidation)
	}

	if s.MaxSessionsPerSubjectPerDay <= 0 {
		return NewValidationError("max_sessions_per_subject_per_day", "must be positive", ErrValidation)
	}

	return nil
}

func validTimeOfDay(field string, minute int) error {
	if minute < 0 || minute >= minutesPerDay {
		return NewValidationError(field, "must be a minute of day between 0 and 1439", ErrInvalidTimeRange)
	}
	return nil
}
