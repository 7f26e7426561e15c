// Package scheduling holds the engines that turn ranked subjects and time
// windows into concrete sessions: the generator that fills a date range and
// the adaptation engine that reacts to topic-test scores.
package scheduling

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/bacready/bacready-api/internal/catalog"
	"github.com/bacready/bacready-api/internal/domain"
	"github.com/bacready/bacready-api/internal/domain/energy"
	"github.com/bacready/bacready-api/internal/domain/timewindow"
)

// Generation errors
var (
	// ErrNoSubjects is returned when generation is attempted with no
	// selected subjects.
	ErrNoSubjects = errors.New("schedule generation requires at least one subject")

	// ErrNilSettings is returned when generation is attempted without
	// resolved user settings.
	ErrNilSettings = errors.New("schedule generation requires settings")
)

// languageDailyMinutes is the fixed duration of the short daily session
// scheduled for language-category subjects.
const languageDailyMinutes = 30

// placeholderDayCapLimit bounds the per-day session count in placeholder
// mode regardless of how many subjects are selected.
const placeholderDayCapLimit = 6

// Input carries everything the generator needs for one run. Subjects must
// already be ranked by the priority engine, best first. Content maps each
// subject to its ordered, not-yet-completed study units; subjects absent
// from the map (or mapped to an empty slice) fall back to placeholder
// sessions.
type Input struct {
	ScheduleID uuid.UUID
	Days       []timewindow.DayWindows
	Subjects   []domain.SubjectPriority
	Settings   *domain.Settings
	Content    map[uuid.UUID][]catalog.StudyUnit
}

// Generator allocates study sessions into day windows, rotating through the
// ranked subjects so low-priority subjects are not starved.
type Generator struct {
	logger *slog.Logger
}

// NewGenerator creates a Generator with the given logger.
func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil")
	}
	return &Generator{logger: logger.With(slog.String("component", "session_generator"))}
}

// windowCursor tracks how much of one window has been filled.
type windowCursor struct {
	window timewindow.Window
	cursor int
}

func (c *windowCursor) remaining() int {
	return c.window.End - c.cursor
}

// Generate fills the given days with study sessions and breaks. For each day
// it walks the ranked subject list with a rotating index: the next eligible
// subject gets its next study unit placed into the window whose energy level
// best matches the subject's category. A subject becomes ineligible for the
// day once it hits the per-subject cap; hard-core subjects additionally
// count against the per-day hard cap. Days without windows yield no
// sessions, which is a valid outcome.
func (g *Generator) Generate(in Input) ([]*domain.Session, error) {
	if in.Settings == nil {
		return nil, ErrNilSettings
	}
	if len(in.Subjects) == 0 {
		return nil, ErrNoSubjects
	}
	if in.ScheduleID == uuid.Nil {
		return nil, domain.ErrSessionScheduleIDEmpty
	}

	queues := make(map[uuid.UUID][]catalog.StudyUnit, len(in.Content))
	placeholderMode := true
	for _, subject := range in.Subjects {
		units := in.Content[subject.SubjectID]
		queues[subject.SubjectID] = units
		if len(units) > 0 {
			placeholderMode = false
		}
	}

	dayCap := 0
	if placeholderMode {
		dayCap = 2 * len(in.Subjects)
		if dayCap > placeholderDayCapLimit {
			dayCap = placeholderDayCapLimit
		}
	}

	profile := energy.NewProfile(in.Settings.Energy)

	var sessions []*domain.Session
	for _, day := range in.Days {
		daySessions, err := g.fillDay(in, day, queues, profile, dayCap)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, daySessions...)
	}

	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].Date.Equal(sessions[j].Date) {
			return sessions[i].Date.Before(sessions[j].Date)
		}
		return sessions[i].StartMinute < sessions[j].StartMinute
	})

	g.logger.Info("schedule generated",
		slog.String("schedule_id", in.ScheduleID.String()),
		slog.Int("days", len(in.Days)),
		slog.Int("sessions", len(sessions)),
		slog.Bool("placeholder_mode", placeholderMode))

	return sessions, nil
}

// fillDay allocates sessions for a single day. dayCap of zero means the day
// is bounded only by window capacity and the per-subject caps.
func (g *Generator) fillDay(
	in Input,
	day timewindow.DayWindows,
	queues map[uuid.UUID][]catalog.StudyUnit,
	profile *energy.Profile,
	dayCap int,
) ([]*domain.Session, error) {
	if len(day.Windows) == 0 {
		return nil, nil
	}

	cursors := make([]*windowCursor, len(day.Windows))
	for i, w := range day.Windows {
		cursors[i] = &windowCursor{window: w, cursor: w.Start}
	}

	perSubject := make(map[uuid.UUID]int, len(in.Subjects))
	hardCount := 0
	studyCount := 0
	rot := 0

	var sessions []*domain.Session
	for {
		if dayCap > 0 && studyCount >= dayCap {
			break
		}

		idx, duration, sessionType := g.nextEligible(in, day, cursors, perSubject, hardCount, rot)
		if idx < 0 {
			break
		}
		subject := in.Subjects[idx]

		cursor := g.bestWindow(cursors, subject.Category, duration, profile)
		if cursor == nil {
			break
		}

		var content domain.SessionContent
		if units := queues[subject.SubjectID]; len(units) > 0 {
			unit := units[0]
			queues[subject.SubjectID] = units[1:]
			content = domain.NodeContent(unit.Node.ID, unit.Node.Title)
			// The short language slot keeps its type even for linked content.
			if sessionType != domain.SessionTypeLanguageDaily {
				sessionType = unit.SuggestedType
			}
		} else {
			content = placeholderContent(subject, perSubject[subject.SubjectID])
		}

		start := cursor.cursor
		session, err := domain.NewSession(
			in.ScheduleID, subject.SubjectID, day.Date,
			start, start+duration, sessionType, content,
		)
		if err != nil {
			return nil, fmt.Errorf("building session for subject %s: %w", subject.SubjectID, err)
		}
		session.PlannedPomodoros = PlanPomodoros(duration, in.Settings.Pomodoro)
		sessions = append(sessions, session)
		cursor.cursor += duration

		perSubject[subject.SubjectID]++
		studyCount++
		if subject.Category == domain.CategoryHardCore {
			hardCount++
		}
		rot = (idx + 1) % len(in.Subjects)

		// Slot a short break after the session when another one could
		// still follow in the same window.
		breakMinutes := in.Settings.Pomodoro.ShortBreakMinutes
		if breakMinutes > 0 && cursor.remaining() >= breakMinutes+timewindow.MinUsableMinutes {
			brk, err := domain.NewBreakSession(in.ScheduleID, day.Date, cursor.cursor, cursor.cursor+breakMinutes)
			if err != nil {
				return nil, fmt.Errorf("building break session: %w", err)
			}
			sessions = append(sessions, brk)
			cursor.cursor += breakMinutes
		}
	}

	return sessions, nil
}

// nextEligible scans the ranked subjects starting at the rotation index and
// returns the first subject that still has daily budget and fits some
// window, along with its session duration and type. Returns -1 when no
// subject is eligible.
func (g *Generator) nextEligible(
	in Input,
	day timewindow.DayWindows,
	cursors []*windowCursor,
	perSubject map[uuid.UUID]int,
	hardCount, rot int,
) (int, int, domain.SessionType) {
	n := len(in.Subjects)
	for offset := 0; offset < n; offset++ {
		idx := (rot + offset) % n
		subject := in.Subjects[idx]

		if perSubject[subject.SubjectID] >= in.Settings.MaxSessionsPerSubjectPerDay {
			continue
		}
		if subject.Category == domain.CategoryHardCore &&
			in.Settings.MaxHardSessionsPerDay > 0 &&
			hardCount >= in.Settings.MaxHardSessionsPerDay {
			continue
		}

		duration, sessionType := g.slotFor(in.Settings, subject, perSubject[subject.SubjectID])
		if !fitsAny(cursors, duration) {
			continue
		}
		return idx, duration, sessionType
	}
	return -1, 0, ""
}

// slotFor resolves a subject's session duration and default type. Language
// subjects get a fixed short daily session first; everything else uses the
// coefficient duration ladder.
func (g *Generator) slotFor(settings *domain.Settings, subject domain.SubjectPriority, scheduledToday int) (int, domain.SessionType) {
	if subject.Category == domain.CategoryLanguage && scheduledToday == 0 {
		return languageDailyMinutes, domain.SessionTypeLanguageDaily
	}
	return settings.DurationForCoefficient(subject.Coefficient), domain.SessionTypeLessonReview
}

// bestWindow picks the window that can hold the duration and whose current
// energy level ranks best for the subject's category. Ties go to the
// earliest window.
func (g *Generator) bestWindow(cursors []*windowCursor, category domain.SubjectCategory, duration int, profile *energy.Profile) *windowCursor {
	var best *windowCursor
	bestRank := -1
	for _, c := range cursors {
		if c.remaining() < duration {
			continue
		}
		rank := energy.MatchRank(category, profile.LevelAt(c.cursor/60))
		if best == nil || rank < bestRank {
			best = c
			bestRank = rank
		}
	}
	return best
}

func fitsAny(cursors []*windowCursor, duration int) bool {
	for _, c := range cursors {
		if c.remaining() >= duration {
			return true
		}
	}
	return false
}

// placeholderContent titles a session for a subject with no catalog content,
// alternating between review and practice framing so a subject's consecutive
// placeholder sessions differ.
func placeholderContent(subject domain.SubjectPriority, scheduledToday int) domain.SessionContent {
	if scheduledToday%2 == 0 {
		return domain.PlaceholderContent(fmt.Sprintf("%s: review", subject.Name))
	}
	return domain.PlaceholderContent(fmt.Sprintf("%s: practice", subject.Name))
}
