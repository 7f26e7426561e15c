package scheduling

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bacready/bacready-api/internal/domain"
)

// Adaptation errors
var (
	// ErrNotTopicTest is returned when adaptation is requested for a
	// session that is not a topic test.
	ErrNotTopicTest = errors.New("adaptation requires a topic test session")

	// ErrNoScore is returned when adaptation is requested without a score.
	ErrNoScore = errors.New("adaptation requires a topic test score")
)

// Score thresholds for the adaptation tiers.
const (
	masteredThreshold      = 80.0
	reinforcementThreshold = 60.0
)

// reviewMinutes is the duration of adaptation-inserted review sessions.
const reviewMinutes = 30

// insertGapMinutes separates an inserted session from the slot it is
// anchored to when both land on the same day.
const insertGapMinutes = 10

// AdaptationOutcome names the tier a topic-test score fell into.
type AdaptationOutcome string

// Possible adaptation outcomes.
const (
	OutcomeInsufficientMastery AdaptationOutcome = "insufficient_mastery"
	OutcomeNeedsReinforcement  AdaptationOutcome = "needs_reinforcement"
	OutcomeMastered            AdaptationOutcome = "mastered"
)

// AdaptationResult summarizes what adaptation did, in a shape the client
// can surface directly to the user.
type AdaptationResult struct {
	Triggered     bool              `json:"triggered"`
	Type          AdaptationOutcome `json:"type"`
	Score         float64           `json:"score"`
	SessionsAdded int               `json:"sessions_added"`
	Message       string            `json:"message"`
}

// User-facing adaptation messages.
const (
	msgInsufficientMastery = "Score below 60%. Two practice sessions, a retest in three days and a review tomorrow were added to your schedule."
	msgNeedsReinforcement  = "Score below 80%. A practice session tomorrow and a review in three days were added to your schedule."
	msgMastered            = "Topic mastered. No extra sessions needed."
)

// Adapter inserts remedial sessions after a topic test based on its score.
type Adapter struct {
	logger *slog.Logger
}

// NewAdapter creates an Adapter with the given logger.
func NewAdapter(logger *slog.Logger) *Adapter {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil")
	}
	return &Adapter{logger: logger.With(slog.String("component", "adaptation"))}
}

// React maps a completed topic test's score to an adaptation tier and
// builds the sessions that tier inserts:
//
//	score < 60: two exercises sessions (next day and the day after), a
//	  retest of the same content three days out, and a review the next day
//	60 <= score < 80: one exercises session the next day and one review
//	  three days out
//	score >= 80: nothing
//
// Inserted sessions reuse the test's subject and content, anchor to its
// time slot, and carry the test's ID as their origin. Insertions that would
// land past endDate are pulled back onto the schedule's last day so the
// schedule's date range stays intact. The returned sessions are not
// persisted; the caller owns that.
func (a *Adapter) React(test *domain.Session, score float64, settings *domain.Settings, endDate time.Time) (*AdaptationResult, []*domain.Session, error) {
	if test == nil {
		return nil, nil, ErrNotTopicTest
	}
	if test.Type != domain.SessionTypeTopicTest {
		return nil, nil, fmt.Errorf("%w: got %s", ErrNotTopicTest, test.Type)
	}
	if score < 0 {
		return nil, nil, ErrNoScore
	}
	if score > 100 {
		score = 100
	}
	if settings == nil {
		return nil, nil, ErrNilSettings
	}

	switch {
	case score >= masteredThreshold:
		return &AdaptationResult{
			Triggered: false,
			Type:      OutcomeMastered,
			Score:     score,
			Message:   msgMastered,
		}, nil, nil

	case score >= reinforcementThreshold:
		sessions, err := a.buildInsertions(test, settings, endDate, []insertion{
			{daysOut: 1, sessionType: domain.SessionTypeExercises, duration: test.Duration},
			{daysOut: 3, sessionType: domain.SessionTypeSpacedReview, duration: reviewMinutes},
		})
		if err != nil {
			return nil, nil, err
		}
		return &AdaptationResult{
			Triggered:     true,
			Type:          OutcomeNeedsReinforcement,
			Score:         score,
			SessionsAdded: len(sessions),
			Message:       msgNeedsReinforcement,
		}, sessions, nil

	default:
		sessions, err := a.buildInsertions(test, settings, endDate, []insertion{
			{daysOut: 1, sessionType: domain.SessionTypeExercises, duration: test.Duration},
			{daysOut: 2, sessionType: domain.SessionTypeExercises, duration: test.Duration},
			{daysOut: 3, sessionType: domain.SessionTypeTopicTest, duration: test.Duration},
			{daysOut: 1, sessionType: domain.SessionTypeSpacedReview, duration: reviewMinutes},
		})
		if err != nil {
			return nil, nil, err
		}
		result := &AdaptationResult{
			Triggered:     true,
			Type:          OutcomeInsufficientMastery,
			Score:         score,
			SessionsAdded: len(sessions),
			Message:       msgInsufficientMastery,
		}
		a.logger.Info("adaptation triggered",
			slog.String("session_id", test.ID.String()),
			slog.Float64("score", score),
			slog.Int("sessions_added", len(sessions)))
		return result, sessions, nil
	}
}

// insertion describes one remedial session to build relative to the test.
type insertion struct {
	daysOut     int
	sessionType domain.SessionType
	duration    int
}

// buildInsertions materializes the remedial sessions. Days past endDate
// collapse onto the schedule's last day. Sessions landing on a day that
// already carries an insertion at the test's slot are pushed to the slot
// right after it, falling back to the slot before when the day's end would
// be overrun.
func (a *Adapter) buildInsertions(test *domain.Session, settings *domain.Settings, endDate time.Time, plan []insertion) ([]*domain.Session, error) {
	maxOut := daysUntil(test.Date, endDate)
	// The test itself occupies its slot, so same-day insertions start one
	// slot later.
	used := map[int]int{0: 1} // daysOut -> sessions already anchored there
	sessions := make([]*domain.Session, 0, len(plan))

	for _, ins := range plan {
		daysOut := ins.daysOut
		if daysOut > maxOut {
			daysOut = maxOut
		}
		date := test.Date.AddDate(0, 0, daysOut)
		start, end := anchorSlot(test, ins.duration, used[daysOut])
		used[daysOut]++

		session, err := domain.NewSession(
			test.ScheduleID, test.SubjectID, date,
			start, end, ins.sessionType, test.Content,
		)
		if err != nil {
			return nil, fmt.Errorf("building %s insertion: %w", ins.sessionType, err)
		}
		session.OriginTopicTestID = test.ID
		session.PlannedPomodoros = PlanPomodoros(ins.duration, settings.Pomodoro)
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// daysUntil counts whole days from one normalized date to another, clamping
// at zero when the end does not lie after the start.
func daysUntil(from, to time.Time) int {
	days := int(to.Sub(from).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// anchorSlot derives an inserted session's time slot from the test's slot.
// The nth session on the same day shifts forward past the previous ones;
// slots that would run past midnight flip to before the test's slot instead.
func anchorSlot(test *domain.Session, duration, nthOnDay int) (int, int) {
	start := test.StartMinute
	for i := 0; i < nthOnDay; i++ {
		start += test.Duration + insertGapMinutes
	}
	if start+duration > minutesPerDay {
		start = test.StartMinute - insertGapMinutes - duration
		if start < 0 {
			start = 0
		}
	}
	return start, start + duration
}

// minutesPerDay is the number of minutes in a calendar day.
const minutesPerDay = 24 * 60
