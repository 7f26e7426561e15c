package priority

import (
	"time"

	"github.com/bacready/bacready-api/internal/domain"
)

// signalScale is the common range ceiling every signal is normalized to
// before weighting.
const signalScale = 10.0

// inactivityCapDays caps the inactivity signal: anything beyond 30 days of
// not studying a subject counts as maximally stale.
const inactivityCapDays = 30

// coefficientSignal normalizes the 1-7 academic coefficient to [0,10].
func coefficientSignal(coefficient int) float64 {
	if coefficient < 1 {
		coefficient = 1
	}
	if coefficient > 7 {
		coefficient = 7
	}
	return float64(coefficient) / 7 * signalScale
}

// examProximitySignal scores how close the subject's exam is. Subjects with
// no known exam date score zero; an exam within a week scores the maximum.
func examProximitySignal(examAt, now time.Time) float64 {
	if examAt.IsZero() {
		return 0
	}

	days := examAt.Sub(now).Hours() / 24
	switch {
	case days <= 7:
		return 10
	case days <= 14:
		return 7.5
	case days <= 30:
		return 5
	case days <= 60:
		return 2.5
	default:
		return 1
	}
}

// difficultySignal passes the 1-10 difficulty through, clamped.
func difficultySignal(difficulty int) float64 {
	if difficulty < 1 {
		difficulty = 1
	}
	if difficulty > 10 {
		difficulty = 10
	}
	return float64(difficulty)
}

// inactivitySignal scores how long the subject has gone unstudied, capped at
// 30 days. A subject never studied scores the maximum.
func inactivitySignal(lastStudiedAt, now time.Time) float64 {
	if lastStudiedAt.IsZero() {
		return signalScale
	}

	days := now.Sub(lastStudiedAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	if days > inactivityCapDays {
		days = inactivityCapDays
	}
	return days / inactivityCapDays * signalScale
}

// performanceGapSignal scores the distance between the last recorded score
// and a perfect one. Subjects with no recorded score sit at the midpoint.
func performanceGapSignal(lastScore float64) float64 {
	if lastScore < 0 {
		return signalScale / 2
	}
	if lastScore > 100 {
		lastScore = 100
	}
	return (100 - lastScore) / 100 * signalScale
}

// favoriteBonus is the flat addition applied to a favorite subject's final
// score, enough to break near-ties without overriding the weighted signals.
const favoriteBonus = 0.5

// score computes the weighted priority score for one subject. Each signal is
// normalized to [0,10], weighted, and the sum is divided by the total weight
// so the result stays on the signal scale regardless of how the weights sum.
func score(subject domain.SubjectPriority, weights domain.PriorityWeights, now time.Time) float64 {
	wc := float64(weights.Coefficient)
	we := float64(weights.ExamProximity)
	wd := float64(weights.Difficulty)
	wi := float64(weights.Inactivity)
	wp := float64(weights.PerformanceGap)

	total := wc + we + wd + wi + wp
	if total == 0 {
		// All-zero weights degrade to an equal-weight average.
		wc, we, wd, wi, wp = 1, 1, 1, 1, 1
		total = 5
	}

	weighted := wc*coefficientSignal(subject.Coefficient) +
		we*examProximitySignal(subject.ExamAt, now) +
		wd*difficultySignal(subject.Difficulty) +
		wi*inactivitySignal(subject.LastStudiedAt, now) +
		wp*performanceGapSignal(subject.LastScore)

	result := weighted / total
	if subject.Favorite {
		result += favoriteBonus
	}
	return result
}
