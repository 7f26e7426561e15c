package api

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacready/bacready-api/internal/domain"
)

func TestExamEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("record derives percentage, grade and adaptation flag", func(t *testing.T) {
		t.Parallel()
		env := newAPIEnv(t)
		subjectID := env.seedSubject(t, "Mathematics", 0)

		rec := env.do(t, http.MethodPost, "/api/exams", env.userID, map[string]any{
			"exam_id":    uuid.New(),
			"subject_id": subjectID,
			"score":      9,
			"max_score":  20,
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		result := decodeBody[domain.ExamResult](t, rec)
		assert.InDelta(t, 45, result.Percentage, 0.001)
		assert.Equal(t, "F", result.Grade)
		assert.True(t, result.TriggeredAdaptation, "below 60 percent must flag adaptation")

		// The subject's performance signal follows the exam.
		assert.InDelta(t, 45, env.subjects.subjects[subjectID].LastScore, 0.001)
	})

	t.Run("a passing score does not flag adaptation", func(t *testing.T) {
		t.Parallel()
		env := newAPIEnv(t)
		subjectID := env.seedSubject(t, "Physics", 0)

		rec := env.do(t, http.MethodPost, "/api/exams", env.userID, map[string]any{
			"exam_id":    uuid.New(),
			"subject_id": subjectID,
			"score":      17,
			"max_score":  20,
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		result := decodeBody[domain.ExamResult](t, rec)
		assert.InDelta(t, 85, result.Percentage, 0.001)
		assert.Equal(t, "B", result.Grade)
		assert.False(t, result.TriggeredAdaptation)
	})

	t.Run("rejects a zero max score", func(t *testing.T) {
		t.Parallel()
		env := newAPIEnv(t)

		rec := env.do(t, http.MethodPost, "/api/exams", env.userID, map[string]any{
			"exam_id":    uuid.New(),
			"subject_id": uuid.New(),
			"score":      10,
			"max_score":  0,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects a score above the maximum", func(t *testing.T) {
		t.Parallel()
		env := newAPIEnv(t)
		subjectID := env.seedSubject(t, "Mathematics", 0)

		rec := env.do(t, http.MethodPost, "/api/exams", env.userID, map[string]any{
			"exam_id":    uuid.New(),
			"subject_id": subjectID,
			"score":      25,
			"max_score":  20,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("history lists newest first and filters by subject", func(t *testing.T) {
		t.Parallel()
		env := newAPIEnv(t)
		mathID := env.seedSubject(t, "Mathematics", 0)
		physicsID := env.seedSubject(t, "Physics", 1)

		for _, entry := range []struct {
			subjectID uuid.UUID
			score     float64
		}{
			{mathID, 10},
			{physicsID, 14},
			{mathID, 16},
		} {
			require.Equal(t, http.StatusCreated,
				env.do(t, http.MethodPost, "/api/exams", env.userID, map[string]any{
					"exam_id":    uuid.New(),
					"subject_id": entry.subjectID,
					"score":      entry.score,
					"max_score":  20,
				}).Code)
		}

		rec := env.do(t, http.MethodGet, "/api/exams", env.userID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		all := decodeBody[[]domain.ExamResult](t, rec)
		require.Len(t, all, 3)
		assert.InDelta(t, 16, all[0].Score, 0.001)

		rec = env.do(t, http.MethodGet, "/api/subjects/"+mathID.String()+"/exams", env.userID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody[[]domain.ExamResult](t, rec), 2)

		rec = env.do(t, http.MethodGet, "/api/exams?limit=1", env.userID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody[[]domain.ExamResult](t, rec), 1)
	})
}
