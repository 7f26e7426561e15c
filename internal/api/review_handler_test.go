package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacready/bacready-api/internal/domain"
)

func (e *apiEnv) seedProgress(t *testing.T, nextReviewAt time.Time) *domain.ContentProgress {
	t.Helper()
	progress, err := domain.NewContentProgress(e.userID, uuid.New())
	require.NoError(t, err)
	progress.Understanding = true
	progress.StudyCount = 1
	progress.NextReviewAt = nextReviewAt
	require.NoError(t, e.progress.Upsert(context.Background(), progress))
	return progress
}

func TestReviewEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("due reviews come back most overdue first", func(t *testing.T) {
		t.Parallel()
		env := newAPIEnv(t)
		now := time.Now().UTC()
		oldest := env.seedProgress(t, now.Add(-72*time.Hour))
		env.seedProgress(t, now.Add(-24*time.Hour))
		env.seedProgress(t, now.Add(48*time.Hour)) // not yet due

		rec := env.do(t, http.MethodGet, "/api/reviews/due", env.userID, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		due := decodeBody[[]domain.ContentProgress](t, rec)
		require.Len(t, due, 2)
		assert.Equal(t, oldest.NodeID, due[0].NodeID)
	})

	t.Run("limit caps the due list", func(t *testing.T) {
		t.Parallel()
		env := newAPIEnv(t)
		now := time.Now().UTC()
		env.seedProgress(t, now.Add(-72*time.Hour))
		env.seedProgress(t, now.Add(-24*time.Hour))

		rec := env.do(t, http.MethodGet, "/api/reviews/due?limit=1", env.userID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody[[]domain.ContentProgress](t, rec), 1)
	})

	t.Run("never-reviewed content is not due", func(t *testing.T) {
		t.Parallel()
		env := newAPIEnv(t)
		env.seedProgress(t, time.Time{})

		rec := env.do(t, http.MethodGet, "/api/reviews/due", env.userID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decodeBody[[]domain.ContentProgress](t, rec))
	})

	t.Run("subject progress lists the user's records", func(t *testing.T) {
		t.Parallel()
		env := newAPIEnv(t)
		subjectID := env.seedSubject(t, "Mathematics", 0)
		env.seedProgress(t, time.Now().UTC())

		rec := env.do(t, http.MethodGet, "/api/subjects/"+subjectID.String()+"/progress", env.userID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody[[]domain.ContentProgress](t, rec), 1)
	})
}
