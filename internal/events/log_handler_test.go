package events

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogHandler(t *testing.T) {
	t.Run("logs the event envelope", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewLogHandler(slog.New(slog.NewTextHandler(&buf, nil)))

		event, err := NewEvent(TypeSessionCompleted, SessionCompletedPayload{SessionID: uuid.New()})
		require.NoError(t, err)

		require.NoError(t, handler.HandleEvent(context.Background(), event))
		assert.Contains(t, buf.String(), TypeSessionCompleted)
		assert.Contains(t, buf.String(), event.ID.String())
	})

	t.Run("nil event is an error", func(t *testing.T) {
		handler := NewLogHandler(discardLogger())
		assert.Error(t, handler.HandleEvent(context.Background(), nil))
	})

	t.Run("nil logger panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewLogHandler(nil)
		})
	})
}
