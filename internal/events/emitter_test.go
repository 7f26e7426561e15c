package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	events []*Event
	err    error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *Event) error {
	h.events = append(h.events, event)
	return h.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInMemoryEventEmitter(t *testing.T) {
	t.Run("emit event with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(discardLogger())
		event, err := NewEvent(TypeSessionCompleted, SessionCompletedPayload{SessionID: uuid.New()})
		require.NoError(t, err)

		assert.NoError(t, emitter.EmitEvent(context.Background(), event))
	})

	t.Run("all handlers receive the event", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(discardLogger())
		first := &recordingHandler{}
		second := &recordingHandler{}
		emitter.RegisterHandler(first)
		emitter.RegisterHandler(second)

		event, err := NewEvent(TypeSessionCompleted, SessionCompletedPayload{SessionID: uuid.New()})
		require.NoError(t, err)

		require.NoError(t, emitter.EmitEvent(context.Background(), event))
		assert.Len(t, first.events, 1)
		assert.Len(t, second.events, 1)
	})

	t.Run("handler error does not stop delivery", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(discardLogger())
		failing := &recordingHandler{err: errors.New("handler broke")}
		healthy := &recordingHandler{}
		emitter.RegisterHandler(failing)
		emitter.RegisterHandler(healthy)

		event, err := NewEvent(TypeSessionSkipped, SessionCompletedPayload{SessionID: uuid.New()})
		require.NoError(t, err)

		err = emitter.EmitEvent(context.Background(), event)
		assert.Error(t, err)
		assert.Len(t, healthy.events, 1, "later handlers still run after a failure")
	})
}

func TestEventPayloadRoundTrip(t *testing.T) {
	payload := SessionCompletedPayload{
		SessionID:    uuid.New(),
		ScheduleID:   uuid.New(),
		UserID:       uuid.New(),
		SessionType:  "topic_test",
		Score:        72.5,
		PointsEarned: 21,
	}

	event, err := NewEvent(TypeSessionCompleted, payload)
	require.NoError(t, err)
	assert.Equal(t, TypeSessionCompleted, event.Type)
	assert.NotEqual(t, uuid.Nil, event.ID)

	var decoded SessionCompletedPayload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload.SessionID, decoded.SessionID)
	assert.Equal(t, payload.Score, decoded.Score)
	assert.Equal(t, payload.PointsEarned, decoded.PointsEarned)
}
