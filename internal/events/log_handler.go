package events

import (
	"context"
	"errors"
	"log/slog"
)

// LogHandler is an EventHandler that writes every event to the structured
// log. It stands in as the default subscriber until a notification surface
// exists, so lifecycle events are observable in production.
type LogHandler struct {
	logger *slog.Logger
}

// NewLogHandler creates a LogHandler writing through the given logger.
func NewLogHandler(logger *slog.Logger) *LogHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil")
	}
	return &LogHandler{logger: logger.With("component", "event_log_handler")}
}

// Ensure LogHandler implements EventHandler
var _ EventHandler = (*LogHandler)(nil)

// HandleEvent logs the event's envelope fields at info level.
func (h *LogHandler) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}
	h.logger.InfoContext(ctx, "event received",
		"event_id", event.ID,
		"event_type", event.Type,
		"created_at", event.CreatedAt)
	return nil
}
