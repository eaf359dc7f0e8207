package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/rental-portal/internal/events"
)

// StartAuditWorker registers a handler that writes every portal event to the audit log.
func StartAuditWorker(dispatcher events.Dispatcher, logger *zap.Logger) {
	if dispatcher == nil || logger == nil {
		return
	}
	audit := logger.Named("audit")
	handler := func(_ context.Context, e events.Event) error {
		fields := []zap.Field{
			zap.String("event_id", e.ID),
			zap.String("event", string(e.Type)),
			zap.Time("at", e.Timestamp),
		}
		if e.SessionID != "" {
			fields = append(fields, zap.String("session_id", e.SessionID))
		}
		if e.Actor.Email != "" {
			fields = append(fields, zap.Int64("user_id", e.Actor.UserID), zap.String("user_type", string(e.Actor.Type)))
		}
		if e.Payload != nil {
			fields = append(fields, zap.Any("payload", e.Payload))
		}
		audit.Info("portal event", fields...)
		return nil
	}
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, handler)
	}
}

// StartSessionCleanup registers release as the handler for ended sessions.
func StartSessionCleanup(dispatcher events.Dispatcher, release events.EventHandler) {
	if dispatcher == nil || release == nil {
		return
	}
	dispatcher.Subscribe(events.EventSessionSignedOut, release)
}
