// Package audit captures security-relevant auth events. Events always land
// in the structured log; a Kafka publisher can additionally fan them out to
// an external pipeline.
package audit

import (
	"context"
	"log/slog"
	"time"

	"adminauth/pkg/requestcontext"
)

// Category classifies audit events by their primary purpose.
type Category string

const (
	// CategorySecurity covers events relevant to security monitoring:
	// auth failures, lockouts, revocations.
	CategorySecurity Category = "security"
	// CategoryOperations covers routine visibility events: token issuance,
	// successful logins, admin provisioning.
	CategoryOperations Category = "operations"
)

// Event is emitted from domain logic to capture key auth actions. The Reason
// field carries the real internal cause (user_not_found, inactive_account,
// bad_credential) even when the client only ever sees the merged
// "invalid credentials" error.
type Event struct {
	Category Category `json:"category"`
	Action   string   `json:"action"`
	// Username is the account the event is about; Actor is the
	// authenticated admin who caused it, when different.
	Username  string    `json:"username,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Audit event actions.
const (
	EventLoginSucceeded   = "login_succeeded"
	EventLoginFailed      = "login_failed"
	EventLockoutTriggered = "lockout_triggered"
	EventLockoutCleared   = "lockout_cleared"
	EventTokenRevoked     = "token_revoked"
	EventUserCreated      = "user_created"
	EventPasswordChanged  = "password_changed"
	EventUserDeactivated  = "user_deactivated"
)

// Publisher fans audit events out to an external sink. Emit must be safe to
// call concurrently and should not block the request path for long.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// LogEvent records an audit event in the structured log and, when a publisher
// is configured, emits it to the external sink. Publish failures are logged
// and swallowed; audit must never fail the request.
func LogEvent(ctx context.Context, logger *slog.Logger, pub Publisher, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if logger != nil {
		logger.InfoContext(ctx, "audit",
			"category", string(event.Category),
			"action", event.Action,
			"username", event.Username,
			"actor", event.Actor,
			"client_ip", event.ClientIP,
			"reason", event.Reason,
			"request_id", event.RequestID,
		)
	}

	if pub != nil {
		if err := pub.Emit(ctx, event); err != nil && logger != nil {
			logger.WarnContext(ctx, "audit publish failed",
				"action", event.Action,
				"error", err,
			)
		}
	}
}
