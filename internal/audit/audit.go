package audit

import (
	"context"
	"log/slog"
	"time"
)

// Actions
const (
	ActionLogin          = "login"
	ActionLoginFailed    = "login_failed"
	ActionLogout         = "logout"
	ActionCreateRequest  = "create_request"
	ActionSubmitRequest  = "submit_request"
	ActionApproveRequest = "approve_request"
	ActionRejectRequest  = "reject_request"
	ActionRedecide       = "redecide_request"
	ActionExport         = "export_requests"
)

// Logger writes audit records to the service log. Nothing is persisted.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

type requestIDKey struct{}

// WithRequestID attaches a request id picked up by later audit records.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func (al *Logger) LogAction(ctx context.Context, userID, action, resource, resourceID, status, details string) {
	if al == nil || al.logger == nil {
		return
	}
	requestID, _ := ctx.Value(requestIDKey{}).(string)

	al.logger.LogAttrs(ctx, slog.LevelInfo, "audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", requestID),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogRequest(ctx context.Context, userID, action, requestID, status, details string) {
	al.LogAction(ctx, userID, action, "deal_request", requestID, status, details)
}

func (al *Logger) LogAuth(ctx context.Context, userID, action, status, details string) {
	al.LogAction(ctx, userID, action, "session", "", status, details)
}
