package audit

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/plumeblog/plume/internal/auth"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context for audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the audit request id from context if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// Trail records security-relevant events: guard allow/deny decisions and
// mutations of authorization policy. Entries are ordinary structured log
// lines tagged type=audit so they can be filtered downstream.
type Trail struct {
	log *zap.SugaredLogger
}

func NewTrail(log *zap.SugaredLogger) *Trail {
	return &Trail{log: log}
}

// Event writes an audit entry enriched with request and user context.
func (t *Trail) Event(ctx context.Context, event string, fields ...any) {
	if t == nil || t.log == nil {
		return
	}
	event = strings.TrimSpace(event)
	if event == "" {
		return
	}
	kv := []any{"type", "audit", "event", event}
	if rid := RequestIDFromContext(ctx); rid != "" {
		kv = append(kv, "request_id", rid)
	}
	if principal, ok := auth.PrincipalFromContext(ctx); ok {
		kv = append(kv, "user_id", principal.UserID)
	}
	kv = append(kv, fields...)
	t.log.Infow(event, kv...)
}
