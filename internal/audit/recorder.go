package audit

import (
	"context"
	"encoding/json"
	"time"

	"wakil.app/internal/auth"
	"wakil.app/internal/obs"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context so recorded
// entries can be correlated with request logs.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// Recorder appends audit entries as a post-operation side effect. A failed
// write never propagates to the caller: it is logged and counted in the
// audit_write_failures_total metric instead.
type Recorder struct {
	store Store
}

// NewRecorder wraps a store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record appends one entry. The actor is taken from the request context; the
// explicit userID argument wins when the context carries none (signup and
// login run before authentication).
func (r *Recorder) Record(ctx context.Context, userID string, action Action, resourceType, resourceID string, details map[string]any) {
	if r == nil || r.store == nil {
		return
	}
	if actor, ok := auth.UserIDFromContext(ctx); ok {
		userID = actor
	}
	entry := &Entry{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		OccurredAt:   time.Now().UTC(),
	}
	if err := r.store.Append(ctx, entry); err != nil {
		obs.CountAuditFailure()
		obs.LogRequest(map[string]any{
			"ts":    time.Now().UTC().Format(time.RFC3339Nano),
			"level": "error",
			"msg":   "audit_write_failed",
			"error": err.Error(),
		})
		return
	}
	r.logEntry(ctx, entry)
}

// logEntry mirrors the persisted entry as a structured JSON log line.
func (r *Recorder) logEntry(ctx context.Context, entry *Entry) {
	line := map[string]any{
		"ts":            entry.OccurredAt.Format(time.RFC3339Nano),
		"type":          "audit",
		"action":        entry.Action,
		"resource_type": entry.ResourceType,
		"resource_id":   entry.ResourceID,
	}
	if entry.UserID != "" {
		line["user_id"] = entry.UserID
	}
	if rid := requestIDFromContext(ctx); rid != "" {
		line["request_id"] = rid
	}
	if len(entry.Details) > 0 {
		if _, err := json.Marshal(entry.Details); err == nil {
			line["details"] = entry.Details
		}
	}
	obs.LogRequest(line)
}
