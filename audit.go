package gatekeeper

import (
	"context"
	"time"

	"github.com/contactkit/gatekeeper/internal/audit"
)

// Audit event kinds emitted by the engine.
const (
	AuditLogin          = "login"
	AuditLogout         = "logout"
	AuditAuthenticate   = "authenticate"
	AuditRefresh        = "refresh"
	AuditRefreshReuse   = "refresh_reuse"
	AuditConfirmRequest = "confirm_request"
	AuditConfirm        = "confirm"
	AuditAuthzDenied    = "authz_denied"
)

// AuditEvent is re-exported so sinks can be written against the root
// package alone.
type AuditEvent = audit.Event

// AuditSink re-exports the sink contract for custom consumers.
type AuditSink = audit.Sink

// NewAuditChannelSink returns a sink feeding an in-process channel.
func NewAuditChannelSink(buffer int) *audit.ChannelSink {
	return audit.NewChannelSink(buffer)
}

func (e *Engine) emitAudit(ctx context.Context, kind, subject string, success bool, cause string) {
	if e.auditor == nil {
		return
	}
	e.auditor.Emit(ctx, audit.Event{
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		Subject:   subject,
		IP:        ClientIP(ctx),
		Success:   success,
		Cause:     cause,
	})
}

// AuditDropped reports audit events discarded due to a full buffer.
func (e *Engine) AuditDropped() uint64 {
	return e.auditor.Dropped()
}
