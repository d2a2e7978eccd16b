package gatekeeper

import (
	"context"
	"errors"
	"fmt"

	"github.com/contactkit/gatekeeper/token"
)

// IssueConfirmToken mints an email confirmation token for the account.
// The caller owns delivery; the engine never sends mail.
func (e *Engine) IssueConfirmToken(ctx context.Context, email string) (string, error) {
	if _, err := e.users.GetUserByEmail(ctx, email); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	confirm, err := e.tokens.IssueEmailConfirm(email)
	if err != nil {
		return "", err
	}

	e.metrics.Inc(MetricConfirmRequest)
	e.emitAudit(ctx, AuditConfirmRequest, email, true, "")
	return confirm, nil
}

// ConfirmEmail marks the token's subject as confirmed. Idempotent:
// confirming an already-confirmed account succeeds without touching the
// store again, so a re-clicked link never errors.
func (e *Engine) ConfirmEmail(ctx context.Context, confirmToken string) (Identity, error) {
	claims, err := e.tokens.Decode(confirmToken, token.TypeEmailConfirm)
	if err != nil {
		e.metrics.Inc(MetricConfirmFailure)
		e.emitAudit(ctx, AuditConfirm, "", false, err.Error())
		return Identity{}, ErrConfirmInvalid
	}
	email := claims.Subject

	identity, err := e.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metrics.Inc(MetricConfirmFailure)
			e.emitAudit(ctx, AuditConfirm, email, false, "subject no longer exists")
			return Identity{}, ErrUnknownSubject
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if identity.Confirmed {
		e.metrics.Inc(MetricConfirmSuccess)
		e.emitAudit(ctx, AuditConfirm, email, true, "already confirmed")
		return identity, nil
	}

	if err := e.users.MarkConfirmed(ctx, email); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Identity{}, ErrUnknownSubject
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	identity.Confirmed = true
	e.invalidateIdentity(ctx, email)
	e.metrics.Inc(MetricConfirmSuccess)
	e.emitAudit(ctx, AuditConfirm, email, true, "")
	return identity, nil
}
