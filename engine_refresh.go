package gatekeeper

import (
	"context"
	"errors"
	"fmt"

	"github.com/contactkit/gatekeeper/internal"
	"github.com/contactkit/gatekeeper/internal/rate"
	"github.com/contactkit/gatekeeper/token"
)

// Refresh rotates a refresh token into a fresh access+refresh pair.
//
// Rotation is single-use: the stored fingerprint hash is swapped for the
// next one with a compare-and-swap, so of N concurrent calls holding the
// same token exactly one wins. Losers get ErrRevoked, and the whole chain
// is cleared on the spot, because a lost race is indistinguishable from a
// replay of a stolen token.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := e.tokens.Decode(refreshToken, token.TypeRefresh)
	if err != nil {
		e.metrics.Inc(MetricRefreshFailure)
		e.emitAudit(ctx, AuditRefresh, "", false, err.Error())
		return TokenPair{}, ErrInvalidCredential
	}
	subject := claims.Subject

	if err := e.limiter.CheckRefresh(ctx, subject); errors.Is(err, rate.ErrRateLimited) {
		e.metrics.Inc(MetricRefreshRateLimited)
		e.emitAudit(ctx, AuditRefresh, subject, false, "rate limited")
		return TokenPair{}, ErrRefreshRateLimited
	}

	next := internal.NewFingerprint()
	err = e.users.RotateRefreshFingerprint(ctx, subject,
		internal.HashFingerprint(claims.Fingerprint), internal.HashFingerprint(next))
	switch {
	case errors.Is(err, ErrFingerprintMismatch):
		_ = e.users.ClearRefreshFingerprint(ctx, subject)
		e.invalidateIdentity(ctx, subject)
		e.metrics.Inc(MetricRefreshRevoked)
		e.emitAudit(ctx, AuditRefreshReuse, subject, false, "fingerprint mismatch")
		return TokenPair{}, ErrRevoked
	case errors.Is(err, ErrUserNotFound):
		e.metrics.Inc(MetricRefreshFailure)
		e.emitAudit(ctx, AuditRefresh, subject, false, "subject no longer exists")
		return TokenPair{}, ErrUnknownSubject
	case err != nil:
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	access, err := e.tokens.IssueAccess(subject)
	if err != nil {
		return TokenPair{}, err
	}
	rotated, err := e.tokens.IssueRefresh(subject, next)
	if err != nil {
		return TokenPair{}, err
	}

	e.invalidateIdentity(ctx, subject)
	e.metrics.Inc(MetricRefreshSuccess)
	e.emitAudit(ctx, AuditRefresh, subject, true, "")
	return TokenPair{AccessToken: access, RefreshToken: rotated}, nil
}
