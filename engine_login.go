package gatekeeper

import (
	"context"
	"errors"
	"fmt"

	"github.com/contactkit/gatekeeper/internal"
	"github.com/contactkit/gatekeeper/internal/rate"
)

// PasswordUpgrader is an optional UserProvider extension. When the
// provider implements it and UpgradeOnLogin is set, hashes produced with
// weaker cost parameters are transparently re-derived on successful login.
type PasswordUpgrader interface {
	UpdatePasswordHash(ctx context.Context, email, passwordHash string) error
}

// Login verifies an email+password pair and starts a fresh token chain.
//
// Unknown accounts and wrong passwords both return ErrInvalidLogin;
// neither the error nor its timing distinguishes the two cases, since the
// hash comparison runs against a stored hash either way only when the
// account exists, and the limiter burns an attempt in both.
func (e *Engine) Login(ctx context.Context, email, pass string) (TokenPair, error) {
	ip := ClientIP(ctx)

	if err := e.limiter.CheckLogin(ctx, email, ip); errors.Is(err, rate.ErrRateLimited) {
		e.metrics.Inc(MetricLoginRateLimited)
		e.emitAudit(ctx, AuditLogin, email, false, "rate limited")
		return TokenPair{}, ErrLoginRateLimited
	}

	identity, err := e.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return TokenPair{}, e.loginFailure(ctx, email, ip, "unknown account")
		}
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !e.hasher.Verify(pass, identity.PasswordHash) {
		return TokenPair{}, e.loginFailure(ctx, email, ip, "password mismatch")
	}

	if !identity.Confirmed {
		e.metrics.Inc(MetricLoginFailure)
		e.emitAudit(ctx, AuditLogin, email, false, "email unconfirmed")
		return TokenPair{}, ErrAccountUnconfirmed
	}

	e.maybeUpgradeHash(ctx, identity, pass)

	pair, err := e.IssuePair(ctx, identity)
	if err != nil {
		return TokenPair{}, err
	}

	_ = e.limiter.ResetLogin(ctx, email, ip)
	e.invalidateIdentity(ctx, email)
	e.metrics.Inc(MetricLoginSuccess)
	e.emitAudit(ctx, AuditLogin, email, true, "")
	return pair, nil
}

func (e *Engine) loginFailure(ctx context.Context, email, ip, cause string) error {
	e.metrics.Inc(MetricLoginFailure)
	e.emitAudit(ctx, AuditLogin, email, false, cause)

	if err := e.limiter.RecordLoginFailure(ctx, email, ip); errors.Is(err, rate.ErrRateLimited) {
		e.metrics.Inc(MetricLoginRateLimited)
		return ErrLoginRateLimited
	}
	return ErrInvalidLogin
}

func (e *Engine) maybeUpgradeHash(ctx context.Context, identity Identity, pass string) {
	if !e.cfg.Password.UpgradeOnLogin || !e.hasher.NeedsUpgrade(identity.PasswordHash) {
		return
	}
	upgrader, ok := e.users.(PasswordUpgrader)
	if !ok {
		return
	}
	rehashed, err := e.hasher.Hash(pass)
	if err != nil {
		return
	}
	// Best effort. The old hash keeps working if this write is lost.
	_ = upgrader.UpdatePasswordHash(ctx, identity.Email, rehashed)
}

// IssuePair mints an access+refresh pair for identity and installs the
// new refresh fingerprint, replacing any live chain.
func (e *Engine) IssuePair(ctx context.Context, identity Identity) (TokenPair, error) {
	fingerprint := internal.NewFingerprint()

	access, err := e.tokens.IssueAccess(identity.Email)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := e.tokens.IssueRefresh(identity.Email, fingerprint)
	if err != nil {
		return TokenPair{}, err
	}

	if err := e.users.SetRefreshFingerprint(ctx, identity.Email, internal.HashFingerprint(fingerprint)); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return TokenPair{}, ErrUnknownSubject
		}
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Logout kills the subject's refresh chain. Outstanding access tokens
// stay valid until they expire.
func (e *Engine) Logout(ctx context.Context, email string) error {
	if err := e.users.ClearRefreshFingerprint(ctx, email); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUnknownSubject
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.invalidateIdentity(ctx, email)
	e.metrics.Inc(MetricLogout)
	e.emitAudit(ctx, AuditLogout, email, true, "")
	return nil
}
