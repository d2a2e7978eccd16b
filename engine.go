package gatekeeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/contactkit/gatekeeper/contactcache"
	"github.com/contactkit/gatekeeper/token"
)

// Authenticate resolves a bearer credential to an identity.
//
// An absent credential returns ErrMissingCredential. Any verification
// failure (bad signature, expiry, wrong token type, malformed input)
// collapses to ErrInvalidCredential; the audit event carries the precise
// cause. A verified token whose subject no longer exists returns
// ErrUnknownSubject.
func (e *Engine) Authenticate(ctx context.Context, bearer string) (Identity, error) {
	start := time.Now()
	defer func() {
		e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
	}()

	if bearer == "" {
		e.metrics.Inc(MetricAuthenticateFailure)
		e.emitAudit(ctx, AuditAuthenticate, "", false, "missing credential")
		return Identity{}, ErrMissingCredential
	}

	raw := strings.TrimPrefix(bearer, "Bearer ")
	claims, err := e.tokens.Decode(raw, token.TypeAccess)
	if err != nil {
		e.metrics.Inc(MetricAuthenticateFailure)
		e.emitAudit(ctx, AuditAuthenticate, "", false, err.Error())
		return Identity{}, ErrInvalidCredential
	}

	identity, err := e.lookupIdentity(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metrics.Inc(MetricAuthenticateFailure)
			e.emitAudit(ctx, AuditAuthenticate, claims.Subject, false, "subject no longer exists")
			return Identity{}, ErrUnknownSubject
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metrics.Inc(MetricAuthenticateSuccess)
	e.emitAudit(ctx, AuditAuthenticate, identity.Email, true, "")
	return identity, nil
}

// Require gates op on the engine's policy. Denials are audited and
// return ErrForbidden.
func (e *Engine) Require(ctx context.Context, identity Identity, op Operation) error {
	if e.policy.Allows(op, identity.Role) {
		return nil
	}
	e.metrics.Inc(MetricAuthzDenied)
	e.emitAudit(ctx, AuditAuthzDenied, identity.Email, false, string(op))
	return ErrForbidden
}

// lookupIdentity serves identity records through the Redis read-through
// cache, falling back to the provider when the cache is degraded or the
// cached bytes fail to decode.
func (e *Engine) lookupIdentity(ctx context.Context, email string) (Identity, error) {
	var loaded Identity
	raw, outcome, err := e.identityCache.ReadThrough(ctx, email, contactcache.IdentityKey(),
		func(ctx context.Context) ([]byte, error) {
			identity, err := e.users.GetUserByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			loaded = identity
			return json.Marshal(identity)
		})
	e.recordCacheOutcome(outcome)
	if err != nil {
		return Identity{}, err
	}

	if outcome == contactcache.OutcomeHit {
		if err := json.Unmarshal(raw, &loaded); err != nil {
			// Poisoned entry. Serve from the provider and let the TTL
			// reap the bad bytes.
			return e.users.GetUserByEmail(ctx, email)
		}
	}
	return loaded, nil
}

// invalidateIdentity drops the cached identity record. Best effort:
// identity staleness is bounded by the identity TTL, so a failed drop
// only degrades, it never blocks the flow that triggered it.
func (e *Engine) invalidateIdentity(ctx context.Context, email string) {
	if e.identityCache == nil {
		return
	}
	if err := e.identityCache.InvalidateOwner(ctx, email); err != nil {
		e.metrics.Inc(MetricCacheDegraded)
		return
	}
	e.metrics.Inc(MetricCacheInvalidation)
}

func (e *Engine) recordCacheOutcome(outcome contactcache.Outcome) {
	switch outcome {
	case contactcache.OutcomeHit:
		e.metrics.Inc(MetricCacheHit)
	case contactcache.OutcomeMiss:
		e.metrics.Inc(MetricCacheMiss)
	case contactcache.OutcomeDegraded:
		e.metrics.Inc(MetricCacheDegraded)
	}
}
