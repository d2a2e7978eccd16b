package gatekeeper

import (
	"errors"

	"github.com/contactkit/gatekeeper/contactcache"
)

var (
	// ErrMissingCredential means no bearer token was presented.
	ErrMissingCredential = errors.New("missing credential")
	// ErrInvalidCredential means the presented token failed verification.
	// Signature, expiry, type, and malformation failures all collapse here;
	// the audit trail keeps the distinction.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrUnknownSubject means the token verified but its subject no longer
	// resolves to an identity.
	ErrUnknownSubject = errors.New("unknown subject")
	// ErrRevoked means a refresh token lost the rotation race or was
	// replayed after use.
	ErrRevoked = errors.New("refresh token revoked")
	// ErrForbidden means the identity is authenticated but its role does
	// not permit the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidLogin means the email+password pair did not check out.
	// Unknown accounts and wrong passwords are indistinguishable to callers.
	ErrInvalidLogin = errors.New("invalid email or password")
	// ErrAccountUnconfirmed blocks login until the address is confirmed.
	ErrAccountUnconfirmed = errors.New("account email not confirmed")
	// ErrLoginRateLimited is an exhausted login attempt budget.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrRefreshRateLimited is an exhausted refresh attempt budget.
	ErrRefreshRateLimited = errors.New("refresh rate limited")
	// ErrConfirmInvalid means the email confirmation token failed
	// verification.
	ErrConfirmInvalid = errors.New("email confirmation invalid")

	// ErrUserNotFound is returned by UserProvider implementations for
	// absent accounts. The engine never lets it reach login callers.
	ErrUserNotFound = errors.New("user not found")
	// ErrFingerprintMismatch is returned by UserProvider implementations
	// when a rotation compare-and-swap finds a different stored hash.
	ErrFingerprintMismatch = errors.New("refresh fingerprint mismatch")
	// ErrContactNotFound is returned by ContactStore implementations for
	// absent or foreign-owned contacts.
	ErrContactNotFound = errors.New("contact not found")
	// ErrStoreUnavailable wraps primary store transport failures.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrNotConfigured means the engine was built without the collaborator
	// the operation needs.
	ErrNotConfigured = errors.New("engine collaborator not configured")
)

// ErrCacheUnavailable is the cache degradation signal. Reads swallow it;
// write-path invalidation surfaces it.
var ErrCacheUnavailable = contactcache.ErrUnavailable
