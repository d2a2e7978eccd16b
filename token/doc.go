// Package token issues and verifies the signed, expiring tokens used by
// gatekeeper: short-lived access tokens, longer-lived refresh tokens, and
// email-confirmation tokens.
//
// # Design
//
// Every token is an HS256 JWT carrying a scope claim that pins its type.
// Decode requires the caller to state the expected type; a valid token of
// another type fails with [ErrWrongType] so cross-type confusion (an access
// token presented as a refresh token, or vice versa) is structurally
// impossible. Refresh tokens additionally embed the rotation fingerprint
// that the Engine compares against the identity's stored fingerprint.
//
// # Architecture boundaries
//
// This package owns signing and claim validation only. It never touches the
// user store, the cache, or Redis, and holds no mutable state: an [Engine]
// is safe for concurrent use once constructed.
package token
