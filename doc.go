// Package gatekeeper is an embeddable authentication and contact-cache
// engine for contact book services.
//
// The Engine verifies argon2id credentials, issues and validates typed
// HS256 JWTs (access, refresh, email confirmation), rotates refresh
// tokens through a single-use fingerprint compare-and-swap, gates
// operations on a closed role set, and serves contact reads through a
// Redis cache-aside layer that fails open when Redis is down.
//
// Identity and contact persistence stay behind the UserProvider and
// ContactStore interfaces; ready-made PostgreSQL and in-memory
// implementations live under providers/.
package gatekeeper
