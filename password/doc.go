// Package password provides one-way credential hashing for gatekeeper
// using argon2id in PHC string format.
//
// Verify is deliberately infallible: a malformed or foreign stored hash is
// reported as a non-match, never as an error, so a corrupted row can deny an
// individual login but can never crash or short-circuit an authentication
// path.
package password
