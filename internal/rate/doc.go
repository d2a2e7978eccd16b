// Package rate implements Redis-backed fixed-window throttles for the
// login and refresh flows.
//
// Counters use INCR plus a conditional EXPIRE on the first hit of the
// window. Key prefixes:
//   - gk:rl:lu: login attempts per email
//   - gk:rl:li: login attempts per client IP
//   - gk:rl:rf: refresh attempts per subject
//
// The package enforces budgets only; which flows are throttled and with
// what limits is decided by the engine configuration.
package rate
