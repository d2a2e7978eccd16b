package internaldefs

import (
	gatekeeper "github.com/contactkit/gatekeeper"
)

// CounterDef binds a core metric ID to its exported name.
type CounterDef struct {
	ID   gatekeeper.MetricID
	Name string
	Help string
}

// HistogramDef binds a core histogram ID to its exported name.
type HistogramDef struct {
	ID   gatekeeper.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: gatekeeper.MetricLoginSuccess, Name: "gatekeeper_login_success_total", Help: "Successful logins."},
	{ID: gatekeeper.MetricLoginFailure, Name: "gatekeeper_login_failure_total", Help: "Failed login attempts."},
	{ID: gatekeeper.MetricLoginRateLimited, Name: "gatekeeper_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: gatekeeper.MetricAuthenticateSuccess, Name: "gatekeeper_authenticate_success_total", Help: "Bearer credentials resolved to an identity."},
	{ID: gatekeeper.MetricAuthenticateFailure, Name: "gatekeeper_authenticate_failure_total", Help: "Bearer credentials rejected."},
	{ID: gatekeeper.MetricRefreshSuccess, Name: "gatekeeper_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: gatekeeper.MetricRefreshRevoked, Name: "gatekeeper_refresh_revoked_total", Help: "Refresh tokens revoked after reuse or a lost rotation race."},
	{ID: gatekeeper.MetricRefreshFailure, Name: "gatekeeper_refresh_failure_total", Help: "Failed refresh attempts."},
	{ID: gatekeeper.MetricRefreshRateLimited, Name: "gatekeeper_refresh_rate_limited_total", Help: "Rate-limited refresh attempts."},
	{ID: gatekeeper.MetricConfirmRequest, Name: "gatekeeper_confirm_request_total", Help: "Email confirmation tokens issued."},
	{ID: gatekeeper.MetricConfirmSuccess, Name: "gatekeeper_confirm_success_total", Help: "Successful email confirmations."},
	{ID: gatekeeper.MetricConfirmFailure, Name: "gatekeeper_confirm_failure_total", Help: "Failed email confirmations."},
	{ID: gatekeeper.MetricAuthzDenied, Name: "gatekeeper_authz_denied_total", Help: "Operations denied by role policy."},
	{ID: gatekeeper.MetricLogout, Name: "gatekeeper_logout_total", Help: "Logout operations."},
	{ID: gatekeeper.MetricCacheHit, Name: "gatekeeper_cache_hit_total", Help: "Reads served from the cache."},
	{ID: gatekeeper.MetricCacheMiss, Name: "gatekeeper_cache_miss_total", Help: "Reads that fell through to the store and populated the cache."},
	{ID: gatekeeper.MetricCacheDegraded, Name: "gatekeeper_cache_degraded_total", Help: "Cache operations that fell back due to a cache outage."},
	{ID: gatekeeper.MetricCacheInvalidation, Name: "gatekeeper_cache_invalidation_total", Help: "Owner-wide cache invalidations."},
}

var HistogramDefs = []HistogramDef{
	{ID: gatekeeper.MetricAuthenticateLatency, Name: "gatekeeper_authenticate_latency_seconds", Help: "Authenticate latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds, Prometheus
// "le" label form.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are the bounds in OTel-safe instrument-name form.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed
// eight-bucket shape.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form
// Prometheus histograms use.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := range raw {
		running += raw[i]
		out[i] = running
	}
	return out
}
