// Package prometheus renders gatekeeper metrics in Prometheus text
// exposition format.
//
// [NewExporter] wraps an engine and exposes an http.Handler; nothing is
// registered in any global Prometheus registry, callers mount the
// handler themselves. Counter names carry the gatekeeper_*_total prefix
// and the single histogram is gatekeeper_authenticate_latency_seconds.
package prometheus
