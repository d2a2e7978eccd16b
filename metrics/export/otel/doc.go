// Package otel binds gatekeeper metrics to OpenTelemetry observable
// instruments.
//
// [NewExporter] registers an Int64ObservableCounter per counter and an
// Int64ObservableGauge per histogram bucket, read from one snapshot per
// collection cycle. Callers own the MeterProvider.
package otel
