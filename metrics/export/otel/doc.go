// Package otel publishes engine counters through OpenTelemetry.
//
// [NewExporter] registers one Int64ObservableCounter per engine counter and
// a bucket gauge (attribute "le") plus a count gauge for the verification
// latency histogram. A single callback reads [clubAuth.Engine.MetricsSnapshot]
// on each collection. Callers own the MeterProvider.
package otel
