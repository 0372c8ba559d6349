// Package prometheus exposes engine counters through
// github.com/prometheus/client_golang.
//
// [Collector] implements prometheus.Collector and reads
// [clubAuth.Engine.MetricsSnapshot] on each scrape. Register it on any
// registry, or use [Handler] for a private one. Counters are named
// clubauth_*_total; the single histogram is clubauth_verify_latency_seconds.
package prometheus
