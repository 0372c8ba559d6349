// Package metrics provides lock-free counters and a latency histogram for
// the authentication flows.
//
// Counters live in cache-line-padded uint64 slots and are incremented with
// sync/atomic. The single histogram uses 8 fixed buckets (5ms to +Inf).
// Export to Prometheus or OpenTelemetry lives in metrics/export and reads
// Snapshot values; this package performs no I/O.
package metrics
