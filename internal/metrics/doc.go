// Package metrics exposes bigtensor activity to Prometheus and reads runtime
// memory statistics for per-operation reports.
package metrics
