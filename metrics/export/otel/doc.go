// Package otel publishes engine counters and the access validation histogram through
// OpenTelemetry observable instruments.
//
// Each collection cycle reads [courseapp.Engine.MetricsSnapshot] once. Histogram buckets
// are reported as a cumulative gauge carrying an "le" attribute.
//
// The caller owns the MeterProvider; this package only registers instruments on the
// supplied Meter.
package otel
