// Package prometheus exposes engine metrics through github.com/prometheus/client_golang.
//
// [PrometheusExporter] is a prometheus.Collector. Counter names are courseapp_*_total;
// the single histogram is courseapp_access_validate_latency_seconds.
// [PrometheusExporter.Handler] serves it together with the Go runtime collectors.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate engine state.
package prometheus
