// Package telemetry wires OpenTelemetry traces, logs and metrics for the
// leftovers server and worker.
//
// All three signals are exported over OTLP/HTTP. Endpoints may carry a base
// path (Grafana Cloud's /otlp, Better Stack's root log path) which is
// resolved per signal.
package telemetry
