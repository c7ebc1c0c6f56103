// Package metrics wires OpenTelemetry metrics, backed by a Prometheus
// exporter, and a trace.Tracer for span creation around node and agent
// execution. A single Provider is constructed at startup and shared across
// the driver, handlers, and HTTP transport.
package metrics
