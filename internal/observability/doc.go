// Package observability exposes Prometheus metrics for the VTX core.
//
// VTXCollector implements vtx.Observer, so it can be attached to the
// registry and the scheduler directly, and serves the /metrics handler.
package observability
