// Package metrics exposes Prometheus collectors for the hub and binds them
// to the core packages' instrumentation hooks. Bind registers a gauge on the
// default registry, so call it at most once per process.
package metrics
