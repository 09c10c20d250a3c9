// ABOUTME: Package metrics exports link counters to Prometheus
// ABOUTME: Used by the receiver and transmitter commands behind -metrics-addr
// Package metrics records receiver and transmitter events as Prometheus
// metrics on a private registry.
package metrics
