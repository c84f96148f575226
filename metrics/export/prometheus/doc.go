// Package prometheus renders goGate metric snapshots in Prometheus text
// exposition format, without depending on a client library.
package prometheus
