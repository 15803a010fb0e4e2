// Package workload runs a declarative workload from the configuration model
// against a local session. It creates the declared devices, queues and
// buffers, submits every command group in declaration order, waits for the
// resulting events and reports per-command status and final buffer contents.
package workload
