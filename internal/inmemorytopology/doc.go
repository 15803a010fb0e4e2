// Package inmemorytopology provides a thread-safe, in-memory implementation
// of the topologystore.Store interface, for sessions whose command graph fits
// comfortably in memory.
package inmemorytopology
