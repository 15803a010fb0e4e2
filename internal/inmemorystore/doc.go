// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the commandstore.Store interface.
package inmemorystore
