// Package storage owns the memory behind buffers.
//
// A Table holds every storage object behind a reference-counted arena handle.
// Buffers are the holders: each Buffer value is one reference, accessors and
// commands carry only the handle. A root object owns host memory and the
// hazard tracker for that memory; sub-buffers created with CreateView share
// both and translate their regions into root coordinates.
//
// Device execution does not touch root memory on accelerators with separate
// memory. Acquire stages the accessed region into device memory before a
// command runs and Mapping.Finish copies it back afterwards, so the host copy
// is always the canonical one.
//
// Destruction happens when the last holder releases: the release blocks until
// every outstanding access of the root finishes, delivers the final data at
// most once and frees the memory.
package storage
