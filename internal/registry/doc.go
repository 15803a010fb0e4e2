// Package registry provides the central "glue" for the kernel module system.
//
// The Registry maps the kernel names used in workloads (e.g., "fill") to the
// Go implementations compiled into the binary, together with a manifest of
// the arguments each kernel accepts. Manifests loaded from HCL may refine
// the built-in ones.
//
// During application startup, the registry is populated and then validated
// to ensure that the Go input structs and the manifests are in sync,
// preventing a wide class of runtime errors.
//
// The Registry also implements device.Compiler: a kernel "binary" is its
// registered name, and build options restrict the devices the resulting
// handle supports.
package registry
