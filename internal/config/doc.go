// Package config defines the format-agnostic workload model, along with the
// core interfaces (Loader, Converter) for loading and interpreting workloads
// from various sources.
//
// The config.Model is the single source of truth for the workload runner.
// Concrete implementations of the interfaces, such as for HCL, are provided
// in separate packages.
package config
