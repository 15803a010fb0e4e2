// Package hcl provides the concrete HCL implementation for the workload
// loading and data conversion interfaces defined in the `config` package.
// It is responsible for all file parsing, HCL-to-model translation, and
// CTY-to-Go data binding.
//
// A workload file declares devices, queues, buffers and commands:
//
//	device "gpu0" {
//	  kind          = "sim"
//	  compute_units = 4
//	}
//	queue "q0" {
//	  device   = "gpu0"
//	  fallback = "cpu"
//	}
//	buffer "a" {
//	  element = "float32"
//	  shape   = [100]
//	}
//	command "fill_lo" {
//	  queue  = "q0"
//	  kernel = "fill"
//	  range  = [50]
//	  accessor "out" {
//	    buffer = "a"
//	    mode   = "discard_write"
//	    range  = [50]
//	  }
//	  arguments {
//	    value = 1.5
//	  }
//	}
//
// Kernel manifests use `kernel` blocks with typed `input` blocks and may live
// in the same files or under the modules path.
package hcl
