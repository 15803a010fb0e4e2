// Package cli parses command-line arguments and MEMGRID_* environment
// variables into an app.Config.
package cli
