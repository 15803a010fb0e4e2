package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/memgrid/internal/app"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables that mirror the flags, e.g.
// MEMGRID_LOG_LEVEL for --log-level.
const EnvPrefix = "MEMGRID"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

const long = `memgrid - a heterogeneous memory-buffer dependency scheduler.

Runs a declarative HCL workload of devices, queues, buffers and command
groups. Ordering between commands is inferred from the buffer regions their
accessors touch; the final buffer contents and per-command status are
reported when every command has finished.

Every flag can also be set through an environment variable named after it,
e.g. MEMGRID_LOG_LEVEL=debug. Flags take precedence.`

// Parse processes command-line arguments. It returns a populated Config, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var cfg *app.Config
	cmd := &cobra.Command{
		Use:           "memgrid [flags] [WORKLOAD_PATH]",
		Short:         "Run a memgrid workload.",
		Long:          long,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, pos []string) error {
			path := v.GetString("workload")
			if len(pos) > 0 && !cmd.Flags().Changed("workload") {
				path = pos[0]
			}
			slog.Debug("Workload path determined.", "path", path)
			if path == "" {
				slog.Debug("No workload path provided, printing usage and exiting.")
				return cmd.Help()
			}

			c, err := app.NewConfig(app.Config{
				WorkloadPath:    path,
				ModulesPath:     v.GetString("modules-path"),
				HealthcheckPort: v.GetInt("healthcheck-port"),
				LogFormat:       v.GetString("log-format"),
				LogLevel:        v.GetString("log-level"),
				WorkerCount:     v.GetInt("workers"),
			})
			if err != nil {
				return err
			}
			cfg = c
			return nil
		},
	}
	cmd.SetArgs(args)
	cmd.SetOut(output)
	cmd.SetErr(output)

	flags := cmd.Flags()
	flags.StringP("workload", "w", "", "Path to the workload file or directory.")
	flags.String("modules-path", "modules", "Path to a directory of kernel manifests.")
	flags.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	flags.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flags.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.Int("workers", 0, "Workers per queue. 0 uses each device's compute units.")
	if err := v.BindPFlags(flags); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if err := cmd.Execute(); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if cfg == nil {
		// Help was printed.
		return nil, true, nil
	}
	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return cfg, false, nil
}
