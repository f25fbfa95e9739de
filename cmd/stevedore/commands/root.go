// Package commands implements the CLI commands for stevedore.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/stevedore/internal/config"
	"github.com/thoreinstein/stevedore/internal/deploy"
	stevederrors "github.com/thoreinstein/stevedore/internal/errors"
	"github.com/thoreinstein/stevedore/internal/hooks"
	"github.com/thoreinstein/stevedore/internal/logging"
	"github.com/thoreinstein/stevedore/internal/store"
)

// version is set at build time via ldflags.
// Default to a development version for local builds.
const version = "0.1.0"

// configFlag holds the value of the --config flag.
var configFlag string

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

// logFile holds the path to the log file.
var logFile string

func init() {
	cobra.OnInitialize(config.Init)

	// Add persistent flags
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "",
		"path to configuration file (default: ./config.yaml, then XDG config dir)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write logs to file in JSON format")

	// Add version flag
	rootCmd.Version = version
	rootCmd.SetVersionTemplate("stevedore version {{.Version}}\n")

	// Silence errors and usage so we can control error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

var rootCmd = &cobra.Command{
	Use:   "stevedore",
	Short: "Single-host deployment automation with backups and rollback",
	Long: `stevedore moves an application's source tree into its live deployment
location, keeps a bounded history of prior states as restorable backups,
and can roll back to any retained state.

Every deploy is preceded by a durable backup of the prior state, hook
commands run at well-defined lifecycle points, and backup retention is
bounded by max_backups.`,
	Example: `  # Write the default configuration
  stevedore init

  # Deploy with a version label
  stevedore deploy v1.2.0

  # Roll back to the most recent backup
  stevedore rollback

  # Inspect the current deployment
  stevedore status

  See Also: stevedore list-backups`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd)
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// setupLogging configures the default logger based on verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return stevederrors.NewExitErrorWithSuggestion(
			errors.New("conflicting flags"), stevederrors.ExitFailure,
			"cannot use --quiet and --verbose together")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity

		// CLI flags take precedence, but if not set, check env var
		if v == 0 {
			if val, ok := os.LookupEnv("STEVEDORE_DEBUG"); ok {
				switch val {
				case "1", "true":
					v = 1
				case "2":
					v = 2
				}
			}
		}
		level = logging.LevelFromVerbosity(v)
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var primaryHandler slog.Handler
	switch logging.Format(logFormat) {
	case logging.FormatJSON:
		primaryHandler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	default:
		primaryHandler = logging.NewHandler(cmd.ErrOrStderr(), opts)
	}

	handlers := []slog.Handler{primaryHandler}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return stevederrors.NewExitErrorWithSuggestion(err,
				stevederrors.ExitFailure, "failed to open log file")
		}
		// File output uses JSON format
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{
			Level: level,
		}))
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = logging.NewMultiHandler(handlers...)
	} else {
		handler = handlers[0]
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))

	return nil
}

// loadConfig loads and validates the configuration for a command run.
// Validation failures are returned as config-kind exit errors.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, stevederrors.NewExitErrorWithSuggestion(err,
			stevederrors.ExitConfig, "Run: stevedore init")
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		err := errors.New("invalid configuration")
		for _, e := range errs {
			err = errors.WithSecondaryError(err, e)
		}
		return nil, stevederrors.NewExitErrorWithSuggestion(err,
			stevederrors.ExitConfig, "Fix the configuration file or rerun: stevedore init --force")
	}

	return cfg, nil
}

// newEngine builds the deployment engine from the loaded configuration,
// using the logger setupLogging stored on the command's context.
func newEngine(cmd *cobra.Command, cfg *config.Config) *deploy.Engine {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return deploy.New(cfg, deploy.WithLogger(logging.FromContext(ctx)))
}

// classify maps domain errors onto CLI exit codes so callers can
// distinguish failure kinds without parsing output.
func classify(err error) int {
	if err == nil {
		return stevederrors.ExitSuccess
	}

	var exitErr *stevederrors.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var hookErr *hooks.Error
	switch {
	case errors.As(err, &hookErr):
		return stevederrors.ExitHook
	case errors.Is(err, store.ErrNotFound):
		return stevederrors.ExitNotFound
	case errors.Is(err, store.ErrNoBackups):
		return stevederrors.ExitNoBackups
	case errors.Is(err, deploy.ErrBackupFailed):
		return stevederrors.ExitBackup
	case errors.Is(err, deploy.ErrDeployFailed):
		return stevederrors.ExitDeploy
	}

	return stevederrors.ExitFailure
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return stevederrors.ExitSuccess
	}

	fmt.Fprintf(os.Stderr, "%sError: %v%s\n", colorRed, err, colorReset)

	var exitErr *stevederrors.ExitError
	if errors.As(err, &exitErr) && exitErr.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "%s%s%s\n", colorYellow, exitErr.Suggestion, colorReset)
	}

	return classify(err)
}
