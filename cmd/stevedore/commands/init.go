package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/stevedore/internal/config"
	"github.com/thoreinstein/stevedore/pkg/fileutil"
)

var initForce bool

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing configuration")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write default deployment configuration",
	Long: `Write a default configuration file for stevedore.

The file is written to the path given with --config, or to the default
location otherwise. An existing file is never overwritten unless --force
is given.`,
	Example: `  # Write the default configuration
  stevedore init

  # Write a project-local configuration
  stevedore init --config ./deploy.yaml

  # Overwrite an existing configuration
  stevedore init --force

  See Also: stevedore deploy, stevedore status`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, _ []string) error {
	return runInitWithWriter(cmd.OutOrStdout())
}

func runInitWithWriter(w io.Writer) error {
	configPath := configFlag
	if configPath == "" {
		configPath = config.DefaultPath()
	}

	// Never overwrite implicitly
	if _, err := os.Stat(configPath); err == nil && !initForce {
		fmt.Fprintf(w, "Configuration already exists at %s\n", configPath)
		fmt.Fprintln(w, "Use --force to overwrite")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}

	if err := fileutil.AtomicWriteYAML(configPath, config.Default()); err != nil {
		return errors.Wrap(err, "writing config file")
	}

	fmt.Fprintf(w, "%s✓ Configuration initialized at %s%s\n", colorGreen, configPath, colorReset)
	fmt.Fprintln(w, "  Edit the file to customize deployment settings")
	return nil
}
