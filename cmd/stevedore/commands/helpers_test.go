package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/stevedore/internal/config"
	"github.com/thoreinstein/stevedore/pkg/fileutil"
)

// projectConfig writes a valid project config under a temp root and points
// the --config flag at it for the duration of the test. The returned config
// uses absolute paths so the tests are independent of the working directory.
func projectConfig(t *testing.T) *config.Config {
	t.Helper()

	root := t.TempDir()
	cfg := &config.Config{
		App:        "app",
		SourceDir:  filepath.Join(root, "src"),
		DeployDir:  filepath.Join(root, "deploy"),
		BackupDir:  filepath.Join(root, "backups"),
		MaxBackups: 5,
		Hooks: config.Hooks{
			PreDeploy:    []string{},
			PostDeploy:   []string{},
			PreRollback:  []string{},
			PostRollback: []string{},
		},
	}

	path := filepath.Join(root, "config.yaml")
	require.NoError(t, fileutil.AtomicWriteYAML(path, cfg))
	setConfigFlag(t, path)
	return cfg
}

func setConfigFlag(t *testing.T, path string) {
	t.Helper()
	prev := configFlag
	configFlag = path
	t.Cleanup(func() { configFlag = prev })
	config.Init()
}

// testCommand returns a command with a usable context, as commands receive
// during a real Execute run.
func testCommand(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	return cmd
}

func writeSource(t *testing.T, cfg *config.Config, files map[string]string) {
	t.Helper()
	require.NoError(t, os.RemoveAll(cfg.SourceDir))
	for rel, content := range files {
		path := filepath.Join(cfg.SourceDir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}
