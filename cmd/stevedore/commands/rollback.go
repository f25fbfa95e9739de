package commands

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	stevederrors "github.com/thoreinstein/stevedore/internal/errors"
	"github.com/thoreinstein/stevedore/internal/store"
)

var rollbackInteractive bool

func init() {
	rollbackCmd.Flags().BoolVarP(&rollbackInteractive, "interactive", "i", false,
		"pick the backup to restore interactively")
	rootCmd.AddCommand(rollbackCmd)
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback [backup-name]",
	Short: "Roll back to a previous deployment",
	Long: `Restore the deploy directory to the exact contents of a retained backup.

Without arguments the most recent backup is restored. A named backup is
restored regardless of recency. With --interactive, the backup is picked
from a fuzzy-searchable list.

pre_rollback hooks run before anything changes on disk and abort the
rollback when they fail; post_rollback hook failures are reported but do
not invalidate the completed restore.`,
	Example: `  # Roll back to the most recent backup
  stevedore rollback

  # Roll back to a specific backup
  stevedore rollback app-20260830T141503-001

  # Pick the backup interactively
  stevedore rollback --interactive

  See Also:
    stevedore list-backups - Show restorable backups
    stevedore status       - Inspect the current deployment`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRollback,
}

func runRollback(cmd *cobra.Command, args []string) error {
	backupName := ""
	if len(args) > 0 {
		backupName = args[0]
	}
	return runRollbackWithWriter(cmd, backupName, cmd.OutOrStdout())
}

func runRollbackWithWriter(cmd *cobra.Command, backupName string, w io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine := newEngine(cmd, cfg)

	if rollbackInteractive {
		if backupName != "" {
			return stevederrors.NewExitError(
				errors.New("cannot combine --interactive with an explicit backup name"),
				stevederrors.ExitFailure)
		}
		backupName, err = pickBackup(engine.ListBackups)
		if err != nil {
			return err
		}
		if backupName == "" {
			fmt.Fprintln(w, "Aborted")
			return nil
		}
	}

	res, err := engine.Rollback(cmd.Context(), backupName)
	if err != nil {
		fmt.Fprintf(w, "%s✗ Rollback failed%s\n", colorRed, colorReset)
		return err
	}

	fmt.Fprintf(w, "%s✓ Rolled back %s (%s)%s\n", colorGreen, cfg.App, res.Version, colorReset)
	if res.HookErr != nil {
		fmt.Fprintf(w, "%s! post_rollback hooks failed: %v%s\n", colorYellow, res.HookErr, colorReset)
		fmt.Fprintln(w, "  The restore itself has completed; only the hook side effects are in question.")
	}

	return nil
}

// pickBackup lets the operator choose a backup with a fuzzy finder.
// Returns an empty name if the finder was aborted.
func pickBackup(list func() ([]store.Backup, error)) (string, error) {
	backups, err := list()
	if err != nil {
		return "", errors.Wrap(err, "listing backups")
	}
	if len(backups) == 0 {
		return "", store.ErrNoBackups
	}

	idx, err := fuzzyfinder.Find(
		backups,
		func(i int) string {
			return backups[i].Name
		},
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			b := backups[i]
			return fmt.Sprintf("Backup: %s\nCreated: %s\nPath: %s",
				b.Name,
				b.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				b.Path,
			)
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return "", nil
		}
		return "", errors.Wrap(err, "interactive selection failed")
	}

	return backups[idx].Name, nil
}
