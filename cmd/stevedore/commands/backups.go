package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var listBackupsJSON bool

func init() {
	listBackupsCmd.Flags().BoolVar(&listBackupsJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listBackupsCmd)
}

var listBackupsCmd = &cobra.Command{
	Use:   "list-backups",
	Short: "List restorable backups",
	Long: `List all retained backups, most recent first.

Each entry can be passed to "stevedore rollback" by name to restore that
exact state.`,
	Example: `  # List backups
  stevedore list-backups

  # Output as JSON
  stevedore list-backups --json

  See Also:
    stevedore rollback - Restore from a backup`,
	RunE: runListBackups,
}

// backupInfoOutput represents a single backup in JSON output.
type backupInfoOutput struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func runListBackups(cmd *cobra.Command, _ []string) error {
	return runListBackupsWithWriter(cmd, cmd.OutOrStdout())
}

func runListBackupsWithWriter(cmd *cobra.Command, w io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	backups, err := newEngine(cmd, cfg).ListBackups()
	if err != nil {
		return err
	}

	if listBackupsJSON {
		output := make([]backupInfoOutput, len(backups))
		for i, b := range backups {
			output[i] = backupInfoOutput{
				Name:      b.Name,
				CreatedAt: b.CreatedAt,
			}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	}

	if len(backups) == 0 {
		fmt.Fprintln(w, "No backups available")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Backups are created automatically when a deploy overwrites existing contents.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%sNAME%s\t%sCREATED%s\n",
		colorBold, colorReset,
		colorBold, colorReset)

	for _, b := range backups {
		fmt.Fprintf(tw, "%s%s%s\t%s\n",
			colorGreen, b.Name, colorReset,
			b.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}
