package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var statusJSON bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current deployment",
	Long: `Show the current deployment metadata and backup availability.

Reports the deployed version, when it was deployed, which backup preceded
it, and how many backups are available for rollback. If nothing has been
deployed yet, says so; status never fails.`,
	Example: `  # Show deployment status
  stevedore status

  # JSON output for scripting
  stevedore status --json`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	return runStatusWithWriter(cmd, cmd.OutOrStdout())
}

func runStatusWithWriter(cmd *cobra.Command, w io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st := newEngine(cmd, cfg).Status()

	if statusJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	fmt.Fprintf(w, "%sApplication: %s%s\n", colorCyan+colorBold, cfg.App, colorReset)
	fmt.Fprintf(w, "Deploy directory: %s\n", st.DeployDir)

	if st.Metadata == nil {
		fmt.Fprintf(w, "%sNo deployment yet%s\n", colorGray, colorReset)
	} else {
		fmt.Fprintf(w, "Version: %s%s%s\n", colorGreen, st.Metadata.Version, colorReset)
		fmt.Fprintf(w, "Deployed at: %s\n", st.Metadata.Timestamp.Local().Format("2006-01-02 15:04:05"))
		if st.Metadata.Backup != "" {
			fmt.Fprintf(w, "Preceding backup: %s\n", st.Metadata.Backup)
		}
		if !st.Deployed {
			fmt.Fprintf(w, "%s! deploy directory is empty despite recorded metadata%s\n", colorYellow, colorReset)
		}
	}

	fmt.Fprintf(w, "Available backups: %d\n", st.AvailableBackups)
	return nil
}
