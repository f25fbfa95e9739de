package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(deployCmd)
}

var deployCmd = &cobra.Command{
	Use:   "deploy [version]",
	Short: "Deploy the application",
	Long: `Deploy the source tree into the deploy directory.

If the deploy directory already has contents, they are preserved as a
backup first. pre_deploy hooks run before anything changes on disk and
abort the deploy when they fail; post_deploy hook failures are reported
but the deploy has already committed by then.

The optional version argument labels the deployment in metadata. Without
it, a timestamp label is generated.`,
	Example: `  # Deploy with a generated version label
  stevedore deploy

  # Deploy a named version
  stevedore deploy v2.1.0

  See Also:
    stevedore rollback - Restore a previous state
    stevedore status   - Inspect the current deployment`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDeploy,
}

func runDeploy(cmd *cobra.Command, args []string) error {
	version := ""
	if len(args) > 0 {
		version = args[0]
	}
	return runDeployWithWriter(cmd, version, cmd.OutOrStdout())
}

func runDeployWithWriter(cmd *cobra.Command, version string, w io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	res, err := newEngine(cmd, cfg).Deploy(cmd.Context(), version)
	if err != nil {
		fmt.Fprintf(w, "%s✗ Deployment failed%s\n", colorRed, colorReset)
		return err
	}

	fmt.Fprintf(w, "%s✓ Deployed %s version %s%s\n", colorGreen, cfg.App, res.Version, colorReset)
	if res.Backup != "" {
		fmt.Fprintf(w, "  Previous state backed up as %s\n", res.Backup)
	}
	if res.HookErr != nil {
		fmt.Fprintf(w, "%s! post_deploy hooks failed: %v%s\n", colorYellow, res.HookErr, colorReset)
		fmt.Fprintln(w, "  The deployment itself has committed; only the hook side effects are in question.")
	}

	return nil
}
