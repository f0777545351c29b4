package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garagon/skillaudit/internal/update"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var flagCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "skillaudit %s (commit: %s)\n", Version, Commit)
		if !flagCheck {
			return nil
		}
		if Version == "dev" {
			fmt.Fprintln(w, "Development build; update check skipped.")
			return nil
		}
		res := update.NewChecker().Latest(cmd.Context(), Version)
		switch {
		case res == nil:
			fmt.Fprintln(w, "Could not determine the latest release.")
		case res.NeedsUpdate():
			fmt.Fprintf(w, "A newer release is available: %s\n  %s\n", res.Latest, res.UpdateURL)
		default:
			fmt.Fprintln(w, "You are running the latest release.")
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&flagCheck, "check", false, "Check GitHub for a newer release")
	rootCmd.AddCommand(versionCmd)
}
