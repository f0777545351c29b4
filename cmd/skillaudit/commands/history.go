package commands

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/garagon/skillaudit/internal/history"
	"github.com/garagon/skillaudit/internal/output"
)

var flagLimit int

var historyCmd = &cobra.Command{
	Use:   "history [directory]",
	Short: "List recorded audits, newest first",
	Long:  `Lists audits stored with "audit --record". A directory argument restricts the list to audits of that skill.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <AUDIT_ID>",
	Short: "Print a recorded audit report",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.Flags().IntVar(&flagLimit, "limit", 20, "Maximum number of audits to list")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) > 0 {
		path = resolvePath(args[0])
	}

	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.List(cmd.Context(), path, flagLimit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if jsonRequested() {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No recorded audits.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tWHEN\tSCORE\tLEVEL\tFINDINGS\tSKILL\n")
	for _, e := range entries {
		skill := e.SkillPath
		if e.Source != "" && e.Source != "local" {
			skill = e.Source
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%s\n",
			e.ID, e.CreatedAt.Local().Format(time.DateTime), e.NumericScore, e.RiskLevel, e.TotalFindings, skill)
	}
	return tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	_, report, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	output.ToolVersion = Version
	return writeReport(cmd.OutOrStdout(), report, []string{reportFormats()[0]})
}

// resolvePath matches the form the engine stores: absolute with symlinks
// resolved.
func resolvePath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		p = resolved
	}
	return p
}
