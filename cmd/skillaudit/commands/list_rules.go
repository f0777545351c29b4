package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/garagon/skillaudit"
)

var flagScope string

var listRulesCmd = &cobra.Command{
	Use:   "list-rules",
	Short: "List the detection categories",
	RunE:  runListRules,
}

func init() {
	listRulesCmd.Flags().StringVar(&flagScope, "scope", "", "Filter by scope (code, social)")
	rootCmd.AddCommand(listRulesCmd)
}

func runListRules(cmd *cobra.Command, args []string) error {
	if flagScope != "" && flagScope != "code" && flagScope != "social" {
		return fmt.Errorf("invalid --scope %q (valid: code, social)", flagScope)
	}
	opts := append(auditOptions(), skillaudit.WithScope(flagScope))
	categories := skillaudit.ListCategories(opts...)

	w := cmd.OutOrStdout()
	if jsonRequested() {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(categories)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tSEVERITY\tSCOPE\tPATTERNS\tMITRE\n")
	fmt.Fprintf(tw, "--\t--------\t-----\t--------\t-----\n")
	for _, c := range categories {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", c.ID, c.Severity, c.Scope, c.Patterns, c.Tactic)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d categories loaded\n", len(categories))
	return nil
}
