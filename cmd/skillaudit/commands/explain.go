package commands

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/garagon/skillaudit"
)

var explainCmd = &cobra.Command{
	Use:   "explain <CATEGORY_ID>",
	Short: "Show detailed information about a detection category",
	Args:  cobra.ExactArgs(1),
	RunE:  runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	found, err := skillaudit.ExplainCategory(args[0], auditOptions()...)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if jsonRequested() {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(found)
	}

	paint := func(text string, attrs ...color.Attribute) string {
		if cfg.NoColor {
			return text
		}
		return color.New(attrs...).Sprint(text)
	}

	sevAttrs := []color.Attribute{color.FgCyan}
	switch found.Severity {
	case "CRITICAL":
		sevAttrs = []color.Attribute{color.FgRed, color.Bold}
	case "HIGH":
		sevAttrs = []color.Attribute{color.FgRed}
	case "MEDIUM":
		sevAttrs = []color.Attribute{color.FgYellow}
	}

	fmt.Fprintf(w, "\n%s %s\n", paint("Category:", color.Faint), paint(found.ID, color.Bold))
	fmt.Fprintf(w, "%s %s\n", paint("Name:", color.Faint), found.Name)
	fmt.Fprintf(w, "%s %s\n", paint("Severity:", color.Faint), paint(found.Severity, sevAttrs...))
	fmt.Fprintf(w, "%s %s\n", paint("Scope:", color.Faint), found.Scope)
	if found.Tactic != "" {
		fmt.Fprintf(w, "%s %s\n", paint("MITRE:", color.Faint), found.Tactic)
	}
	if found.Label != "" {
		fmt.Fprintf(w, "%s %s\n", paint("Label:", color.Faint), found.Label)
	}
	if found.ContextExempt {
		fmt.Fprintf(w, "%s\n", paint("Never de-escalated in docs or comments", color.Faint))
	}

	if found.Description != "" {
		fmt.Fprintf(w, "\n%s\n%s\n", paint("Description:", color.Bold), found.Description)
	}

	if len(found.Patterns) > 0 {
		fmt.Fprintf(w, "\n%s\n", paint("Patterns:", color.Bold))
		for i, p := range found.Patterns {
			fmt.Fprintf(w, "  %d. %s\n", i+1, paint(p, color.Faint))
		}
	}

	if len(found.TruePositives) > 0 {
		fmt.Fprintf(w, "\n%s\n", paint("True Positives:", color.Bold))
		for _, ex := range found.TruePositives {
			fmt.Fprintf(w, "  %s %s\n", paint("✖", color.FgRed), ex)
		}
	}

	if len(found.FalsePositives) > 0 {
		fmt.Fprintf(w, "\n%s\n", paint("False Positives:", color.Bold))
		for _, ex := range found.FalsePositives {
			fmt.Fprintf(w, "  %s %s\n", paint("✔", color.FgGreen), ex)
		}
	}

	fmt.Fprintln(w)
	return nil
}
