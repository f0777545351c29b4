package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garagon/skillaudit"
	"github.com/garagon/skillaudit/internal/engine/rugpull"
	"github.com/garagon/skillaudit/internal/fetch"
	"github.com/garagon/skillaudit/internal/history"
	"github.com/garagon/skillaudit/internal/output"
	"github.com/garagon/skillaudit/internal/state"
)

var (
	flagSlug      string
	flagHuman     bool
	flagJSON      bool
	flagRecord    bool
	flagMonitor   bool
	flagStatePath string
)

var auditCmd = &cobra.Command{
	Use:   "audit [directory]",
	Short: "Audit a skill directory, or a published skill with --slug",
	Args: func(cmd *cobra.Command, args []string) error {
		if flagSlug != "" {
			if len(args) > 0 {
				return fmt.Errorf("--slug does not accept a directory argument")
			}
			return fetch.ValidateSlug(flagSlug)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().StringVar(&flagSlug, "slug", "", "Fetch the named skill with the fetch tool and audit it")
	auditCmd.Flags().BoolVar(&flagHuman, "human", false, "Human-readable report (default)")
	auditCmd.Flags().BoolVar(&flagJSON, "json", false, "JSON report; with --human, JSON is printed first")
	auditCmd.Flags().BoolVar(&flagRecord, "record", false, "Record the report in the audit history database")
	auditCmd.Flags().BoolVar(&flagMonitor, "monitor", false, "Compare the file inventory with the previous audit of the same skill")
	auditCmd.Flags().StringVar(&flagStatePath, "state-path", "", "State file for --monitor (default: ~/.skillaudit/state.json)")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	exitCode = 0
	output.ToolVersion = Version

	formats := reportFormats()
	for _, name := range formats {
		if _, err := output.New(name, true); err != nil {
			return err
		}
	}

	ctx, cancel := contextWithInterrupt()
	defer cancel()

	target, source := "", "local"
	if flagSlug != "" {
		ws, err := fetch.New(cfg.FetchBinary, logger).Fetch(ctx, flagSlug)
		if err != nil {
			return err
		}
		defer func() {
			if err := ws.Cleanup(); err != nil {
				logger.Warn("removing fetched skill", zap.Error(err))
			}
		}()
		target, source = ws.Dir, "slug:"+flagSlug
	} else {
		target = args[0]
	}

	opts := auditOptions()
	var spin *output.Spinner
	if flagOutput == "" && formats[len(formats)-1] == output.FormatHuman && output.Interactive(os.Stderr) {
		spin = output.NewSpinner(os.Stderr)
		spin.Start("Auditing")
		opts = append(opts, skillaudit.WithProgress(spin.Phase))
	}

	auditor, err := skillaudit.New(opts...)
	if err != nil {
		if spin != nil {
			spin.Stop()
		}
		return err
	}
	report := auditor.Audit(target)
	if spin != nil {
		spin.Stop()
	}

	if flagRecord {
		recordReport(ctx, cmd.ErrOrStderr(), report, source)
	}
	if flagMonitor {
		key := report.SkillPath
		if flagSlug != "" {
			key = source
		}
		monitorReport(cmd.ErrOrStderr(), key, report)
	}

	if err := writeReport(cmd.OutOrStdout(), report, formats); err != nil {
		return err
	}
	exitCode = report.ExitCode()
	return nil
}

// reportFormats resolves --human/--json against --format and the config:
// human unless --json alone is given; both print JSON then human.
func reportFormats() []string {
	switch {
	case flagJSON && flagHuman:
		return []string{output.FormatJSON, output.FormatHuman}
	case flagJSON:
		return []string{output.FormatJSON}
	case flagHuman:
		return []string{output.FormatHuman}
	case strings.TrimSpace(cfg.Format) != "":
		return []string{strings.ToLower(strings.TrimSpace(cfg.Format))}
	default:
		return []string{output.FormatHuman}
	}
}

func writeReport(stdout io.Writer, report *skillaudit.Report, formats []string) error {
	w := stdout
	noColor := cfg.NoColor
	if flagOutput != "" {
		f, err := os.Create(flagOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
		noColor = true
	}

	for _, name := range formats {
		formatter, err := output.New(name, noColor)
		if err != nil {
			return err
		}
		if err := formatter.Format(w, report); err != nil {
			return fmt.Errorf("writing %s report: %w", name, err)
		}
	}
	return nil
}

// recordReport stores the report in the history database. Failures are
// warnings: the audit result stands on its own.
func recordReport(ctx context.Context, stderr io.Writer, report *skillaudit.Report, source string) {
	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		fmt.Fprintf(stderr, "warning: %v\n", err)
		return
	}
	defer func() { _ = store.Close() }()

	entry, err := store.Record(ctx, report, source)
	if err != nil {
		fmt.Fprintf(stderr, "warning: %v\n", err)
		return
	}
	logger.Debug("audit recorded", zap.String("id", entry.ID), zap.String("db", cfg.HistoryDB))
}

func monitorReport(stderr io.Writer, key string, report *skillaudit.Report) {
	path := flagStatePath
	if path == "" {
		path = cfg.StatePath
	}
	store := state.New(path)
	if err := store.Load(); err != nil {
		fmt.Fprintf(stderr, "warning: loading state: %v\n", err)
	}

	drift := rugpull.New(store).Observe(key, report)
	if err := store.Save(); err != nil {
		fmt.Fprintf(stderr, "warning: saving state: %v\n", err)
	}
	printDrift(stderr, drift)
}

func printDrift(w io.Writer, d rugpull.Drift) {
	if d.FirstAudit {
		fmt.Fprintf(w, "Monitor: first audit of %s recorded\n", d.Key)
		return
	}
	if len(d.Changes) == 0 {
		fmt.Fprintf(w, "Monitor: no file changes since %s\n", d.PreviousAudit)
		return
	}

	fmt.Fprintf(w, "Monitor: %d file change(s) since %s (score %d -> %d)\n",
		len(d.Changes), d.PreviousAudit, d.PreviousScore, d.CurrentScore)
	marks := map[rugpull.ChangeKind]string{rugpull.Added: "+", rugpull.Removed: "-", rugpull.Changed: "~"}
	for _, c := range d.Changes {
		line := fmt.Sprintf("  %s %s", marks[c.Kind], c.Path)
		if c.Severe > 0 {
			line += fmt.Sprintf(" (%d high/critical finding(s))", c.Severe)
		}
		fmt.Fprintln(w, line)
	}
	if d.Suspicious() {
		fmt.Fprintln(w, "WARNING: changed files carry high-severity findings (possible rug pull)")
	}
}

func contextWithInterrupt() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
