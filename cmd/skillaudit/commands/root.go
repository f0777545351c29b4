package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garagon/skillaudit"
	"github.com/garagon/skillaudit/internal/config"
	"github.com/garagon/skillaudit/internal/fetch"
	"github.com/garagon/skillaudit/internal/logging"
)

// Process exit codes beyond the report's own 0/1/2 verdict.
const (
	ExitUsage       = 2
	ExitFetchFailed = 3
)

var (
	flagConfig            string
	flagFormat            string
	flagOutput            string
	flagRules             string
	flagCatalog           string
	flagLogLevel          string
	flagNoColor           bool
	flagDisableCategories []string
)

var (
	cfg      config.Config
	logger   = zap.NewNop()
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "skillaudit",
	Short: "Static security auditor for agent skills",
	Long: `skillaudit inspects an agent skill directory before installation. It flags
executables, dangerous code patterns, social-engineering lures, obfuscated
payloads, suspicious dependencies, and hidden instructions in SKILL.md, then
reduces everything to a 0-100 risk score.`,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
		checkPathHint(cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: ~/.skillaudit/config.yml)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "", "Output format (human, json, sarif, markdown)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "Output file path (default: stdout)")
	rootCmd.PersistentFlags().StringVar(&flagRules, "rules", "", "Additional category directory")
	rootCmd.PersistentFlags().StringVar(&flagCatalog, "catalog", "", "Indicator catalog file (JSON or YAML)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringSliceVar(&flagDisableCategories, "disable-category", nil, "Category IDs to disable (comma-separated, repeatable)")
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	exitCode = 0
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, fetch.ErrToolNotFound) || errors.Is(err, fetch.ErrFetchFailed) {
			return ExitFetchFailed
		}
		return ExitUsage
	}
	return exitCode
}

// setup resolves the effective configuration (flag > environment > file >
// default) and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(flagConfig)
	if err != nil {
		if flagConfig != "" {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
	cfg = loaded

	if flagCatalog != "" {
		cfg.Catalog = flagCatalog
	}
	if flagRules != "" {
		cfg.Rules = flagRules
	}
	if flagFormat != "" {
		cfg.Format = flagFormat
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagNoColor || os.Getenv("NO_COLOR") != "" {
		cfg.NoColor = true
	}

	l, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// auditOptions translates the effective configuration into library options.
func auditOptions() []skillaudit.Option {
	opts := []skillaudit.Option{skillaudit.WithLogger(logger)}
	if cfg.Catalog != "" {
		opts = append(opts, skillaudit.WithCatalogFile(cfg.Catalog))
	}
	if cfg.Rules != "" {
		opts = append(opts, skillaudit.WithCustomRules(cfg.Rules))
	}
	if overrides := cfg.Overrides(); len(overrides) > 0 {
		converted := make(map[string]skillaudit.CategoryOverride, len(overrides))
		for id, o := range overrides {
			converted[id] = skillaudit.CategoryOverride{Severity: o.Severity, Disabled: o.Disabled}
		}
		opts = append(opts, skillaudit.WithCategoryOverrides(converted))
	}
	if len(flagDisableCategories) > 0 {
		opts = append(opts, skillaudit.WithDisabledCategories(flagDisableCategories...))
	}
	return opts
}

// jsonRequested reports whether the effective format is JSON.
func jsonRequested() bool {
	return strings.EqualFold(strings.TrimSpace(cfg.Format), "json")
}
