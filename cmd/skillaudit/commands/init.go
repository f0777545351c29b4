package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/garagon/skillaudit/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize skillaudit configuration files",
	Long:  `Scaffolds config.yml and an ioc-database.json indicator catalog (default: ~/.skillaudit).`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	var dir string
	if len(args) > 0 {
		dir = args[0]
	} else {
		d, err := config.Dir()
		if err != nil {
			return err
		}
		dir = d
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	files := []struct {
		path    string
		content string
	}{
		{
			path:    filepath.Join(dir, "config.yml"),
			content: config.Template,
		},
		{
			path:    filepath.Join(dir, "ioc-database.json"),
			content: catalogTemplate,
		},
	}

	w := os.Stdout
	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil {
			fmt.Fprintf(w, "  skip %s (already exists)\n", f.path)
			continue
		}
		if err := os.WriteFile(f.path, []byte(f.content), 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", f.path, err)
		}
		fmt.Fprintf(w, "  create %s\n", f.path)
	}
	return nil
}

const catalogTemplate = `{
  "malicious_ips": [],
  "malicious_domains": [],
  "safe_domains": [],
  "safe_binaries": [],
  "malicious_packages": [],
  "legit_packages": []
}
`
