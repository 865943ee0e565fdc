package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/bookshelf/internal/config"
)

// Output formats accepted by --format.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatHTML  = "html"
	formatText  = "text"
)

// bindFlags returns a PreRunE that binds flag names to viper keys. Binding
// at run time keeps commands that share a key from overriding each other.
func bindFlags(bindings map[string]string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		for flag, key := range bindings {
			f := cmd.Flags().Lookup(flag)
			if f == nil {
				return fmt.Errorf("unknown flag %q", flag)
			}
			if err := viper.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind --%s: %w", flag, err)
			}
		}
		return nil
	}
}

// addIndexFlag adds --index, the built page search and browse read.
func addIndexFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "index", "", "built index page (default <output>/index.html)")
}

// addFormatFlag adds --format/-f with the allowed values in its usage.
func addFormatFlag(cmd *cobra.Command, target *string, def string, allowed ...string) {
	cmd.Flags().StringVarP(target, "format", "f", def, "Output format ("+strings.Join(allowed, "|")+")")
}

func validateFormat(format string, allowed ...string) error {
	if slices.Contains(allowed, format) {
		return nil
	}
	return fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(allowed, ", "))
}

// indexPath resolves --index against the configured output directory.
func indexPath(cfg *config.Config, flag string) string {
	if flag != "" {
		return flag
	}
	return filepath.Join(cfg.Paths.Output, "index.html")
}

// commandContext returns the command's context, which is nil when a run
// function is called directly.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
