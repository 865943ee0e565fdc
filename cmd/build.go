package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/bookshelf/internal/site"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Render the site into the output directory",
	Long: `Render every review and the index into the output directory and copy the
passthrough files. Reviews that fail to parse are reported and skipped.

Examples:
  bookshelf build                  # Build into dist/
  bookshelf build --clean          # Remove the output directory first
  bookshelf build --precompress    # Also write .gz files for the server
  bookshelf build --strict         # Fail if any review has errors`,
	PreRunE: bindFlags(map[string]string{
		"output":      "paths.output",
		"clean":       "build.clean",
		"precompress": "build.precompress",
		"workers":     "build.workers",
	}),
	RunE: runBuild,
}

var (
	buildOutput      string
	buildClean       bool
	buildPrecompress bool
	buildWorkers     int
	buildStrict      bool
)

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "dist", "Output directory")
	buildCmd.Flags().BoolVar(&buildClean, "clean", false, "Remove the output directory before building")
	buildCmd.Flags().BoolVar(&buildPrecompress, "precompress", false, "Write gzip siblings for text files")
	buildCmd.Flags().IntVar(&buildWorkers, "workers", 4, "Pages rendered in parallel")
	buildCmd.Flags().BoolVar(&buildStrict, "strict", false, "Fail when a review cannot be parsed")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	report, err := site.NewBuilder(cfg, site.WithLogger(logger)).Build(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, msg := range report.ContentErrors {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", msg)
	}
	fmt.Fprintf(out, "Built %d books into %s (%d pages, %d files copied, %d unchanged) in %s\n",
		report.Books,
		cfg.Paths.Output,
		report.PagesWritten,
		report.FilesCopied,
		report.FilesSkipped,
		report.Duration.Round(time.Millisecond),
	)

	if buildStrict && len(report.ContentErrors) > 0 {
		return fmt.Errorf("%d reviews could not be built", len(report.ContentErrors))
	}
	return nil
}
