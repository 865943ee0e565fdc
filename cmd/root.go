// Package cmd provides the bookshelf command line.
//
// Configuration is read from, highest priority first:
//
//  1. command flags (--port, --output, ...)
//  2. BOOKSHELF_<SECTION>_<KEY> environment variables
//  3. the file named by --config or BOOKSHELF_CONFIG_FILE
//  4. .bookshelf.yml in the working directory
//  5. built-in defaults
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/bookshelf/internal/config"
	"github.com/conneroisu/bookshelf/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bookshelf",
	Short: "A static book review blog with client-side search and pagination",
	Long: `Bookshelf turns a directory of Markdown book reviews into a static site.
The index lists every review as a card; in the browser the cards are searched
and paginated without a server.

Quick Start:
  bookshelf init            Create a project with an example review
  bookshelf serve           Build, watch and preview with live reload
  bookshelf build           Render the site into dist/
  bookshelf search dune     Search the built index from the terminal
  bookshelf browse          Page through the built index interactively`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .bookshelf.yml, can also use "+config.ConfigFileEnv+")")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig points viper at the config file and environment. A missing
// default file is not an error; a broken one surfaces from loadConfig.
func initConfig() {
	config.Configure(viper.GetViper(), cfgFile, os.Getenv(config.ConfigFileEnv))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
		configReadErr = err
	}
}

var configReadErr error

// loadConfig returns the validated configuration.
func loadConfig() (*config.Config, error) {
	if configReadErr != nil {
		return nil, fmt.Errorf("failed to read config file: %w", configReadErr)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the command logger from the log section.
func newLogger(cfg *config.Config) logging.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Log.Format,
		Output:    os.Stderr,
		Component: "cli",
	})
}
