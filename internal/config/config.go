// Package config provides configuration management for bookshelf using Viper
// for loading from files, environment variables, and command-line flags.
//
// The configuration lives in .bookshelf.yml and every key can be overridden
// with a BOOKSHELF_<SECTION>_<KEY> environment variable. Load fills defaults
// for anything left unset and validates paths, ports and pagination settings.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/bookshelf/internal/paginator"
	"github.com/conneroisu/bookshelf/internal/views"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "BOOKSHELF"

// ConfigFileEnv names a config file to use instead of .bookshelf.yml.
const ConfigFileEnv = "BOOKSHELF_CONFIG_FILE"

type Config struct {
	Site        SiteConfig       `mapstructure:"site" yaml:"site"`
	Paths       PathsConfig      `mapstructure:"paths" yaml:"paths"`
	Passthrough []string         `mapstructure:"passthrough" yaml:"passthrough"`
	Content     ContentConfig    `mapstructure:"content" yaml:"content"`
	Pagination  PaginationConfig `mapstructure:"pagination" yaml:"pagination"`
	Build       BuildConfig      `mapstructure:"build" yaml:"build"`
	Server      ServerConfig     `mapstructure:"server" yaml:"server"`
	Log         LogConfig        `mapstructure:"log" yaml:"log"`
}

type SiteConfig struct {
	Title       string `mapstructure:"title" yaml:"title"`
	BaseURL     string `mapstructure:"base_url" yaml:"base_url"`
	Description string `mapstructure:"description" yaml:"description"`
	// Wasm is the compiled paginator module copied into the output. Empty
	// disables the browser paginator.
	Wasm     string `mapstructure:"wasm" yaml:"wasm"`
	WasmExec string `mapstructure:"wasm_exec" yaml:"wasm_exec"`
}

type PathsConfig struct {
	Input   string `mapstructure:"input" yaml:"input"`
	Content string `mapstructure:"content" yaml:"content"`
	Layouts string `mapstructure:"layouts" yaml:"layouts"`
	Output  string `mapstructure:"output" yaml:"output"`
}

type ContentConfig struct {
	DefaultLayout  string   `mapstructure:"default_layout" yaml:"default_layout"`
	DefaultTags    []string `mapstructure:"default_tags" yaml:"default_tags"`
	TruncateLength int      `mapstructure:"truncate_length" yaml:"truncate_length"`
}

type PaginationConfig struct {
	PageSize        int              `mapstructure:"page_size" yaml:"page_size"`
	Debounce        time.Duration    `mapstructure:"debounce" yaml:"debounce"`
	ScrollThreshold float64          `mapstructure:"scroll_threshold" yaml:"scroll_threshold"`
	ScrollOffset    float64          `mapstructure:"scroll_offset" yaml:"scroll_offset"`
	IDs             views.ElementIDs `mapstructure:"ids" yaml:"ids"`
}

type BuildConfig struct {
	Clean       bool `mapstructure:"clean" yaml:"clean"`
	Workers     int  `mapstructure:"workers" yaml:"workers"`
	Precompress bool `mapstructure:"precompress" yaml:"precompress"`
}

type ServerConfig struct {
	Host       string `mapstructure:"host" yaml:"host"`
	Port       int    `mapstructure:"port" yaml:"port"`
	LiveReload bool   `mapstructure:"live_reload" yaml:"live_reload"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			Title:       "Bookshelf",
			Description: "Book reviews",
		},
		Paths: PathsConfig{
			Input:   "src",
			Content: "src/books",
			Layouts: "src/_layouts",
			Output:  "dist",
		},
		Passthrough: []string{"admin", "src/style.css", "src/images"},
		Content: ContentConfig{
			DefaultLayout:  "book.html",
			DefaultTags:    []string{"books"},
			TruncateLength: 180,
		},
		Pagination: PaginationConfig{
			PageSize:        paginator.DefaultPageSize,
			Debounce:        paginator.DefaultDebounce,
			ScrollThreshold: paginator.DefaultScrollThreshold,
			ScrollOffset:    paginator.DefaultScrollOffset,
			IDs:             views.DefaultIDs(),
		},
		Build: BuildConfig{
			Workers: 4,
		},
		Server: ServerConfig{
			Host:       "localhost",
			Port:       8080,
			LiveReload: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SetDefaults registers every default with v so that environment overrides
// are visible to Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("site.title", d.Site.Title)
	v.SetDefault("site.base_url", d.Site.BaseURL)
	v.SetDefault("site.description", d.Site.Description)
	v.SetDefault("site.wasm", d.Site.Wasm)
	v.SetDefault("site.wasm_exec", d.Site.WasmExec)
	v.SetDefault("paths.input", d.Paths.Input)
	v.SetDefault("paths.content", d.Paths.Content)
	v.SetDefault("paths.layouts", d.Paths.Layouts)
	v.SetDefault("paths.output", d.Paths.Output)
	v.SetDefault("passthrough", d.Passthrough)
	v.SetDefault("content.default_layout", d.Content.DefaultLayout)
	v.SetDefault("content.default_tags", d.Content.DefaultTags)
	v.SetDefault("content.truncate_length", d.Content.TruncateLength)
	v.SetDefault("pagination.page_size", d.Pagination.PageSize)
	v.SetDefault("pagination.debounce", d.Pagination.Debounce)
	v.SetDefault("pagination.scroll_threshold", d.Pagination.ScrollThreshold)
	v.SetDefault("pagination.scroll_offset", d.Pagination.ScrollOffset)
	v.SetDefault("pagination.ids.container", d.Pagination.IDs.Container)
	v.SetDefault("pagination.ids.controls", d.Pagination.IDs.Controls)
	v.SetDefault("pagination.ids.empty_state", d.Pagination.IDs.EmptyState)
	v.SetDefault("pagination.ids.search", d.Pagination.IDs.Search)
	v.SetDefault("build.clean", d.Build.Clean)
	v.SetDefault("build.workers", d.Build.Workers)
	v.SetDefault("build.precompress", d.Build.Precompress)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.live_reload", d.Server.LiveReload)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Configure points v at the config file and enables BOOKSHELF_ environment
// overrides. An explicit file wins over BOOKSHELF_CONFIG_FILE, which wins
// over .bookshelf.yml in the working directory.
func Configure(v *viper.Viper, file, envFile string) {
	switch {
	case file != "":
		v.SetConfigFile(file)
	case envFile != "":
		v.SetConfigFile(envFile)
	default:
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".bookshelf")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals v, fills defaults for empty values and validates the
// result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	config := Default()
	if err := v.Unmarshal(config); err != nil {
		return nil, configError("unable to decode configuration", err)
	}

	// Viper reports env overrides of list keys as a single string.
	if v.IsSet("passthrough") {
		config.Passthrough = splitList(v.GetStringSlice("passthrough"))
	}
	if v.IsSet("content.default_tags") {
		config.Content.DefaultTags = splitList(v.GetStringSlice("content.default_tags"))
	}

	applyDefaults(config)

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

func applyDefaults(config *Config) {
	d := Default()
	if config.Paths.Input == "" {
		config.Paths.Input = d.Paths.Input
	}
	if config.Paths.Content == "" {
		config.Paths.Content = d.Paths.Content
	}
	if config.Paths.Layouts == "" {
		config.Paths.Layouts = d.Paths.Layouts
	}
	if config.Paths.Output == "" {
		config.Paths.Output = d.Paths.Output
	}
	if config.Content.DefaultLayout == "" {
		config.Content.DefaultLayout = d.Content.DefaultLayout
	}
	if config.Content.TruncateLength == 0 {
		config.Content.TruncateLength = d.Content.TruncateLength
	}
	if config.Build.Workers == 0 {
		config.Build.Workers = d.Build.Workers
	}
	if config.Log.Level == "" {
		config.Log.Level = d.Log.Level
	}
	if config.Log.Format == "" {
		config.Log.Format = d.Log.Format
	}
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, part)
		}
	}
	return out
}
