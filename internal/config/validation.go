package config

import (
	"path/filepath"
	"strings"

	siteerrors "github.com/conneroisu/bookshelf/internal/errors"
	"github.com/conneroisu/bookshelf/internal/logging"
	"github.com/conneroisu/bookshelf/internal/validation"
)

// Validate checks every section and reports all problems at once as a
// config error.
func Validate(config *Config) error {
	var vec siteerrors.ValidationErrorCollection

	validatePaths(config, &vec)
	validateContent(&config.Content, &vec)
	validatePagination(&config.Pagination, &vec)
	validateBuild(&config.Build, &vec)
	validateServer(&config.Server, &vec)
	validateLog(&config.Log, &vec)

	if err := vec.ToSiteError(); err != nil {
		return err
	}
	return nil
}

func validatePaths(config *Config, vec *siteerrors.ValidationErrorCollection) {
	fields := map[string]string{
		"paths.input":   config.Paths.Input,
		"paths.content": config.Paths.Content,
		"paths.layouts": config.Paths.Layouts,
		"paths.output":  config.Paths.Output,
	}
	for _, field := range []string{"paths.input", "paths.content", "paths.layouts", "paths.output"} {
		if err := validation.ProjectPath(fields[field]); err != nil {
			vec.AddField(field, fields[field], err.Error())
		}
	}

	if filepath.Clean(config.Paths.Output) == "." {
		vec.AddField("paths.output", config.Paths.Output, "must not be the project root")
	}

	for _, p := range config.Passthrough {
		if err := validation.ProjectPath(p); err != nil {
			vec.AddField("passthrough", p, err.Error())
		}
	}

	if config.Site.BaseURL != "" {
		if err := validation.BaseURL(config.Site.BaseURL); err != nil {
			vec.AddField("site.base_url", config.Site.BaseURL, err.Error())
		}
	}

	for _, field := range []struct {
		name, value string
	}{
		{"site.wasm", config.Site.Wasm},
		{"site.wasm_exec", config.Site.WasmExec},
	} {
		if field.value == "" {
			continue
		}
		if strings.Contains(filepath.ToSlash(filepath.Clean(field.value)), "..") {
			vec.AddField(field.name, field.value, "path contains traversal")
		}
	}
	if config.Site.Wasm != "" && config.Site.WasmExec == "" {
		vec.AddField("site.wasm_exec", "", "required when site.wasm is set")
	}
}

func validateContent(config *ContentConfig, vec *siteerrors.ValidationErrorCollection) {
	if config.TruncateLength < 1 {
		vec.AddField("content.truncate_length", config.TruncateLength, "must be at least 1")
	}
	if strings.ContainsAny(config.DefaultLayout, `/\`) {
		vec.AddField("content.default_layout", config.DefaultLayout, "must be a file name")
	}
}

func validatePagination(config *PaginationConfig, vec *siteerrors.ValidationErrorCollection) {
	if config.PageSize < 1 {
		vec.AddField("pagination.page_size", config.PageSize, "must be at least 1")
	}
	if config.Debounce < 0 {
		vec.AddField("pagination.debounce", config.Debounce.String(), "must not be negative")
	}
	if config.ScrollThreshold < 0 {
		vec.AddField("pagination.scroll_threshold", config.ScrollThreshold, "must not be negative")
	}

	ids := map[string]string{
		"pagination.ids.container":   config.IDs.Container,
		"pagination.ids.controls":    config.IDs.Controls,
		"pagination.ids.empty_state": config.IDs.EmptyState,
		"pagination.ids.search":      config.IDs.Search,
	}
	for _, field := range []string{
		"pagination.ids.container",
		"pagination.ids.controls",
		"pagination.ids.empty_state",
		"pagination.ids.search",
	} {
		if err := validation.ElementID(ids[field]); err != nil {
			vec.AddField(field, ids[field], err.Error())
		}
	}
}

func validateBuild(config *BuildConfig, vec *siteerrors.ValidationErrorCollection) {
	if config.Workers < 1 {
		vec.AddField("build.workers", config.Workers, "must be at least 1")
	}
}

func validateServer(config *ServerConfig, vec *siteerrors.ValidationErrorCollection) {
	// 0 asks the system for a free port.
	if config.Port < 0 || config.Port > 65535 {
		vec.AddField("server.port", config.Port, "must be between 0 and 65535")
	}
	if err := validation.Host(config.Host); err != nil {
		vec.AddField("server.host", config.Host, err.Error())
	}
}

func validateLog(config *LogConfig, vec *siteerrors.ValidationErrorCollection) {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		vec.AddField("log.level", config.Level, err.Error())
	}
	if config.Format != "text" && config.Format != "json" {
		vec.AddField("log.format", config.Format, "must be text or json")
	}
}

func configError(message string, cause error) error {
	err := siteerrors.NewConfigError(siteerrors.ErrCodeConfigRead, message)
	err.Cause = cause
	return err
}
