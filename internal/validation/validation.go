// Package validation checks user supplied paths, URLs and names before they
// reach the filesystem, a template or a listener.
package validation

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	siteerrors "github.com/conneroisu/bookshelf/internal/errors"
)

// shellChars never appear in the values this package accepts.
const shellChars = ";&|$`<>"

// ProjectPath validates a path that must stay inside the project.
func ProjectPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("must not be empty")
	}
	if filepath.IsAbs(path) {
		return fmt.Errorf("must be relative to the project")
	}

	clean := filepath.ToSlash(filepath.Clean(path))
	if clean == ".." || strings.HasPrefix(clean, "../") || strings.Contains(clean, "/../") {
		return siteerrors.ErrPathTraversal(path)
	}

	if i := strings.IndexAny(path, shellChars); i >= 0 {
		return fmt.Errorf("path contains dangerous character: %c", path[i])
	}
	return nil
}

// BaseURL validates the public address of the site.
func BaseURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	// Only allow http/https schemes
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %q (only http/https allowed)", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}
	if strings.ContainsAny(rawURL, " \"'\\\n\r<>") {
		return fmt.Errorf("URL contains characters that must be escaped")
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return fmt.Errorf("URL must not have a query or fragment")
	}
	return nil
}

// Host validates a listen host name or address.
func Host(host string) error {
	if i := strings.IndexAny(host, shellChars+"()\"'\\ "); i >= 0 {
		return fmt.Errorf("contains invalid character: %q", host[i])
	}
	return nil
}

// ElementID validates an HTML id used in markup and lookups.
func ElementID(id string) error {
	if id == "" {
		return fmt.Errorf("must not be empty")
	}
	if strings.ContainsAny(id, " \t\n\"'<>&") {
		return fmt.Errorf("must be a valid element id")
	}
	return nil
}
