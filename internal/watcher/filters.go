package watcher

import (
	"path/filepath"
	"strings"
)

// siteExtensions are the source files a rebuild depends on.
var siteExtensions = map[string]bool{
	".md":   true,
	".html": true,
	".css":  true,
	".js":   true,
	".yml":  true,
	".yaml": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".svg":  true,
	".webp": true,
	".wasm": true,
}

// SiteFilter accepts markdown, layouts, styles, and assets.
func SiteFilter(path string) bool {
	return siteExtensions[strings.ToLower(filepath.Ext(path))]
}

// NoHiddenFilter rejects dotfiles and editor swap files.
func NoHiddenFilter(path string) bool {
	base := filepath.Base(path)
	return !strings.HasPrefix(base, ".") && !strings.HasSuffix(base, "~") && !strings.HasSuffix(base, ".swp")
}

// NoGitFilter rejects anything inside a .git directory.
func NoGitFilter(path string) bool {
	slashed := filepath.ToSlash(path)
	return !strings.HasPrefix(slashed, ".git/") && !strings.Contains(slashed, "/.git/")
}

// ExcludeDirFilter rejects paths inside dir, such as the build output.
func ExcludeDirFilter(dir string) FileFilter {
	dir = filepath.Clean(dir)
	return func(path string) bool {
		rel, err := filepath.Rel(dir, filepath.Clean(path))
		if err != nil {
			return true
		}
		outside := rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
		return outside
	}
}

// InDir reports whether path is dir or below it.
func InDir(path, dir string) bool {
	return !ExcludeDirFilter(dir)(path)
}
