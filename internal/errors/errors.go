package errors

import (
	"errors"
	"sort"
	"sync"
)

// ErrorCollector gathers errors from concurrent build steps.
type ErrorCollector struct {
	errors []error
	mutex  sync.RWMutex
}

// NewErrorCollector creates a new error collector.
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{errors: make([]error, 0)}
}

// AddError adds an error to the collector. Nil is ignored.
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// GetAllErrors returns a copy of the collected errors.
func (ec *ErrorCollector) GetAllErrors() []error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]error, len(ec.errors))
	copy(result, ec.errors)
	return result
}

// HasErrors returns true if there are any errors.
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.errors) > 0
}

// Len returns the number of collected errors.
func (ec *ErrorCollector) Len() int {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.errors)
}

// Clear clears all errors.
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = ec.errors[:0]
}

// GetErrorsByFile returns the SiteErrors located in file.
func (ec *ErrorCollector) GetErrorsByFile(file string) []*SiteError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var out []*SiteError
	for _, err := range ec.errors {
		var se *SiteError
		if errors.As(err, &se) && se.FilePath == file {
			out = append(out, se)
		}
	}
	return out
}

// Files returns the sorted, distinct file paths of collected SiteErrors.
func (ec *ErrorCollector) Files() []string {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	seen := make(map[string]bool)
	var files []string
	for _, err := range ec.errors {
		var se *SiteError
		if errors.As(err, &se) && se.FilePath != "" && !seen[se.FilePath] {
			seen[se.FilePath] = true
			files = append(files, se.FilePath)
		}
	}
	sort.Strings(files)
	return files
}

// Err joins the collected errors, or returns nil.
func (ec *ErrorCollector) Err() error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	if len(ec.errors) == 0 {
		return nil
	}
	return errors.Join(ec.errors...)
}
