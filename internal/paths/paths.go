// Package paths resolves the storage root and its derived subpaths. The
// root is set once via the CLI before anything reads it; a subsequent
// attempt to change it after it has been read fails, since plugin
// discovery, config loading, and job temp-path derivation all assume a
// fixed root for the process lifetime.
package paths

import (
	"fmt"
	"path/filepath"
	"sync"
)

var (
	mu    sync.Mutex
	root  string
	read  bool
)

// SetRoot fixes the storage root. It must be called before any call to
// Root(); calling it again after Root() has been read returns an error.
func SetRoot(p string) error {
	mu.Lock()
	defer mu.Unlock()
	if read {
		return fmt.Errorf("storage root already read, cannot change it to %q", p)
	}
	root = p
	return nil
}

// Root returns the fixed storage root, marking it as read.
func Root() string {
	mu.Lock()
	defer mu.Unlock()
	read = true
	return root
}

// Config returns the path to config.json under the storage root.
func Config() string { return filepath.Join(Root(), "config.json") }

// Jobs returns the default job temp-root under the storage root.
func Jobs() string { return filepath.Join(Root(), "jobs") }

// Persist returns the reserved persist/ path under the storage root.
func Persist() string { return filepath.Join(Root(), "persist") }

// JobActions returns the reserved "job actions"/ path under the storage root.
func JobActions() string { return filepath.Join(Root(), "job actions") }

// reset is used only by tests to restore package state between cases.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	root = ""
	read = false
}
