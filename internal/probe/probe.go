// Package probe provides the default media-info collaborator the library
// watcher consults. The core only depends on the library.Prober interface;
// this extension-matching implementation is a placeholder wiring for the
// host binary — a real deployment would swap in an ffprobe-backed prober
// without the library package or its callers changing.
package probe

import (
	"os"
	"path/filepath"
	"strings"
)

var defaultExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".mov": true, ".avi": true,
	".webm": true, ".m4v": true, ".ts": true, ".wmv": true,
}

// ExtensionProber treats any regular file with a recognized media
// extension as usable media.
type ExtensionProber struct {
	Extensions map[string]bool
}

// New builds an ExtensionProber over the default extension set.
func New() *ExtensionProber {
	return &ExtensionProber{Extensions: defaultExtensions}
}

// Probe implements library.Prober.
func (p *ExtensionProber) Probe(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if !info.Mode().IsRegular() {
		return false, nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	return p.Extensions[ext], nil
}
