package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/SmolSoftBoi/compressarr/internal/apperr"
	"github.com/SmolSoftBoi/compressarr/internal/model"
)

// manifestFile is the package manifest's on-disk filename, analogous to
// npm's package.json.
const manifestFile = "package.json"

const pluginKeyword = "compressarr-plugin"

// readManifest loads and lightly decodes the manifest at dir/manifestFile.
// It does not validate — see validateManifest.
func readManifest(dir string) (model.Manifest, error) {
	path := filepath.Join(dir, manifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Manifest{}, err
	}
	var m model.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return model.Manifest{}, err
	}
	return m, nil
}

// hasManifest reports whether dir contains a package manifest.
func hasManifest(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, manifestFile))
	return err == nil
}

// validateManifest enforces the plugin package contract (section 6): a
// name matching the plugin-identifier pattern, the compressarr-plugin
// keyword sentinel, a non-empty version, and a host-version range either
// declared directly under engines or promoted from peerDependencies.
func validateManifest(m model.Manifest) (model.Manifest, error) {
	if !model.ValidIdentifier(m.Name) {
		return m, apperr.Config("manifest name %q does not match plugin identifier pattern", m.Name)
	}
	if !hasKeyword(m.Keywords, pluginKeyword) {
		return m, apperr.Config("manifest %q missing %q keyword", m.Name, pluginKeyword)
	}
	if m.Version == "" {
		return m, apperr.Config("manifest %q has empty version", m.Name)
	}

	if m.Engines == nil {
		m.Engines = map[string]string{}
	}
	if _, ok := m.Engines["compressarr"]; !ok {
		peer, ok := m.PeerDeps["compressarr"]
		if !ok {
			return m, apperr.Config("manifest %q declares neither engines.compressarr nor a compressarr peerDependency", m.Name)
		}
		m.Engines["compressarr"] = peer
	}

	return m, nil
}

// mainEntryPath resolves a manifest's "main" field (defaulting to
// "main.so") against the plugin's directory.
func mainEntryPath(dir, main string) string {
	if main == "" {
		main = "main.so"
	}
	return filepath.Join(dir, main)
}

func hasKeyword(keywords []string, want string) bool {
	for _, k := range keywords {
		if k == want {
			return true
		}
	}
	return false
}
