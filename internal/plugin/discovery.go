package plugin

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/SmolSoftBoi/compressarr/internal/logger"
)

// pluginPathEnv is the environment variable controlling additional plugin
// search paths, analogous to NODE_PATH for npm module resolution.
const pluginPathEnv = "COMPRESSARR_PLUGIN_PATH"

// SearchPaths returns the ordered, de-duplicated union of: the host's own
// module resolution path, the OS-standard global package install path, any
// paths configured via pluginPathEnv, and extra (typically the -P/
// --plugin-path flag value, possibly empty).
func SearchPaths(extra ...string) []string {
	var paths []string

	paths = append(paths, hostResolutionPath())
	paths = append(paths, globalInstallPaths()...)

	if env := os.Getenv(pluginPathEnv); env != "" {
		paths = append(paths, filepath.SplitList(env)...)
	}

	for _, p := range extra {
		if p != "" {
			paths = append(paths, p)
		}
	}

	return dedupe(paths)
}

// hostResolutionPath is the directory the host itself resolves plugins
// from first, mirroring an npm package's local node_modules.
func hostResolutionPath() string {
	return "./node_modules"
}

// globalInstallPaths returns the OS-standard global package install
// locations.
func globalInstallPaths() []string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return nil
		}
		return []string{filepath.Join(appData, "npm", "node_modules")}
	default:
		paths := []string{
			"/usr/local/lib/node_modules",
			"/usr/lib/node_modules",
		}
		if prefix := packageManagerPrefix(); prefix != "" {
			paths = append(paths, filepath.Join(prefix, "lib", "node_modules"))
		}
		return paths
	}
}

// packageManagerPrefix returns the Unix package manager's configured global
// install prefix, the way `npm config get prefix` would report it: npm
// honors NPM_CONFIG_PREFIX ahead of its compiled-in default, so that
// variable is the prefix this process can observe without shelling out.
func packageManagerPrefix() string {
	return os.Getenv("NPM_CONFIG_PREFIX")
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		clean := filepath.Clean(p)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	return out
}

// candidate is a directory that may hold a validated plugin manifest.
type candidate struct {
	dir string
}

// discoverCandidates scans each search path per section 4.2: if the path
// itself holds a manifest it is a single candidate; otherwise each
// immediate child directory is a candidate, with scope directories (names
// starting "@") expanded one level.
func discoverCandidates(searchPaths []string) []candidate {
	log := logger.Discovery()
	var out []candidate

	for _, root := range searchPaths {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			continue
		}

		if hasManifest(root) {
			out = append(out, candidate{dir: root})
			continue
		}

		entries, err := os.ReadDir(root)
		if err != nil {
			log.Warn().Err(err).Str("path", root).Msg("failed to read plugin search path")
			continue
		}

		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			childPath := filepath.Join(root, e.Name())
			if strings.HasPrefix(e.Name(), "@") {
				scoped, err := os.ReadDir(childPath)
				if err != nil {
					continue
				}
				for _, s := range scoped {
					if s.IsDir() {
						out = append(out, candidate{dir: filepath.Join(childPath, s.Name())})
					}
				}
				continue
			}
			out = append(out, candidate{dir: childPath})
		}
	}

	return out
}
