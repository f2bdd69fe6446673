package plugin

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupeNormalizesAndDrops(t *testing.T) {
	got := dedupe([]string{"/a/b", "/a/b/", "/a/c"})
	assert.Equal(t, []string{filepath.Clean("/a/b"), filepath.Clean("/a/c")}, got)
}

func TestDiscoverCandidatesFindsDirectManifestRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, manifestFile), []byte(`{}`), 0o644))

	got := discoverCandidates([]string{root})
	require.Len(t, got, 1)
	assert.Equal(t, root, got[0].dir)
}

func TestDiscoverCandidatesWalksImmediateChildren(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "compressarr-handbrake"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "compressarr-subtitles"), 0o755))

	got := discoverCandidates([]string{root})
	assert.Len(t, got, 2)
}

func TestDiscoverCandidatesExpandsScopeDirectoriesOneLevel(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "@acme", "compressarr-handbrake"), 0o755))

	got := discoverCandidates([]string{root})
	require.Len(t, got, 1)
	assert.Equal(t, filepath.Join(root, "@acme", "compressarr-handbrake"), got[0].dir)
}

func TestDiscoverCandidatesSkipsMissingPaths(t *testing.T) {
	got := discoverCandidates([]string{filepath.Join(t.TempDir(), "does-not-exist")})
	assert.Empty(t, got)
}

func TestSearchPathsIncludesExtraAndEnv(t *testing.T) {
	t.Setenv(pluginPathEnv, "/env/path")
	got := SearchPaths("/extra/path")
	assert.Contains(t, got, filepath.Clean("/extra/path"))
	assert.Contains(t, got, filepath.Clean("/env/path"))
}

func TestGlobalInstallPathsIncludesPackageManagerPrefixOnUnix(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("prefix lookup only applies on Unix-like systems")
	}

	t.Setenv("NPM_CONFIG_PREFIX", "/opt/custom-npm")
	got := globalInstallPaths()
	assert.Contains(t, got, filepath.Join("/opt/custom-npm", "lib", "node_modules"))
}

func TestGlobalInstallPathsOmitsPrefixWhenUnconfigured(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("prefix lookup only applies on Unix-like systems")
	}

	require.NoError(t, os.Unsetenv("NPM_CONFIG_PREFIX"))
	got := globalInstallPaths()
	assert.Equal(t, []string{"/usr/local/lib/node_modules", "/usr/lib/node_modules"}, got)
}
