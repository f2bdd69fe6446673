package model

import "path/filepath"

// JoinPath joins a root and a relative path the way library roots and
// relative media paths are combined throughout the orchestrator.
func JoinPath(root, rel string) string {
	return filepath.Join(root, rel)
}

// Stem returns the filename of rel without its extension, e.g.
// "shows/x.mp4" -> "x".
func Stem(rel string) string {
	base := filepath.Base(rel)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}

// Dir returns the directory portion of rel, "." for a bare filename.
func Dir(rel string) string {
	return filepath.Dir(rel)
}
