package model

// MediaRef identifies a discovered media item by the library root it was
// found under and its path relative to that root.
type MediaRef struct {
	LibraryRoot string
	RelPath     string
}

// SourcePath returns the absolute path a MediaRef refers to. Scheduler
// tables are keyed on this value.
func (m MediaRef) SourcePath() string {
	return JoinPath(m.LibraryRoot, m.RelPath)
}
