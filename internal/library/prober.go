package library

// Prober is the media-info collaborator the library watcher consults
// before turning a raw filesystem event into a media notification. It is
// an external collaborator (ffprobe or equivalent) — out of scope for the
// core, which only needs the yes/no/error shape.
type Prober interface {
	// Probe inspects the file at path. ok is false when the probe
	// determined the file is not usable media (not an error); err is
	// non-nil when the probe itself failed to run.
	Probe(path string) (ok bool, err error)
}
