package model

// Manifest is the subset of a plugin package manifest the registry cares
// about. Field names mirror the on-disk JSON so a manifest decodes directly
// into this struct (see internal/plugin/manifest.go).
type Manifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Keywords        []string          `json:"keywords"`
	Main            string            `json:"main"`
	Engines         map[string]string `json:"engines"`
	PeerDeps        map[string]string `json:"peerDependencies"`
	Dependencies    map[string]string `json:"dependencies"`
}

// Plugin is a discovered, loaded action-module record. It is created by the
// registry during discovery and is owned exclusively by the registry from
// creation until process exit.
type Plugin struct {
	Identifier  string
	Scope       string
	Path        string
	Version     string
	HostRange   string // declared engines.compressarr range
	RuntimeRange string // declared engines.node (or equivalent) range, if any
	MainPath    string
	Disabled    bool

	// Actions maps action-name to the constructor the plugin registered for
	// it during initialization.
	Actions map[string]ActionConstructor
}

// ActionConstructor builds a new ActionInstance from a display name and its
// per-action config block. Plugins register one of these per action name
// they contribute, during their initializer call.
type ActionConstructor func(name string, config map[string]any) (ActionInstance, error)

// ActionInstance is the worker contract a plugin action fulfils. Instances
// are created once at startup, in configuration order, and live for the
// process lifetime.
type ActionInstance interface {
	// Start runs the action against job, returning an updated Job (possibly
	// with a rewritten current-source path). It may block. If the job is
	// killed mid-flight it must return apperr.Killed.
	Start(job *Job) (*Job, error)

	// Kill must be idempotent, must release resources associated with
	// jobID, and must cause any outstanding Start for that job id to settle
	// with apperr.Killed.
	Kill(jobID string) error
}
