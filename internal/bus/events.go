// Package bus implements the orchestrator's internal, synchronous,
// in-process publish/subscribe facility. Cross-component state mutations
// (plugin registry, job scheduler) happen inside bus handlers. Handlers run
// on the publisher's goroutine and publishers may be concurrent, so the bus
// does not serialize them; each component guards its own tables with its
// own mutex.
package bus

import "github.com/SmolSoftBoi/compressarr/internal/model"

// Kind identifies one of the nine event kinds the core dispatches.
type Kind string

const (
	LaunchComplete  Kind = "LAUNCH_COMPLETE"
	Shutdown        Kind = "SHUTDOWN"
	RegisterAction  Kind = "REGISTER_ACTION"
	RegisterJob     Kind = "REGISTER_JOB"
	UnregisterJob   Kind = "UNREGISTER_JOB"
	PublishJob      Kind = "PUBLISH_JOB"
	RegisterMedia   Kind = "REGISTER_MEDIA"
	UpdateMedia     Kind = "UPDATE_MEDIA"
	UnregisterMedia Kind = "UNREGISTER_MEDIA"
)

// RegisterActionPayload is published by a plugin's initializer (via the
// host API) to contribute one action constructor.
type RegisterActionPayload struct {
	PluginID string
	Name     string
	Ctor     model.ActionConstructor
}

// RegisterJobPayload accompanies REGISTER_JOB: a job has been admitted into
// the active table and should be run.
type RegisterJobPayload struct {
	SourcePath string
	Config     model.JobConfig
}

// JobPathPayload accompanies UNREGISTER_JOB and PUBLISH_JOB: both
// carry only the source path identifying the job.
type JobPathPayload struct {
	SourcePath string
}

// MediaPayload accompanies REGISTER_MEDIA, UPDATE_MEDIA, and
// UNREGISTER_MEDIA.
type MediaPayload struct {
	Ref model.MediaRef
}
