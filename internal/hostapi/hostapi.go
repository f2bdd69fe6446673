// Package hostapi is the versioned handle passed to plugin initializers and
// action instances. Every method is a thin republisher onto the internal
// bus; the package itself holds no state beyond the host version strings
// and a reference to the bus.
package hostapi

import (
	"github.com/SmolSoftBoi/compressarr/internal/bus"
	"github.com/SmolSoftBoi/compressarr/internal/model"
)

// APIVersion is the numeric host API version, opaque to plugins beyond a
// >= comparator against their declared requirement.
const APIVersion = 1

// HostVersion is the host's own semantic version string, reported to
// plugins for engines.compressarr range checks.
const HostVersion = "1.0.0"

// API is the handle given to plugin initializers and action instances.
type API struct {
	bus *bus.Bus
}

// New builds an API bound to the given bus.
func New(b *bus.Bus) *API {
	return &API{bus: b}
}

// Version returns the host's semantic version string.
func (a *API) Version() string { return HostVersion }

// APIVersion returns the numeric host API version.
func (a *API) APIVersion() int { return APIVersion }

// RegisterAction contributes an action constructor under name, attributed
// to pluginID. Called only from within a plugin initializer.
func (a *API) RegisterAction(pluginID, name string, ctor model.ActionConstructor) {
	a.bus.Publish(bus.RegisterAction, bus.RegisterActionPayload{PluginID: pluginID, Name: name, Ctor: ctor})
}

// RegisterJob publishes REGISTER_JOB for a job. Nothing in the core
// subscribes to REGISTER_JOB, so publishing it does not start the job; only
// jobs the scheduler admits are run.
func (a *API) RegisterJob(sourcePath string, cfg model.JobConfig) {
	a.bus.Publish(bus.RegisterJob, bus.RegisterJobPayload{SourcePath: sourcePath, Config: cfg})
}

// UnregisterJob requests cancellation of an in-flight or pending job.
func (a *API) UnregisterJob(sourcePath string) {
	a.bus.Publish(bus.UnregisterJob, bus.JobPathPayload{SourcePath: sourcePath})
}

// PublishJob announces a job has completed successfully.
func (a *API) PublishJob(sourcePath string) {
	a.bus.Publish(bus.PublishJob, bus.JobPathPayload{SourcePath: sourcePath})
}

// RegisterMedia announces a newly discovered media item.
func (a *API) RegisterMedia(ref model.MediaRef) {
	a.bus.Publish(bus.RegisterMedia, bus.MediaPayload{Ref: ref})
}

// UpdateMedia announces a changed media item.
func (a *API) UpdateMedia(ref model.MediaRef) {
	a.bus.Publish(bus.UpdateMedia, bus.MediaPayload{Ref: ref})
}

// UnregisterMedia announces a removed media item.
func (a *API) UnregisterMedia(ref model.MediaRef) {
	a.bus.Publish(bus.UnregisterMedia, bus.MediaPayload{Ref: ref})
}

// OnLaunchComplete subscribes handler to the one-shot LAUNCH_COMPLETE signal.
func (a *API) OnLaunchComplete(handler func()) {
	a.bus.Subscribe(bus.LaunchComplete, func(any) error { handler(); return nil })
}

// OnShutdown subscribes handler to the SHUTDOWN signal.
func (a *API) OnShutdown(handler func()) {
	a.bus.Subscribe(bus.Shutdown, func(any) error { handler(); return nil })
}
