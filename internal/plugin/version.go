package plugin

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/SmolSoftBoi/compressarr/internal/hostapi"
	"github.com/SmolSoftBoi/compressarr/internal/logger"
)

// checkHostRange warns, but does not fail, when a plugin's declared
// engines.compressarr range does not admit the host's own version.
func checkHostRange(pluginID, rangeStr string) {
	if rangeStr == "" {
		return
	}
	constraint, err := semver.NewConstraint(rangeStr)
	if err != nil {
		logger.Registry().Warn().Err(err).Str("plugin", pluginID).Str("range", rangeStr).
			Msg("unparseable host-version range")
		return
	}
	hostVersion, err := semver.NewVersion(hostapi.HostVersion)
	if err != nil {
		return
	}
	if !constraint.Check(hostVersion) {
		logger.Registry().Warn().Str("plugin", pluginID).Str("range", rangeStr).
			Str("host_version", hostapi.HostVersion).
			Msg("plugin declares a host-version range that does not admit the running host")
	}
}

// checkRuntimeRange is the runtime-version analog of checkHostRange; the
// runtime in this implementation is the Go toolchain itself, so a mismatch
// is advisory only.
func checkRuntimeRange(pluginID, rangeStr, runtimeVersion string) {
	if rangeStr == "" {
		return
	}
	constraint, err := semver.NewConstraint(rangeStr)
	if err != nil {
		logger.Registry().Warn().Err(err).Str("plugin", pluginID).Str("range", rangeStr).
			Msg("unparseable runtime-version range")
		return
	}
	v, err := semver.NewVersion(strings.TrimPrefix(runtimeVersion, "go"))
	if err != nil {
		return
	}
	if !constraint.Check(v) {
		logger.Registry().Warn().Str("plugin", pluginID).Str("range", rangeStr).
			Str("runtime_version", runtimeVersion).
			Msg("plugin declares a runtime-version range that does not admit the running runtime")
	}
}
