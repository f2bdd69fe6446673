// Package model holds the shared data types threaded between the event bus,
// the plugin registry, the library manager, the job scheduler, and the job
// runner: plugin identifiers, media references, job configs and the mutable
// Job record itself.
package model

import "regexp"

// identifierPattern matches ((@scope)/)?compressarr-<slug>.
var identifierPattern = regexp.MustCompile(`^(@[a-z0-9][a-z0-9._-]*/)?compressarr-[a-z0-9][a-z0-9._-]*$`)

// ValidIdentifier reports whether id matches the plugin-identifier pattern.
func ValidIdentifier(id string) bool {
	return identifierPattern.MatchString(id)
}

// SplitScope separates a scoped identifier "@scope/compressarr-x" into its
// scope ("@scope") and unscoped remainder ("compressarr-x"). For an
// unscoped identifier it returns an empty scope.
func SplitScope(id string) (scope, rest string) {
	for i := 0; i < len(id); i++ {
		if id[i] == '/' {
			return id[:i], id[i+1:]
		}
	}
	return "", id
}
