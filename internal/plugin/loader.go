package plugin

import (
	stdplugin "plugin"

	"github.com/SmolSoftBoi/compressarr/internal/apperr"
	"github.com/SmolSoftBoi/compressarr/internal/hostapi"
)

// Initializer is the callable a plugin's main module exports, either
// directly or under the symbol name "Default". It receives the host API
// handle and is invoked exactly once, with the registry's "currently
// initializing" slot set to this plugin for the duration of the call.
type Initializer func(api *hostapi.API)

// directSymbol and defaultSymbol are the two exported-symbol names the
// loader tries, in order, mirroring a module's direct export versus its
// default export.
const (
	directSymbol  = "Initialize"
	defaultSymbol = "Default"
)

// loadInitializer opens the plugin's main entry at mainPath and resolves
// its initializer. Absence of either exported symbol is fatal for this
// plugin only.
func loadInitializer(pluginID, mainPath string) (Initializer, error) {
	p, err := stdplugin.Open(mainPath)
	if err != nil {
		return nil, apperr.Plugin(pluginID, err)
	}

	if sym, err := p.Lookup(directSymbol); err == nil {
		if fn, ok := sym.(func(*hostapi.API)); ok {
			return Initializer(fn), nil
		}
		return nil, apperr.Plugin(pluginID, apperr.Config("%s has wrong signature, expected func(*hostapi.API)", directSymbol))
	}

	if sym, err := p.Lookup(defaultSymbol); err == nil {
		if fn, ok := sym.(func(*hostapi.API)); ok {
			return Initializer(fn), nil
		}
		return nil, apperr.Plugin(pluginID, apperr.Config("%s has wrong signature, expected func(*hostapi.API)", defaultSymbol))
	}

	return nil, apperr.Plugin(pluginID, apperr.Config("main module exports neither %s nor %s", directSymbol, defaultSymbol))
}
