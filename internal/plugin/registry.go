// Package plugin implements the orchestrator's plugin registry: discovery
// of on-disk candidates, manifest validation, loading of each candidate's
// main module, and initialization of the action constructors each plugin
// contributes.
package plugin

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/SmolSoftBoi/compressarr/internal/apperr"
	"github.com/SmolSoftBoi/compressarr/internal/bus"
	"github.com/SmolSoftBoi/compressarr/internal/hostapi"
	"github.com/SmolSoftBoi/compressarr/internal/logger"
	"github.com/SmolSoftBoi/compressarr/internal/model"
)

// Registry owns every loaded Plugin record for the life of the process. It
// is populated once during startup (Discover, then Initialize) and is
// read-only thereafter, per invariant 4.
type Registry struct {
	mu sync.RWMutex

	plugins map[string]*model.Plugin   // identifier -> plugin
	byName  map[string][]*model.Plugin // action-name -> contributing plugins
	translation map[string]string      // misdeclared id -> actual identifier

	initializers map[string]Initializer // identifier -> resolved entry point

	currently *model.Plugin // single-slot "currently initializing" reference

	bus *bus.Bus
	api *hostapi.API
}

// New builds an empty Registry bound to b and api, and subscribes it to
// REGISTER_ACTION so it can attribute action registrations that arrive
// during an initializer call to whichever plugin is currently initializing.
func New(b *bus.Bus, api *hostapi.API) *Registry {
	r := &Registry{
		plugins:      make(map[string]*model.Plugin),
		byName:       make(map[string][]*model.Plugin),
		translation:  make(map[string]string),
		initializers: make(map[string]Initializer),
		bus:          b,
		api:          api,
	}
	b.Subscribe(bus.RegisterAction, r.handleRegisterAction)
	return r
}

func (r *Registry) handleRegisterAction(data any) error {
	payload, ok := data.(bus.RegisterActionPayload)
	if !ok {
		return fmt.Errorf("unexpected REGISTER_ACTION payload type %T", data)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currently == nil {
		return fmt.Errorf("REGISTER_ACTION %q received outside of any plugin initializer", payload.Name)
	}

	owner := r.currently
	if payload.PluginID != "" && payload.PluginID != owner.Identifier {
		r.translation[payload.PluginID] = owner.Identifier
		logger.Registry().Warn().
			Str("declared", payload.PluginID).
			Str("actual", owner.Identifier).
			Msg("action registered under a plugin id that does not match the initializing plugin; translated")
	}

	if owner.Actions == nil {
		owner.Actions = make(map[string]model.ActionConstructor)
	}
	owner.Actions[payload.Name] = payload.Ctor
	r.byName[payload.Name] = append(r.byName[payload.Name], owner)

	logger.Registry().Debug().Str("plugin", owner.Identifier).Str("action", payload.Name).Msg("action registered")
	return nil
}

// Discover scans searchPaths for plugin candidates, validates each
// manifest, and loads accepted plugins into the registry. activeAllowList,
// if non-empty, restricts loading to only those identifiers; disabledList
// marks otherwise-loaded plugins disabled without excluding them.
func (r *Registry) Discover(searchPaths []string, activeAllowList, disabledList []string) {
	log := logger.Discovery()
	allow := toSet(activeAllowList)
	disabled := toSet(disabledList)

	candidates := discoverCandidates(searchPaths)
	for _, c := range candidates {
		manifest, err := readManifest(c.dir)
		if err != nil {
			log.Debug().Err(err).Str("path", c.dir).Msg("no usable manifest, skipping candidate")
			continue
		}
		manifest, err = validateManifest(manifest)
		if err != nil {
			log.Warn().Err(err).Str("path", c.dir).Msg("invalid plugin manifest, skipping")
			continue
		}

		if len(allow) > 0 && !allow[manifest.Name] {
			log.Debug().Str("plugin", manifest.Name).Msg("plugin not in active allow-list, skipping")
			continue
		}

		if err := r.load(c.dir, manifest, disabled[manifest.Name]); err != nil {
			log.Warn().Err(err).Str("plugin", manifest.Name).Msg("failed to load plugin")
		}
	}
}

func (r *Registry) load(dir string, manifest model.Manifest, disabled bool) error {
	r.mu.Lock()
	if _, exists := r.plugins[manifest.Name]; exists {
		r.mu.Unlock()
		return apperr.Plugin(manifest.Name, fmt.Errorf("duplicate plugin identifier discovered at %s", dir))
	}
	r.mu.Unlock()

	scope, _ := model.SplitScope(manifest.Name)

	p := &model.Plugin{
		Identifier: manifest.Name,
		Scope:      scope,
		Path:       dir,
		Version:    manifest.Version,
		HostRange:  manifest.Engines["compressarr"],
		RuntimeRange: manifest.Engines["node"],
		MainPath:   mainEntryPath(dir, manifest.Main),
		Disabled:   disabled,
		Actions:    make(map[string]model.ActionConstructor),
	}

	checkHostRange(p.Identifier, p.HostRange)
	checkRuntimeRange(p.Identifier, p.RuntimeRange, runtime.Version())

	if _, ok := manifest.Dependencies["compressarr"]; ok {
		logger.Registry().Warn().Str("plugin", p.Identifier).
			Msg("plugin declares the host itself as a regular dependency; it should be a peerDependency")
	}

	init, err := loadInitializer(p.Identifier, p.MainPath)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.plugins[p.Identifier] = p
	r.initializers[p.Identifier] = init
	r.mu.Unlock()

	return nil
}

// Initialize invokes every loaded plugin's initializer, in ascending order
// of plugin identifier, with the registry's currently-initializing slot set
// so that REGISTER_ACTION events raised during the call are attributed
// correctly. The order in which plugins were discovered is not kept.
func (r *Registry) Initialize() {
	r.mu.RLock()
	ordered := make([]*model.Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		ordered = append(ordered, p)
	}
	r.mu.RUnlock()
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Identifier < ordered[j].Identifier })

	for _, p := range ordered {
		r.mu.RLock()
		init := r.initializers[p.Identifier]
		r.mu.RUnlock()

		r.mu.Lock()
		r.currently = p
		r.mu.Unlock()

		init(r.api)

		r.mu.Lock()
		r.currently = nil
		r.mu.Unlock()
	}
}

// Resolve looks up an action-config identifier (section 3): a bare name is
// resolved against the registry's name index; a "plugin-id.name" qualifier
// is resolved directly against a plugin, consulting the identifier
// translation table as a fallback. An identifier containing a dot that does
// not resolve as a qualifier is also tried as a bare name; if that fails
// too, the qualified resolution's error is returned.
func (r *Registry) Resolve(identifier string) (*model.Plugin, string, model.ActionConstructor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if idx := strings.LastIndex(identifier, "."); idx > 0 {
		p, name, ctor, qerr := r.resolveQualified(identifier[:idx], identifier[idx+1:])
		if qerr == nil {
			return p, name, ctor, nil
		}
		if p, name, ctor, err := r.resolveBare(identifier); err == nil {
			return p, name, ctor, nil
		}
		return nil, "", nil, qerr
	}

	return r.resolveBare(identifier)
}

func (r *Registry) resolveQualified(pluginID, name string) (*model.Plugin, string, model.ActionConstructor, error) {
	p, ok := r.plugins[pluginID]
	if !ok {
		if actual, ok2 := r.translation[pluginID]; ok2 {
			p, ok = r.plugins[actual]
		}
	}
	if !ok {
		return nil, "", nil, apperr.Resolution(pluginID+"."+name, "no such plugin %q", pluginID)
	}
	if p.Disabled {
		return nil, "", nil, apperr.Resolution(pluginID+"."+name, "plugin %q is disabled", pluginID)
	}
	ctor, ok := p.Actions[name]
	if !ok {
		return nil, "", nil, apperr.Resolution(pluginID+"."+name, "plugin %q contributes no action named %q", pluginID, name)
	}
	return p, name, ctor, nil
}

func (r *Registry) resolveBare(name string) (*model.Plugin, string, model.ActionConstructor, error) {
	candidates := r.byName[name]

	var enabled []*model.Plugin
	for _, p := range candidates {
		if !p.Disabled {
			enabled = append(enabled, p)
		}
	}

	switch len(enabled) {
	case 0:
		if len(candidates) > 0 {
			return nil, "", nil, apperr.Resolution(name, "action %q is only contributed by disabled plugins", name)
		}
		return nil, "", nil, apperr.Resolution(name, "no plugin contributes action %q", name)
	case 1:
		p := enabled[0]
		return p, name, p.Actions[name], nil
	default:
		ids := make([]string, 0, len(enabled))
		for _, p := range enabled {
			ids = append(ids, p.Identifier+"."+name)
		}
		sort.Strings(ids)
		return nil, "", nil, apperr.Resolution(name, "action %q is ambiguous; qualify as one of: %s", name, strings.Join(ids, ", "))
	}
}

// Get returns the loaded plugin with the given identifier, if any.
func (r *Registry) Get(identifier string) (*model.Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[identifier]
	return p, ok
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
