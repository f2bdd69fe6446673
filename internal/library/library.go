// Package library owns the per-root filesystem watchers and bridges their
// settled events into REGISTER_MEDIA / UPDATE_MEDIA / UNREGISTER_MEDIA
// events on the internal bus, filtered by a media-info probe.
package library

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/SmolSoftBoi/compressarr/internal/apperr"
	"github.com/SmolSoftBoi/compressarr/internal/bus"
	"github.com/SmolSoftBoi/compressarr/internal/logger"
	"github.com/SmolSoftBoi/compressarr/internal/model"
)

// Config is one configured library entry (section 6): an absolute root
// directory and a display name.
type Config struct {
	Root string
	Name string
}

// Library watches a single root directory and republishes its settled
// filesystem events as media events, once a config entry is loaded by
// Manager.
type Library struct {
	Name     string
	Root     string
	Disabled bool

	w *watcher
}

// Manager owns every configured Library for the process lifetime. Its set
// of roots is fixed at Load and never changes (invariant 5).
type Manager struct {
	mu        sync.Mutex
	libraries map[string]*Library
	bus       *bus.Bus
	prober    Prober
}

// NewManager builds a Manager bound to b, using prober to filter raw
// filesystem events down to genuine media notifications.
func NewManager(b *bus.Bus, prober Prober) *Manager {
	return &Manager{
		libraries: make(map[string]*Library),
		bus:       b,
		prober:    prober,
	}
}

// Load instantiates a Library for each config entry whose root exists,
// silently dropping nonexistent roots with a warning, rejecting duplicate
// names, and starting a watcher for every entry not listed in disabled.
func (m *Manager) Load(configs []Config, disabled []string) error {
	log := logger.Library()
	deny := toSet(disabled)

	for _, cfg := range configs {
		if _, exists := m.libraries[cfg.Name]; exists {
			return apperr.Config("duplicate library name %q", cfg.Name)
		}

		info, err := os.Stat(cfg.Root)
		if err != nil || !info.IsDir() {
			log.Warn().Str("name", cfg.Name).Str("root", cfg.Root).Msg("library root does not exist, skipping")
			continue
		}

		lib := &Library{
			Name:     cfg.Name,
			Root:     cfg.Root,
			Disabled: deny[cfg.Name],
		}
		m.libraries[cfg.Name] = lib

		if lib.Disabled {
			log.Info().Str("name", cfg.Name).Msg("library disabled, watcher not started")
			continue
		}

		if err := m.start(lib); err != nil {
			log.Warn().Err(err).Str("name", cfg.Name).Str("root", cfg.Root).Msg("failed to start library watcher")
		}
	}

	return nil
}

func (m *Manager) start(lib *Library) error {
	w, err := newWatcher(lib.Root)
	if err != nil {
		return err
	}
	lib.w = w

	go m.pump(lib)
	return nil
}

func (m *Manager) pump(lib *Library) {
	log := logger.Library()
	for ev := range lib.w.Events {
		rel, err := filepath.Rel(lib.Root, ev.Path)
		if err != nil {
			continue
		}
		ref := model.MediaRef{LibraryRoot: lib.Root, RelPath: rel}

		if ev.Op != OpRemoved {
			ok, err := m.prober.Probe(ev.Path)
			if err != nil {
				log.Debug().Err(err).Str("path", ev.Path).Msg("probe failed, dropping event")
				continue
			}
			if !ok {
				continue
			}
		}

		switch ev.Op {
		case OpAdded:
			m.bus.Publish(bus.RegisterMedia, bus.MediaPayload{Ref: ref})
		case OpChanged:
			m.bus.Publish(bus.UpdateMedia, bus.MediaPayload{Ref: ref})
		case OpRemoved:
			m.bus.Publish(bus.UnregisterMedia, bus.MediaPayload{Ref: ref})
		}
	}
}

// Shutdown closes every started watcher.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, lib := range m.libraries {
		if lib.w != nil {
			lib.w.Close()
		}
	}
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
