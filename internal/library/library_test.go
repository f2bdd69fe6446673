package library

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SmolSoftBoi/compressarr/internal/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type alwaysMediaProber struct{}

func (alwaysMediaProber) Probe(path string) (bool, error) { return true, nil }

type neverMediaProber struct{}

func (neverMediaProber) Probe(path string) (bool, error) { return false, nil }

func TestLoadRejectsDuplicateNames(t *testing.T) {
	root := t.TempDir()
	b := bus.New()
	m := NewManager(b, alwaysMediaProber{})

	err := m.Load([]Config{{Root: root, Name: "movies"}, {Root: root, Name: "movies"}}, nil)
	assert.Error(t, err)
}

func TestLoadSkipsNonexistentRoot(t *testing.T) {
	b := bus.New()
	m := NewManager(b, alwaysMediaProber{})

	err := m.Load([]Config{{Root: filepath.Join(t.TempDir(), "missing"), Name: "movies"}}, nil)
	require.NoError(t, err)
	assert.Empty(t, m.libraries["movies"])
}

func TestLoadDisabledLibraryDoesNotStartWatcher(t *testing.T) {
	root := t.TempDir()
	b := bus.New()
	m := NewManager(b, alwaysMediaProber{})

	require.NoError(t, m.Load([]Config{{Root: root, Name: "movies"}}, []string{"movies"}))

	lib, ok := m.libraries["movies"]
	require.True(t, ok)
	assert.True(t, lib.Disabled)
	assert.Nil(t, lib.w)
}

func TestPumpPublishesRegisterMediaForProbedFile(t *testing.T) {
	root := t.TempDir()
	b := bus.New()

	received := make(chan bus.MediaPayload, 1)
	b.Subscribe(bus.RegisterMedia, func(data any) error {
		received <- data.(bus.MediaPayload)
		return nil
	})

	m := NewManager(b, alwaysMediaProber{})
	require.NoError(t, m.Load([]Config{{Root: root, Name: "movies"}}, nil))
	defer m.Shutdown()

	require.NoError(t, os.WriteFile(filepath.Join(root, "movie.mp4"), []byte("data"), 0o644))

	select {
	case payload := <-received:
		assert.Equal(t, "movie.mp4", payload.Ref.RelPath)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for REGISTER_MEDIA")
	}
}

func TestPumpDropsEventsTheProberRejects(t *testing.T) {
	root := t.TempDir()
	b := bus.New()

	received := make(chan bus.MediaPayload, 1)
	b.Subscribe(bus.RegisterMedia, func(data any) error {
		received <- data.(bus.MediaPayload)
		return nil
	})

	m := NewManager(b, neverMediaProber{})
	require.NoError(t, m.Load([]Config{{Root: root, Name: "movies"}}, nil))
	defer m.Shutdown()

	require.NoError(t, os.WriteFile(filepath.Join(root, "notmedia.txt"), []byte("data"), 0o644))

	select {
	case <-received:
		t.Fatal("expected no REGISTER_MEDIA for a file the prober rejects")
	case <-time.After(1 * time.Second):
	}
}
