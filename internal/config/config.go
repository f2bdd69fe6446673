package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/SmolSoftBoi/compressarr/internal/apperr"
)

// LibraryEntry is one entry of the config file's "libraries" array.
type LibraryEntry struct {
	Library string `json:"library"`
	Name    string `json:"name"`
}

// JobActionEntry is one entry of the config file's "jobActions" array. Raw
// holds the entire decoded object, including jobAction/name, so action
// constructors can pull out whatever arbitrary fields they declare — no
// schema in this package can anticipate every plugin's config shape.
type JobActionEntry struct {
	JobAction string `json:"jobAction"`
	Name      string `json:"name"`
	Raw       map[string]json.RawMessage `json:"-"`
}

// File is the decoded shape of <storage>/config.json.
type File struct {
	Libraries         []LibraryEntry   `json:"libraries"`
	JobActions        []JobActionEntry `json:"jobActions"`
	Plugins           []string         `json:"plugins"`
	DisabledPlugins   []string         `json:"disabledPlugins"`
	DisabledLibraries []string         `json:"disabledLibraries"`
}

// UnmarshalJSON decodes JobActionEntry's known fields while retaining the
// full object in Raw, so unrecognized per-action fields survive for action
// constructors to read later.
func (e *JobActionEntry) UnmarshalJSON(data []byte) error {
	var known struct {
		JobAction string `json:"jobAction"`
		Name      string `json:"name"`
	}
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	e.JobAction = known.JobAction
	e.Name = known.Name

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Raw = raw
	return nil
}

// Load reads and decodes <storageRoot>/config.json. A missing file is
// tolerated and yields an empty configuration; an unparseable file is
// fatal (section 6).
func Load(storageRoot string) (File, error) {
	path := filepath.Join(storageRoot, "config.json")

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return File{}, nil
	}
	if err != nil {
		return File{}, apperr.Config("failed to read %s: %v", path, err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return File{}, apperr.Config("failed to parse %s: %v", path, err)
	}

	return f, nil
}
