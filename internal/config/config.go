// Package config persists user settings for deckpack under a base directory
// (~/.deckpack by default). Settings are stored as a flat JSON object so the
// file stays hand-editable.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// Save modes control what happens to the source package on export.
const (
	// SaveModeCopy exports to a new file next to the original.
	SaveModeCopy = "copy"
	// SaveModeOverwrite exports over the original package path.
	SaveModeOverwrite = "overwrite"
)

// settingsFile is the name of the settings file inside the base directory.
const settingsFile = "settings.json"

// Settings holds persisted user preferences.
type Settings struct {
	// SaveMode selects the export target: "copy" writes a sibling file,
	// "overwrite" replaces the opened package. Unknown values fall back
	// to "copy".
	SaveMode string `json:"save_mode"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are ignored.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultSettings returns the default settings.
func DefaultSettings() *Settings {
	return &Settings{
		SaveMode: SaveModeCopy,
	}
}

// DefaultBaseDir returns ~/.deckpack, or a relative fallback when the home
// directory cannot be resolved.
func DefaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".deckpack"
	}
	return filepath.Join(home, ".deckpack")
}

// Load reads settings from baseDir/settings.json. A missing file yields the
// defaults; unknown or empty values are normalized.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.deckpack.
func Load(baseDir string) (*Settings, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, settingsFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	s := &Settings{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	s.normalize()
	return s, nil
}

// Save writes settings to baseDir/settings.json, creating the directory if
// needed. The write is atomic so a crash never leaves a truncated file.
func (s *Settings) Save(baseDir string) error {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return atomic.WriteFile(filepath.Join(baseDir, settingsFile), bytes.NewReader(data))
}

// ExportTarget resolves the default export path for a source package under
// the configured save mode. Copy mode appends "_edited" before the extension.
func (s *Settings) ExportTarget(srcPath string) string {
	if s.SaveMode == SaveModeOverwrite {
		return srcPath
	}
	ext := filepath.Ext(srcPath)
	return strings.TrimSuffix(srcPath, ext) + "_edited" + ext
}

func (s *Settings) normalize() {
	if s.SaveMode != SaveModeCopy && s.SaveMode != SaveModeOverwrite {
		s.SaveMode = SaveModeCopy
	}
}
