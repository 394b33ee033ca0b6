// Package config loads and persists unleash settings. Configuration is
// layered: embedded defaults, then the user settings file in the XDG config
// dir, then UNLEASH_* environment variables.
package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml/v2"

	"github.com/metalheadbang/unleash/pkg/errors"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

const envPrefix = "UNLEASH_"

// Settings is the persisted application state.
type Settings struct {
	// SourceDir is the game directory holding dataN.pak packages.
	SourceDir string `koanf:"source_dir" toml:"source_dir"`
	// ScriptSuffix identifies mergeable script files.
	ScriptSuffix string `koanf:"script_suffix" toml:"script_suffix"`
	// BaselinePak is the canonical base package, normally data0.pak.
	BaselinePak string `koanf:"baseline_pak" toml:"baseline_pak"`
	// OutputFloor is the lowest dataN number merge output may claim.
	OutputFloor int `koanf:"output_floor" toml:"output_floor"`
	// MergeQueue holds mod archive paths queued for the next run.
	MergeQueue []string `koanf:"merge_queue" toml:"merge_queue"`
}

// DefaultPath returns the user settings file location.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "unleash", "settings.toml")
}

// rawBytesProvider implements a koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New(errors.ErrInternal, "rawBytesProvider does not implement Read")
}

// Load builds Settings from defaults, the settings file at path (use "" for
// the default location; a missing file is fine), and the environment.
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load embedded defaults")
	}

	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load settings from %s", path)
		}
	}

	// UNLEASH_SOURCE_DIR=... overrides source_dir, and so on.
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment overrides")
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to unmarshal settings")
	}
	return &s, nil
}

// Save persists settings as TOML at path ("" for the default location).
// The write is atomic: temp file in the same directory, then rename.
func Save(s *Settings, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrConfigSave, "cannot create config dir for %s", path)
	}

	payload, err := gotoml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, errors.ErrConfigSave, "cannot marshal settings")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrConfigSave, "cannot write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, errors.ErrConfigSave, "cannot replace %s", path)
	}
	return nil
}

// DefaultTOML returns the embedded defaults file, used by the genconfig
// command as a starting template.
func DefaultTOML() string {
	return string(defaultConfig)
}
