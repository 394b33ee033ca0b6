package pak

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/metalheadbang/unleash/pkg/logging"
	"github.com/metalheadbang/unleash/pkg/script"
)

// ManifestName is the optional metadata file mods may ship at any level of
// their container.
const ManifestName = "mod.yaml"

// Manifest carries optional mod metadata used only for reporting. Its
// absence is the normal case.
type Manifest struct {
	Name    string `yaml:"name"`
	Author  string `yaml:"author"`
	Version string `yaml:"version"`
	Notes   string `yaml:"notes"`
}

// ParseManifest decodes a mod.yaml payload.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// parseManifestLenient decodes a manifest, logging and dropping malformed
// ones rather than failing the mod.
func parseManifestLenient(data []byte) *Manifest {
	m, err := ParseManifest(data)
	if err != nil {
		logger := logging.GetLogger("pak")
		logger.Warn().Err(err).Msg("Ignoring malformed mod.yaml")
		return nil
	}
	return m
}

func isManifestEntry(name string) bool {
	return strings.EqualFold(script.Basename(name), ManifestName)
}

func manifestFromPak(path string) *Manifest {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil
	}
	defer func() { _ = zr.Close() }()
	return manifestFromZip(&zr.Reader)
}

func manifestFromPakBytes(data []byte) *Manifest {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil
	}
	return manifestFromZip(zr)
}

func manifestFromZip(zr *zip.Reader) *Manifest {
	for _, entry := range zr.File {
		if !isManifestEntry(entry.Name) {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil
		}
		return parseManifestLenient(data)
	}
	return nil
}
