package pak

import (
	"archive/zip"
	"io"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode/v2"

	"github.com/metalheadbang/unleash/pkg/errors"
	"github.com/metalheadbang/unleash/pkg/logging"
	"github.com/metalheadbang/unleash/pkg/script"
)

// Mod is one mod container flattened for the core: every script file it
// carries (from every nested pak), plus its optional manifest.
type Mod struct {
	Path     string // archive location on disk
	Name     string // archive basename, used as provenance tag
	Files    []script.File
	Manifest *Manifest
}

// LoadMod opens a mod container of any supported format and flattens it to
// script files. Nested containers (archive holding paks) are unpacked
// recursively; the caller never sees format-specific structure.
func LoadMod(path, suffix string) (*Mod, error) {
	logger := logging.GetLogger("pak")
	name := filepath.Base(path)
	mod := &Mod{Path: path, Name: name}

	kind := Sniff(path)
	switch kind {
	case KindPak:
		files, err := ReadScripts(path, name, suffix)
		if err != nil {
			return nil, err
		}
		mod.Files = files
		mod.Manifest = manifestFromPak(path)

	case KindZip, KindSevenZ, KindRar:
		inner, manifest, err := extractInner(path, kind)
		if err != nil {
			return nil, err
		}
		if len(inner) == 0 {
			return nil, errors.Newf(errors.ErrArchiveRead, "no .pak found inside %s", name)
		}
		mod.Manifest = manifest
		for innerName, data := range inner {
			files, err := ReadScriptsFromBytes(data, name, suffix)
			if err != nil {
				logger.Warn().Err(err).Str("archive", name).Str("pak", innerName).Msg("Skipping unreadable nested pak")
				continue
			}
			mod.Files = append(mod.Files, files...)
			if mod.Manifest == nil {
				mod.Manifest = manifestFromPakBytes(data)
			}
		}

	default:
		return nil, errors.Newf(errors.ErrArchiveFormat, "unsupported archive type for %s", name).
			WithDetail("path", path)
	}

	logger.Debug().Str("mod", name).Int("scripts", len(mod.Files)).Msg("Mod container loaded")
	return mod, nil
}

// extractInner pulls every nested pak out of a generic archive as raw
// bytes, plus the archive-level manifest if one is present.
func extractInner(path string, kind Kind) (map[string][]byte, *Manifest, error) {
	switch kind {
	case KindZip:
		return innerFromZip(path)
	case KindSevenZ:
		return innerFromSevenZip(path)
	case KindRar:
		return innerFromRar(path)
	}
	return nil, nil, errors.Newf(errors.ErrArchiveFormat, "unsupported archive kind %q", kind)
}

func innerFromZip(path string) (map[string][]byte, *Manifest, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, errors.ErrArchiveRead, "cannot open archive %s", path)
	}
	defer func() { _ = zr.Close() }()

	paks := make(map[string][]byte)
	var manifest *Manifest
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		interesting := isPakEntry(entry.Name) || isManifestEntry(entry.Name)
		if !interesting {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, nil, errors.Wrapf(err, errors.ErrArchiveRead, "cannot open entry %s", entry.Name)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, nil, errors.Wrapf(err, errors.ErrArchiveRead, "cannot read entry %s", entry.Name)
		}
		if isPakEntry(entry.Name) {
			paks[entry.Name] = data
		} else if manifest == nil {
			manifest = parseManifestLenient(data)
		}
	}
	return paks, manifest, nil
}

func innerFromSevenZip(path string) (map[string][]byte, *Manifest, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, errors.ErrArchiveRead, "cannot open 7z archive %s", path)
	}
	defer func() { _ = r.Close() }()

	paks := make(map[string][]byte)
	var manifest *Manifest
	for _, entry := range r.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		if !isPakEntry(entry.Name) && !isManifestEntry(entry.Name) {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, nil, errors.Wrapf(err, errors.ErrArchiveRead, "cannot open 7z entry %s", entry.Name)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, nil, errors.Wrapf(err, errors.ErrArchiveRead, "cannot read 7z entry %s", entry.Name)
		}
		if isPakEntry(entry.Name) {
			paks[entry.Name] = data
		} else if manifest == nil {
			manifest = parseManifestLenient(data)
		}
	}
	return paks, manifest, nil
}

func innerFromRar(path string) (map[string][]byte, *Manifest, error) {
	r, err := rardecode.OpenReader(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, errors.ErrArchiveRead, "cannot open rar archive %s", path)
	}
	defer func() { _ = r.Close() }()

	paks := make(map[string][]byte)
	var manifest *Manifest
	for {
		hdr, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrapf(err, errors.ErrArchiveRead, "cannot advance rar archive %s", path)
		}
		if hdr.IsDir {
			continue
		}
		if !isPakEntry(hdr.Name) && !isManifestEntry(hdr.Name) {
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, nil, errors.Wrapf(err, errors.ErrArchiveRead, "cannot read rar entry %s", hdr.Name)
		}
		if isPakEntry(hdr.Name) {
			paks[hdr.Name] = data
		} else if manifest == nil {
			manifest = parseManifestLenient(data)
		}
	}
	return paks, manifest, nil
}

func isPakEntry(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pak")
}
