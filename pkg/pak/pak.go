// Package pak reads and writes the game's script containers. A pak is a
// plain zip archive; mods arrive either as a bare pak or as a generic
// archive (zip, 7z, rar) nesting one or more paks. The rest of the system
// only ever sees flat (path, decoded text) pairs.
package pak

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"

	"github.com/metalheadbang/unleash/pkg/errors"
	"github.com/metalheadbang/unleash/pkg/script"
)

// DefaultScriptSuffix identifies mergeable script files inside a container.
const DefaultScriptSuffix = ".scr"

// ReadScripts extracts every script file from a pak on disk. source tags
// the provenance of each extracted file.
func ReadScripts(path, source, suffix string) ([]script.File, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrPakRead, "cannot open pak %s", path)
	}
	defer func() { _ = zr.Close() }()

	return scriptsFromZip(&zr.Reader, source, suffix)
}

// ReadScriptsFromBytes extracts script files from an in-memory pak, as
// yielded by the nested-archive unpacker.
func ReadScriptsFromBytes(data []byte, source, suffix string) ([]script.File, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrPakRead, "cannot read nested pak from %s", source)
	}
	return scriptsFromZip(zr, source, suffix)
}

func scriptsFromZip(zr *zip.Reader, source, suffix string) ([]script.File, error) {
	var files []script.File
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(entry.Name), strings.ToLower(suffix)) {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrPakRead, "cannot open entry %s", entry.Name)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrPakRead, "cannot read entry %s", entry.Name)
		}
		files = append(files, script.File{
			Path:    strings.ReplaceAll(entry.Name, "\\", "/"),
			Content: script.DecodeText(data),
			Source:  source,
		})
	}
	return files, nil
}
