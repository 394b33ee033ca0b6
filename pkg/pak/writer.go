package pak

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"

	"github.com/metalheadbang/unleash/pkg/errors"
	"github.com/metalheadbang/unleash/pkg/script"
)

// WritePak writes script files into a zip-format pak at path. Entry paths
// always use forward slashes regardless of how the mod spelled them.
func WritePak(path string, files []script.File) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrPakWrite, "cannot create pak %s", path)
	}

	zw := zip.NewWriter(f)
	for _, sf := range files {
		entry := strings.ReplaceAll(sf.Path, "\\", "/")
		w, err := zw.Create(entry)
		if err != nil {
			_ = zw.Close()
			_ = f.Close()
			return errors.Wrapf(err, errors.ErrPakWrite, "cannot add entry %s", entry)
		}
		if _, err := w.Write([]byte(sf.Content)); err != nil {
			_ = zw.Close()
			_ = f.Close()
			return errors.Wrapf(err, errors.ErrPakWrite, "cannot write entry %s", entry)
		}
	}

	if err := zw.Close(); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, errors.ErrPakWrite, "cannot finalize pak %s", path)
	}
	return f.Close()
}

// WriteFixedMod writes a corrected copy of a mod whose paths were rewritten
// to canonical locations: a zip wrapping a single mod.pak, the same shape
// nested mod downloads use.
func WriteFixedMod(path string, files []script.File) error {
	tmpDir, err := os.MkdirTemp("", "unleash-fix-*")
	if err != nil {
		return errors.Wrap(err, errors.ErrPakWrite, "cannot create scratch dir for fixed mod")
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	inner := filepath.Join(tmpDir, "mod.pak")
	if err := WritePak(inner, files); err != nil {
		return err
	}
	data, err := os.ReadFile(inner)
	if err != nil {
		return errors.Wrap(err, errors.ErrPakWrite, "cannot reread fixed pak")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrPakWrite, "cannot create fixed mod %s", path)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("mod.pak")
	if err == nil {
		_, err = w.Write(data)
	}
	if err != nil {
		_ = zw.Close()
		_ = f.Close()
		return errors.Wrapf(err, errors.ErrPakWrite, "cannot write fixed mod %s", path)
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, errors.ErrPakWrite, "cannot finalize fixed mod %s", path)
	}
	return f.Close()
}
