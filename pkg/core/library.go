package core

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/metalheadbang/unleash/pkg/errors"
	"github.com/metalheadbang/unleash/pkg/logging"
	"github.com/metalheadbang/unleash/pkg/pak"
)

// InstalledPak is one dataN.pak in the source directory, active or not.
type InstalledPak struct {
	Name   string // pak name without the disabled suffix
	Path   string
	Number int // -1 when the name is not dataN-shaped
	Active bool
}

// ListInstalled scans the source directory for installed packages,
// including disabled ones, ordered by number.
func ListInstalled(dir string) ([]InstalledPak, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrSourceDirAccess, "cannot read %s", dir)
	}

	var paks []InstalledPak
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		active := true
		if strings.HasSuffix(strings.ToLower(name), ".pak"+pak.DisabledSuffix) {
			active = false
			name = name[:len(name)-len(pak.DisabledSuffix)]
		} else if !strings.HasSuffix(strings.ToLower(name), ".pak") {
			continue
		}

		number := -1
		if m := dataPakPattern.FindStringSubmatch(strings.ToLower(name)); m != nil {
			number, _ = strconv.Atoi(m[1])
		}
		paks = append(paks, InstalledPak{
			Name:   name,
			Path:   filepath.Join(dir, e.Name()),
			Number: number,
			Active: active,
		})
	}

	sort.Slice(paks, func(i, j int) bool {
		if paks[i].Number != paks[j].Number {
			return paks[i].Number < paks[j].Number
		}
		return paks[i].Name < paks[j].Name
	})
	return paks, nil
}

// Install copies a bare pak into the source directory under the next free
// dataN name at or above floor, and returns the assigned name. Archives
// that nest paks go through a merge run instead.
func Install(dir, modPath string, floor int) (string, error) {
	if kind := pak.Sniff(modPath); kind != pak.KindPak {
		return "", errors.Newf(errors.ErrInvalidInput, "%s is not a bare pak (detected %q); run a merge to install archives", filepath.Base(modPath), kind)
	}

	name, err := pak.NextPackageName(dir, floor)
	if err != nil {
		return "", err
	}

	src, err := os.Open(modPath)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrPakRead, "cannot open %s", modPath)
	}
	defer func() { _ = src.Close() }()

	dstPath := filepath.Join(dir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrPakWrite, "cannot create %s", dstPath)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dstPath)
		return "", errors.Wrapf(err, errors.ErrPakWrite, "cannot copy into %s", dstPath)
	}
	if err := dst.Close(); err != nil {
		return "", errors.Wrapf(err, errors.ErrPakWrite, "cannot finalize %s", dstPath)
	}

	logger := logging.GetLogger("core")
	logger.Info().Str("mod", filepath.Base(modPath)).Str("installed", name).Msg("Pak installed")
	return name, nil
}

// Disable renames a pak so the game stops loading it, without deleting it.
func Disable(dir, name string) error {
	from := filepath.Join(dir, name)
	to := from + pak.DisabledSuffix
	if err := os.Rename(from, to); err != nil {
		return errors.Wrapf(err, errors.ErrSourceDirAccess, "cannot disable %s", name)
	}
	return nil
}

// Enable re-activates a previously disabled pak.
func Enable(dir, name string) error {
	from := filepath.Join(dir, name+pak.DisabledSuffix)
	to := filepath.Join(dir, name)
	if _, err := os.Stat(to); err == nil {
		return errors.Newf(errors.ErrInvalidInput, "%s already exists, cannot enable the disabled copy", name)
	}
	if err := os.Rename(from, to); err != nil {
		return errors.Wrapf(err, errors.ErrSourceDirAccess, "cannot enable %s", name)
	}
	return nil
}

// Rename moves an installed pak to a different dataN name. The target must
// be dataN-shaped and free; the disabled state survives the rename.
func Rename(dir, oldName, newName string) error {
	if dataPakPattern.FindStringSubmatch(strings.ToLower(newName)) == nil {
		return errors.Newf(errors.ErrInvalidInput, "%s is not a dataN.pak name", newName)
	}
	if pakTaken(dir, newName) {
		return errors.Newf(errors.ErrInvalidInput, "%s already exists", newName)
	}

	for _, suffix := range []string{"", pak.DisabledSuffix} {
		from := filepath.Join(dir, oldName+suffix)
		if _, err := os.Stat(from); err != nil {
			continue
		}
		to := filepath.Join(dir, newName+suffix)
		if err := os.Rename(from, to); err != nil {
			return errors.Wrapf(err, errors.ErrSourceDirAccess, "cannot rename %s to %s", oldName, newName)
		}
		return nil
	}
	return errors.Newf(errors.ErrNotFound, "%s is not installed", oldName)
}

func pakTaken(dir, name string) bool {
	for _, suffix := range []string{"", pak.DisabledSuffix} {
		if _, err := os.Stat(filepath.Join(dir, name+suffix)); err == nil {
			return true
		}
	}
	return false
}

// Remove deletes an installed pak (active or disabled).
func Remove(dir, name string) error {
	for _, candidate := range []string{name, name + pak.DisabledSuffix} {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			if err := os.Remove(path); err != nil {
				return errors.Wrapf(err, errors.ErrSourceDirAccess, "cannot remove %s", candidate)
			}
			return nil
		}
	}
	return errors.Newf(errors.ErrNotFound, "%s is not installed", name)
}
