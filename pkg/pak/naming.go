package pak

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/metalheadbang/unleash/pkg/errors"
)

// DefaultOutputFloor is the lowest dataN number merge output may claim.
// data0..data2 belong to the game itself and must never be shadowed.
const DefaultOutputFloor = 3

// DisabledSuffix marks a pak that is installed but not loaded by the game.
const DisabledSuffix = ".disabled"

// NextPackageName returns the lowest unused dataN.pak name in dir with
// N >= floor. A dataN.pak.disabled also claims its number, so re-enabling
// it later cannot collide with merge output.
func NextPackageName(dir string, floor int) (string, error) {
	if floor < 0 {
		floor = DefaultOutputFloor
	}
	for n := floor; ; n++ {
		name := fmt.Sprintf("data%d.pak", n)
		if pakExists(dir, name) {
			continue
		}
		return name, nil
	}
}

func pakExists(dir, name string) bool {
	for _, candidate := range []string{name, name + DisabledSuffix} {
		if _, err := os.Stat(filepath.Join(dir, candidate)); err == nil {
			return true
		}
	}
	return false
}

// BaselinePaks lists the dataN.pak files present in the source directory in
// lexical order, skipping disabled ones.
func BaselinePaks(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "data*.pak"))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrSourceDirAccess, "cannot scan %s", dir)
	}
	return matches, nil
}
