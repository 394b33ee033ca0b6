// Package structure maps mod file layouts onto the baseline package's
// canonical layout.
package structure

import (
	"strings"

	"github.com/metalheadbang/unleash/pkg/logging"
	"github.com/metalheadbang/unleash/pkg/script"
)

// Index records, for every script basename in the baseline package, the
// canonical relative path it lives at. Built once per run.
type Index struct {
	byBasename map[string]string // lowercased basename -> canonical path
	count      int
}

// BuildIndex scans the baseline's script file paths. On a basename
// collision the first occurrence wins; the duplicate is logged and never
// merged into the index.
func BuildIndex(paths []string) *Index {
	logger := logging.GetLogger("structure")

	ix := &Index{byBasename: make(map[string]string)}
	for _, path := range paths {
		name := strings.ToLower(script.Basename(path))
		if existing, dup := ix.byBasename[name]; dup {
			logger.Warn().
				Str("basename", name).
				Str("kept", existing).
				Str("duplicate", path).
				Msg("Duplicate basename in baseline package, keeping first occurrence")
			continue
		}
		ix.byBasename[name] = path
		ix.count++
	}
	return ix
}

// CanonicalPath returns the baseline path for a basename, case-insensitively.
func (ix *Index) CanonicalPath(basename string) (string, bool) {
	path, ok := ix.byBasename[strings.ToLower(basename)]
	return path, ok
}

// Len returns the number of distinct basenames indexed.
func (ix *Index) Len() int {
	return ix.count
}
