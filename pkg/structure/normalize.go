package structure

import (
	"github.com/metalheadbang/unleash/pkg/script"
)

// Decision is the whole-mod answer required when a mod ships files the
// baseline knows nothing about. There is no per-file middle ground.
type Decision int

const (
	// KeepOriginal uses the mod verbatim with its original, uncorrected paths.
	KeepOriginal Decision = iota
	// ExcludeMod drops the mod from the run entirely.
	ExcludeMod
)

// Decider supplies the whole-mod decision for unknown files. Interactive
// front-ends prompt; embeddings may answer with a fixed policy.
type Decider interface {
	DecideUnknown(modName string, unknown []string) (Decision, error)
}

// DeciderFunc adapts a function to the Decider interface.
type DeciderFunc func(modName string, unknown []string) (Decision, error)

func (f DeciderFunc) DecideUnknown(modName string, unknown []string) (Decision, error) {
	return f(modName, unknown)
}

// AlwaysKeep keeps every mod with unknown files at its original structure.
var AlwaysKeep = DeciderFunc(func(string, []string) (Decision, error) {
	return KeepOriginal, nil
})

// AlwaysExclude drops every mod that ships unknown files.
var AlwaysExclude = DeciderFunc(func(string, []string) (Decision, error) {
	return ExcludeMod, nil
})

// Correction records one path rewrite applied to a mod file.
type Correction struct {
	From string
	To   string
}

// Result classifies one mod's files against the canonical index.
type Result struct {
	// Files carries the mod's script files with corrected paths applied.
	// Only meaningful when Unknown is empty.
	Files []script.File
	// Corrections lists the rewrites that were needed.
	Corrections []Correction
	// Unknown lists mod paths whose basename the baseline does not contain.
	Unknown []string
}

// NeedsFix reports whether the mod's container must be rewritten with
// canonical paths before use.
func (r *Result) NeedsFix() bool {
	return len(r.Corrections) > 0
}

// Normalize checks every script file of one mod against the index. Paths
// already canonical (case-insensitive) pass through; paths whose basename is
// known are rewritten to the canonical location; the rest are collected as
// unknown. The caller owns the whole-mod decision when Unknown is non-empty.
func (ix *Index) Normalize(files []script.File) *Result {
	res := &Result{Files: make([]script.File, 0, len(files))}

	for _, f := range files {
		canonical, known := ix.CanonicalPath(script.Basename(f.Path))
		if !known {
			res.Unknown = append(res.Unknown, f.Path)
			continue
		}
		if script.PathKey(f.Path) != script.PathKey(canonical) {
			res.Corrections = append(res.Corrections, Correction{From: f.Path, To: canonical})
			f.Path = canonical
		}
		res.Files = append(res.Files, f)
	}

	return res
}
