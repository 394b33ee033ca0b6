package core

import (
	"github.com/metalheadbang/unleash/pkg/merge"
	"github.com/metalheadbang/unleash/pkg/pak"
	"github.com/metalheadbang/unleash/pkg/structure"
)

// ModStatus is the per-mod outcome of a run.
type ModStatus string

const (
	ModUsed         ModStatus = "used"          // structure already canonical
	ModCorrected    ModStatus = "corrected"     // paths rewritten to canonical
	ModKeptOriginal ModStatus = "kept-original" // unknown files, user kept it verbatim
	ModExcluded     ModStatus = "excluded"      // unknown files, user dropped it
	ModSkipped      ModStatus = "skipped"       // unreadable or unsupported container
)

// ModOutcome reports what happened to one mod archive during a run.
type ModOutcome struct {
	Name        string
	Status      ModStatus
	Manifest    *pak.Manifest
	Corrections []structure.Correction
	Unknown     []string
	Error       string // set for ModSkipped
}

// RunReport is the end-of-run summary. Every decision that was taken
// silently (auto-resolved conflicts, skipped mods) surfaces here.
type RunReport struct {
	OutputPak string
	Mods      []ModOutcome
	Files     []*merge.FileReport
	// FileCount is the number of files written to the output package.
	FileCount int
}

// Conflicts totals the prompted conflicts across all merged files.
func (r *RunReport) Conflicts() int {
	n := 0
	for _, f := range r.Files {
		n += f.Conflicts
	}
	return n
}

// AutoResolved totals the conflicts settled by sticky preferences.
func (r *RunReport) AutoResolved() int {
	n := 0
	for _, f := range r.Files {
		n += f.AutoResolved
	}
	return n
}
