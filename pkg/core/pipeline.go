// Package core wires the merge pipeline together: baseline loading,
// per-mod structure normalization, keyed merging, and package assembly.
package core

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/metalheadbang/unleash/pkg/errors"
	"github.com/metalheadbang/unleash/pkg/logging"
	"github.com/metalheadbang/unleash/pkg/merge"
	"github.com/metalheadbang/unleash/pkg/pak"
	"github.com/metalheadbang/unleash/pkg/script"
	"github.com/metalheadbang/unleash/pkg/structure"
)

// Options configures one merge run.
type Options struct {
	// SourceDir holds the game's dataN.pak packages and receives the output.
	SourceDir string
	// BaselinePak is the canonical base package name (data0.pak).
	BaselinePak string
	// ScriptSuffix identifies mergeable script files.
	ScriptSuffix string
	// OutputFloor is the lowest dataN the output may claim.
	OutputFloor int
	// ModPaths are the mod containers to merge, in discovery order.
	ModPaths []string
	// Resolver answers true merge conflicts.
	Resolver merge.Resolver
	// Decider answers the whole-mod question for unknown files.
	Decider structure.Decider
	// FixedModsDir receives corrected copies of mods whose structure was
	// rewritten. Empty disables writing corrected copies.
	FixedModsDir string
}

func (o *Options) fillDefaults() {
	if o.BaselinePak == "" {
		o.BaselinePak = "data0.pak"
	}
	if o.ScriptSuffix == "" {
		o.ScriptSuffix = pak.DefaultScriptSuffix
	}
	if o.OutputFloor <= 0 {
		o.OutputFloor = pak.DefaultOutputFloor
	}
	if o.Resolver == nil {
		o.Resolver = merge.PickFirst
	}
	if o.Decider == nil {
		o.Decider = structure.AlwaysKeep
	}
}

// Run executes one full merge: normalize every mod against the baseline's
// canonical structure, merge per canonical path, and write one new numbered
// package into the source directory. Output is staged in a scratch dir and
// promoted by rename only after the whole run succeeds.
//
// A missing baseline package is the only run-fatal input condition. Broken
// mods are skipped and reported. Cancellation is honored at file
// boundaries; a cancelled run promotes nothing.
func Run(ctx context.Context, opts Options) (*RunReport, error) {
	opts.fillDefaults()
	logger := logging.GetLogger("core")
	report := &RunReport{}

	baselinePath := filepath.Join(opts.SourceDir, opts.BaselinePak)
	if _, err := os.Stat(baselinePath); err != nil {
		return nil, errors.Wrapf(err, errors.ErrBaselineMissing, "baseline package %s not found in %s", opts.BaselinePak, opts.SourceDir)
	}

	baseFiles, err := pak.ReadScripts(baselinePath, opts.BaselinePak, opts.ScriptSuffix)
	if err != nil {
		return nil, err
	}

	// Canonical structure comes from the canonical base package only.
	basePaths := make([]string, 0, len(baseFiles))
	for _, f := range baseFiles {
		basePaths = append(basePaths, f.Path)
	}
	index := structure.BuildIndex(basePaths)
	logger.Info().Int("scripts", index.Len()).Msg("Canonical structure indexed")

	// Baseline content for merging spans every numbered package, lowest
	// number first; the first package to define a path owns its content.
	baseline, err := loadBaselineContent(opts, baseFiles)
	if err != nil {
		return nil, err
	}

	// Normalize each mod and collect the surviving script files.
	var contributed []script.File
	for _, modPath := range opts.ModPaths {
		outcome := normalizeMod(modPath, index, &opts)
		report.Mods = append(report.Mods, outcome.ModOutcome)
		if outcome.files != nil {
			contributed = append(contributed, outcome.files...)
		}
	}

	// Group by canonical path, preserving discovery order.
	groups, order := groupByPath(contributed)

	merged := make([]script.File, 0, len(order))
	for _, key := range order {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrMergeCancelled, "merge cancelled")
		}

		group := groups[key]
		displayPath := group[0].Path

		var content string
		base, inBaseline := baseline[key]
		switch {
		case len(group) == 1:
			// Touched by exactly one mod: verbatim.
			content = group[0].Content
		case !inBaseline:
			// No baseline backbone to merge against; first contributor wins.
			logger.Warn().Str("path", displayPath).Msg("File missing from baseline, using first contributor")
			content = group[0].Content
		default:
			var fileReport *merge.FileReport
			content, fileReport, err = merge.MergeFile(displayPath, base, group, opts.Resolver)
			if err != nil {
				return nil, err
			}
			report.Files = append(report.Files, fileReport)
		}

		merged = append(merged, script.File{Path: displayPath, Content: content})
	}

	if len(merged) == 0 {
		logger.Info().Msg("No mod files survived normalization, nothing to package")
		return report, nil
	}

	outName, err := assemble(opts, merged)
	if err != nil {
		return nil, err
	}
	report.OutputPak = outName
	report.FileCount = len(merged)

	logger.Info().
		Str("output", outName).
		Int("files", len(merged)).
		Int("conflicts", report.Conflicts()).
		Msg("Merge run complete")
	return report, nil
}

var dataPakPattern = regexp.MustCompile(`^data(\d+)\.pak$`)

// loadBaselineContent maps canonical path keys to the content every mod
// proposal is compared against. The canonical base is already loaded;
// higher-numbered packages (prior merge increments) fill in paths the base
// does not define.
func loadBaselineContent(opts Options, baseFiles []script.File) (map[string]string, error) {
	baseline := make(map[string]string)
	for _, f := range baseFiles {
		key := script.PathKey(f.Path)
		if _, seen := baseline[key]; !seen {
			baseline[key] = f.Content
		}
	}

	paks, err := pak.BaselinePaks(opts.SourceDir)
	if err != nil {
		return nil, err
	}

	type numbered struct {
		path string
		n    int
	}
	var rest []numbered
	for _, p := range paks {
		name := filepath.Base(p)
		if name == opts.BaselinePak {
			continue
		}
		m := dataPakPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		rest = append(rest, numbered{path: p, n: n})
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].n < rest[j].n })

	logger := logging.GetLogger("core")
	for _, p := range rest {
		files, err := pak.ReadScripts(p.path, filepath.Base(p.path), opts.ScriptSuffix)
		if err != nil {
			// Increments are optional; a broken one is reported, not fatal.
			logger.Warn().Err(err).Str("pak", p.path).Msg("Skipping unreadable baseline increment")
			continue
		}
		for _, f := range files {
			key := script.PathKey(f.Path)
			if _, seen := baseline[key]; !seen {
				baseline[key] = f.Content
			}
		}
	}
	return baseline, nil
}

type modResult struct {
	ModOutcome
	files []script.File
}

// normalizeMod loads one mod container and settles its structure against
// the canonical index, including the whole-mod unknown-files decision.
func normalizeMod(modPath string, index *structure.Index, opts *Options) modResult {
	logger := logging.GetLogger("core")
	name := filepath.Base(modPath)

	mod, err := pak.LoadMod(modPath, opts.ScriptSuffix)
	if err != nil {
		logger.Warn().Err(err).Str("mod", name).Msg("Skipping unreadable mod")
		return modResult{ModOutcome: ModOutcome{Name: name, Status: ModSkipped, Error: err.Error()}}
	}

	res := index.Normalize(mod.Files)
	outcome := ModOutcome{
		Name:        name,
		Manifest:    mod.Manifest,
		Corrections: res.Corrections,
		Unknown:     res.Unknown,
	}

	if len(res.Unknown) > 0 {
		decision, err := opts.Decider.DecideUnknown(name, res.Unknown)
		if err != nil {
			outcome.Status = ModSkipped
			outcome.Error = err.Error()
			return modResult{ModOutcome: outcome}
		}
		if decision == structure.ExcludeMod {
			logger.Info().Str("mod", name).Int("unknown", len(res.Unknown)).Msg("Mod excluded due to unknown files")
			outcome.Status = ModExcluded
			return modResult{ModOutcome: outcome}
		}
		// Keep verbatim: original paths, no corrections applied.
		logger.Info().Str("mod", name).Msg("Keeping mod with its original structure")
		outcome.Status = ModKeptOriginal
		return modResult{ModOutcome: outcome, files: mod.Files}
	}

	if res.NeedsFix() {
		outcome.Status = ModCorrected
		if opts.FixedModsDir != "" {
			if err := writeFixedCopy(opts.FixedModsDir, name, res.Files); err != nil {
				logger.Warn().Err(err).Str("mod", name).Msg("Could not write corrected copy")
			}
		}
		return modResult{ModOutcome: outcome, files: res.Files}
	}

	outcome.Status = ModUsed
	return modResult{ModOutcome: outcome, files: res.Files}
}

func writeFixedCopy(dir, modName string, files []script.File) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrPakWrite, "cannot create fixed mods dir %s", dir)
	}
	stem := modName
	if ext := filepath.Ext(stem); ext != "" {
		stem = stem[:len(stem)-len(ext)]
	}
	return pak.WriteFixedMod(filepath.Join(dir, stem+"_fixed.zip"), files)
}

// groupByPath buckets contributed files by canonical path key, keeping both
// discovery order of paths and of contributors within a path.
func groupByPath(files []script.File) (map[string][]script.File, []string) {
	groups := make(map[string][]script.File)
	var order []string
	for _, f := range files {
		key := script.PathKey(f.Path)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], f)
	}
	return groups, order
}

// assemble writes the output package in a scratch dir inside the source
// directory (same filesystem, so the final rename is atomic) and promotes
// it only once fully written.
func assemble(opts Options, files []script.File) (string, error) {
	outName, err := pak.NextPackageName(opts.SourceDir, opts.OutputFloor)
	if err != nil {
		return "", err
	}

	scratch, err := os.MkdirTemp(opts.SourceDir, ".unleash-staging-*")
	if err != nil {
		return "", errors.Wrap(err, errors.ErrOutputStage, "cannot create staging dir")
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	staged := filepath.Join(scratch, outName)
	if err := pak.WritePak(staged, files); err != nil {
		return "", err
	}

	final := filepath.Join(opts.SourceDir, outName)
	if err := os.Rename(staged, final); err != nil {
		return "", errors.Wrapf(err, errors.ErrOutputPromote, "cannot promote %s", outName)
	}
	return outName, nil
}
