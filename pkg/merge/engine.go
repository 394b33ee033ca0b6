package merge

import (
	"github.com/metalheadbang/unleash/pkg/errors"
	"github.com/metalheadbang/unleash/pkg/logging"
	"github.com/metalheadbang/unleash/pkg/script"
)

// FileReport summarizes one file's merge for end-of-run reporting.
type FileReport struct {
	Path         string
	Contributors []string
	Conflicts    int    // conflicts answered by the resolver
	AutoResolved int    // conflicts settled by the sticky preference
	StickySource string // set once a preference was accepted
}

// fileContext is the per-file mutable state of one merge pass. It is created
// inside MergeFile and never shared, so a sticky preference cannot leak into
// another file and the engine stays reentrant.
type fileContext struct {
	resolutions  map[string]string
	preferred    string
	autoResolved int
	conflicts    int
}

type sourceMap struct {
	source string
	keyed  map[string]string
}

// MergeFile produces the final text of one script file from the baseline
// content and the contributing mods' contents, in discovery order. Baseline
// line order is the backbone: unkeyed lines pass through verbatim and keys
// introduced only by mods are not visited.
func MergeFile(path string, baseline string, mods []script.File, resolver Resolver) (string, *FileReport, error) {
	logger := logging.GetLogger("merge")

	report := &FileReport{Path: path}
	for _, m := range mods {
		report.Contributors = append(report.Contributors, m.Source)
	}

	baseKeyed := script.BuildKeyMap(baseline)
	modMaps := make([]sourceMap, 0, len(mods))
	for _, m := range mods {
		modMaps = append(modMaps, sourceMap{source: m.Source, keyed: script.BuildKeyMap(m.Content)})
	}

	fc := &fileContext{resolutions: make(map[string]string)}
	out := make([]string, 0, 64)

	for _, line := range script.Lines(baseline) {
		key, ok := script.ParseKey(line)
		if !ok {
			out = append(out, line)
			continue
		}

		if resolved, done := fc.resolutions[key]; done {
			out = append(out, resolved)
			continue
		}

		merged, err := mergeKey(path, key, line, baseKeyed[key], modMaps, fc, resolver)
		if err != nil {
			return "", nil, err
		}
		out = append(out, merged)
	}

	report.Conflicts = fc.conflicts
	report.AutoResolved = fc.autoResolved
	report.StickySource = fc.preferred

	if fc.autoResolved > 0 {
		logger.Info().
			Str("path", path).
			Str("preferred", fc.preferred).
			Int("autoResolved", fc.autoResolved).
			Msg("Conflicts auto-resolved using file preference")
	}

	return script.Join(out), report, nil
}

// mergeKey settles one key the first time the pass reaches it. baseLine is
// the baseline's representative line for the key (its first occurrence),
// which is what mod proposals are compared against.
func mergeKey(path, key, line, baseLine string, modMaps []sourceMap, fc *fileContext, resolver Resolver) (string, error) {
	type change struct {
		line   string
		source string
	}

	var changes []change
	for _, m := range modMaps {
		if modLine, ok := m.keyed[key]; ok && modLine != baseLine {
			changes = append(changes, change{line: modLine, source: m.source})
		}
	}

	switch len(changes) {
	case 0:
		// Untouched by every mod: emit the baseline line as-is, without
		// memoizing, so later occurrences keep their own raw text.
		return line, nil
	case 1:
		fc.resolutions[key] = changes[0].line
		return changes[0].line, nil
	}

	// Group into distinct values, first-encountered order.
	var candidates []Candidate
	index := make(map[string]int)
	for _, ch := range changes {
		if i, seen := index[ch.line]; seen {
			candidates[i].Sources = append(candidates[i].Sources, ch.source)
			continue
		}
		index[ch.line] = len(candidates)
		candidates = append(candidates, Candidate{Line: ch.line, Sources: []string{ch.source}})
	}

	if len(candidates) == 1 {
		// Multiple mods converged on the same edit: no conflict.
		fc.resolutions[key] = candidates[0].Line
		return candidates[0].Line, nil
	}

	var chosen string
	if fc.preferred != "" {
		chosen = pickPreferred(candidates, fc.preferred)
		fc.autoResolved++
	} else {
		decision, err := resolver.Resolve(Conflict{Path: path, Key: key, Candidates: candidates})
		if err != nil {
			return "", errors.Wrapf(err, errors.ErrResolverAborted, "conflict for key %q in %s not resolved", key, path)
		}
		fc.conflicts++
		chosen = decision.Line
		if decision.StickySource != "" {
			fc.preferred = decision.StickySource
		}
	}

	fc.resolutions[key] = chosen
	return chosen, nil
}

// pickPreferred returns the candidate whose source set contains the
// preferred mod, or the first candidate when the preferred mod did not
// contribute one.
func pickPreferred(candidates []Candidate, preferred string) string {
	for _, cand := range candidates {
		for _, s := range cand.Sources {
			if s == preferred {
				return cand.Line
			}
		}
	}
	return candidates[0].Line
}
