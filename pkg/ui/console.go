// Package ui provides the interactive console front-end: conflict prompts,
// the whole-mod structure prompt, and run report rendering.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"

	"github.com/metalheadbang/unleash/pkg/errors"
	"github.com/metalheadbang/unleash/pkg/merge"
	"github.com/metalheadbang/unleash/pkg/structure"
)

// Console prompts a human on the terminal for conflict and structure
// decisions. The merge engine blocks on these calls, which is exactly the
// contract: one question, one answer, merge continues.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsole builds a console prompter over the given streams.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Interactive reports whether stdin is a terminal a human can answer on.
// Non-interactive embeddings should fall back to an automatic policy.
func Interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// Resolve implements merge.Resolver. Candidates are shown numbered with
// their contributing mods; answering "2" picks the second, answering "2y"
// additionally prefers that mod for the rest of the file.
func (c *Console) Resolve(conflict merge.Conflict) (merge.Decision, error) {
	fmt.Fprintf(c.out, "\n%s Conflict in '%s'\n", pterm.Warning.Prefix.Text, conflict.Path)
	fmt.Fprintf(c.out, " -> Conflicting edits for key '%s':\n", conflict.Key)
	for i, cand := range conflict.Candidates {
		fmt.Fprintf(c.out, " %d. (%s): %s\n", i+1, strings.Join(cand.Sources, ", "), strings.TrimSpace(cand.Line))
	}
	fmt.Fprintln(c.out, "Add 'y' to your choice (e.g. '1y') to prefer that mod for every later conflict in this file.")

	for {
		fmt.Fprintf(c.out, "Select the version to use (1-%d): ", len(conflict.Candidates))
		answer, err := c.readLine()
		if err != nil {
			return merge.Decision{}, errors.Wrap(err, errors.ErrResolverAborted, "conflict prompt aborted")
		}

		sticky := false
		if strings.HasSuffix(answer, "y") {
			sticky = true
			answer = strings.TrimSuffix(answer, "y")
		}
		choice, err := strconv.Atoi(answer)
		if err != nil || choice < 1 || choice > len(conflict.Candidates) {
			continue
		}

		cand := conflict.Candidates[choice-1]
		decision := merge.Decision{Line: cand.Line}
		if sticky {
			decision.StickySource = cand.Sources[0]
			fmt.Fprintf(c.out, " -> Preferring '%s' for the rest of this file.\n", decision.StickySource)
		}
		return decision, nil
	}
}

// DecideUnknown implements structure.Decider: one whole-mod choice when a
// mod ships files the baseline does not know.
func (c *Console) DecideUnknown(modName string, unknown []string) (structure.Decision, error) {
	fmt.Fprintf(c.out, "\n%s Mod '%s' contains files not found in the baseline package:\n", pterm.Warning.Prefix.Text, modName)
	for _, path := range unknown {
		fmt.Fprintf(c.out, " - %s\n", path)
	}

	for {
		fmt.Fprint(c.out, "Options: (1) Keep original structure, (2) Exclude this mod.\nPlease select an option (1 or 2): ")
		answer, err := c.readLine()
		if err != nil {
			return structure.ExcludeMod, errors.Wrap(err, errors.ErrResolverAborted, "structure prompt aborted")
		}
		switch answer {
		case "1":
			return structure.KeepOriginal, nil
		case "2":
			return structure.ExcludeMod, nil
		}
	}
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}
