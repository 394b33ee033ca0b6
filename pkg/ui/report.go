package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/metalheadbang/unleash/pkg/core"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// plain strips styling when the terminal cannot render it.
func plain() bool {
	return termenv.ColorProfile() == termenv.Ascii
}

func styled(s lipgloss.Style, text string) string {
	if plain() {
		return text
	}
	return s.Render(text)
}

// RenderError formats a fatal error for stderr. Root commands silence
// cobra's own error printing, so this is the single place errors surface.
func RenderError(err error) string {
	return styled(errStyle, fmt.Sprintf("Error: %v", err))
}

// RenderReport formats the end-of-run summary: per-mod outcomes, per-file
// conflict stats, and the output package name.
func RenderReport(r *core.RunReport) string {
	var b strings.Builder

	b.WriteString(styled(titleStyle, "Merge summary"))
	b.WriteString("\n\n")

	for _, m := range r.Mods {
		label := m.Name
		if m.Manifest != nil && m.Manifest.Name != "" {
			label = fmt.Sprintf("%s (%s)", m.Manifest.Name, m.Name)
		}
		switch m.Status {
		case core.ModUsed:
			fmt.Fprintf(&b, "  %s %s\n", styled(successStyle, "✓"), label)
		case core.ModCorrected:
			fmt.Fprintf(&b, "  %s %s — %d path(s) corrected\n", styled(successStyle, "✓"), label, len(m.Corrections))
		case core.ModKeptOriginal:
			fmt.Fprintf(&b, "  %s %s — kept original structure (%d unknown file(s))\n", styled(warnStyle, "!"), label, len(m.Unknown))
		case core.ModExcluded:
			fmt.Fprintf(&b, "  %s %s — excluded (%d unknown file(s))\n", styled(warnStyle, "-"), label, len(m.Unknown))
		case core.ModSkipped:
			fmt.Fprintf(&b, "  %s %s — skipped: %s\n", styled(errStyle, "x"), label, m.Error)
		}
	}

	if len(r.Files) > 0 {
		b.WriteString("\n")
		for _, f := range r.Files {
			fmt.Fprintf(&b, "  %s merged from %s\n", f.Path, strings.Join(f.Contributors, ", "))
			if f.Conflicts > 0 || f.AutoResolved > 0 {
				detail := fmt.Sprintf("    %d conflict(s) resolved", f.Conflicts)
				if f.AutoResolved > 0 {
					detail += fmt.Sprintf(", %d auto-resolved via '%s'", f.AutoResolved, f.StickySource)
				}
				b.WriteString(styled(dimStyle, detail))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n")
	if r.OutputPak != "" {
		fmt.Fprintf(&b, "%s %d file(s) written to %s\n",
			styled(successStyle, "SUCCESS!"), r.FileCount, styled(titleStyle, r.OutputPak))
	} else {
		b.WriteString(styled(dimStyle, "Nothing to package.\n"))
	}

	return b.String()
}
