package core_test

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalheadbang/unleash/pkg/core"
	"github.com/metalheadbang/unleash/pkg/errors"
	"github.com/metalheadbang/unleash/pkg/merge"
	"github.com/metalheadbang/unleash/pkg/pak"
	"github.com/metalheadbang/unleash/pkg/structure"
)

func makePak(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

// sourceDir builds a game dir whose data0.pak holds the canonical scripts.
func sourceDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	makePak(t, filepath.Join(dir, "data0.pak"), map[string]string{
		"data/scripts/boss1.scr":  "// boss tuning\nSetHealth(\"boss1\", 100)\nSetDamage(\"boss1\", 10)",
		"data/scripts/player.scr": "SetStamina(\"player\", 50)",
	})
	return dir
}

func readOutput(t *testing.T, dir, name string) map[string]string {
	t.Helper()
	files, err := pak.ReadScripts(filepath.Join(dir, name), name, ".scr")
	require.NoError(t, err)
	out := map[string]string{}
	for _, f := range files {
		out[f.Path] = f.Content
	}
	return out
}

func TestRunMissingBaselineIsFatal(t *testing.T) {
	dir := t.TempDir() // no data0.pak

	_, err := core.Run(context.Background(), core.Options{SourceDir: dir})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrBaselineMissing))
}

func TestRunSingleModIsVerbatim(t *testing.T) {
	dir := sourceDir(t)
	modContent := "// tweaked\nSetHealth(\"boss1\", 150)\nSetDamage(\"boss1\", 10)"
	makePak(t, filepath.Join(dir, "mod_a.pak"), map[string]string{
		"data/scripts/boss1.scr": modContent,
	})

	report, err := core.Run(context.Background(), core.Options{
		SourceDir: dir,
		ModPaths:  []string{filepath.Join(dir, "mod_a.pak")},
	})
	require.NoError(t, err)
	require.Equal(t, "data3.pak", report.OutputPak)

	out := readOutput(t, dir, "data3.pak")
	assert.Equal(t, modContent, out["data/scripts/boss1.scr"])
	// Untouched baseline files are not re-shipped.
	assert.NotContains(t, out, "data/scripts/player.scr")
}

func TestRunMergesAndReportsConflicts(t *testing.T) {
	dir := sourceDir(t)
	makePak(t, filepath.Join(dir, "mod_a.pak"), map[string]string{
		"data/scripts/boss1.scr": "SetHealth(\"boss1\", 150)",
	})
	makePak(t, filepath.Join(dir, "mod_b.pak"), map[string]string{
		"data/scripts/boss1.scr": "SetHealth(\"boss1\", 200)\nSetDamage(\"boss1\", 25)",
	})

	report, err := core.Run(context.Background(), core.Options{
		SourceDir: dir,
		ModPaths: []string{
			filepath.Join(dir, "mod_a.pak"),
			filepath.Join(dir, "mod_b.pak"),
		},
		Resolver: merge.PreferSource("mod_b.pak"),
	})
	require.NoError(t, err)

	out := readOutput(t, dir, "data3.pak")
	content := out["data/scripts/boss1.scr"]
	assert.Contains(t, content, `SetHealth("boss1", 200)`)
	assert.Contains(t, content, `SetDamage("boss1", 25)`)
	// Baseline backbone preserved for unkeyed lines.
	assert.Contains(t, content, "// boss tuning")

	assert.Equal(t, 1, report.Conflicts())
	require.Len(t, report.Mods, 2)
	assert.Equal(t, core.ModUsed, report.Mods[0].Status)
}

func TestRunCorrectsModStructure(t *testing.T) {
	dir := sourceDir(t)
	fixedDir := filepath.Join(t.TempDir(), "fixed")
	// boss1.scr at the wrong location inside the mod.
	makePak(t, filepath.Join(dir, "misplaced.pak"), map[string]string{
		"scripts/boss1.scr": "SetHealth(\"boss1\", 300)",
	})

	report, err := core.Run(context.Background(), core.Options{
		SourceDir:    dir,
		ModPaths:     []string{filepath.Join(dir, "misplaced.pak")},
		FixedModsDir: fixedDir,
	})
	require.NoError(t, err)

	out := readOutput(t, dir, "data3.pak")
	assert.Contains(t, out, "data/scripts/boss1.scr")
	assert.NotContains(t, out, "scripts/boss1.scr")

	require.Len(t, report.Mods, 1)
	assert.Equal(t, core.ModCorrected, report.Mods[0].Status)
	require.Len(t, report.Mods[0].Corrections, 1)

	// A corrected copy was written for the user.
	_, err = os.Stat(filepath.Join(fixedDir, "misplaced_fixed.zip"))
	assert.NoError(t, err)
}

func TestRunUnknownFilesExcluded(t *testing.T) {
	dir := sourceDir(t)
	makePak(t, filepath.Join(dir, "strange.pak"), map[string]string{
		"data/scripts/not_in_game.scr": "SetHealth(\"x\", 1)",
		"data/scripts/boss1.scr":       "SetHealth(\"boss1\", 500)",
	})

	report, err := core.Run(context.Background(), core.Options{
		SourceDir: dir,
		ModPaths:  []string{filepath.Join(dir, "strange.pak")},
		Decider:   structure.AlwaysExclude,
	})
	require.NoError(t, err)

	require.Len(t, report.Mods, 1)
	assert.Equal(t, core.ModExcluded, report.Mods[0].Status)
	assert.Equal(t, []string{"data/scripts/not_in_game.scr"}, report.Mods[0].Unknown)

	// Nothing survived, so nothing was packaged.
	assert.Empty(t, report.OutputPak)
	_, err = os.Stat(filepath.Join(dir, "data3.pak"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunUnknownFilesKeptVerbatim(t *testing.T) {
	dir := sourceDir(t)
	makePak(t, filepath.Join(dir, "strange.pak"), map[string]string{
		"data/scripts/not_in_game.scr": "SetHealth(\"x\", 1)",
	})

	report, err := core.Run(context.Background(), core.Options{
		SourceDir: dir,
		ModPaths:  []string{filepath.Join(dir, "strange.pak")},
		Decider:   structure.AlwaysKeep,
	})
	require.NoError(t, err)

	require.Len(t, report.Mods, 1)
	assert.Equal(t, core.ModKeptOriginal, report.Mods[0].Status)

	// Kept verbatim at its original, uncorrected path.
	out := readOutput(t, dir, "data3.pak")
	assert.Contains(t, out, "data/scripts/not_in_game.scr")
}

func TestRunSkipsUnreadableMod(t *testing.T) {
	dir := sourceDir(t)
	broken := filepath.Join(dir, "broken.pak")
	require.NoError(t, os.WriteFile(broken, []byte("PK\x03\x04 garbage"), 0644))
	makePak(t, filepath.Join(dir, "good.pak"), map[string]string{
		"data/scripts/boss1.scr": "SetHealth(\"boss1\", 150)",
	})

	report, err := core.Run(context.Background(), core.Options{
		SourceDir: dir,
		ModPaths:  []string{broken, filepath.Join(dir, "good.pak")},
	})
	require.NoError(t, err)

	require.Len(t, report.Mods, 2)
	assert.Equal(t, core.ModSkipped, report.Mods[0].Status)
	assert.NotEmpty(t, report.Mods[0].Error)
	assert.Equal(t, core.ModUsed, report.Mods[1].Status)
	assert.Equal(t, "data3.pak", report.OutputPak)
}

func TestRunUsesPriorIncrementAsBaseline(t *testing.T) {
	dir := sourceDir(t)
	// A prior merge increment ships a script the base pak does not have.
	makePak(t, filepath.Join(dir, "data2.pak"), map[string]string{
		"data/scripts/extra.scr": "// extra\nSetMode(\"arena\", 1)\nSetTimer(\"arena\", 60)",
	})
	makePak(t, filepath.Join(dir, "mod_a.pak"), map[string]string{
		"data/scripts/extra.scr": "SetMode(\"arena\", 2)",
	})
	makePak(t, filepath.Join(dir, "mod_b.pak"), map[string]string{
		"data/scripts/extra.scr": "SetTimer(\"arena\", 90)",
	})

	// extra.scr is unknown to data0's canonical index, so both mods need the
	// keep-original decision; the increment then provides the merge backbone.
	_, err := core.Run(context.Background(), core.Options{
		SourceDir: dir,
		ModPaths: []string{
			filepath.Join(dir, "mod_a.pak"),
			filepath.Join(dir, "mod_b.pak"),
		},
		Decider: structure.AlwaysKeep,
	})
	require.NoError(t, err)

	out := readOutput(t, dir, "data3.pak")
	content := out["data/scripts/extra.scr"]
	assert.Contains(t, content, "// extra")
	assert.Contains(t, content, `SetMode("arena", 2)`)
	assert.Contains(t, content, `SetTimer("arena", 90)`)
}

func TestRunCancelledPromotesNothing(t *testing.T) {
	dir := sourceDir(t)
	makePak(t, filepath.Join(dir, "mod_a.pak"), map[string]string{
		"data/scripts/boss1.scr": "SetHealth(\"boss1\", 150)",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := core.Run(ctx, core.Options{
		SourceDir: dir,
		ModPaths:  []string{filepath.Join(dir, "mod_a.pak")},
	})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrMergeCancelled))

	_, statErr := os.Stat(filepath.Join(dir, "data3.pak"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunOutputIsMergeableBaselineIncrement(t *testing.T) {
	// Idempotence at pipeline level: a second run over the merged output
	// with no mods packages nothing and changes nothing.
	dir := sourceDir(t)
	makePak(t, filepath.Join(dir, "mod_a.pak"), map[string]string{
		"data/scripts/boss1.scr": "SetHealth(\"boss1\", 150)",
	})

	first, err := core.Run(context.Background(), core.Options{
		SourceDir: dir,
		ModPaths:  []string{filepath.Join(dir, "mod_a.pak")},
	})
	require.NoError(t, err)
	require.Equal(t, "data3.pak", first.OutputPak)
	before := readOutput(t, dir, "data3.pak")

	second, err := core.Run(context.Background(), core.Options{SourceDir: dir})
	require.NoError(t, err)
	assert.Empty(t, second.OutputPak)
	assert.Equal(t, before, readOutput(t, dir, "data3.pak"))
}

func TestGroupedFilesMergeCaseInsensitively(t *testing.T) {
	dir := sourceDir(t)
	makePak(t, filepath.Join(dir, "mod_a.pak"), map[string]string{
		"Data/Scripts/Boss1.scr": "SetHealth(\"boss1\", 150)",
	})
	makePak(t, filepath.Join(dir, "mod_b.pak"), map[string]string{
		"data/scripts/boss1.scr": "SetDamage(\"boss1\", 30)",
	})

	report, err := core.Run(context.Background(), core.Options{
		SourceDir: dir,
		ModPaths: []string{
			filepath.Join(dir, "mod_a.pak"),
			filepath.Join(dir, "mod_b.pak"),
		},
	})
	require.NoError(t, err)
	require.Len(t, report.Files, 1)

	out := readOutput(t, dir, "data3.pak")
	require.Len(t, out, 1)
	for _, content := range out {
		assert.Contains(t, content, `SetHealth("boss1", 150)`)
		assert.Contains(t, content, `SetDamage("boss1", 30)`)
	}
}

func TestModManifestSurfacesInReport(t *testing.T) {
	dir := sourceDir(t)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("data/scripts/boss1.scr")
	require.NoError(t, err)
	_, err = w.Write([]byte("SetHealth(\"boss1\", 150)"))
	require.NoError(t, err)
	w, err = zw.Create("mod.yaml")
	require.NoError(t, err)
	_, err = w.Write([]byte("name: Harder Bosses\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	modPath := filepath.Join(dir, "harder.pak")
	require.NoError(t, os.WriteFile(modPath, buf.Bytes(), 0644))

	report, err := core.Run(context.Background(), core.Options{
		SourceDir: dir,
		ModPaths:  []string{modPath},
	})
	require.NoError(t, err)
	require.Len(t, report.Mods, 1)
	require.NotNil(t, report.Mods[0].Manifest)
	assert.Equal(t, "Harder Bosses", report.Mods[0].Manifest.Name)
}
