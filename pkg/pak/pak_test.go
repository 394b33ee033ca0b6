package pak_test

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalheadbang/unleash/pkg/pak"
	"github.com/metalheadbang/unleash/pkg/script"
)

// zipBytes builds an in-memory zip from entry name -> content.
func zipBytes(t *testing.T, entries map[string]string) []byte {
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
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func TestReadScriptsFiltersBySuffix(t *testing.T) {
	dir := t.TempDir()
	pakPath := filepath.Join(dir, "data0.pak")
	writeFile(t, pakPath, zipBytes(t, map[string]string{
		"data/scripts/boss1.scr": `SetHealth("boss1", 100)`,
		"data/textures/boss1.dds": "binary stuff",
		"data/scripts/ai/zombie.SCR": `SetSpeed("zombie", 2)`,
	}))

	files, err := pak.ReadScripts(pakPath, "data0.pak", pak.DefaultScriptSuffix)
	require.NoError(t, err)
	require.Len(t, files, 2)

	byPath := map[string]script.File{}
	for _, f := range files {
		byPath[f.Path] = f
	}
	assert.Contains(t, byPath, "data/scripts/boss1.scr")
	assert.Contains(t, byPath, "data/scripts/ai/zombie.SCR")
	assert.Equal(t, `SetHealth("boss1", 100)`, byPath["data/scripts/boss1.scr"].Content)
	assert.Equal(t, "data0.pak", byPath["data/scripts/boss1.scr"].Source)
}

func TestReadScriptsRejectsNonZip(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "broken.pak")
	writeFile(t, bad, []byte("this is not a zip"))

	_, err := pak.ReadScripts(bad, "broken.pak", ".scr")
	assert.Error(t, err)
}

func TestWritePakRoundTrip(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "data3.pak")

	err := pak.WritePak(out, []script.File{
		{Path: `data\scripts\boss1.scr`, Content: `SetHealth("boss1", 150)`},
		{Path: "data/scripts/player.scr", Content: `SetStamina("player", 80)`},
	})
	require.NoError(t, err)

	files, err := pak.ReadScripts(out, "data3.pak", ".scr")
	require.NoError(t, err)
	require.Len(t, files, 2)
	// Backslash paths are normalized on write.
	assert.Equal(t, "data/scripts/boss1.scr", files[0].Path)
}

func TestSniff(t *testing.T) {
	dir := t.TempDir()

	zipData := zipBytes(t, map[string]string{"x": "y"})

	pakPath := filepath.Join(dir, "mod.pak")
	writeFile(t, pakPath, zipData)

	zipPath := filepath.Join(dir, "mod.zip")
	writeFile(t, zipPath, zipData)

	// zip header but misleading extension: header wins, .pak stays a pak
	oddPath := filepath.Join(dir, "mod.bin")
	writeFile(t, oddPath, zipData)

	sevenPath := filepath.Join(dir, "mod.7z")
	writeFile(t, sevenPath, []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C, 0x00, 0x04})

	rarPath := filepath.Join(dir, "mod.rar")
	writeFile(t, rarPath, []byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x00})

	unknownPath := filepath.Join(dir, "mod.txt")
	writeFile(t, unknownPath, []byte("hello"))

	assert.Equal(t, pak.KindPak, pak.Sniff(pakPath))
	assert.Equal(t, pak.KindZip, pak.Sniff(zipPath))
	assert.Equal(t, pak.KindZip, pak.Sniff(oddPath))
	assert.Equal(t, pak.KindSevenZ, pak.Sniff(sevenPath))
	assert.Equal(t, pak.KindRar, pak.Sniff(rarPath))
	assert.Equal(t, pak.KindUnknown, pak.Sniff(unknownPath))
}

func TestLoadModFromBarePak(t *testing.T) {
	dir := t.TempDir()
	pakPath := filepath.Join(dir, "coolmod.pak")
	writeFile(t, pakPath, zipBytes(t, map[string]string{
		"data/scripts/boss1.scr": `SetHealth("boss1", 150)`,
	}))

	mod, err := pak.LoadMod(pakPath, ".scr")
	require.NoError(t, err)
	assert.Equal(t, "coolmod.pak", mod.Name)
	require.Len(t, mod.Files, 1)
	assert.Equal(t, "coolmod.pak", mod.Files[0].Source)
}

func TestLoadModFromNestedZip(t *testing.T) {
	dir := t.TempDir()

	innerPak := zipBytes(t, map[string]string{
		"data/scripts/boss1.scr": `SetHealth("boss1", 150)`,
		"data/scripts/player.scr": `SetStamina("player", 90)`,
	})
	// zipBytes only takes strings, so build the outer archive by hand to
	// embed the binary pak.
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("release/mod.pak")
	require.NoError(t, err)
	_, err = w.Write(innerPak)
	require.NoError(t, err)
	w, err = zw.Create("mod.yaml")
	require.NoError(t, err)
	_, err = w.Write([]byte("name: Harder Bosses\nauthor: someone\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	zipPath := filepath.Join(dir, "harder_bosses.zip")
	writeFile(t, zipPath, buf.Bytes())

	mod, err := pak.LoadMod(zipPath, ".scr")
	require.NoError(t, err)
	assert.Len(t, mod.Files, 2)
	assert.Equal(t, "harder_bosses.zip", mod.Files[0].Source)
	require.NotNil(t, mod.Manifest)
	assert.Equal(t, "Harder Bosses", mod.Manifest.Name)
}

func TestLoadModArchiveWithoutPakFails(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "empty.zip")
	writeFile(t, zipPath, zipBytes(t, map[string]string{"readme.txt": "nothing here"}))

	_, err := pak.LoadMod(zipPath, ".scr")
	assert.Error(t, err)
}

func TestWriteFixedModShape(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "coolmod_fixed.zip")

	err := pak.WriteFixedMod(out, []script.File{
		{Path: "data/scripts/boss1.scr", Content: `SetHealth("boss1", 150)`},
	})
	require.NoError(t, err)

	// The fixed copy is an archive nesting a mod.pak, loadable like any mod.
	mod, err := pak.LoadMod(out, ".scr")
	require.NoError(t, err)
	require.Len(t, mod.Files, 1)
	assert.Equal(t, "data/scripts/boss1.scr", mod.Files[0].Path)
}

func TestNextPackageName(t *testing.T) {
	dir := t.TempDir()

	name, err := pak.NextPackageName(dir, 3)
	require.NoError(t, err)
	assert.Equal(t, "data3.pak", name)

	writeFile(t, filepath.Join(dir, "data3.pak"), []byte("x"))
	name, err = pak.NextPackageName(dir, 3)
	require.NoError(t, err)
	assert.Equal(t, "data4.pak", name)

	// A disabled pak still claims its number.
	writeFile(t, filepath.Join(dir, "data4.pak.disabled"), []byte("x"))
	name, err = pak.NextPackageName(dir, 3)
	require.NoError(t, err)
	assert.Equal(t, "data5.pak", name)
}

func TestParseManifest(t *testing.T) {
	m, err := pak.ParseManifest([]byte("name: Test\nversion: \"1.2\"\nnotes: |\n  multi\n  line\n"))
	require.NoError(t, err)
	assert.Equal(t, "Test", m.Name)
	assert.Equal(t, "1.2", m.Version)
	assert.Contains(t, m.Notes, "multi")
}
