package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalheadbang/unleash/internal/cli"
	"github.com/metalheadbang/unleash/pkg/config"
	"github.com/metalheadbang/unleash/pkg/errors"
)

// isolateXDG points the XDG directories at a temp tree so command runs
// never touch the real user config or state.
func isolateXDG(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("UNLEASH_SOURCE_DIR", "")
	xdg.Reload()
	return dir
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd := cli.NewRootCmd()
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestRootCmdWiring(t *testing.T) {
	rootCmd := cli.NewRootCmd()

	want := []string{"merge", "paks", "install", "enable", "disable", "rename", "remove", "queue", "genconfig", "topics", "version"}
	have := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		assert.True(t, have[name], "missing subcommand %s", name)
	}
}

func TestMergeFailsWithoutSourceDir(t *testing.T) {
	isolateXDG(t)

	err := execute(t, "merge", "some_mod.zip")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestPaksFailsOnMissingSourceDir(t *testing.T) {
	isolateXDG(t)
	t.Setenv("UNLEASH_SOURCE_DIR", "/does/not/exist")

	err := execute(t, "paks")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSourceDirAccess))
}

func TestQueueAddAndClear(t *testing.T) {
	isolateXDG(t)

	mod := filepath.Join(t.TempDir(), "harder_bosses.zip")
	require.NoError(t, os.WriteFile(mod, []byte("x"), 0644))

	require.NoError(t, execute(t, "queue", "add", mod))
	// Adding twice does not duplicate.
	require.NoError(t, execute(t, "queue", "add", mod))

	settings, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{mod}, settings.MergeQueue)

	require.NoError(t, execute(t, "queue", "clear"))
	settings, err = config.Load("")
	require.NoError(t, err)
	assert.Empty(t, settings.MergeQueue)
}

func TestGenConfigWrite(t *testing.T) {
	isolateXDG(t)

	require.NoError(t, execute(t, "genconfig", "--write"))
	_, err := os.Stat(config.DefaultPath())
	require.NoError(t, err)

	// A second write refuses to clobber.
	err = execute(t, "genconfig", "--write")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestTopicsUnknownTopic(t *testing.T) {
	isolateXDG(t)

	err := execute(t, "topics", "nosuch")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}
