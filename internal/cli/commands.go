// Package cli wires the unleash commands together.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/metalheadbang/unleash/internal/version"
	"github.com/metalheadbang/unleash/pkg/config"
	"github.com/metalheadbang/unleash/pkg/errors"
	"github.com/metalheadbang/unleash/pkg/logging"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var verbosity int

	rootCmd := &cobra.Command{
		Use:   "unleash",
		Short: "Merge and manage script mods for your game packages",
		Long: `unleash merges overlapping script mods against the game's baseline
package and manages the resulting dataN.pak files, so multiple mods that
edit the same script files can be used together without hand-editing.`,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().String("source", "", "Game source directory holding dataN.pak (overrides settings)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newMergeCmd())
	rootCmd.AddCommand(newPaksCmd())
	rootCmd.AddCommand(newInstallCmd())
	rootCmd.AddCommand(newEnableCmd())
	rootCmd.AddCommand(newDisableCmd())
	rootCmd.AddCommand(newRenameCmd())
	rootCmd.AddCommand(newRemoveCmd())
	rootCmd.AddCommand(newQueueCmd())
	rootCmd.AddCommand(newGenConfigCmd())
	rootCmd.AddCommand(newTopicsCmd())

	return rootCmd
}

// loadSettings reads the persisted settings and applies the --source flag.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	settings, err := config.Load("")
	if err != nil {
		return nil, err
	}
	if source, _ := cmd.Root().PersistentFlags().GetString("source"); source != "" {
		settings.SourceDir = source
	}
	return settings, nil
}

// requireSourceDir fails early with a useful message when no game directory
// is configured; every pak-touching command needs one.
func requireSourceDir(settings *config.Settings) error {
	if settings.SourceDir == "" {
		return errors.New(errors.ErrInvalidInput,
			"no game source directory configured; pass --source, set UNLEASH_SOURCE_DIR, or edit the settings file")
	}
	if _, err := os.Stat(settings.SourceDir); err != nil {
		return errors.Wrapf(err, errors.ErrSourceDirAccess, "game source directory %s is not accessible", settings.SourceDir)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including commit hash and build date`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("unleash version %s\n", version.Version)
			if version.Commit != "" {
				fmt.Printf("Commit: %s\n", version.Commit)
			}
			if version.Date != "" {
				fmt.Printf("Built:  %s\n", version.Date)
			}
		},
	}
}

func newGenConfigCmd() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "genconfig",
		Short: "Print the default configuration",
		Long: `Print the default configuration as TOML. With --write, install it as
the user settings file if none exists yet.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !write {
				fmt.Print(config.DefaultTOML())
				return nil
			}
			path := config.DefaultPath()
			if _, err := os.Stat(path); err == nil {
				return errors.Newf(errors.ErrInvalidInput, "settings file already exists at %s", path)
			}
			settings, err := config.Load(path)
			if err != nil {
				return err
			}
			if err := config.Save(settings, path); err != nil {
				return err
			}
			fmt.Printf("Settings written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "Write the defaults to the settings file location")
	return cmd
}
