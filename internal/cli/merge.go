package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/metalheadbang/unleash/pkg/core"
	"github.com/metalheadbang/unleash/pkg/merge"
	"github.com/metalheadbang/unleash/pkg/structure"
	"github.com/metalheadbang/unleash/pkg/ui"
)

func newMergeCmd() *cobra.Command {
	var (
		pickFirst    bool
		preferSource string
		keepUnknown  bool
		dropUnknown  bool
	)

	cmd := &cobra.Command{
		Use:   "merge [mod archives...]",
		Short: "Merge mod archives against the baseline package",
		Long: `Merge normalizes each mod's file layout against the baseline package,
three-way merges every script file touched by more than one mod, and
writes the result as a new numbered pak in the game source directory.

Mods given as arguments are merged together with any mods on the saved
queue (see 'unleash queue'). Conflicting edits to the same script line
prompt for a decision; a choice can be made sticky for the rest of the
file. Non-interactive runs fall back to picking the first candidate.`,
		Example: `  # Merge two mods
  unleash merge mods/harder_bosses.zip mods/better_loot.pak

  # Merge the saved queue without prompting
  unleash merge --pick-first

  # Resolve every conflict toward one mod
  unleash merge --prefer harder_bosses.zip mods/*.zip`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if err := requireSourceDir(settings); err != nil {
				return err
			}

			mods := append([]string{}, settings.MergeQueue...)
			mods = append(mods, args...)
			if len(mods) == 0 {
				fmt.Println("No mods to merge: pass archives or queue them first.")
				return nil
			}

			console := ui.NewConsole(os.Stdin, os.Stdout)

			var resolver merge.Resolver
			var decider structure.Decider
			switch {
			case preferSource != "":
				resolver = merge.PreferSource(preferSource)
			case pickFirst || !ui.Interactive():
				if !pickFirst {
					log.Info().Msg("stdin is not a terminal, picking first candidate on conflicts")
				}
				resolver = merge.PickFirst
			default:
				resolver = console
			}
			switch {
			case keepUnknown:
				decider = structure.AlwaysKeep
			case dropUnknown:
				decider = structure.AlwaysExclude
			case ui.Interactive():
				decider = console
			default:
				decider = structure.AlwaysKeep
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			report, err := core.Run(ctx, core.Options{
				SourceDir:    settings.SourceDir,
				BaselinePak:  settings.BaselinePak,
				ScriptSuffix: settings.ScriptSuffix,
				OutputFloor:  settings.OutputFloor,
				ModPaths:     mods,
				Resolver:     resolver,
				Decider:      decider,
				FixedModsDir: filepath.Join(xdg.DataHome, "unleash", "fixed_mods"),
			})
			if err != nil {
				return err
			}

			fmt.Print(ui.RenderReport(report))
			return nil
		},
	}

	cmd.Flags().BoolVar(&pickFirst, "pick-first", false, "Resolve conflicts by picking the first candidate, no prompts")
	cmd.Flags().StringVar(&preferSource, "prefer", "", "Resolve conflicts toward this mod archive name")
	cmd.Flags().BoolVar(&keepUnknown, "keep-unknown", false, "Keep mods with unknown files at their original structure")
	cmd.Flags().BoolVar(&dropUnknown, "exclude-unknown", false, "Exclude mods that ship unknown files")
	cmd.MarkFlagsMutuallyExclusive("pick-first", "prefer")
	cmd.MarkFlagsMutuallyExclusive("keep-unknown", "exclude-unknown")

	return cmd
}
