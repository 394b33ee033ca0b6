package cli

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/metalheadbang/unleash/pkg/core"
)

func newPaksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paks",
		Short: "List installed packages in the game source directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if err := requireSourceDir(settings); err != nil {
				return err
			}

			paks, err := core.ListInstalled(settings.SourceDir)
			if err != nil {
				return err
			}
			if len(paks) == 0 {
				fmt.Println("No packages found.")
				return nil
			}

			rows := pterm.TableData{{"Package", "State"}}
			for _, p := range paks {
				state := "active"
				if !p.Active {
					state = "disabled"
				}
				rows = append(rows, []string{p.Name, state})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		},
	}
}

func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install <mod.pak>",
		Short: "Install a bare pak under the next free dataN name",
		Long: `Install copies a bare pak into the game source directory under the next
free dataN.pak name. Archives that nest paks cannot be installed directly;
merge them instead so their structure is normalized.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if err := requireSourceDir(settings); err != nil {
				return err
			}

			name, err := core.Install(settings.SourceDir, args[0], settings.OutputFloor)
			if err != nil {
				return err
			}
			fmt.Printf("Installed as %s\n", name)
			return nil
		},
	}
}

func newEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <dataN.pak>",
		Short: "Re-activate a disabled package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if err := requireSourceDir(settings); err != nil {
				return err
			}
			if err := core.Enable(settings.SourceDir, args[0]); err != nil {
				return err
			}
			fmt.Printf("%s enabled\n", args[0])
			return nil
		},
	}
}

func newDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <dataN.pak>",
		Short: "Deactivate a package without deleting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if err := requireSourceDir(settings); err != nil {
				return err
			}
			if err := core.Disable(settings.SourceDir, args[0]); err != nil {
				return err
			}
			fmt.Printf("%s disabled\n", args[0])
			return nil
		},
	}
}

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <dataN.pak> <dataM.pak>",
		Short: "Move an installed package to a different dataN slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if err := requireSourceDir(settings); err != nil {
				return err
			}
			if err := core.Rename(settings.SourceDir, args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("%s renamed to %s\n", args[0], args[1])
			return nil
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <dataN.pak>",
		Short: "Delete an installed package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if err := requireSourceDir(settings); err != nil {
				return err
			}
			if err := core.Remove(settings.SourceDir, args[0]); err != nil {
				return err
			}
			fmt.Printf("%s removed\n", args[0])
			return nil
		},
	}
}
