package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/metalheadbang/unleash/pkg/config"
	"github.com/metalheadbang/unleash/pkg/errors"
)

func newQueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Manage the saved merge queue",
		Long: `The merge queue persists a list of mod archives across runs. 'unleash
merge' always includes the queue, so frequently re-merged mod sets do not
need retyping.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load("")
			if err != nil {
				return err
			}
			if len(settings.MergeQueue) == 0 {
				fmt.Println("Merge queue is empty.")
				return nil
			}
			for _, m := range settings.MergeQueue {
				fmt.Println(m)
			}
			return nil
		},
	}

	cmd.AddCommand(newQueueAddCmd())
	cmd.AddCommand(newQueueClearCmd())
	return cmd
}

func newQueueAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <archive>...",
		Short: "Add mod archives to the merge queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load("")
			if err != nil {
				return err
			}

			queued := make(map[string]bool, len(settings.MergeQueue))
			for _, m := range settings.MergeQueue {
				queued[m] = true
			}

			for _, arg := range args {
				abs, err := filepath.Abs(arg)
				if err != nil {
					return errors.Wrapf(err, errors.ErrInvalidInput, "cannot resolve %s", arg)
				}
				if queued[abs] {
					continue
				}
				settings.MergeQueue = append(settings.MergeQueue, abs)
				queued[abs] = true
			}

			if err := config.Save(settings, ""); err != nil {
				return err
			}
			fmt.Printf("%d mod(s) on the queue.\n", len(settings.MergeQueue))
			return nil
		},
	}
}

func newQueueClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the merge queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load("")
			if err != nil {
				return err
			}
			settings.MergeQueue = nil
			if err := config.Save(settings, ""); err != nil {
				return err
			}
			fmt.Println("Merge queue cleared.")
			return nil
		},
	}
}
