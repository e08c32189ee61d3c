package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPurgeCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Drop the search index and its state",
		Long: `Remove every index entry and all persisted index state (rebuild flag,
settings flag, schema version). The content store is left untouched; a
later rebuild recreates the index from it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if !yes {
				fmt.Fprintln(cmd.OutOrStdout(),
					"This drops the entire search index. Re-run with --yes to confirm.")
				return nil
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Purge(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Search index purged.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the purge")

	return cmd
}
