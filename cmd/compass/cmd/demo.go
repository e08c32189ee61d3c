package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDemoCmd() *cobra.Command {
	var documents, assets int

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Seed a small demo corpus and rebuild the index",
		Long: `Replace the content store with a small deterministic demo corpus and
run a full rebuild, for trying out search interactively.

Existing content is removed first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if err := a.repo.SeedDemo(ctx, documents, assets); err != nil {
				return err
			}

			if err := a.store.RequestSettingsReindex(ctx); err != nil {
				return err
			}
			result, err := a.coordinator.RunOnce(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Demo corpus ready: %d entries indexed (%d settings).\n",
				result.Indexed, result.Settings)
			fmt.Fprintln(cmd.OutOrStdout(), `Try: compass search "getting started"`)
			return nil
		},
	}

	cmd.Flags().IntVar(&documents, "documents", 10, "Number of demo documents")
	cmd.Flags().IntVar(&assets, "assets", 5, "Number of demo assets")

	return cmd
}
