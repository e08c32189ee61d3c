package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tagconcierge/compass/internal/store"
)

func newStatusCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show rebuild state and index counts",
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
			status, err := a.coordinator.Status(ctx)
			if err != nil {
				return err
			}

			counts := map[string]int{}
			for _, typ := range []string{store.TypeContent, store.TypeAsset,
				store.TypeOrder, store.TypeSettings} {
				n, err := a.store.CountByType(ctx, typ)
				if err != nil {
					return err
				}
				counts[typ] = n
			}
			total, err := a.store.Count(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"rebuild": status,
					"entries": counts,
					"total":   total,
				})
			}

			if status.Running {
				fmt.Fprintf(out, "Rebuild: running for %ds\n", status.ElapsedSeconds)
			} else {
				fmt.Fprintln(out, "Rebuild: idle")
			}
			fmt.Fprintf(out, "Entries: %d total\n", total)
			for _, typ := range []string{store.TypeContent, store.TypeAsset,
				store.TypeOrder, store.TypeSettings} {
				fmt.Fprintf(out, "  %-9s %d\n", typ, counts[typ])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")

	return cmd
}
