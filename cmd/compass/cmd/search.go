package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search the index from the command line",
		Long: `Run a ranked substring query against the index.

Examples:
  compass search "quarterly report"
  compass search hello --format json`,
		Args: cobra.MinimumNArgs(1),
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

			term := strings.Join(args, " ")
			results, err := a.engine.Search(cmd.Context(), term)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			if len(results) == 0 {
				fmt.Fprintln(out, "No results.")
				return nil
			}
			for i, r := range results {
				fmt.Fprintf(out, "%2d. [%s] %s\n", i+1, r.Type, r.Title)
				if r.Preview != "" {
					fmt.Fprintf(out, "    %s\n", r.Preview)
				}
				fmt.Fprintf(out, "    %s\n", r.EditURL)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")

	return cmd
}
