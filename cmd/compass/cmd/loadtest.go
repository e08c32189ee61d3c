package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tagconcierge/compass/internal/content"
)

func newLoadTestCmd() *cobra.Command {
	var (
		kind    string
		count   int
		queries int
		seed    int64
	)

	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Generate synthetic content and measure query latency",
		Long: `Generate synthetic content through the repository (so mutation hooks
fire exactly as for real traffic), rebuild the index, then replay random
queries and report latency.

Examples:
  compass loadtest --type document --count 1000
  compass loadtest --type all --count 500 --queries 200`,
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
			gen := content.NewGenerator(a.repo, seed)

			genStart := time.Now()
			switch kind {
			case "document":
				err = gen.Documents(ctx, count)
			case "asset":
				err = gen.Assets(ctx, count)
			case "order":
				err = gen.Orders(ctx, count)
			case "all":
				err = gen.All(ctx, count)
			default:
				return fmt.Errorf("invalid content type %q: use document, asset, order or all", kind)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generated %s content in %s\n",
				kind, time.Since(genStart).Round(time.Millisecond))

			result, err := a.coordinator.RunOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Rebuild indexed %d entries in %s (partial=%v)\n",
				result.Indexed, result.Duration.Round(time.Millisecond), result.Partial)

			if queries <= 0 {
				return nil
			}

			var total time.Duration
			var hits int
			for _, term := range gen.QueryTerms(queries) {
				start := time.Now()
				results, err := a.engine.Search(ctx, term)
				if err != nil {
					return err
				}
				total += time.Since(start)
				if len(results) > 0 {
					hits++
				}
			}

			fmt.Fprintf(out, "Ran %d queries: avg %s, %d with results\n",
				queries, (total / time.Duration(queries)).Round(time.Microsecond), hits)
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "type", "t", "all", "Content type: document, asset, order, all")
	cmd.Flags().IntVarP(&count, "count", "n", 100, "Items to generate per type")
	cmd.Flags().IntVarP(&queries, "queries", "q", 100, "Queries to replay (0 skips the query phase)")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed for reproducible corpora")

	return cmd
}
