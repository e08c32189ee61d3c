package cmd

import (
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tagconcierge/compass/internal/errors"
)

func newRebuildCmd() *cobra.Command {
	var withSettings bool

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Run one full index rebuild",
		Long: `Rebuild the search index from the full content corpus.

If the configured time budget runs out mid-scan the rebuild stops at a
page boundary and reports a partial result; the remaining sources are
picked up by the next rebuild. A rebuild already in progress (including
one owned by a serving process) makes this command a no-op.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if withSettings {
				if err := a.store.RequestSettingsReindex(ctx); err != nil {
					return fmt.Errorf("request settings reindex: %w", err)
				}
			}

			result, err := a.coordinator.RunOnce(ctx)
			if err != nil {
				if stderrors.Is(err, errors.ErrRebuildRunning) {
					fmt.Fprintln(cmd.OutOrStdout(), "A rebuild is already in progress; nothing to do.")
					return nil
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d entries in %s\n",
				result.Indexed, result.Duration.Round(time.Millisecond))
			if result.Settings >= 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Regenerated %d settings entries\n", result.Settings)
			}
			if result.Partial {
				fmt.Fprintln(cmd.OutOrStdout(),
					"Time budget exhausted; the next rebuild completes the index.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withSettings, "settings", false,
		"Also regenerate the settings entries from the admin menu")

	return cmd
}
