package content

import (
	"context"
	"fmt"
	"log/slog"
)

var demoDocumentTitles = []string{
	"Getting Started with Content Indexing",
	"Understanding Incremental Index Updates",
	"Best Practices for Search Relevance",
	"Creating Custom Content Categories",
	"Integrating with the Search API",
	"Optimizing Your Index for Performance",
	"Internationalization in Search Previews",
	"Debugging Techniques for Index Drift",
	"Creating Settings Entries for Navigation",
	"Leveraging Query Caching for Better Performance",
	"Unit Testing Your Search Integration",
	"Creating Custom Result Renderers",
	"Using Structured Logging in Services",
	"Integrating Assets into Search Results",
	"Creating Scheduled Rebuild Pipelines",
}

var demoAssetTitles = []string{
	"Hero banner",
	"Team photo",
	"Product screenshot",
	"Architecture diagram",
	"Quarterly report cover",
	"Conference badge",
	"Release announcement graphic",
}

// SeedDemo wipes the content store and fills it with a small deterministic
// corpus for interactive testing. Hooks are not fired; callers follow up with
// a full rebuild.
func (r *Repo) SeedDemo(ctx context.Context, documents, assets int) error {
	slog.Info("demo_seed_started",
		slog.Int("documents", documents),
		slog.Int("assets", assets))

	if err := r.DeleteAllContent(ctx); err != nil {
		return err
	}

	hooks := r.hooks
	r.hooks = nil
	defer func() { r.hooks = hooks }()

	for i := 0; i < documents; i++ {
		title := demoDocumentTitles[i%len(demoDocumentTitles)]
		body := fmt.Sprintf("This is a demo document about %s. It demonstrates the search functionality.", title)
		if _, err := r.CreateDocument(ctx, title, body); err != nil {
			return fmt.Errorf("seed document: %w", err)
		}
	}

	for i := 0; i < assets; i++ {
		title := demoAssetTitles[i%len(demoAssetTitles)]
		alt := fmt.Sprintf("Illustration of %s", title)
		if _, err := r.CreateAsset(ctx, title, alt,
			fmt.Sprintf("https://example.test/media/%d.png", i+1),
			fmt.Sprintf("https://example.test/media/%d-thumb.png", i+1)); err != nil {
			return fmt.Errorf("seed asset: %w", err)
		}
	}

	slog.Info("demo_seed_complete")
	return nil
}
