// Package index maintains the search index: single-item upserts and deletes
// driven by content mutation events, and the full-corpus batch rebuild.
package index

import (
	"context"
	"strings"
	"time"
)

// Item is a snapshot of one content record as supplied by a content source
// or a mutation hook.
type Item struct {
	// ID is the content id. Always positive for real items.
	ID int64

	// Type is the item type tag (content, asset, order, ...).
	Type string

	// Title is the display title.
	Title string

	// Content is the body text.
	Content string

	// Extra is auxiliary searchable text extracted per type: alt text for
	// assets, SKU and price for commerce items, customer and billing
	// fields for orders. Concatenated into the indexed content.
	Extra string

	// EditURL is the edit destination. May be empty; the rebuild engine
	// falls back to a synthetic URL.
	EditURL string

	// ThumbnailURL is an optional preview image URL.
	ThumbnailURL string

	// ModifiedAt and CreatedAt are copied onto the index entry.
	ModifiedAt *time.Time
	CreatedAt  *time.Time
}

// SearchableContent assembles the indexed content block: body text followed
// by the type-specific auxiliary text.
func (it Item) SearchableContent() string {
	if it.Extra == "" {
		return it.Content
	}
	if it.Content == "" {
		return it.Extra
	}
	return it.Content + "\n" + it.Extra
}

// Source is one content source category walked by the batch rebuild.
// Implementations own the per-type extraction of auxiliary searchable text.
type Source interface {
	// Type is the item type tag of entries this source produces.
	Type() string

	// Page returns up to limit items starting at offset. An empty page
	// ends the scan for this source.
	Page(ctx context.Context, offset, limit int) ([]Item, error)

	// BatchSize is the preferred page size, or 0 for the rebuild default.
	BatchSize() int

	// TracksSeen reports whether the backing query may reorder under
	// concurrent writes, requiring a per-run already-seen guard to avoid
	// double counting with offset pagination.
	TracksSeen() bool
}

// MenuEntry is one navigable admin destination supplied by the settings/menu
// collaborator.
type MenuEntry struct {
	Label    string
	URL      string
	Children []MenuEntry
}

// MenuProvider enumerates the ordered top-level admin menu.
type MenuProvider interface {
	Menu(ctx context.Context) ([]MenuEntry, error)
}

// StaticMenu is a MenuProvider over a fixed entry list.
type StaticMenu []MenuEntry

func (m StaticMenu) Menu(ctx context.Context) ([]MenuEntry, error) {
	return m, nil
}

// settingsContent builds the generated "Navigate to ..." phrase for a
// top-level menu entry.
func settingsContent(label string) string {
	return "Navigate to " + strings.TrimSpace(label) + " admin page"
}

// settingsChildContent builds the phrase for a child entry.
func settingsChildContent(parent, child string) string {
	return "Navigate to " + strings.TrimSpace(child) + " under " + strings.TrimSpace(parent)
}
