package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tagconcierge/compass/internal/index"
	"github.com/tagconcierge/compass/internal/store"
)

// OrderBatchSize is the default page size for the order source. Order pages
// are smaller than the rebuild default because orders carry more extracted
// text per row.
const OrderBatchSize = 20

// Sources returns the source list the batch rebuild walks, one per category.
func (r *Repo) Sources(orderBatch int) []index.Source {
	if orderBatch <= 0 {
		orderBatch = OrderBatchSize
	}
	return []index.Source{
		&documentSource{repo: r},
		&assetSource{repo: r},
		&orderSource{repo: r, batch: orderBatch},
	}
}

type documentSource struct {
	repo *Repo
}

func (s *documentSource) Type() string     { return store.TypeContent }
func (s *documentSource) BatchSize() int   { return 0 }
func (s *documentSource) TracksSeen() bool { return false }

func (s *documentSource) Page(ctx context.Context, offset, limit int) ([]index.Item, error) {
	rows, err := s.repo.db.QueryContext(ctx, `
		SELECT id, title, body, created_at, updated_at
		FROM documents ORDER BY id LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("page documents: %w", err)
	}
	defer rows.Close()

	var items []index.Item
	for rows.Next() {
		var d Document
		var created, updated int64
		if err := rows.Scan(&d.ID, &d.Title, &d.Body, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.CreatedAt = epochTime(created)
		d.UpdatedAt = epochTime(updated)
		items = append(items, s.repo.documentItem(d))
	}
	return items, rows.Err()
}

type assetSource struct {
	repo *Repo
}

func (s *assetSource) Type() string     { return store.TypeAsset }
func (s *assetSource) BatchSize() int   { return 0 }
func (s *assetSource) TracksSeen() bool { return false }

func (s *assetSource) Page(ctx context.Context, offset, limit int) ([]index.Item, error) {
	rows, err := s.repo.db.QueryContext(ctx, `
		SELECT id, title, alt_text, file_url, thumbnail_url, created_at, updated_at
		FROM assets ORDER BY id LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("page assets: %w", err)
	}
	defer rows.Close()

	var items []index.Item
	for rows.Next() {
		var a Asset
		var created, updated int64
		if err := rows.Scan(&a.ID, &a.Title, &a.AltText, &a.FileURL,
			&a.ThumbnailURL, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		a.CreatedAt = epochTime(created)
		a.UpdatedAt = epochTime(updated)
		items = append(items, s.repo.assetItem(a))
	}
	return items, rows.Err()
}

// orderSource pages orders newest-activity first. Status changes bump
// updated_at and reorder the listing under the scan, so the source declares
// TracksSeen and lets the rebuild guard against double counting.
type orderSource struct {
	repo  *Repo
	batch int
}

func (s *orderSource) Type() string     { return store.TypeOrder }
func (s *orderSource) BatchSize() int   { return s.batch }
func (s *orderSource) TracksSeen() bool { return true }

func (s *orderSource) Page(ctx context.Context, offset, limit int) ([]index.Item, error) {
	rows, err := s.repo.db.QueryContext(ctx, `
		SELECT id, number, customer_name, customer_email, billing_address,
		       sku, total, status, created_at, updated_at
		FROM orders ORDER BY updated_at DESC, id DESC LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("page orders: %w", err)
	}
	defer rows.Close()

	var items []index.Item
	for rows.Next() {
		var o Order
		var created, updated int64
		if err := rows.Scan(&o.ID, &o.Number, &o.CustomerName, &o.CustomerEmail,
			&o.BillingAddress, &o.SKU, &o.Total, &o.Status, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.CreatedAt = epochTime(created)
		o.UpdatedAt = epochTime(updated)
		items = append(items, s.repo.orderItem(o))
	}
	return items, rows.Err()
}

func (r *Repo) documentItem(d Document) index.Item {
	created := d.CreatedAt
	updated := d.UpdatedAt
	return index.Item{
		ID:         d.ID,
		Type:       store.TypeContent,
		Title:      d.Title,
		Content:    d.Body,
		EditURL:    r.editURL("documents", d.ID),
		ModifiedAt: &updated,
		CreatedAt:  &created,
	}
}

func (r *Repo) assetItem(a Asset) index.Item {
	created := a.CreatedAt
	updated := a.UpdatedAt
	return index.Item{
		ID:           a.ID,
		Type:         store.TypeAsset,
		Title:        a.Title,
		Extra:        a.AltText,
		EditURL:      r.editURL("assets", a.ID),
		ThumbnailURL: a.ThumbnailURL,
		ModifiedAt:   &updated,
		CreatedAt:    &created,
	}
}

func (r *Repo) orderItem(o Order) index.Item {
	created := o.CreatedAt
	updated := o.UpdatedAt
	return index.Item{
		ID:         o.ID,
		Type:       store.TypeOrder,
		Title:      orderTitle(o),
		Content:    o.Status,
		Extra:      orderExtra(o),
		EditURL:    r.editURL("orders", o.ID),
		ModifiedAt: &updated,
		CreatedAt:  &created,
	}
}

func orderTitle(o Order) string {
	if o.CustomerName == "" {
		return "Order #" + o.Number
	}
	return fmt.Sprintf("Order #%s - %s", o.Number, o.CustomerName)
}

// orderExtra assembles the auxiliary searchable text: customer identity,
// billing address, SKU and total.
func orderExtra(o Order) string {
	fields := []string{o.CustomerName, o.CustomerEmail, o.BillingAddress, o.SKU}
	if o.Total > 0 {
		fields = append(fields, fmt.Sprintf("%.2f", o.Total))
	}
	var parts []string
	for _, f := range fields {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}

func (r *Repo) editURL(category string, id int64) string {
	if r.baseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%d/edit", strings.TrimRight(r.baseURL, "/"), category, id)
}

func epochTime(sec int64) time.Time { return time.Unix(sec, 0) }
