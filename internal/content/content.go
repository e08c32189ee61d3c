// Package content implements a reference content store: the hosting
// application compass mirrors. It owns documents, assets and orders, fires
// mutation hooks into the indexing engine, and exposes the paged sources the
// batch rebuild walks.
package content

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/tagconcierge/compass/internal/index"
)

// Hooks receives content mutation events synchronously. The indexing engine
// implements it; a nil hook set disables incremental indexing.
type Hooks interface {
	ItemSaved(ctx context.Context, it index.Item) error
	ItemDeleted(ctx context.Context, itemID int64) error
}

// Document is a page or post-like content record.
type Document struct {
	ID        int64
	Title     string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Asset is a binary media record with searchable alt text.
type Asset struct {
	ID           int64
	Title        string
	AltText      string
	FileURL      string
	ThumbnailURL string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Order is a transactional record with searchable customer fields.
type Order struct {
	ID             int64
	Number         string
	CustomerName   string
	CustomerEmail  string
	BillingAddress string
	SKU            string
	Total          float64
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Repo is the content repository. All ids come from a shared sequence so an
// item id identifies at most one record across categories, matching the
// index's delete-by-id semantics.
type Repo struct {
	db      *sql.DB
	baseURL string
	hooks   Hooks
}

// Open opens (or creates) the content database at path. Empty path opens an
// in-memory database for testing. baseURL is the admin UI root used to
// resolve edit URLs; empty leaves edit URLs unresolved.
func Open(path, baseURL string) (*Repo, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open content database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS id_seq (
		id INTEGER PRIMARY KEY AUTOINCREMENT
	);
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS assets (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		alt_text TEXT NOT NULL DEFAULT '',
		file_url TEXT NOT NULL DEFAULT '',
		thumbnail_url TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY,
		number TEXT NOT NULL,
		customer_name TEXT NOT NULL DEFAULT '',
		customer_email TEXT NOT NULL DEFAULT '',
		billing_address TEXT NOT NULL DEFAULT '',
		sku TEXT NOT NULL DEFAULT '',
		total REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create content schema: %w", err)
	}

	return &Repo{db: db, baseURL: baseURL}, nil
}

// SetHooks installs the mutation hook receiver.
func (r *Repo) SetHooks(h Hooks) { r.hooks = h }

// Close releases the database handle.
func (r *Repo) Close() error { return r.db.Close() }

// nextID allocates an id from the shared sequence.
func (r *Repo) nextID(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO id_seq DEFAULT VALUES`)
	if err != nil {
		return 0, fmt.Errorf("allocate id: %w", err)
	}
	return res.LastInsertId()
}

// CreateDocument inserts a document and fires the saved hook.
func (r *Repo) CreateDocument(ctx context.Context, title, body string) (int64, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, title, body, now.Unix(), now.Unix())
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}

	r.fireSaved(ctx, r.documentItem(Document{ID: id, Title: title, Body: body,
		CreatedAt: now, UpdatedAt: now}))
	return id, nil
}

// UpdateDocument replaces a document's fields and fires the saved hook.
func (r *Repo) UpdateDocument(ctx context.Context, id int64, title, body string) error {
	now := time.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE documents SET title = ?, body = ?, updated_at = ? WHERE id = ?
	`, title, body, now.Unix(), id)
	if err != nil {
		return fmt.Errorf("update document %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %d not found", id)
	}

	doc, err := r.getDocument(ctx, id)
	if err != nil {
		return err
	}
	r.fireSaved(ctx, r.documentItem(*doc))
	return nil
}

// DeleteDocument removes a document and fires the deleted hook.
func (r *Repo) DeleteDocument(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete document %d: %w", id, err)
	}
	r.fireDeleted(ctx, id)
	return nil
}

// CreateAsset inserts an asset and fires the saved hook.
func (r *Repo) CreateAsset(ctx context.Context, title, altText, fileURL, thumbnailURL string) (int64, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO assets (id, title, alt_text, file_url, thumbnail_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, title, altText, fileURL, thumbnailURL, now.Unix(), now.Unix())
	if err != nil {
		return 0, fmt.Errorf("insert asset: %w", err)
	}

	r.fireSaved(ctx, r.assetItem(Asset{ID: id, Title: title, AltText: altText,
		FileURL: fileURL, ThumbnailURL: thumbnailURL, CreatedAt: now, UpdatedAt: now}))
	return id, nil
}

// DeleteAsset removes an asset and fires the deleted hook.
func (r *Repo) DeleteAsset(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete asset %d: %w", id, err)
	}
	r.fireDeleted(ctx, id)
	return nil
}

// CreateOrder inserts an order and fires the saved hook.
func (r *Repo) CreateOrder(ctx context.Context, o Order) (int64, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	if o.Status == "" {
		o.Status = "pending"
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO orders (id, number, customer_name, customer_email, billing_address,
		                    sku, total, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, o.Number, o.CustomerName, o.CustomerEmail, o.BillingAddress,
		o.SKU, o.Total, o.Status, now.Unix(), now.Unix())
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}

	o.ID = id
	o.CreatedAt = now
	o.UpdatedAt = now
	r.fireSaved(ctx, r.orderItem(o))
	return id, nil
}

// UpdateOrderStatus moves an order through its lifecycle. The status change
// bumps updated_at, which reorders the order source's pagination.
func (r *Repo) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	now := time.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = ? WHERE id = ?
	`, status, now.Unix(), id)
	if err != nil {
		return fmt.Errorf("update order %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("order %d not found", id)
	}

	order, err := r.getOrder(ctx, id)
	if err != nil {
		return err
	}
	r.fireSaved(ctx, r.orderItem(*order))
	return nil
}

// CountDocuments returns the document count. Used by demo seeding.
func (r *Repo) CountDocuments(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

// DeleteAllContent removes every record without firing hooks. Demo seeding
// starts from a clean slate and follows with a full rebuild.
func (r *Repo) DeleteAllContent(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM documents;
		DELETE FROM assets;
		DELETE FROM orders;
	`); err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	return nil
}

func (r *Repo) getDocument(ctx context.Context, id int64) (*Document, error) {
	var d Document
	var created, updated int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, body, created_at, updated_at FROM documents WHERE id = ?
	`, id).Scan(&d.ID, &d.Title, &d.Body, &created, &updated)
	if err != nil {
		return nil, fmt.Errorf("get document %d: %w", id, err)
	}
	d.CreatedAt = time.Unix(created, 0)
	d.UpdatedAt = time.Unix(updated, 0)
	return &d, nil
}

func (r *Repo) getOrder(ctx context.Context, id int64) (*Order, error) {
	var o Order
	var created, updated int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id, number, customer_name, customer_email, billing_address,
		       sku, total, status, created_at, updated_at
		FROM orders WHERE id = ?
	`, id).Scan(&o.ID, &o.Number, &o.CustomerName, &o.CustomerEmail, &o.BillingAddress,
		&o.SKU, &o.Total, &o.Status, &created, &updated)
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	o.CreatedAt = time.Unix(created, 0)
	o.UpdatedAt = time.Unix(updated, 0)
	return &o, nil
}

// fireSaved dispatches the saved hook, logging failures instead of failing
// the content write: the index catches up on the next rebuild.
func (r *Repo) fireSaved(ctx context.Context, it index.Item) {
	if r.hooks == nil {
		return
	}
	if err := r.hooks.ItemSaved(ctx, it); err != nil {
		slog.Warn("content_hook_save_failed",
			slog.Int64("item_id", it.ID),
			slog.String("item_type", it.Type),
			slog.String("error", err.Error()))
	}
}

func (r *Repo) fireDeleted(ctx context.Context, id int64) {
	if r.hooks == nil {
		return
	}
	if err := r.hooks.ItemDeleted(ctx, id); err != nil {
		slog.Warn("content_hook_delete_failed",
			slog.Int64("item_id", id),
			slog.String("error", err.Error()))
	}
}
