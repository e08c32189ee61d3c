package store

import (
	"context"
	"time"

	"github.com/tagconcierge/compass/internal/errors"
)

// UnavailableStore is the degraded-mode store used when the index backend
// cannot be opened. Every operation fails with ErrStoreUnavailable; the
// engines downgrade that to empty results and skipped operations, so a
// misconfigured backend disables search instead of crashing the process.
type UnavailableStore struct{}

var _ Store = (*UnavailableStore)(nil)

// NewUnavailable returns the degraded-mode store.
func NewUnavailable() *UnavailableStore {
	return &UnavailableStore{}
}

func (u *UnavailableStore) Upsert(context.Context, *Entry) error  { return errors.ErrStoreUnavailable }
func (u *UnavailableStore) Insert(context.Context, *Entry) error  { return errors.ErrStoreUnavailable }
func (u *UnavailableStore) DeleteByItemID(context.Context, int64) error {
	return errors.ErrStoreUnavailable
}
func (u *UnavailableStore) DeleteWhereTypeNot(context.Context, string) error {
	return errors.ErrStoreUnavailable
}
func (u *UnavailableStore) DeleteByType(context.Context, string) error {
	return errors.ErrStoreUnavailable
}
func (u *UnavailableStore) Search(context.Context, string, int) ([]*Entry, error) {
	return nil, errors.ErrStoreUnavailable
}
func (u *UnavailableStore) Count(context.Context) (int, error) {
	return 0, errors.ErrStoreUnavailable
}
func (u *UnavailableStore) CountByType(context.Context, string) (int, error) {
	return 0, errors.ErrStoreUnavailable
}
func (u *UnavailableStore) TryStartRebuild(context.Context, time.Time) (bool, error) {
	return false, errors.ErrStoreUnavailable
}
func (u *UnavailableStore) FinishRebuild(context.Context) error {
	return errors.ErrStoreUnavailable
}
func (u *UnavailableStore) RebuildState(context.Context) (RebuildState, error) {
	return RebuildState{}, errors.ErrStoreUnavailable
}
func (u *UnavailableStore) RequestSettingsReindex(context.Context) error {
	return errors.ErrStoreUnavailable
}
func (u *UnavailableStore) ConsumeSettingsReindex(context.Context) (bool, error) {
	return false, errors.ErrStoreUnavailable
}
func (u *UnavailableStore) Generation(context.Context) (uint64, error) {
	return 0, errors.ErrStoreUnavailable
}
func (u *UnavailableStore) Purge(context.Context) error { return errors.ErrStoreUnavailable }
func (u *UnavailableStore) Close() error                { return nil }
