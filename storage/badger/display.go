package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/shopit/core"
	"github.com/poiesic/shopit/storage"
)

// DisplayRepository implements storage.DisplayRepository for BadgerDB.
type DisplayRepository struct {
	backend *Backend
}

var _ storage.DisplayRepository = (*DisplayRepository)(nil)

// NewDisplayRepository creates a new DisplayRepository.
func NewDisplayRepository(backend *Backend) *DisplayRepository {
	return &DisplayRepository{backend: backend}
}

// Close is a no-op; the backend owns the database.
func (r *DisplayRepository) Close() error {
	return nil
}

// RegisterTarget marks target as live.
func (r *DisplayRepository) RegisterTarget(ctx context.Context, target string) error {
	key, err := makeTargetKey(target)
	if err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(key, []byte{1}); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// TargetExists reports whether target is registered.
func (r *DisplayRepository) TargetExists(ctx context.Context, target string) (bool, error) {
	key, err := makeTargetKey(target)
	if err != nil {
		return false, err
	}
	var found bool
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		found, err = exists(tx, key)
		return err
	}, false)
	return found, err
}

// ClearTarget removes target and its view.
func (r *DisplayRepository) ClearTarget(ctx context.Context, target string) error {
	targetKey, err := makeTargetKey(target)
	if err != nil {
		return err
	}
	viewKey, _ := makeViewKey(target)

	return r.backend.WithTx(func(tx *badger.Txn) error {
		found, err := exists(tx, targetKey)
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}
		if err := tx.Delete(targetKey); err != nil {
			return err
		}
		if err := tx.Delete(viewKey); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Render replaces the target's view. The registration check and the write
// share one transaction, so a concurrent ClearTarget either wins and the
// view is refused, or loses and removes the view with the target.
func (r *DisplayRepository) Render(ctx context.Context, target string, view *core.SearchView) error {
	targetKey, err := makeTargetKey(target)
	if err != nil {
		return err
	}
	viewKey, _ := makeViewKey(target)

	return r.backend.WithTx(func(tx *badger.Txn) error {
		found, err := exists(tx, targetKey)
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}
		if err := tx.Set(viewKey, storage.MarshalView(view)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetView returns the last view rendered to target.
func (r *DisplayRepository) GetView(ctx context.Context, target string) (*core.SearchView, error) {
	key, err := makeViewKey(target)
	if err != nil {
		return nil, err
	}
	var view *core.SearchView
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		val, err := readValue(tx, key)
		if err != nil {
			return err
		}
		view, err = storage.UnmarshalView(val)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return view, nil
}
