package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/shopit/core"
	"github.com/poiesic/shopit/storage"
)

// ImageCache implements storage.ImageCache for BadgerDB.
// Expiry is delegated to BadgerDB entry TTLs.
type ImageCache struct {
	backend *Backend
}

var _ storage.ImageCache = (*ImageCache)(nil)

// NewImageCache creates a new ImageCache.
func NewImageCache(backend *Backend) *ImageCache {
	return &ImageCache{backend: backend}
}

// Close is a no-op; the backend owns the database.
func (c *ImageCache) Close() error {
	return nil
}

// GetImage returns the cached image for ref.
func (c *ImageCache) GetImage(ctx context.Context, ref string) (*core.EncodedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := makeImageKey(ref)
	if err != nil {
		return nil, err
	}

	var img *core.EncodedImage
	err = c.backend.WithTx(func(tx *badger.Txn) error {
		val, err := readValue(tx, key)
		if err != nil {
			return err
		}
		img, err = storage.UnmarshalImage(val)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// PutImage caches img under ref.
func (c *ImageCache) PutImage(ctx context.Context, ref string, img *core.EncodedImage, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := makeImageKey(ref)
	if err != nil {
		return err
	}

	return c.backend.WithTx(func(tx *badger.Txn) error {
		entry := badger.NewEntry(key, storage.MarshalImage(img))
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		if err := tx.SetEntry(entry); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
