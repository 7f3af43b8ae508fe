package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var sessionBucket = []byte("session")

// Bolt keeps entries in a single bucket of a local bbolt file.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens or creates the database file at path.
func OpenBolt(path string) (*Bolt, error) {
	if path == "" {
		return nil, fmt.Errorf("bolt storage path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt storage: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialise bolt bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

func (b *Bolt) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	var (
		value string
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(sessionBucket).Get([]byte(key))
		if raw != nil {
			value = string(raw)
			found = true
		}
		return nil
	})
	return value, found, err
}

func (b *Bolt) SetAll(ctx context.Context, entries map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(sessionBucket)
		for key, value := range entries {
			if err := bucket.Put([]byte(key), []byte(value)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Bolt) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(sessionBucket)
		for _, key := range keys {
			if err := bucket.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
