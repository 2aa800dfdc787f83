package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	resolutionBucket = "resolutions"
	expiryPrefixLen  = 8
)

// boltStore implements a Store backed by BoltDB. Values are an 8-byte
// big-endian expiry timestamp followed by the resolved media URL.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	resolutionTTL   time.Duration
	cleanupInterval time.Duration
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(resolutionBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		resolutionTTL:   opts.ResolutionTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	store.lastCleanup.Store(time.Now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// ResolvedURL returns the cached media URL for a page, if present and fresh.
func (b *boltStore) ResolvedURL(pageURL string) (string, bool, error) {
	if b == nil || b.db == nil {
		return "", false, nil
	}

	if err := b.maybeCleanupExpired(time.Now()); err != nil {
		return "", false, err
	}

	var mediaURL string
	var found bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(resolutionBucket))
		if bucket == nil {
			return fmt.Errorf("resolution bucket missing")
		}

		key := []byte(pageURL)
		value := bucket.Get(key)
		if value == nil {
			return nil
		}

		expiry, url, ok := decodeResolution(value)
		if !ok || !expiry.After(time.Now()) {
			return bucket.Delete(key)
		}

		mediaURL = url
		found = true
		return nil
	})
	return mediaURL, found, err
}

// MarkResolved stores the media URL a page resolved to.
func (b *boltStore) MarkResolved(pageURL, mediaURL string) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(resolutionBucket))
		if bucket == nil {
			return fmt.Errorf("resolution bucket missing")
		}
		buf := make([]byte, expiryPrefixLen+len(mediaURL))
		binary.BigEndian.PutUint64(buf, uint64(now.Add(b.resolutionTTL).Unix()))
		copy(buf[expiryPrefixLen:], mediaURL)
		return bucket.Put([]byte(pageURL), buf)
	})
}

// maybeCleanupExpired removes expired resolutions on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(resolutionBucket))
		if bucket == nil {
			return fmt.Errorf("resolution bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			expiry, _, ok := decodeResolution(v)
			if !ok || !expiry.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// decodeResolution splits a stored value into expiry time and media URL.
func decodeResolution(value []byte) (time.Time, string, bool) {
	if len(value) < expiryPrefixLen {
		return time.Time{}, "", false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryPrefixLen]))
	if unix <= 0 {
		return time.Time{}, "", false
	}
	return time.Unix(unix, 0), string(value[expiryPrefixLen:]), true
}
