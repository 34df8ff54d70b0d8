package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samvad-hq/grader-client/internal/domain"
	bolt "go.etcd.io/bbolt"
)

const (
	submissionBucket = "submissions"
	expiryValueBytes = 8
	// keys are 8-byte big-endian submit time (unix nanos) + submission id
	keyTimeBytes = 8
)

// boltStore implements a Store backed by BoltDB. Values are an 8-byte expiry
// followed by the JSON-encoded submission.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	ttl             time.Duration
	cleanupInterval time.Duration
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(submissionBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		ttl:             opts.TTL,
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

// Record appends a submission to the journal.
func (b *boltStore) Record(sub domain.Submission) error {
	if b == nil || b.db == nil {
		return nil
	}
	if sub.ID == "" {
		return fmt.Errorf("submission id is empty")
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = now.UTC()
	}

	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	value := make([]byte, expiryValueBytes+len(payload))
	binary.BigEndian.PutUint64(value, uint64(now.Add(b.ttl).Unix()))
	copy(value[expiryValueBytes:], payload)

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(submissionBucket))
		if bucket == nil {
			return fmt.Errorf("submission bucket missing")
		}
		return bucket.Put(submissionKey(sub), value)
	})
}

// Recent returns up to limit unexpired submissions, newest first.
func (b *boltStore) Recent(limit int) ([]domain.Submission, error) {
	if b == nil || b.db == nil || limit <= 0 {
		return nil, nil
	}

	now := time.Now()
	var out []domain.Submission
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(submissionBucket))
		if bucket == nil {
			return fmt.Errorf("submission bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil && len(out) < limit; k, v = cursor.Prev() {
			expiry, ok := decodeExpiry(v)
			if !ok || !expiry.After(now) {
				continue
			}
			var sub domain.Submission
			if err := json.Unmarshal(v[expiryValueBytes:], &sub); err != nil {
				return fmt.Errorf("decode submission %q: %w", k, err)
			}
			out = append(out, sub)
		}
		return nil
	})
	return out, err
}

// maybeCleanupExpired removes expired submissions on a fixed cadence to avoid unbounded growth.
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
		bucket := tx.Bucket([]byte(submissionBucket))
		if bucket == nil {
			return fmt.Errorf("submission bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; {
			expiry, ok := decodeExpiry(v)
			if !ok || !expiry.After(now) {
				key := append([]byte(nil), k...)
				if err := cursor.Delete(); err != nil {
					return err
				}
				// Delete shifts the cursor; re-seek to the key after the removed one.
				k, v = cursor.Seek(key)
				continue
			}
			k, v = cursor.Next()
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func submissionKey(sub domain.Submission) []byte {
	key := make([]byte, keyTimeBytes+len(sub.ID))
	binary.BigEndian.PutUint64(key, uint64(sub.SubmittedAt.UnixNano()))
	copy(key[keyTimeBytes:], sub.ID)
	return key
}

// decodeExpiry decodes the expiry time from the head of the stored value.
func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) < expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
