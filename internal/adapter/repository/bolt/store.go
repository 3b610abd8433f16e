// Package bolt implements the store contract on an embedded bbolt
// database: top-level buckets act as collections, documents are JSON
// encoded, and bbolt's single write transaction provides the atomic
// multi-document write settlement relies on.
package bolt

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/meridianfs/ledgercore/internal/domain"
)

// Bucket names.
const (
	bucketActivities    = "activities"      // nested: account -> seq -> Activity
	bucketBalancePoints = "balance_points"  // nested: account -> seq -> BalancePoint
	bucketSnapshots     = "asset_snapshots" // nested: account -> fund -> AssetSnapshot
	bucketGeneral       = "general_snapshots"
	bucketScheduled     = "scheduled_activities"
	bucketAccounts      = "accounts"
)

// Store wraps the bbolt database.
type Store struct {
	db *bolt.DB
}

// New opens (or creates) the database at path and initializes the
// top-level buckets.
func New(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		buckets := []string{
			bucketActivities, bucketBalancePoints, bucketSnapshots,
			bucketGeneral, bucketScheduled, bucketAccounts,
		}
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// itob returns an 8-byte big-endian representation of v, so sequence
// keys sort in insertion order.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}

func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}

// accountBucket returns the nested per-account bucket under parent,
// or nil when the account has no documents there yet.
func accountBucket(tx *bolt.Tx, parent, accountID string) *bolt.Bucket {
	root := tx.Bucket([]byte(parent))
	if root == nil {
		return nil
	}
	return root.Bucket([]byte(accountID))
}

// ensureAccountBucket returns the nested per-account bucket under
// parent, creating it if needed. Only valid in a writable transaction.
func ensureAccountBucket(tx *bolt.Tx, parent, accountID string) (*bolt.Bucket, error) {
	root := tx.Bucket([]byte(parent))
	if root == nil {
		return nil, fmt.Errorf("bucket %s missing", parent)
	}
	b, err := root.CreateBucketIfNotExists([]byte(accountID))
	if err != nil {
		return nil, fmt.Errorf("failed to create account bucket: %w", err)
	}
	return b, nil
}

var _ domain.SettlementStore = (*Store)(nil)
