package bolt

import (
	"context"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/meridianfs/ledgercore/internal/domain"
)

// balancePointRepository implements domain.BalancePointRepository.
type balancePointRepository struct {
	store *Store
}

// NewBalancePointRepository creates a new balance-point repository
// backed by the store.
func NewBalancePointRepository(store *Store) domain.BalancePointRepository {
	return &balancePointRepository{store: store}
}

// Replace swaps an account's entire balance-point set inside one write
// transaction: the old nested bucket is dropped and the new sequence
// written before the transaction commits, so readers either see the old
// set or the complete new one.
func (r *balancePointRepository) Replace(ctx context.Context, accountID string, points []*domain.BalancePoint) error {
	err := r.store.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(bucketBalancePoints))
		if root == nil {
			return fmt.Errorf("bucket %s missing", bucketBalancePoints)
		}
		if root.Bucket([]byte(accountID)) != nil {
			if err := root.DeleteBucket([]byte(accountID)); err != nil {
				return fmt.Errorf("failed to drop old set: %w", err)
			}
		}
		b, err := root.CreateBucket([]byte(accountID))
		if err != nil {
			return fmt.Errorf("failed to create account bucket: %w", err)
		}
		for _, point := range points {
			seq, err := b.NextSequence()
			if err != nil {
				return fmt.Errorf("failed to generate sequence: %w", err)
			}
			data, err := encode(point)
			if err != nil {
				return err
			}
			if err := b.Put(itob(seq), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace balance points: %w", err)
	}
	return nil
}

// List retrieves an account's balance points in the order they were
// written.
func (r *balancePointRepository) List(ctx context.Context, accountID string) ([]*domain.BalancePoint, error) {
	var points []*domain.BalancePoint
	err := r.store.db.View(func(tx *bolt.Tx) error {
		b := accountBucket(tx, bucketBalancePoints, accountID)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var point domain.BalancePoint
			if err := decode(v, &point); err != nil {
				return err
			}
			points = append(points, &point)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list balance points: %w", err)
	}
	return points, nil
}
