package bolt

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/meridianfs/ledgercore/internal/domain"
)

// scheduledRepository implements domain.ScheduledActivityRepository.
type scheduledRepository struct {
	store *Store
}

// NewScheduledRepository creates a new scheduled-activity repository
// backed by the store.
func NewScheduledRepository(store *Store) domain.ScheduledActivityRepository {
	return &scheduledRepository{store: store}
}

// Create stores a new scheduled activity keyed by its ID.
func (r *scheduledRepository) Create(ctx context.Context, scheduled *domain.ScheduledActivity) error {
	err := r.store.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketScheduled))
		if b == nil {
			return fmt.Errorf("bucket %s missing", bucketScheduled)
		}
		data, err := encode(scheduled)
		if err != nil {
			return err
		}
		return b.Put(scheduled.ID[:], data)
	})
	if err != nil {
		return fmt.Errorf("failed to create scheduled activity: %w", err)
	}
	return nil
}

// GetByID retrieves a scheduled activity.
func (r *scheduledRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ScheduledActivity, error) {
	var scheduled *domain.ScheduledActivity
	err := r.store.db.View(func(tx *bolt.Tx) error {
		var err error
		scheduled, err = getScheduled(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return scheduled, nil
}

// ListDue scans for pending records whose scheduled time is at or
// before now.
func (r *scheduledRepository) ListDue(ctx context.Context, now time.Time) ([]*domain.ScheduledActivity, error) {
	var due []*domain.ScheduledActivity
	err := r.store.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketScheduled))
		if b == nil {
			return fmt.Errorf("bucket %s missing", bucketScheduled)
		}
		return b.ForEach(func(_, v []byte) error {
			var scheduled domain.ScheduledActivity
			if err := decode(v, &scheduled); err != nil {
				return err
			}
			if scheduled.Status == domain.ScheduledStatusPending && !scheduled.ScheduledTime.After(now) {
				due = append(due, &scheduled)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list due scheduled activities: %w", err)
	}
	return due, nil
}

// Delete removes a scheduled activity regardless of its state.
func (r *scheduledRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.store.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketScheduled))
		if b == nil {
			return fmt.Errorf("bucket %s missing", bucketScheduled)
		}
		return b.Delete(id[:])
	})
	if err != nil {
		return fmt.Errorf("failed to delete scheduled activity: %w", err)
	}
	return nil
}

func getScheduled(tx *bolt.Tx, id uuid.UUID) (*domain.ScheduledActivity, error) {
	b := tx.Bucket([]byte(bucketScheduled))
	if b == nil {
		return nil, domain.ErrNotFound
	}
	data := b.Get(id[:])
	if data == nil {
		return nil, domain.ErrNotFound
	}
	var scheduled domain.ScheduledActivity
	if err := decode(data, &scheduled); err != nil {
		return nil, err
	}
	return &scheduled, nil
}

func putScheduled(tx *bolt.Tx, scheduled *domain.ScheduledActivity) error {
	b := tx.Bucket([]byte(bucketScheduled))
	if b == nil {
		return fmt.Errorf("bucket %s missing", bucketScheduled)
	}
	data, err := encode(scheduled)
	if err != nil {
		return err
	}
	return b.Put(scheduled.ID[:], data)
}
