package bolt

import (
	"context"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/meridianfs/ledgercore/internal/domain"
)

// activityRepository implements domain.ActivityRepository.
type activityRepository struct {
	store *Store
}

// NewActivityRepository creates a new activity repository backed by the
// store.
func NewActivityRepository(store *Store) domain.ActivityRepository {
	return &activityRepository{store: store}
}

// List retrieves an account's full activity log in insertion order.
// Sequence keys are big-endian, so a cursor walk is insertion order.
func (r *activityRepository) List(ctx context.Context, accountID string) ([]*domain.Activity, error) {
	var activities []*domain.Activity
	err := r.store.db.View(func(tx *bolt.Tx) error {
		var err error
		activities, err = listActivities(tx, accountID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}

// Query retrieves the activities of an account matching the filter.
func (r *activityRepository) Query(ctx context.Context, accountID string, filter domain.ActivityFilter) ([]*domain.Activity, error) {
	all, err := r.List(ctx, accountID)
	if err != nil {
		return nil, err
	}
	matched := make([]*domain.Activity, 0, len(all))
	for _, activity := range all {
		if filter.Matches(activity) {
			matched = append(matched, activity)
		}
	}
	return matched, nil
}

// Append adds an activity to the end of an account's log.
func (r *activityRepository) Append(ctx context.Context, accountID string, activity *domain.Activity) error {
	err := r.store.db.Update(func(tx *bolt.Tx) error {
		return appendActivity(tx, accountID, activity)
	})
	if err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

func listActivities(tx *bolt.Tx, accountID string) ([]*domain.Activity, error) {
	b := accountBucket(tx, bucketActivities, accountID)
	if b == nil {
		return nil, nil
	}
	var activities []*domain.Activity
	err := b.ForEach(func(_, v []byte) error {
		var activity domain.Activity
		if err := decode(v, &activity); err != nil {
			return err
		}
		activities = append(activities, &activity)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activities, nil
}

// appendActivity writes one activity under the next sequence key.
// Shared with the settlement transaction.
func appendActivity(tx *bolt.Tx, accountID string, activity *domain.Activity) error {
	b, err := ensureAccountBucket(tx, bucketActivities, accountID)
	if err != nil {
		return err
	}
	seq, err := b.NextSequence()
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	data, err := encode(activity)
	if err != nil {
		return err
	}
	return b.Put(itob(seq), data)
}
