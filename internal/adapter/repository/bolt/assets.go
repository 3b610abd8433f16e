package bolt

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	bolt "go.etcd.io/bbolt"

	"github.com/meridianfs/ledgercore/internal/domain"
)

// assetRepository implements domain.AssetRepository.
type assetRepository struct {
	store *Store
}

// NewAssetRepository creates a new asset-snapshot repository backed by
// the store.
func NewAssetRepository(store *Store) domain.AssetRepository {
	return &assetRepository{store: store}
}

// GetSnapshot retrieves one fund's snapshot for an account.
func (r *assetRepository) GetSnapshot(ctx context.Context, accountID, fund string) (*domain.AssetSnapshot, error) {
	var snapshot *domain.AssetSnapshot
	err := r.store.db.View(func(tx *bolt.Tx) error {
		var err error
		snapshot, err = getAssetSnapshot(tx, accountID, fund)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// ListSnapshots retrieves all fund snapshots of an account.
func (r *assetRepository) ListSnapshots(ctx context.Context, accountID string) ([]*domain.AssetSnapshot, error) {
	var snapshots []*domain.AssetSnapshot
	err := r.store.db.View(func(tx *bolt.Tx) error {
		var err error
		snapshots, err = listAssetSnapshots(tx, accountID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snapshots, nil
}

// PutSnapshot stores one fund's snapshot, replacing any prior one.
func (r *assetRepository) PutSnapshot(ctx context.Context, accountID string, snapshot *domain.AssetSnapshot) error {
	err := r.store.db.Update(func(tx *bolt.Tx) error {
		return putAssetSnapshot(tx, accountID, snapshot)
	})
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// GetGeneral retrieves the rolled-up general snapshot.
func (r *assetRepository) GetGeneral(ctx context.Context, accountID string) (*domain.GeneralSnapshot, error) {
	var general *domain.GeneralSnapshot
	err := r.store.db.View(func(tx *bolt.Tx) error {
		var err error
		general, err = getGeneral(tx, accountID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return general, nil
}

// PutGeneral stores the general snapshot, replacing any prior one.
func (r *assetRepository) PutGeneral(ctx context.Context, accountID string, snapshot *domain.GeneralSnapshot) error {
	err := r.store.db.Update(func(tx *bolt.Tx) error {
		return putGeneral(tx, accountID, snapshot)
	})
	if err != nil {
		return fmt.Errorf("failed to store general snapshot: %w", err)
	}
	return nil
}

// UpdateGeneralYTD overwrites only the YTD fields of the general
// snapshot inside one transaction, initializing a zero snapshot when
// absent.
func (r *assetRepository) UpdateGeneralYTD(ctx context.Context, accountID string, ytd, totalYTD decimal.Decimal) error {
	err := r.store.db.Update(func(tx *bolt.Tx) error {
		general, err := getGeneral(tx, accountID)
		if errors.Is(err, domain.ErrNotFound) {
			general = &domain.GeneralSnapshot{}
		} else if err != nil {
			return err
		}
		general.YTD = ytd
		general.TotalYTD = totalYTD
		return putGeneral(tx, accountID, general)
	})
	if err != nil {
		return fmt.Errorf("failed to update general snapshot: %w", err)
	}
	return nil
}

func getAssetSnapshot(tx *bolt.Tx, accountID, fund string) (*domain.AssetSnapshot, error) {
	b := accountBucket(tx, bucketSnapshots, accountID)
	if b == nil {
		return nil, domain.ErrNotFound
	}
	data := b.Get([]byte(fund))
	if data == nil {
		return nil, domain.ErrNotFound
	}
	var snapshot domain.AssetSnapshot
	if err := decode(data, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func listAssetSnapshots(tx *bolt.Tx, accountID string) ([]*domain.AssetSnapshot, error) {
	b := accountBucket(tx, bucketSnapshots, accountID)
	if b == nil {
		return nil, nil
	}
	var snapshots []*domain.AssetSnapshot
	err := b.ForEach(func(_, v []byte) error {
		var snapshot domain.AssetSnapshot
		if err := decode(v, &snapshot); err != nil {
			return err
		}
		snapshots = append(snapshots, &snapshot)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

func putAssetSnapshot(tx *bolt.Tx, accountID string, snapshot *domain.AssetSnapshot) error {
	b, err := ensureAccountBucket(tx, bucketSnapshots, accountID)
	if err != nil {
		return err
	}
	data, err := encode(snapshot)
	if err != nil {
		return err
	}
	return b.Put([]byte(snapshot.Fund), data)
}

func getGeneral(tx *bolt.Tx, accountID string) (*domain.GeneralSnapshot, error) {
	b := tx.Bucket([]byte(bucketGeneral))
	if b == nil {
		return nil, domain.ErrNotFound
	}
	data := b.Get([]byte(accountID))
	if data == nil {
		return nil, domain.ErrNotFound
	}
	var general domain.GeneralSnapshot
	if err := decode(data, &general); err != nil {
		return nil, err
	}
	return &general, nil
}

func putGeneral(tx *bolt.Tx, accountID string, general *domain.GeneralSnapshot) error {
	b := tx.Bucket([]byte(bucketGeneral))
	if b == nil {
		return fmt.Errorf("bucket %s missing", bucketGeneral)
	}
	data, err := encode(general)
	if err != nil {
		return err
	}
	return b.Put([]byte(accountID), data)
}
