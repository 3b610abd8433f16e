package bolt

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/meridianfs/ledgercore/internal/domain"
)

// InSettlementTx runs fn inside a single bbolt write transaction.
// bbolt serializes writers and rolls the whole transaction back when fn
// errors, which is exactly the all-or-nothing multi-document write the
// settlement engine needs. Reads through the transaction see its own
// staged writes.
func (s *Store) InSettlementTx(ctx context.Context, fn func(tx domain.SettlementTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(btx *bolt.Tx) error {
		return fn(&settlementTx{tx: btx})
	})
}

// settlementTx adapts a bbolt write transaction to domain.SettlementTx.
type settlementTx struct {
	tx *bolt.Tx
}

func (t *settlementTx) AppendActivity(accountID string, activity *domain.Activity) error {
	return appendActivity(t.tx, accountID, activity)
}

func (t *settlementTx) GetAssetSnapshot(accountID, fund string) (*domain.AssetSnapshot, error) {
	return getAssetSnapshot(t.tx, accountID, fund)
}

func (t *settlementTx) PutAssetSnapshot(accountID string, snapshot *domain.AssetSnapshot) error {
	return putAssetSnapshot(t.tx, accountID, snapshot)
}

func (t *settlementTx) ListAssetSnapshots(accountID string) ([]*domain.AssetSnapshot, error) {
	return listAssetSnapshots(t.tx, accountID)
}

func (t *settlementTx) GetGeneral(accountID string) (*domain.GeneralSnapshot, error) {
	return getGeneral(t.tx, accountID)
}

func (t *settlementTx) PutGeneral(accountID string, general *domain.GeneralSnapshot) error {
	return putGeneral(t.tx, accountID, general)
}

// MarkCompleted flips a scheduled activity to completed. The pending ->
// completed transition is the only one; a record already completed is
// left as is.
func (t *settlementTx) MarkCompleted(id uuid.UUID) error {
	scheduled, err := getScheduled(t.tx, id)
	if err != nil {
		return fmt.Errorf("failed to load scheduled activity %s: %w", id, err)
	}
	if scheduled.Status == domain.ScheduledStatusCompleted {
		return nil
	}
	scheduled.Status = domain.ScheduledStatusCompleted
	return putScheduled(t.tx, scheduled)
}
