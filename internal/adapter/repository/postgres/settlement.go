package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/meridianfs/ledgercore/internal/domain"
)

// SettlementStore adapts a database connection to the settlement
// engine's atomic multi-document write primitive.
type SettlementStore struct {
	db *DB
}

// NewSettlementStore creates a new settlement store
func NewSettlementStore(db *DB) *SettlementStore {
	return &SettlementStore{db: db}
}

var _ domain.SettlementStore = (*SettlementStore)(nil)

// InSettlementTx runs fn inside one database transaction. Snapshot
// reads through the transaction take row locks (SELECT ... FOR
// UPDATE), so concurrent settlement and account edits serialize on the
// store instead of losing updates.
func (s *SettlementStore) InSettlementTx(ctx context.Context, fn func(tx domain.SettlementTx) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin settlement transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := fn(&settlementTx{ctx: ctx, tx: dbTx}); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settlement: %w", err)
	}
	return nil
}

// settlementTx adapts *sql.Tx to domain.SettlementTx.
type settlementTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *settlementTx) AppendActivity(accountID string, activity *domain.Activity) error {
	return insertActivity(t.ctx, t.tx, accountID, activity)
}

func (t *settlementTx) GetAssetSnapshot(accountID, fund string) (*domain.AssetSnapshot, error) {
	return getAssetSnapshot(t.ctx, t.tx, accountID, fund, true)
}

func (t *settlementTx) PutAssetSnapshot(accountID string, snapshot *domain.AssetSnapshot) error {
	return putAssetSnapshot(t.ctx, t.tx, accountID, snapshot)
}

func (t *settlementTx) ListAssetSnapshots(accountID string) ([]*domain.AssetSnapshot, error) {
	return listAssetSnapshots(t.ctx, t.tx, accountID)
}

func (t *settlementTx) GetGeneral(accountID string) (*domain.GeneralSnapshot, error) {
	return getGeneral(t.ctx, t.tx, accountID, true)
}

func (t *settlementTx) PutGeneral(accountID string, general *domain.GeneralSnapshot) error {
	return putGeneral(t.ctx, t.tx, accountID, general)
}

// MarkCompleted flips a pending record to completed. The status guard
// in the WHERE clause makes the transition monotonic: completed rows
// are never rewritten.
func (t *settlementTx) MarkCompleted(id uuid.UUID) error {
	query := `
		UPDATE scheduled_activities
		SET status = $1
		WHERE id = $2 AND status = $3
	`
	_, err := t.tx.ExecContext(t.ctx, query,
		string(domain.ScheduledStatusCompleted), id, string(domain.ScheduledStatusPending))
	if err != nil {
		return fmt.Errorf("failed to mark scheduled activity completed: %w", err)
	}
	return nil
}
