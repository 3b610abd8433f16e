package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/meridianfs/ledgercore/internal/domain"
)

// balancePointRepository implements domain.BalancePointRepository
type balancePointRepository struct {
	db *DB
}

// NewBalancePointRepository creates a new balance-point repository
func NewBalancePointRepository(db *DB) domain.BalancePointRepository {
	return &balancePointRepository{db: db}
}

// Replace swaps an account's entire balance-point set inside one
// database transaction: delete and re-insert commit together, so
// readers either see the old set or the complete new one.
func (r *balancePointRepository) Replace(ctx context.Context, accountID string, points []*domain.BalancePoint) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	deleteQuery := `DELETE FROM balance_points WHERE owner_account_id = $1`
	if _, err := dbTx.ExecContext(ctx, deleteQuery, accountID); err != nil {
		return fmt.Errorf("failed to delete old balance points: %w", err)
	}

	insertQuery := `
		INSERT INTO balance_points (owner_account_id, account, amount, cashflow, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, point := range points {
		_, err := dbTx.ExecContext(ctx, insertQuery,
			accountID,
			point.Account,
			point.Amount.String(),
			point.Cashflow.String(),
			point.Time,
		)
		if err != nil {
			return fmt.Errorf("failed to insert balance point: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit balance point replacement: %w", err)
	}
	return nil
}

// List retrieves an account's balance points in insertion order
func (r *balancePointRepository) List(ctx context.Context, accountID string) ([]*domain.BalancePoint, error) {
	query := `
		SELECT account, amount, cashflow, occurred_at
		FROM balance_points
		WHERE owner_account_id = $1
		ORDER BY seq ASC
	`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query balance points: %w", err)
	}
	defer rows.Close()

	var points []*domain.BalancePoint
	for rows.Next() {
		var (
			point       domain.BalancePoint
			amountStr   string
			cashflowStr string
		)
		if err := rows.Scan(&point.Account, &amountStr, &cashflowStr, &point.Time); err != nil {
			return nil, fmt.Errorf("failed to scan balance point: %w", err)
		}
		if point.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, fmt.Errorf("failed to parse balance point amount: %w", err)
		}
		if point.Cashflow, err = decimal.NewFromString(cashflowStr); err != nil {
			return nil, fmt.Errorf("failed to parse balance point cashflow: %w", err)
		}
		points = append(points, &point)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balance points: %w", err)
	}
	return points, nil
}
