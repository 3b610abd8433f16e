package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/meridianfs/ledgercore/internal/domain"
)

// assetRepository implements domain.AssetRepository
type assetRepository struct {
	db *DB
}

// NewAssetRepository creates a new asset-snapshot repository
func NewAssetRepository(db *DB) domain.AssetRepository {
	return &assetRepository{db: db}
}

// GetSnapshot retrieves one fund's snapshot for an account
func (r *assetRepository) GetSnapshot(ctx context.Context, accountID, fund string) (*domain.AssetSnapshot, error) {
	return getAssetSnapshot(ctx, r.db, accountID, fund, false)
}

// ListSnapshots retrieves all fund snapshots of an account
func (r *assetRepository) ListSnapshots(ctx context.Context, accountID string) ([]*domain.AssetSnapshot, error) {
	return listAssetSnapshots(ctx, r.db, accountID)
}

// PutSnapshot stores one fund's snapshot, replacing any prior one
func (r *assetRepository) PutSnapshot(ctx context.Context, accountID string, snapshot *domain.AssetSnapshot) error {
	return putAssetSnapshot(ctx, r.db, accountID, snapshot)
}

// GetGeneral retrieves the rolled-up general snapshot
func (r *assetRepository) GetGeneral(ctx context.Context, accountID string) (*domain.GeneralSnapshot, error) {
	return getGeneral(ctx, r.db, accountID, false)
}

// PutGeneral stores the general snapshot, replacing any prior one
func (r *assetRepository) PutGeneral(ctx context.Context, accountID string, snapshot *domain.GeneralSnapshot) error {
	return putGeneral(ctx, r.db, accountID, snapshot)
}

// UpdateGeneralYTD overwrites only the YTD fields, initializing an
// absent row with a zero total
func (r *assetRepository) UpdateGeneralYTD(ctx context.Context, accountID string, ytd, totalYTD decimal.Decimal) error {
	query := `
		INSERT INTO general_snapshots (account_id, total, ytd, total_ytd)
		VALUES ($1, 0, $2, $3)
		ON CONFLICT (account_id)
		DO UPDATE SET ytd = EXCLUDED.ytd, total_ytd = EXCLUDED.total_ytd
	`
	if _, err := r.db.ExecContext(ctx, query, accountID, ytd.String(), totalYTD.String()); err != nil {
		return fmt.Errorf("failed to update general snapshot: %w", err)
	}
	return nil
}

func getAssetSnapshot(ctx context.Context, q querier, accountID, fund string, forUpdate bool) (*domain.AssetSnapshot, error) {
	query := `
		SELECT fund, total, details
		FROM asset_snapshots
		WHERE account_id = $1 AND fund = $2
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var (
		snapshot    domain.AssetSnapshot
		totalStr    string
		detailsJSON []byte
	)
	err := q.QueryRowContext(ctx, query, accountID, fund).Scan(&snapshot.Fund, &totalStr, &detailsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset snapshot: %w", err)
	}
	if err := hydrateSnapshot(&snapshot, totalStr, detailsJSON); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func listAssetSnapshots(ctx context.Context, q querier, accountID string) ([]*domain.AssetSnapshot, error) {
	query := `
		SELECT fund, total, details
		FROM asset_snapshots
		WHERE account_id = $1
		ORDER BY fund ASC
	`
	rows, err := q.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list asset snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.AssetSnapshot
	for rows.Next() {
		var (
			snapshot    domain.AssetSnapshot
			totalStr    string
			detailsJSON []byte
		)
		if err := rows.Scan(&snapshot.Fund, &totalStr, &detailsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan asset snapshot: %w", err)
		}
		if err := hydrateSnapshot(&snapshot, totalStr, detailsJSON); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, &snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate asset snapshots: %w", err)
	}
	return snapshots, nil
}

func hydrateSnapshot(snapshot *domain.AssetSnapshot, totalStr string, detailsJSON []byte) error {
	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return fmt.Errorf("failed to parse snapshot total: %w", err)
	}
	snapshot.Total = total
	snapshot.Details = make(map[string]domain.AssetDetail)
	if len(detailsJSON) > 0 {
		if err := json.Unmarshal(detailsJSON, &snapshot.Details); err != nil {
			return fmt.Errorf("failed to decode snapshot details: %w", err)
		}
	}
	return nil
}

func putAssetSnapshot(ctx context.Context, q querier, accountID string, snapshot *domain.AssetSnapshot) error {
	detailsJSON, err := json.Marshal(snapshot.Details)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot details: %w", err)
	}
	query := `
		INSERT INTO asset_snapshots (account_id, fund, total, details)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id, fund)
		DO UPDATE SET total = EXCLUDED.total, details = EXCLUDED.details
	`
	if _, err := q.ExecContext(ctx, query, accountID, snapshot.Fund, snapshot.Total.String(), detailsJSON); err != nil {
		return fmt.Errorf("failed to store asset snapshot: %w", err)
	}
	return nil
}

func getGeneral(ctx context.Context, q querier, accountID string, forUpdate bool) (*domain.GeneralSnapshot, error) {
	query := `
		SELECT total, ytd, total_ytd
		FROM general_snapshots
		WHERE account_id = $1
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var totalStr, ytdStr, totalYTDStr string
	err := q.QueryRowContext(ctx, query, accountID).Scan(&totalStr, &ytdStr, &totalYTDStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get general snapshot: %w", err)
	}

	var general domain.GeneralSnapshot
	if general.Total, err = decimal.NewFromString(totalStr); err != nil {
		return nil, fmt.Errorf("failed to parse general total: %w", err)
	}
	if general.YTD, err = decimal.NewFromString(ytdStr); err != nil {
		return nil, fmt.Errorf("failed to parse general ytd: %w", err)
	}
	if general.TotalYTD, err = decimal.NewFromString(totalYTDStr); err != nil {
		return nil, fmt.Errorf("failed to parse general total ytd: %w", err)
	}
	return &general, nil
}

func putGeneral(ctx context.Context, q querier, accountID string, general *domain.GeneralSnapshot) error {
	query := `
		INSERT INTO general_snapshots (account_id, total, ytd, total_ytd)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id)
		DO UPDATE SET total = EXCLUDED.total, ytd = EXCLUDED.ytd, total_ytd = EXCLUDED.total_ytd
	`
	_, err := q.ExecContext(ctx, query, accountID,
		general.Total.String(), general.YTD.String(), general.TotalYTD.String())
	if err != nil {
		return fmt.Errorf("failed to store general snapshot: %w", err)
	}
	return nil
}
