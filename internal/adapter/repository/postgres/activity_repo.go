package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/meridianfs/ledgercore/internal/domain"
)

// activityRepository implements domain.ActivityRepository
type activityRepository struct {
	db *DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *DB) domain.ActivityRepository {
	return &activityRepository{db: db}
}

const activityColumns = `id, occurred_at, type, amount, recipient, fund, is_dividend, namespace`

// List retrieves an account's full activity log in insertion order
func (r *activityRepository) List(ctx context.Context, accountID string) ([]*domain.Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE account_id = $1
		ORDER BY seq ASC
	`
	return queryActivities(ctx, r.db, query, accountID)
}

// Query retrieves the activities of an account matching the filter
func (r *activityRepository) Query(ctx context.Context, accountID string, filter domain.ActivityFilter) ([]*domain.Activity, error) {
	var (
		conditions = []string{"account_id = $1"}
		args       = []any{accountID}
	)
	if filter.Fund != "" {
		args = append(args, filter.Fund)
		conditions = append(conditions, fmt.Sprintf("fund = $%d", len(args)))
	}
	if len(filter.Types) > 0 {
		placeholders := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			args = append(args, string(t))
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		conditions = append(conditions, "type IN ("+strings.Join(placeholders, ", ")+")")
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conditions = append(conditions, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conditions = append(conditions, fmt.Sprintf("occurred_at <= $%d", len(args)))
	}

	query := `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE ` + strings.Join(conditions, " AND ")
	return queryActivities(ctx, r.db, query, args...)
}

// Append adds an activity to the end of an account's log
func (r *activityRepository) Append(ctx context.Context, accountID string, activity *domain.Activity) error {
	return insertActivity(ctx, r.db, accountID, activity)
}

func queryActivities(ctx context.Context, q querier, query string, args ...any) ([]*domain.Activity, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []*domain.Activity
	for rows.Next() {
		var (
			activity  domain.Activity
			amountStr string
		)
		err := rows.Scan(
			&activity.ID,
			&activity.Time,
			&activity.Type,
			&amountStr,
			&activity.Recipient,
			&activity.Fund,
			&activity.IsDividend,
			&activity.Namespace,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse activity amount: %w", err)
		}
		activity.Amount = amount
		activities = append(activities, &activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}
	return activities, nil
}

func insertActivity(ctx context.Context, q querier, accountID string, activity *domain.Activity) error {
	query := `
		INSERT INTO activities (id, account_id, occurred_at, type, amount, recipient, fund, is_dividend, namespace)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q.ExecContext(ctx, query,
		activity.ID,
		accountID,
		activity.Time,
		string(activity.Type),
		activity.Amount.String(),
		activity.Recipient,
		activity.Fund,
		activity.IsDividend,
		activity.Namespace,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}
