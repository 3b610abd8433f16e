package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridianfs/ledgercore/internal/domain"
)

// scheduledRepository implements domain.ScheduledActivityRepository
type scheduledRepository struct {
	db *DB
}

// NewScheduledRepository creates a new scheduled-activity repository
func NewScheduledRepository(db *DB) domain.ScheduledActivityRepository {
	return &scheduledRepository{db: db}
}

// Create stores a new scheduled activity
func (r *scheduledRepository) Create(ctx context.Context, scheduled *domain.ScheduledActivity) error {
	activityJSON, err := json.Marshal(scheduled.Activity)
	if err != nil {
		return fmt.Errorf("failed to encode activity payload: %w", err)
	}
	deltasJSON, err := json.Marshal(scheduled.AssetDeltas)
	if err != nil {
		return fmt.Errorf("failed to encode asset deltas: %w", err)
	}

	query := `
		INSERT INTO scheduled_activities (id, account_id, activity, asset_deltas, status, scheduled_time, namespace)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query,
		scheduled.ID,
		scheduled.AccountID,
		activityJSON,
		deltasJSON,
		string(scheduled.Status),
		scheduled.ScheduledTime,
		scheduled.Namespace,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scheduled activity: %w", err)
	}
	return nil
}

const scheduledColumns = `id, account_id, activity, asset_deltas, status, scheduled_time, namespace`

// GetByID retrieves a scheduled activity
func (r *scheduledRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ScheduledActivity, error) {
	query := `
		SELECT ` + scheduledColumns + `
		FROM scheduled_activities
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)
	scheduled, err := scanScheduled(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return scheduled, nil
}

// ListDue retrieves pending records whose scheduled time is at or
// before now
func (r *scheduledRepository) ListDue(ctx context.Context, now time.Time) ([]*domain.ScheduledActivity, error) {
	query := `
		SELECT ` + scheduledColumns + `
		FROM scheduled_activities
		WHERE status = $1 AND scheduled_time <= $2
		ORDER BY scheduled_time ASC
	`
	rows, err := r.db.QueryContext(ctx, query, string(domain.ScheduledStatusPending), now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due scheduled activities: %w", err)
	}
	defer rows.Close()

	var due []*domain.ScheduledActivity
	for rows.Next() {
		scheduled, err := scanScheduled(rows.Scan)
		if err != nil {
			return nil, err
		}
		due = append(due, scheduled)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scheduled activities: %w", err)
	}
	return due, nil
}

// Delete removes a scheduled activity regardless of its state
func (r *scheduledRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM scheduled_activities WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete scheduled activity: %w", err)
	}
	return nil
}

func scanScheduled(scan func(dest ...any) error) (*domain.ScheduledActivity, error) {
	var (
		scheduled    domain.ScheduledActivity
		activityJSON []byte
		deltasJSON   []byte
		status       string
	)
	err := scan(
		&scheduled.ID,
		&scheduled.AccountID,
		&activityJSON,
		&deltasJSON,
		&status,
		&scheduled.ScheduledTime,
		&scheduled.Namespace,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan scheduled activity: %w", err)
	}
	scheduled.Status = domain.ScheduledStatus(status)

	if len(activityJSON) > 0 && string(activityJSON) != "null" {
		scheduled.Activity = &domain.Activity{}
		if err := json.Unmarshal(activityJSON, scheduled.Activity); err != nil {
			return nil, fmt.Errorf("failed to decode activity payload: %w", err)
		}
	}
	if len(deltasJSON) > 0 && string(deltasJSON) != "null" {
		if err := json.Unmarshal(deltasJSON, &scheduled.AssetDeltas); err != nil {
			return nil, fmt.Errorf("failed to decode asset deltas: %w", err)
		}
	}
	return &scheduled, nil
}
