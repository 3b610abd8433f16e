package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ActivityRepository defines the interface for activity-log persistence
// operations. The log is append-only from this core's point of view;
// deletions and corrections belong to the surrounding application.
type ActivityRepository interface {
	// List retrieves an account's full activity log in insertion order.
	List(ctx context.Context, accountID string) ([]*Activity, error)

	// Query retrieves the activities of an account matching the filter.
	// No ordering is guaranteed.
	Query(ctx context.Context, accountID string, filter ActivityFilter) ([]*Activity, error)

	// Append adds a new activity to the end of an account's log.
	Append(ctx context.Context, accountID string, activity *Activity) error
}

// BalancePointRepository defines the interface for the derived
// balance-point series.
type BalancePointRepository interface {
	// Replace atomically swaps an account's entire balance-point set
	// for the given sequence. Readers never observe an empty or
	// partially written set.
	Replace(ctx context.Context, accountID string, points []*BalancePoint) error

	// List retrieves an account's current balance-point set in the
	// order it was written.
	List(ctx context.Context, accountID string) ([]*BalancePoint, error)
}

// AssetRepository defines the interface for per-fund asset snapshots
// and the rolled-up general snapshot.
type AssetRepository interface {
	// GetSnapshot retrieves one fund's snapshot for an account.
	// Returns ErrNotFound when the account holds nothing in that fund.
	GetSnapshot(ctx context.Context, accountID, fund string) (*AssetSnapshot, error)

	// ListSnapshots retrieves all fund snapshots of an account.
	ListSnapshots(ctx context.Context, accountID string) ([]*AssetSnapshot, error)

	// PutSnapshot stores one fund's snapshot, replacing any prior one.
	PutSnapshot(ctx context.Context, accountID string, snapshot *AssetSnapshot) error

	// GetGeneral retrieves the rolled-up general snapshot.
	// Returns ErrNotFound when none has been written yet.
	GetGeneral(ctx context.Context, accountID string) (*GeneralSnapshot, error)

	// PutGeneral stores the general snapshot, replacing any prior one.
	PutGeneral(ctx context.Context, accountID string, snapshot *GeneralSnapshot) error

	// UpdateGeneralYTD overwrites only the YTD fields of the general
	// snapshot, leaving Total as the store holds it. An absent general
	// snapshot is initialized with a zero Total.
	UpdateGeneralYTD(ctx context.Context, accountID string, ytd, totalYTD decimal.Decimal) error
}

// ScheduledActivityRepository defines the interface for deferred
// activity persistence.
type ScheduledActivityRepository interface {
	// Create stores a new scheduled activity.
	Create(ctx context.Context, scheduled *ScheduledActivity) error

	// GetByID retrieves a scheduled activity by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*ScheduledActivity, error)

	// ListDue retrieves every record with status pending and a
	// scheduled time at or before now.
	ListDue(ctx context.Context, now time.Time) ([]*ScheduledActivity, error)

	// Delete removes a scheduled activity regardless of its state.
	Delete(ctx context.Context, id uuid.UUID) error
}

// AccountRepository defines the interface for the connected-account
// graph. The graph is owned by the surrounding application; this core
// only reads it for network YTD traversal.
type AccountRepository interface {
	// Get retrieves an account and its connection list.
	// Returns ErrNotFound for unknown identifiers.
	Get(ctx context.Context, id string) (*Account, error)

	// Put stores an account's connection list.
	Put(ctx context.Context, account *Account) error
}

// SettlementTx exposes the operations available inside one atomic
// settlement write. Reads performed through it are part of the same
// transaction as the writes, giving read-modify-write semantics for
// concurrently mutated snapshots.
type SettlementTx interface {
	AppendActivity(accountID string, activity *Activity) error
	GetAssetSnapshot(accountID, fund string) (*AssetSnapshot, error)
	PutAssetSnapshot(accountID string, snapshot *AssetSnapshot) error
	ListAssetSnapshots(accountID string) ([]*AssetSnapshot, error)
	GetGeneral(accountID string) (*GeneralSnapshot, error)
	PutGeneral(accountID string, snapshot *GeneralSnapshot) error
	MarkCompleted(id uuid.UUID) error
}

// SettlementStore defines the store's atomic multi-document write
// primitive. fn runs inside one transaction: if it returns an error or
// the commit fails, none of its effects are visible.
type SettlementStore interface {
	InSettlementTx(ctx context.Context, fn func(tx SettlementTx) error) error
}
