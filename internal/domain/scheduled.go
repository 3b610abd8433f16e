package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScheduledStatus represents the lifecycle state of a scheduled
// activity. The only transition is pending -> completed; there is no
// failed state. A settlement attempt that does not commit leaves the
// record pending for the next sweep.
type ScheduledStatus string

const (
	ScheduledStatusPending   ScheduledStatus = "pending"
	ScheduledStatusCompleted ScheduledStatus = "completed"
)

// AssetDelta is a sparse override for one (fund, asset type) slot of an
// account's asset snapshot, carried by a scheduled activity and applied
// at settlement time.
type AssetDelta struct {
	Fund         string
	AssetType    string
	Amount       decimal.Decimal
	FirstDeposit Instant // invalid = retain whatever the store already holds
	Title        string
	Index        int
}

// ScheduledActivity represents a dated monetary activity whose effect
// is deferred: at its scheduled time a sweep materializes the payload
// into the account's activity log and applies the asset deltas, as one
// atomic write.
type ScheduledActivity struct {
	ID            uuid.UUID
	AccountID     string
	Activity      *Activity
	AssetDeltas   []AssetDelta
	Status        ScheduledStatus
	ScheduledTime time.Time
	Namespace     string
}

// Validate ensures the scheduled activity adheres to domain rules.
func (s *ScheduledActivity) Validate() error {
	if s.AccountID == "" {
		return ErrMissingAccount
	}
	if s.Activity == nil {
		return ErrMissingActivity
	}
	if err := s.Activity.Validate(); err != nil {
		return err
	}
	if s.Status != ScheduledStatusPending && s.Status != ScheduledStatusCompleted {
		return errors.New("scheduled activity status must be pending or completed")
	}
	return nil
}

// Settleable reports whether the record carries everything a sweep
// needs to materialize it. Records failing this check are skipped and
// stay pending.
func (s *ScheduledActivity) Settleable() error {
	if s.AccountID == "" {
		return ErrMissingAccount
	}
	if s.Activity == nil {
		return ErrMissingActivity
	}
	return nil
}
