package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/meridianfs/ledgercore/internal/domain"
)

// defaultSweepConcurrency bounds how many due records one sweep settles
// in parallel. Records are independent; the store transaction carries
// the per-record atomicity.
const defaultSweepConcurrency = 4

// ErrInvalidSchedule wraps domain validation failures on Schedule so
// callers can tell a bad request apart from a store failure.
var ErrInvalidSchedule = errors.New("invalid scheduled activity")

// Notifier is told about each committed settlement so derived views can
// be refreshed. Implementations must tolerate being called after the
// commit: a notification failure never rolls a settlement back.
type Notifier interface {
	NotifySettled(ctx context.Context, accountID string, activityID uuid.UUID) error
}

// ScheduleInput represents the input for deferring an activity.
type ScheduleInput struct {
	AccountID     string
	Activity      *domain.Activity
	AssetDeltas   []domain.AssetDelta
	ScheduledTime time.Time
	Namespace     string
}

// SweepResult summarizes one settlement sweep. Individual record
// failures are counted, not raised.
type SweepResult struct {
	Processed int
	Failed    int
}

// Engine settles scheduled activities: a periodic sweep finds due
// pending records and, per record, appends the activity payload to the
// account's log, applies asset deltas and marks the record completed,
// all inside one atomic store write.
type Engine struct {
	ScheduledRepo domain.ScheduledActivityRepository
	Store         domain.SettlementStore
	Notifier      Notifier // optional

	// SweepConcurrency caps parallel record settlement. Zero means the
	// default.
	SweepConcurrency int

	// now is swappable for tests.
	now func() time.Time
}

// NewEngine creates a new settlement engine.
func NewEngine(scheduledRepo domain.ScheduledActivityRepository, store domain.SettlementStore, notifier Notifier) *Engine {
	return &Engine{
		ScheduledRepo: scheduledRepo,
		Store:         store,
		Notifier:      notifier,
		now:           time.Now,
	}
}

// Schedule creates a pending scheduled activity and returns its ID.
func (e *Engine) Schedule(ctx context.Context, input ScheduleInput) (uuid.UUID, error) {
	scheduled := &domain.ScheduledActivity{
		ID:            uuid.New(),
		AccountID:     input.AccountID,
		Activity:      input.Activity,
		AssetDeltas:   input.AssetDeltas,
		Status:        domain.ScheduledStatusPending,
		ScheduledTime: input.ScheduledTime,
		Namespace:     input.Namespace,
	}

	if err := scheduled.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}

	if err := e.ScheduledRepo.Create(ctx, scheduled); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create scheduled activity: %w", err)
	}
	return scheduled.ID, nil
}

// Cancel deletes a scheduled activity. Allowed in any state.
func (e *Engine) Cancel(ctx context.Context, id uuid.UUID) error {
	if err := e.ScheduledRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete scheduled activity %s: %w", id, err)
	}
	return nil
}

// RunSweep settles every pending record whose scheduled time is at or
// before now. Records are settled independently: one failure is logged
// and counted without affecting the others, and a failed record simply
// stays pending for the next sweep. The sweep honors ctx: records not
// reached before cancellation remain pending, which is the system's
// retry mechanism.
func (e *Engine) RunSweep(ctx context.Context, now time.Time) (SweepResult, error) {
	due, err := e.ScheduledRepo.ListDue(ctx, now)
	if err != nil {
		return SweepResult{}, fmt.Errorf("failed to list due scheduled activities: %w", err)
	}

	limit := e.SweepConcurrency
	if limit <= 0 {
		limit = defaultSweepConcurrency
	}

	var processed, failed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(limit)
	for _, record := range due {
		record := record
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := e.settle(ctx, record); err != nil {
				failed.Add(1)
				slog.ErrorContext(ctx, "settlement failed, record stays pending",
					"scheduled_id", record.ID,
					"account", record.AccountID,
					"error", err)
				return nil
			}
			processed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	result := SweepResult{
		Processed: int(processed.Load()),
		Failed:    int(failed.Load()),
	}
	slog.InfoContext(ctx, "settlement sweep finished",
		"due", len(due),
		"processed", result.Processed,
		"failed", result.Failed)
	return result, nil
}

// settle materializes one record as a single atomic store write.
func (e *Engine) settle(ctx context.Context, record *domain.ScheduledActivity) error {
	if err := record.Settleable(); err != nil {
		// Deliberate: such records are skipped, not failed out, and
		// remain pending.
		return err
	}

	activity := *record.Activity
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	// Server-assigned creation time and owning namespace.
	activity.Time = e.now().UTC()
	activity.Namespace = record.Namespace

	err := e.Store.InSettlementTx(ctx, func(tx domain.SettlementTx) error {
		if err := tx.AppendActivity(record.AccountID, &activity); err != nil {
			return fmt.Errorf("failed to append activity: %w", err)
		}

		if len(record.AssetDeltas) > 0 {
			if err := applyAssetDeltas(tx, record.AccountID, record.AssetDeltas); err != nil {
				return err
			}
		}

		if err := tx.MarkCompleted(record.ID); err != nil {
			return fmt.Errorf("failed to mark scheduled activity completed: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if e.Notifier != nil {
		if err := e.Notifier.NotifySettled(ctx, record.AccountID, activity.ID); err != nil {
			// The settlement is already committed; a lost notification
			// only delays the derived-view refresh.
			slog.WarnContext(ctx, "settled notification failed",
				"scheduled_id", record.ID,
				"account", record.AccountID,
				"error", err)
		}
	}
	return nil
}

// applyAssetDeltas applies the record's sparse overrides fund by fund
// inside the settlement transaction, then recomputes the account's
// general total across all funds.
func applyAssetDeltas(tx domain.SettlementTx, accountID string, deltas []domain.AssetDelta) error {
	byFund := make(map[string][]domain.AssetDelta)
	funds := make([]string, 0)
	for _, delta := range deltas {
		if _, seen := byFund[delta.Fund]; !seen {
			funds = append(funds, delta.Fund)
		}
		byFund[delta.Fund] = append(byFund[delta.Fund], delta)
	}

	for _, fund := range funds {
		snapshot, err := tx.GetAssetSnapshot(accountID, fund)
		if errors.Is(err, domain.ErrNotFound) {
			snapshot = domain.NewAssetSnapshot(fund)
		} else if err != nil {
			return fmt.Errorf("failed to load snapshot for fund %s: %w", fund, err)
		}
		if snapshot.Details == nil {
			snapshot.Details = make(map[string]domain.AssetDetail)
		}

		for _, delta := range byFund[fund] {
			prior := snapshot.Details[delta.AssetType]

			detail := domain.AssetDetail{
				Amount: delta.Amount,
				Title:  delta.Title,
				Index:  delta.Index,
			}
			if delta.FirstDeposit.Valid {
				t := delta.FirstDeposit.Time
				detail.FirstDeposit = &t
			} else {
				// Unparseable or absent date: retain the stored value,
				// which may itself be nil.
				detail.FirstDeposit = prior.FirstDeposit
			}
			snapshot.Details[delta.AssetType] = detail
		}

		snapshot.RecomputeTotal()
		if err := tx.PutAssetSnapshot(accountID, snapshot); err != nil {
			return fmt.Errorf("failed to store snapshot for fund %s: %w", fund, err)
		}
	}

	// General total spans every fund of the account, not only the ones
	// touched above. YTD figures stay untouched; the YTD aggregator
	// owns them.
	snapshots, err := tx.ListAssetSnapshots(accountID)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}
	total := decimalSum(snapshots)

	general, err := tx.GetGeneral(accountID)
	if errors.Is(err, domain.ErrNotFound) {
		general = &domain.GeneralSnapshot{}
	} else if err != nil {
		return fmt.Errorf("failed to load general snapshot: %w", err)
	}
	general.Total = total

	if err := tx.PutGeneral(accountID, general); err != nil {
		return fmt.Errorf("failed to store general snapshot: %w", err)
	}
	return nil
}

func decimalSum(snapshots []*domain.AssetSnapshot) decimal.Decimal {
	total := decimal.Zero
	for _, s := range snapshots {
		total = total.Add(s.Total)
	}
	return total
}
