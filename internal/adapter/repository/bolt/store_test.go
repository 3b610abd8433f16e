package bolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianfs/ledgercore/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestActivityRepository_AppendAndList(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewActivityRepository(store)

	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first := &domain.Activity{ID: uuid.New(), Type: domain.ActivityTypeDeposit, Amount: decimal.NewFromInt(100), Recipient: "X", Time: t1}
	second := &domain.Activity{ID: uuid.New(), Type: domain.ActivityTypeWithdrawal, Amount: decimal.NewFromInt(40), Recipient: "X", Time: t1.AddDate(0, 1, 0)}

	require.NoError(t, repo.Append(ctx, "acct-1", first))
	require.NoError(t, repo.Append(ctx, "acct-1", second))

	got, err := repo.List(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Insertion order preserved.
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(100)))

	// Unknown account yields an empty log, not an error.
	empty, err := repo.List(ctx, "acct-unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestActivityRepository_QueryFilters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewActivityRepository(store)

	mk := func(typ domain.ActivityType, fund string, ts time.Time, amount int64) *domain.Activity {
		return &domain.Activity{ID: uuid.New(), Type: typ, Fund: fund, Time: ts, Amount: decimal.NewFromInt(amount)}
	}
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Append(ctx, "acct-1", mk(domain.ActivityTypeProfit, "AGQ", base, 50)))
	require.NoError(t, repo.Append(ctx, "acct-1", mk(domain.ActivityTypeIncome, "AGQ", base.AddDate(0, 1, 0), 20)))
	require.NoError(t, repo.Append(ctx, "acct-1", mk(domain.ActivityTypeProfit, "AGT", base, 999)))
	require.NoError(t, repo.Append(ctx, "acct-1", mk(domain.ActivityTypeDeposit, "AGQ", base, 1000)))
	require.NoError(t, repo.Append(ctx, "acct-1", mk(domain.ActivityTypeProfit, "AGQ", base.AddDate(2, 0, 0), 70)))

	got, err := repo.Query(ctx, "acct-1", domain.ActivityFilter{
		Fund:  "AGQ",
		Types: []domain.ActivityType{domain.ActivityTypeProfit, domain.ActivityTypeIncome},
		From:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:    time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestBalancePointRepository_ReplaceSwapsWholeSet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewBalancePointRepository(store)

	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first := []*domain.BalancePoint{
		{Account: domain.CumulativeAccount, Amount: decimal.NewFromInt(100), Cashflow: decimal.NewFromInt(100), Time: t1},
		{Account: "X", Amount: decimal.NewFromInt(100), Cashflow: decimal.NewFromInt(100), Time: t1},
	}
	require.NoError(t, repo.Replace(ctx, "acct-1", first))

	second := []*domain.BalancePoint{
		{Account: domain.CumulativeAccount, Amount: decimal.NewFromInt(60), Cashflow: decimal.NewFromInt(60), Time: t1},
	}
	require.NoError(t, repo.Replace(ctx, "acct-1", second))

	got, err := repo.List(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(60)))

	// Replacing with an empty rebuild clears the set.
	require.NoError(t, repo.Replace(ctx, "acct-1", nil))
	got, err = repo.List(ctx, "acct-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAssetRepository_SnapshotsAndGeneral(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewAssetRepository(store)

	_, err := repo.GetSnapshot(ctx, "acct-1", "AGQ")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	deposited := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)
	snap := domain.NewAssetSnapshot("AGQ")
	snap.Details["stock"] = domain.AssetDetail{Amount: decimal.NewFromInt(750), FirstDeposit: &deposited, Title: "Stock", Index: 0}
	snap.RecomputeTotal()
	require.NoError(t, repo.PutSnapshot(ctx, "acct-1", snap))

	got, err := repo.GetSnapshot(ctx, "acct-1", "AGQ")
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(750)))
	require.NotNil(t, got.Details["stock"].FirstDeposit)
	assert.True(t, got.Details["stock"].FirstDeposit.Equal(deposited))

	other := domain.NewAssetSnapshot("AGT")
	other.Details["bond"] = domain.AssetDetail{Amount: decimal.NewFromInt(250)}
	other.RecomputeTotal()
	require.NoError(t, repo.PutSnapshot(ctx, "acct-1", other))

	all, err := repo.ListSnapshots(ctx, "acct-1")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// General: YTD update initializes an absent snapshot and later
	// preserves the settlement-owned total.
	require.NoError(t, repo.UpdateGeneralYTD(ctx, "acct-1", decimal.NewFromInt(42), decimal.NewFromInt(100)))
	require.NoError(t, repo.PutGeneral(ctx, "acct-1", &domain.GeneralSnapshot{
		Total: decimal.NewFromInt(1000), YTD: decimal.NewFromInt(42), TotalYTD: decimal.NewFromInt(100),
	}))
	require.NoError(t, repo.UpdateGeneralYTD(ctx, "acct-1", decimal.NewFromInt(50), decimal.NewFromInt(120)))

	general, err := repo.GetGeneral(ctx, "acct-1")
	require.NoError(t, err)
	assert.True(t, general.Total.Equal(decimal.NewFromInt(1000)))
	assert.True(t, general.YTD.Equal(decimal.NewFromInt(50)))
	assert.True(t, general.TotalYTD.Equal(decimal.NewFromInt(120)))
}

func TestScheduledRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewScheduledRepository(store)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	due := &domain.ScheduledActivity{
		ID:            uuid.New(),
		AccountID:     "acct-1",
		Activity:      &domain.Activity{Type: domain.ActivityTypeDeposit, Amount: decimal.NewFromInt(100)},
		Status:        domain.ScheduledStatusPending,
		ScheduledTime: now.Add(-time.Hour),
	}
	future := &domain.ScheduledActivity{
		ID:            uuid.New(),
		AccountID:     "acct-1",
		Activity:      &domain.Activity{Type: domain.ActivityTypeDeposit, Amount: decimal.NewFromInt(200)},
		Status:        domain.ScheduledStatusPending,
		ScheduledTime: now.Add(time.Hour),
	}
	completed := &domain.ScheduledActivity{
		ID:            uuid.New(),
		AccountID:     "acct-1",
		Activity:      &domain.Activity{Type: domain.ActivityTypeDeposit, Amount: decimal.NewFromInt(300)},
		Status:        domain.ScheduledStatusCompleted,
		ScheduledTime: now.Add(-time.Hour),
	}
	require.NoError(t, repo.Create(ctx, due))
	require.NoError(t, repo.Create(ctx, future))
	require.NoError(t, repo.Create(ctx, completed))

	dueList, err := repo.ListDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, dueList, 1)
	assert.Equal(t, due.ID, dueList[0].ID)

	got, err := repo.GetByID(ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, "acct-1", got.AccountID)
	assert.True(t, got.Activity.Amount.Equal(decimal.NewFromInt(100)))

	require.NoError(t, repo.Delete(ctx, due.ID))
	_, err = repo.GetByID(ctx, due.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccountRepository_PutAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewAccountRepository(store)

	require.NoError(t, repo.Put(ctx, &domain.Account{ID: "A", ConnectedAccounts: []string{"B", "C"}}))

	got, err := repo.Get(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, got.ConnectedAccounts)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInSettlementTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	activityRepo := NewActivityRepository(store)
	assetRepo := NewAssetRepository(store)

	err := store.InSettlementTx(ctx, func(tx domain.SettlementTx) error {
		if err := tx.AppendActivity("acct-1", &domain.Activity{ID: uuid.New(), Type: domain.ActivityTypeDeposit, Amount: decimal.NewFromInt(100)}); err != nil {
			return err
		}
		snap := domain.NewAssetSnapshot("AGQ")
		snap.Details["stock"] = domain.AssetDetail{Amount: decimal.NewFromInt(100)}
		snap.RecomputeTotal()
		if err := tx.PutAssetSnapshot("acct-1", snap); err != nil {
			return err
		}
		return errors.New("abort settlement")
	})
	assert.Error(t, err)

	// Nothing from the aborted transaction is visible.
	activities, err := activityRepo.List(ctx, "acct-1")
	require.NoError(t, err)
	assert.Empty(t, activities)
	_, err = assetRepo.GetSnapshot(ctx, "acct-1", "AGQ")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInSettlementTx_CommitsAllWrites(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	activityRepo := NewActivityRepository(store)
	scheduledRepo := NewScheduledRepository(store)

	record := &domain.ScheduledActivity{
		ID:            uuid.New(),
		AccountID:     "acct-1",
		Activity:      &domain.Activity{Type: domain.ActivityTypeDeposit, Amount: decimal.NewFromInt(500)},
		Status:        domain.ScheduledStatusPending,
		ScheduledTime: time.Now(),
	}
	require.NoError(t, scheduledRepo.Create(ctx, record))

	err := store.InSettlementTx(ctx, func(tx domain.SettlementTx) error {
		if err := tx.AppendActivity("acct-1", &domain.Activity{ID: uuid.New(), Type: domain.ActivityTypeDeposit, Amount: decimal.NewFromInt(500)}); err != nil {
			return err
		}
		return tx.MarkCompleted(record.ID)
	})
	require.NoError(t, err)

	activities, err := activityRepo.List(ctx, "acct-1")
	require.NoError(t, err)
	assert.Len(t, activities, 1)

	got, err := scheduledRepo.GetByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ScheduledStatusCompleted, got.Status)

	// Completed records are no longer selected by the sweep query.
	due, err := scheduledRepo.ListDue(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due)
}
