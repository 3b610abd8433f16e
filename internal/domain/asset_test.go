package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAssetSnapshot_RecomputeTotal(t *testing.T) {
	snap := NewAssetSnapshot("AGQ")
	snap.Details["stock"] = AssetDetail{Amount: decimal.NewFromInt(700), Title: "Stock", Index: 0}
	snap.Details["bond"] = AssetDetail{Amount: decimal.NewFromInt(300), Title: "Bond", Index: 1}

	snap.RecomputeTotal()

	assert.True(t, snap.Total.Equal(decimal.NewFromInt(1000)))
	assert.NoError(t, snap.CheckTotal())
}

func TestAssetSnapshot_CheckTotal_Inconsistent(t *testing.T) {
	snap := NewAssetSnapshot("AGQ")
	snap.Details["stock"] = AssetDetail{Amount: decimal.NewFromInt(700)}
	snap.Total = decimal.NewFromInt(999)

	err := snap.CheckTotal()
	assert.ErrorIs(t, err, ErrInconsistentSnapshot)

	// The check must never repair the stored total.
	assert.True(t, snap.Total.Equal(decimal.NewFromInt(999)))
}

func TestScheduledActivity_Settleable(t *testing.T) {
	ok := &ScheduledActivity{
		AccountID: "acct-1",
		Activity:  &Activity{Type: ActivityTypeDeposit, Amount: decimal.NewFromInt(100)},
		Status:    ScheduledStatusPending,
	}
	assert.NoError(t, ok.Settleable())

	noAccount := &ScheduledActivity{
		Activity: &Activity{Type: ActivityTypeDeposit, Amount: decimal.NewFromInt(100)},
	}
	assert.ErrorIs(t, noAccount.Settleable(), ErrMissingAccount)

	noPayload := &ScheduledActivity{AccountID: "acct-1"}
	assert.ErrorIs(t, noPayload.Settleable(), ErrMissingActivity)
}
