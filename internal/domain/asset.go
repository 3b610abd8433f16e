package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AssetDetail represents the current balance of one asset type slot
// inside a fund's snapshot.
type AssetDetail struct {
	Amount       decimal.Decimal
	FirstDeposit *time.Time // nil when no deposit has been recorded
	Title        string     // display title
	Index        int        // ordering hint for presentation
}

// AssetSnapshot represents an account's current balances within one
// fund, broken out by asset type.
// Invariant: Total equals the sum of all detail amounts.
type AssetSnapshot struct {
	Fund    string
	Total   decimal.Decimal
	Details map[string]AssetDetail // keyed by asset type
}

// NewAssetSnapshot returns an empty snapshot for the given fund.
func NewAssetSnapshot(fund string) *AssetSnapshot {
	return &AssetSnapshot{
		Fund:    fund,
		Total:   decimal.Zero,
		Details: make(map[string]AssetDetail),
	}
}

// RecomputeTotal recalculates Total from the detail amounts.
func (s *AssetSnapshot) RecomputeTotal() {
	total := decimal.Zero
	for _, d := range s.Details {
		total = total.Add(d.Amount)
	}
	s.Total = total
}

// CheckTotal verifies the snapshot invariant without repairing it.
// A fund total that cannot be reconciled is surfaced as an error,
// never silently patched.
func (s *AssetSnapshot) CheckTotal() error {
	sum := decimal.Zero
	for _, d := range s.Details {
		sum = sum.Add(d.Amount)
	}
	if !sum.Equal(s.Total) {
		return fmt.Errorf("fund %s total %s does not match detail sum %s: %w",
			s.Fund, s.Total, sum, ErrInconsistentSnapshot)
	}
	return nil
}

// GeneralSnapshot represents the rolled-up view of an account's assets
// across all funds. Total is maintained by settlement; YTD and TotalYTD
// are refreshed by the YTD aggregator.
type GeneralSnapshot struct {
	Total    decimal.Decimal // sum of all fund totals
	YTD      decimal.Decimal // the account's own year-to-date
	TotalYTD decimal.Decimal // year-to-date over the connected-account network
}
