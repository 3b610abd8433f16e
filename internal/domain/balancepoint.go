package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CumulativeAccount is the sentinel account identifier under which the
// whole-account running balance series is stored, alongside the
// per-recipient series.
const CumulativeAccount = "cumulative"

// BalancePoint represents one sample of a running-balance time series.
// Balance points are derived data: the full set for an account is
// replaced wholesale on every ledger rebuild and is never patched
// incrementally.
type BalancePoint struct {
	Account  string          // recipient identifier or CumulativeAccount
	Amount   decimal.Decimal // running balance after this event
	Cashflow decimal.Decimal // signed delta contributed by this event
	Time     time.Time
}
