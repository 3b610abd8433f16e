package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ActivityType represents the kind of monetary event recorded in an
// account's activity log.
type ActivityType string

const (
	ActivityTypeDeposit     ActivityType = "deposit"
	ActivityTypeWithdrawal  ActivityType = "withdrawal"
	ActivityTypeProfit      ActivityType = "profit"
	ActivityTypeIncome      ActivityType = "income"
	ActivityTypeManualEntry ActivityType = "manual-entry"
)

// KnownActivityType reports whether t is one of the recognized activity types.
func KnownActivityType(t ActivityType) bool {
	switch t {
	case ActivityTypeDeposit, ActivityTypeWithdrawal, ActivityTypeProfit,
		ActivityTypeIncome, ActivityTypeManualEntry:
		return true
	}
	return false
}

// Activity represents a single dated monetary event in an account's
// append-only activity log. Activities are immutable once created;
// administrative corrections happen outside this core.
type Activity struct {
	ID         uuid.UUID
	Time       time.Time
	Type       ActivityType
	Amount     decimal.Decimal // absolute value, sign derived from Type
	Recipient  string          // account identifier this activity is attributed to
	Fund       string
	IsDividend bool
	Namespace  string // tag of the owning collection namespace
}

// Validate ensures the activity adheres to domain rules.
func (a *Activity) Validate() error {
	if !KnownActivityType(a.Type) {
		return errors.New("activity type must be deposit, withdrawal, profit, income or manual-entry")
	}
	if a.Amount.IsNegative() {
		return errors.New("activity amount must be non-negative")
	}
	return nil
}

// Cashflow returns the signed balance effect of the activity:
// withdrawals are negative, everything else positive.
func (a *Activity) Cashflow() decimal.Decimal {
	if a.Type == ActivityTypeWithdrawal {
		return a.Amount.Neg()
	}
	return a.Amount
}

// IRADesignated reports whether a recipient identifier is flagged as an
// IRA account. The designation is pattern-based: the identifier carries
// an "IRA" marker.
func IRADesignated(recipient string) bool {
	return strings.Contains(recipient, "IRA")
}

// LedgerEligible reports whether the activity produces balance points
// when its account's ledger is rebuilt. Deposits and withdrawals always
// qualify; other types qualify only when addressed to an IRA-designated
// recipient.
func (a *Activity) LedgerEligible() bool {
	if a.Type == ActivityTypeDeposit || a.Type == ActivityTypeWithdrawal {
		return true
	}
	return IRADesignated(a.Recipient)
}

// ActivityFilter narrows an activity query. Zero values mean
// "no constraint" for that dimension.
type ActivityFilter struct {
	Fund  string
	Types []ActivityType
	From  time.Time // inclusive
	To    time.Time // inclusive
}

// Matches reports whether the activity satisfies every constraint set
// on the filter.
func (f ActivityFilter) Matches(a *Activity) bool {
	if f.Fund != "" && a.Fund != f.Fund {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if a.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.From.IsZero() && a.Time.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && a.Time.After(f.To) {
		return false
	}
	return true
}
