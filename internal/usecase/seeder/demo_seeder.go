package seeder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridianfs/ledgercore/internal/domain"
)

// DemoSeeder populates an empty store with a small connected-account
// graph and an activity history, so a fresh local instance has data to
// rebuild, aggregate and settle against.
type DemoSeeder struct {
	accountRepo  domain.AccountRepository
	activityRepo domain.ActivityRepository
}

// NewDemoSeeder creates a new DemoSeeder instance.
func NewDemoSeeder(accountRepo domain.AccountRepository, activityRepo domain.ActivityRepository) *DemoSeeder {
	return &DemoSeeder{
		accountRepo:  accountRepo,
		activityRepo: activityRepo,
	}
}

// demoAccounts form a small graph with a cycle, so the network
// year-to-date traversal has something non-trivial to walk:
//
//	alpha -> beta -> gamma -> alpha, beta -> ira-delta
var demoAccounts = []domain.Account{
	{ID: "demo-alpha", ConnectedAccounts: []string{"demo-beta"}},
	{ID: "demo-beta", ConnectedAccounts: []string{"demo-gamma", "demo-IRA-delta"}},
	{ID: "demo-gamma", ConnectedAccounts: []string{"demo-alpha"}},
	{ID: "demo-IRA-delta", ConnectedAccounts: nil},
}

// Seed writes the demo accounts and activities unless the store already
// holds the first demo account. Idempotent across restarts.
func (s *DemoSeeder) Seed(ctx context.Context) error {
	_, err := s.accountRepo.Get(ctx, demoAccounts[0].ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	for i := range demoAccounts {
		if err := s.accountRepo.Put(ctx, &demoAccounts[i]); err != nil {
			return err
		}
	}

	year := time.Now().UTC().Year()
	activities := map[string][]*domain.Activity{
		"demo-alpha": {
			{Type: domain.ActivityTypeDeposit, Amount: decimal.NewFromInt(1000), Recipient: "demo-alpha", Fund: "AGQ", Time: time.Date(year, 1, 10, 0, 0, 0, 0, time.UTC)},
			{Type: domain.ActivityTypeWithdrawal, Amount: decimal.NewFromInt(200), Recipient: "demo-alpha", Fund: "AGQ", Time: time.Date(year, 2, 1, 0, 0, 0, 0, time.UTC)},
			{Type: domain.ActivityTypeProfit, Amount: decimal.NewFromInt(55), Recipient: "demo-alpha", Fund: "AGQ", Time: time.Date(year, 3, 1, 0, 0, 0, 0, time.UTC)},
		},
		"demo-beta": {
			{Type: domain.ActivityTypeDeposit, Amount: decimal.NewFromInt(500), Recipient: "demo-beta", Fund: "AGQ", Time: time.Date(year, 1, 15, 0, 0, 0, 0, time.UTC)},
			{Type: domain.ActivityTypeIncome, Amount: decimal.NewFromInt(30), Recipient: "demo-beta", Fund: "AGQ", Time: time.Date(year, 4, 1, 0, 0, 0, 0, time.UTC)},
		},
		"demo-gamma": {
			{Type: domain.ActivityTypeProfit, Amount: decimal.NewFromInt(80), Recipient: "demo-gamma", Fund: "AGT", Time: time.Date(year, 2, 20, 0, 0, 0, 0, time.UTC)},
		},
		"demo-IRA-delta": {
			{Type: domain.ActivityTypeProfit, Amount: decimal.NewFromInt(120), Recipient: "demo-IRA-delta", Fund: "AGQ", Time: time.Date(year, 5, 5, 0, 0, 0, 0, time.UTC)},
		},
	}

	for accountID, list := range activities {
		for _, a := range list {
			a.ID = uuid.New()
			if err := a.Validate(); err != nil {
				return err
			}
			if err := s.activityRepo.Append(ctx, accountID, a); err != nil {
				return err
			}
		}
	}

	return nil
}
