package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/meridianfs/ledgercore/internal/domain"
)

// defaultRebuildConcurrency bounds the account fan-out of RebuildAll.
const defaultRebuildConcurrency = 4

// Service rebuilds the derived balance-point series of accounts from
// their activity logs. Each rebuild is a full recomputation; nothing is
// seeded from prior state.
type Service struct {
	ActivityRepo     domain.ActivityRepository
	BalancePointRepo domain.BalancePointRepository

	// RebuildConcurrency caps how many accounts RebuildAll processes in
	// parallel. Zero means the default.
	RebuildConcurrency int
}

// NewService creates a new ledger aggregation service.
func NewService(activityRepo domain.ActivityRepository, balancePointRepo domain.BalancePointRepository) *Service {
	return &Service{
		ActivityRepo:     activityRepo,
		BalancePointRepo: balancePointRepo,
	}
}

// Rebuild recomputes one account's balance-point series from its full
// activity log and atomically replaces the stored set.
// Logic:
//  1. Read the whole log in insertion order
//  2. Stable-sort by activity time (insertion order breaks ties)
//  3. Walk the sorted log accumulating a cumulative running balance and
//     one running balance per recipient; only eligible activities
//     (deposit/withdrawal, or any type addressed to an IRA recipient)
//     contribute
//  4. Swap the account's stored set for the new sequence
//
// A read failure aborts before anything is written, so the existing
// series stays visible.
func (s *Service) Rebuild(ctx context.Context, accountID string) error {
	activities, err := s.ActivityRepo.List(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to list activities for account %s: %w", accountID, err)
	}

	points := BuildPoints(activities)

	if err := s.BalancePointRepo.Replace(ctx, accountID, points); err != nil {
		return fmt.Errorf("failed to replace balance points for account %s: %w", accountID, err)
	}

	slog.InfoContext(ctx, "rebuilt ledger",
		"account", accountID,
		"activities", len(activities),
		"points", len(points))
	return nil
}

// RebuildAll rebuilds several accounts concurrently. Accounts are
// independent units of work; within one account the activity walk stays
// strictly time-ordered. The first failure is returned after the
// remaining accounts finish.
func (s *Service) RebuildAll(ctx context.Context, accountIDs []string) error {
	limit := s.RebuildConcurrency
	if limit <= 0 {
		limit = defaultRebuildConcurrency
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, accountID := range accountIDs {
		accountID := accountID
		g.Go(func() error {
			if err := s.Rebuild(ctx, accountID); err != nil {
				slog.ErrorContext(ctx, "ledger rebuild failed", "account", accountID, "error", err)
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

// Points retrieves an account's current balance-point series.
func (s *Service) Points(ctx context.Context, accountID string) ([]*domain.BalancePoint, error) {
	points, err := s.BalancePointRepo.List(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list balance points for account %s: %w", accountID, err)
	}
	return points, nil
}

// BuildPoints derives the balance-point sequence for one account's
// activity log. The input is expected in insertion order; the stable
// sort keeps that order for activities sharing a timestamp.
func BuildPoints(activities []*domain.Activity) []*domain.BalancePoint {
	sorted := make([]*domain.Activity, len(activities))
	copy(sorted, activities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	cumulative := decimal.Zero
	perRecipient := make(map[string]decimal.Decimal)

	points := make([]*domain.BalancePoint, 0, 2*len(sorted))
	for _, activity := range sorted {
		if !activity.LedgerEligible() {
			continue
		}

		cashflow := activity.Cashflow()
		cumulative = cumulative.Add(cashflow)

		recipientBalance := perRecipient[activity.Recipient].Add(cashflow)
		perRecipient[activity.Recipient] = recipientBalance

		points = append(points,
			&domain.BalancePoint{
				Account:  domain.CumulativeAccount,
				Amount:   cumulative,
				Cashflow: cashflow,
				Time:     activity.Time,
			},
			&domain.BalancePoint{
				Account:  activity.Recipient,
				Amount:   recipientBalance,
				Cashflow: cashflow,
				Time:     activity.Time,
			})
	}

	return points
}
