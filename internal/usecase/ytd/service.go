package ytd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridianfs/ledgercore/internal/domain"
)

// DefaultQualifyingFund is the fund whose profit and income activities
// count toward year-to-date totals.
const DefaultQualifyingFund = "AGQ"

// Service computes year-to-date totals, for single accounts and across
// the connected-account network.
type Service struct {
	ActivityRepo domain.ActivityRepository
	AccountRepo  domain.AccountRepository
	AssetRepo    domain.AssetRepository

	// QualifyingFund overrides DefaultQualifyingFund when non-empty.
	QualifyingFund string
}

// NewService creates a new YTD aggregation service.
func NewService(
	activityRepo domain.ActivityRepository,
	accountRepo domain.AccountRepository,
	assetRepo domain.AssetRepository,
) *Service {
	return &Service{
		ActivityRepo: activityRepo,
		AccountRepo:  accountRepo,
		AssetRepo:    assetRepo,
	}
}

func (s *Service) fund() string {
	if s.QualifyingFund != "" {
		return s.QualifyingFund
	}
	return DefaultQualifyingFund
}

// YearToDate sums the qualifying activity amounts of one account for a
// calendar year: profit and income in the qualifying fund, between
// January 1st and the end of December 31st (UTC), boundaries inclusive.
func (s *Service) YearToDate(ctx context.Context, accountID string, year int) (decimal.Decimal, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)

	activities, err := s.ActivityRepo.Query(ctx, accountID, domain.ActivityFilter{
		Fund:  s.fund(),
		Types: []domain.ActivityType{domain.ActivityTypeProfit, domain.ActivityTypeIncome},
		From:  from,
		To:    to,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query activities for account %s: %w", accountID, err)
	}

	total := decimal.Zero
	for _, activity := range activities {
		total = total.Add(activity.Amount)
	}
	return total, nil
}

// NetworkYearToDate sums YearToDate over every account reachable from
// accountID through the connected-account graph, the start included.
// The traversal is breadth-first with the visited check at dequeue
// time, so an account listed by several of its peers is enqueued more
// than once but contributes exactly once. Cycles terminate because the
// visited set only grows.
func (s *Service) NetworkYearToDate(ctx context.Context, accountID string, year int) (decimal.Decimal, error) {
	total := decimal.Zero
	visited := make(map[string]bool)
	queue := []string{accountID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		visited[current] = true

		ytd, err := s.YearToDate(ctx, current, year)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(ytd)

		account, err := s.AccountRepo.Get(ctx, current)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to load account %s: %w", current, err)
		}
		queue = append(queue, account.ConnectedAccounts...)
	}

	return total, nil
}

// RefreshSnapshot recomputes an account's YTD figures and writes them
// into its general asset snapshot: YTD from the account alone, TotalYTD
// from the connected-account network. The snapshot's Total is owned by
// settlement and left as stored.
func (s *Service) RefreshSnapshot(ctx context.Context, accountID string, year int) error {
	ytd, err := s.YearToDate(ctx, accountID, year)
	if err != nil {
		return err
	}

	totalYTD, err := s.NetworkYearToDate(ctx, accountID, year)
	if err != nil {
		return err
	}

	if err := s.AssetRepo.UpdateGeneralYTD(ctx, accountID, ytd, totalYTD); err != nil {
		return fmt.Errorf("failed to update general snapshot for account %s: %w", accountID, err)
	}

	slog.InfoContext(ctx, "refreshed ytd snapshot",
		"account", accountID,
		"year", year,
		"ytd", ytd,
		"total_ytd", totalYTD)
	return nil
}
