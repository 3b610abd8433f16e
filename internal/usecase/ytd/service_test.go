package ytd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/meridianfs/ledgercore/internal/domain"
)

// MockActivityRepository is a mock implementation of ActivityRepository for testing
type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) List(ctx context.Context, accountID string) ([]*domain.Activity, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Activity), args.Error(1)
}

func (m *MockActivityRepository) Query(ctx context.Context, accountID string, filter domain.ActivityFilter) ([]*domain.Activity, error) {
	args := m.Called(ctx, accountID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Activity), args.Error(1)
}

func (m *MockActivityRepository) Append(ctx context.Context, accountID string, activity *domain.Activity) error {
	args := m.Called(ctx, accountID, activity)
	return args.Error(0)
}

// MockAccountRepository is a mock implementation of AccountRepository for testing
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Get(ctx context.Context, id string) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) Put(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// MockAssetRepository is a mock implementation of AssetRepository for testing
type MockAssetRepository struct {
	mock.Mock
}

func (m *MockAssetRepository) GetSnapshot(ctx context.Context, accountID, fund string) (*domain.AssetSnapshot, error) {
	args := m.Called(ctx, accountID, fund)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssetSnapshot), args.Error(1)
}

func (m *MockAssetRepository) ListSnapshots(ctx context.Context, accountID string) ([]*domain.AssetSnapshot, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AssetSnapshot), args.Error(1)
}

func (m *MockAssetRepository) PutSnapshot(ctx context.Context, accountID string, snapshot *domain.AssetSnapshot) error {
	args := m.Called(ctx, accountID, snapshot)
	return args.Error(0)
}

func (m *MockAssetRepository) GetGeneral(ctx context.Context, accountID string) (*domain.GeneralSnapshot, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GeneralSnapshot), args.Error(1)
}

func (m *MockAssetRepository) PutGeneral(ctx context.Context, accountID string, snapshot *domain.GeneralSnapshot) error {
	args := m.Called(ctx, accountID, snapshot)
	return args.Error(0)
}

func (m *MockAssetRepository) UpdateGeneralYTD(ctx context.Context, accountID string, ytd, totalYTD decimal.Decimal) error {
	args := m.Called(ctx, accountID, ytd, totalYTD)
	return args.Error(0)
}

func profitActivity(amount int64) *domain.Activity {
	return &domain.Activity{
		ID:     uuid.New(),
		Type:   domain.ActivityTypeProfit,
		Amount: decimal.NewFromInt(amount),
		Fund:   DefaultQualifyingFund,
		Time:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestYearToDate_SumsQualifyingActivities(t *testing.T) {
	ctx := context.Background()
	mockActivityRepo := new(MockActivityRepository)
	service := NewService(mockActivityRepo, new(MockAccountRepository), new(MockAssetRepository))

	mockActivityRepo.On("Query", ctx, "acct-x", mock.MatchedBy(func(f domain.ActivityFilter) bool {
		return f.Fund == "AGQ" &&
			len(f.Types) == 2 &&
			f.From.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) &&
			f.To.Year() == 2024 && f.To.Month() == time.December && f.To.Day() == 31
	})).Return([]*domain.Activity{profitActivity(50), profitActivity(25)}, nil)

	total, err := service.YearToDate(ctx, "acct-x", 2024)

	assert.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(75)))
	mockActivityRepo.AssertExpectations(t)
}

func TestYearToDate_EmptyYearIsZero(t *testing.T) {
	ctx := context.Background()
	mockActivityRepo := new(MockActivityRepository)
	service := NewService(mockActivityRepo, new(MockAccountRepository), new(MockAssetRepository))

	mockActivityRepo.On("Query", ctx, "acct-x", mock.Anything).Return([]*domain.Activity{}, nil)

	total, err := service.YearToDate(ctx, "acct-x", 2019)

	assert.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestNetworkYearToDate_TraversesGraphOnce(t *testing.T) {
	ctx := context.Background()
	mockActivityRepo := new(MockActivityRepository)
	mockAccountRepo := new(MockAccountRepository)
	service := NewService(mockActivityRepo, mockAccountRepo, new(MockAssetRepository))

	// A -> B, A -> C, B -> C: C is reachable twice but counted once.
	mockAccountRepo.On("Get", ctx, "A").Return(&domain.Account{ID: "A", ConnectedAccounts: []string{"B", "C"}}, nil)
	mockAccountRepo.On("Get", ctx, "B").Return(&domain.Account{ID: "B", ConnectedAccounts: []string{"C"}}, nil)
	mockAccountRepo.On("Get", ctx, "C").Return(&domain.Account{ID: "C"}, nil)

	mockActivityRepo.On("Query", ctx, "A", mock.Anything).Return([]*domain.Activity{profitActivity(100)}, nil).Once()
	mockActivityRepo.On("Query", ctx, "B", mock.Anything).Return([]*domain.Activity{profitActivity(10)}, nil).Once()
	mockActivityRepo.On("Query", ctx, "C", mock.Anything).Return([]*domain.Activity{profitActivity(1)}, nil).Once()

	total, err := service.NetworkYearToDate(ctx, "A", 2024)

	assert.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(111)))
	mockActivityRepo.AssertExpectations(t)
}

func TestNetworkYearToDate_CycleDoesNotDoubleCount(t *testing.T) {
	ctx := context.Background()
	mockActivityRepo := new(MockActivityRepository)
	mockAccountRepo := new(MockAccountRepository)
	service := NewService(mockActivityRepo, mockAccountRepo, new(MockAssetRepository))

	// A -> B -> A.
	mockAccountRepo.On("Get", ctx, "A").Return(&domain.Account{ID: "A", ConnectedAccounts: []string{"B"}}, nil)
	mockAccountRepo.On("Get", ctx, "B").Return(&domain.Account{ID: "B", ConnectedAccounts: []string{"A"}}, nil)

	mockActivityRepo.On("Query", ctx, "A", mock.Anything).Return([]*domain.Activity{profitActivity(100)}, nil).Once()
	mockActivityRepo.On("Query", ctx, "B", mock.Anything).Return([]*domain.Activity{profitActivity(10)}, nil).Once()

	total, err := service.NetworkYearToDate(ctx, "A", 2024)

	assert.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(110)))
	mockActivityRepo.AssertExpectations(t)
}

func TestNetworkYearToDate_AdjacencyOrderDoesNotMatter(t *testing.T) {
	ctx := context.Background()

	run := func(connections []string) decimal.Decimal {
		mockActivityRepo := new(MockActivityRepository)
		mockAccountRepo := new(MockAccountRepository)
		service := NewService(mockActivityRepo, mockAccountRepo, new(MockAssetRepository))

		mockAccountRepo.On("Get", ctx, "A").Return(&domain.Account{ID: "A", ConnectedAccounts: connections}, nil)
		mockAccountRepo.On("Get", ctx, "B").Return(&domain.Account{ID: "B"}, nil)
		mockAccountRepo.On("Get", ctx, "C").Return(&domain.Account{ID: "C"}, nil)

		mockActivityRepo.On("Query", ctx, "A", mock.Anything).Return([]*domain.Activity{profitActivity(1)}, nil)
		mockActivityRepo.On("Query", ctx, "B", mock.Anything).Return([]*domain.Activity{profitActivity(2)}, nil)
		mockActivityRepo.On("Query", ctx, "C", mock.Anything).Return([]*domain.Activity{profitActivity(4)}, nil)

		total, err := service.NetworkYearToDate(ctx, "A", 2024)
		assert.NoError(t, err)
		return total
	}

	assert.True(t, run([]string{"B", "C"}).Equal(run([]string{"C", "B"})))
}

func TestRefreshSnapshot_WritesBothFigures(t *testing.T) {
	ctx := context.Background()
	mockActivityRepo := new(MockActivityRepository)
	mockAccountRepo := new(MockAccountRepository)
	mockAssetRepo := new(MockAssetRepository)
	service := NewService(mockActivityRepo, mockAccountRepo, mockAssetRepo)

	mockAccountRepo.On("Get", ctx, "A").Return(&domain.Account{ID: "A", ConnectedAccounts: []string{"B"}}, nil)
	mockAccountRepo.On("Get", ctx, "B").Return(&domain.Account{ID: "B"}, nil)
	mockActivityRepo.On("Query", ctx, "A", mock.Anything).Return([]*domain.Activity{profitActivity(30)}, nil)
	mockActivityRepo.On("Query", ctx, "B", mock.Anything).Return([]*domain.Activity{profitActivity(12)}, nil)

	mockAssetRepo.On("UpdateGeneralYTD", ctx, "A",
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(30)) }),
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(42)) }),
	).Return(nil)

	assert.NoError(t, service.RefreshSnapshot(ctx, "A", 2024))
	mockAssetRepo.AssertExpectations(t)
}

func TestNetworkYearToDate_PropagatesAccountLoadError(t *testing.T) {
	ctx := context.Background()
	mockActivityRepo := new(MockActivityRepository)
	mockAccountRepo := new(MockAccountRepository)
	service := NewService(mockActivityRepo, mockAccountRepo, new(MockAssetRepository))

	mockActivityRepo.On("Query", ctx, "A", mock.Anything).Return([]*domain.Activity{}, nil)
	mockAccountRepo.On("Get", ctx, "A").Return(nil, errors.New("store unavailable"))

	_, err := service.NetworkYearToDate(ctx, "A", 2024)
	assert.Error(t, err)
}
