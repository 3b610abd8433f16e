// Package httpapi exposes the ledger, year-to-date and settlement
// services over a JSON HTTP API.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridianfs/ledgercore/internal/domain"
	"github.com/meridianfs/ledgercore/internal/usecase/settlement"
)

// LedgerService is the balance-point surface the API consumes.
type LedgerService interface {
	Rebuild(ctx context.Context, accountID string) error
	Points(ctx context.Context, accountID string) ([]*domain.BalancePoint, error)
}

// YTDService is the year-to-date surface the API consumes.
type YTDService interface {
	YearToDate(ctx context.Context, accountID string, year int) (decimal.Decimal, error)
	NetworkYearToDate(ctx context.Context, accountID string, year int) (decimal.Decimal, error)
}

// SettlementService is the scheduling surface the API consumes.
type SettlementService interface {
	Schedule(ctx context.Context, input settlement.ScheduleInput) (uuid.UUID, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	RunSweep(ctx context.Context, now time.Time) (settlement.SweepResult, error)
}

// Server holds the wired services and the chi router.
type Server struct {
	ledger LedgerService
	ytd    YTDService
	settle SettlementService
	router chi.Router
}

// NewServer builds the router with its middleware chain. All /v1
// routes require the bearer token.
func NewServer(ledger LedgerService, ytd YTDService, settle SettlementService, apiToken string) *Server {
	s := &Server{
		ledger: ledger,
		ytd:    ytd,
		settle: settle,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(BearerAuth(apiToken))

		r.Route("/accounts/{accountID}", func(r chi.Router) {
			r.Post("/ledger/rebuild", s.handleRebuild)
			r.Get("/balance-points", s.handleBalancePoints)
			r.Get("/ytd", s.handleYearToDate)
			r.Get("/ytd/network", s.handleNetworkYearToDate)
			r.Post("/scheduled-activities", s.handleScheduleActivity)
		})

		r.Delete("/scheduled-activities/{id}", s.handleCancelScheduled)
		r.Post("/settlement/sweep", s.handleSweep)
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
