package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridianfs/ledgercore/internal/domain"
	"github.com/meridianfs/ledgercore/internal/usecase/settlement"
)

// BalancePointResponse is the wire form of one balance point.
type BalancePointResponse struct {
	Account  string          `json:"account"`
	Amount   decimal.Decimal `json:"amount"`
	Cashflow decimal.Decimal `json:"cashflow"`
	Time     time.Time       `json:"time"`
}

// YTDResponse carries a single year-to-date figure.
type YTDResponse struct {
	AccountID string          `json:"accountId"`
	Year      int             `json:"year"`
	Amount    decimal.Decimal `json:"amount"`
}

// ActivityRequest is the payload half of a scheduled activity. The
// time is omitted on purpose: it is stamped with server time when the
// record settles.
type ActivityRequest struct {
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Recipient  string          `json:"recipient,omitempty"`
	Fund       string          `json:"fund,omitempty"`
	IsDividend bool            `json:"isDividend,omitempty"`
}

// AssetDeltaRequest is the wire form of one asset delta.
type AssetDeltaRequest struct {
	Fund         string          `json:"fund"`
	AssetType    string          `json:"assetType"`
	Amount       decimal.Decimal `json:"amount"`
	FirstDeposit domain.Instant  `json:"firstDeposit,omitempty"`
	Title        string          `json:"title,omitempty"`
	Index        int             `json:"index,omitempty"`
}

// ScheduleRequest creates a pending scheduled activity.
type ScheduleRequest struct {
	Activity      *ActivityRequest    `json:"activity"`
	AssetDeltas   []AssetDeltaRequest `json:"assetDeltas,omitempty"`
	ScheduledTime time.Time           `json:"scheduledTime"`
	Namespace     string              `json:"namespace,omitempty"`
}

// ScheduleResponse returns the identifier of the created record.
type ScheduleResponse struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

// SweepResponse summarizes a settlement sweep run.
type SweepResponse struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	if err := s.ledger.Rebuild(r.Context(), accountID); err != nil {
		slog.ErrorContext(r.Context(), "ledger rebuild failed", "account", accountID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to rebuild ledger")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBalancePoints(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	points, err := s.ledger.Points(r.Context(), accountID)
	if err != nil {
		slog.ErrorContext(r.Context(), "balance point listing failed", "account", accountID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to list balance points")
		return
	}

	out := make([]BalancePointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, BalancePointResponse{
			Account:  p.Account,
			Amount:   p.Amount,
			Cashflow: p.Cashflow,
			Time:     p.Time,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"balancePoints": out})
}

// yearParam parses the required year query parameter.
func yearParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return 0, errors.New("missing year parameter")
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("year must be an integer")
	}
	return year, nil
}

func (s *Server) handleYearToDate(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	year, err := yearParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}

	total, err := s.ytd.YearToDate(r.Context(), accountID, year)
	if err != nil {
		slog.ErrorContext(r.Context(), "year-to-date failed", "account", accountID, "year", year, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to compute year to date")
		return
	}

	writeJSON(w, http.StatusOK, YTDResponse{AccountID: accountID, Year: year, Amount: total})
}

func (s *Server) handleNetworkYearToDate(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	year, err := yearParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}

	total, err := s.ytd.NetworkYearToDate(r.Context(), accountID, year)
	if err != nil {
		slog.ErrorContext(r.Context(), "network year-to-date failed", "account", accountID, "year", year, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to compute network year to date")
		return
	}

	writeJSON(w, http.StatusOK, YTDResponse{AccountID: accountID, Year: year, Amount: total})
}

func (s *Server) handleScheduleActivity(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if req.Activity == nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing activity")
		return
	}
	if req.ScheduledTime.IsZero() {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing scheduledTime")
		return
	}

	activity := &domain.Activity{
		Type:       domain.ActivityType(req.Activity.Type),
		Amount:     req.Activity.Amount,
		Recipient:  req.Activity.Recipient,
		Fund:       req.Activity.Fund,
		IsDividend: req.Activity.IsDividend,
	}

	deltas := make([]domain.AssetDelta, 0, len(req.AssetDeltas))
	for _, d := range req.AssetDeltas {
		deltas = append(deltas, domain.AssetDelta{
			Fund:         d.Fund,
			AssetType:    d.AssetType,
			Amount:       d.Amount,
			FirstDeposit: d.FirstDeposit,
			Title:        d.Title,
			Index:        d.Index,
		})
	}

	id, err := s.settle.Schedule(r.Context(), settlement.ScheduleInput{
		AccountID:     accountID,
		Activity:      activity,
		AssetDeltas:   deltas,
		ScheduledTime: req.ScheduledTime,
		Namespace:     req.Namespace,
	})
	if err != nil {
		if errors.Is(err, settlement.ErrInvalidSchedule) {
			writeJSONError(w, http.StatusUnprocessableEntity, "invalid_activity", err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "scheduling failed", "account", accountID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to schedule activity")
		return
	}

	writeJSON(w, http.StatusCreated, ScheduleResponse{ID: id, Status: string(domain.ScheduledStatusPending)})
}

func (s *Server) handleCancelScheduled(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid scheduled activity ID")
		return
	}

	if err := s.settle.Cancel(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "not_found", "Scheduled activity not found")
			return
		}
		slog.ErrorContext(r.Context(), "cancel failed", "id", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to cancel scheduled activity")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	result, err := s.settle.RunSweep(r.Context(), time.Now().UTC())
	if err != nil {
		slog.ErrorContext(r.Context(), "sweep failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to run sweep")
		return
	}

	writeJSON(w, http.StatusOK, SweepResponse{Processed: result.Processed, Failed: result.Failed})
}
