package ledger

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/group"
	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/http/middleware"
	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/ledger"
	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/metrics"
)

type Handler struct {
	svc *ledger.Service
}

func NewHandler(svc *ledger.Service) *Handler {
	return &Handler{svc: svc}
}

// ExpenseRoutes registers the expense endpoints.
func (h *Handler) ExpenseRoutes(r chi.Router) {
	r.Post("/", h.createExpense)
	r.Get("/", h.listExpenses)
	r.Get("/recent", h.recentExpenses)
	r.Delete("/{id}", h.deleteExpense)
}

// PaymentRoutes registers the payment ledger endpoints.
func (h *Handler) PaymentRoutes(r chi.Router) {
	r.Post("/", h.recordPayment)
	r.Get("/pending", h.pendingPayments)
	r.Get("/history", h.paymentHistory)
}

// SettlementRoutes registers the settlement suggestion endpoint.
func (h *Handler) SettlementRoutes(r chi.Router) {
	r.Get("/", h.suggestSettlements)
}

// BalanceRoutes registers the per-group balance endpoint; mounted under /groups.
func (h *Handler) BalanceRoutes(r chi.Router) {
	r.Get("/{id}/balances", h.groupBalances)
}

// AnalyticsRoutes registers the spending overview endpoint.
func (h *Handler) AnalyticsRoutes(r chi.Router) {
	r.Get("/overview", h.overview)
}

// writeError maps engine errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *ledger.ValidationError

	switch {
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.Is(err, ledger.ErrExpenseNotFound),
		errors.Is(err, ledger.ErrSplitNotFound),
		errors.Is(err, group.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ledger.ErrAlreadyPaid):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		slog.Error("ledger request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

type createExpenseRequest struct {
	GroupID uuid.UUID       `json:"group_id"`
	Title   string          `json:"title"`
	Amount  decimal.Decimal `json:"amount"`
	Note    string          `json:"note"`
	Date    string          `json:"date"`
	PaidBy  string          `json:"paid_by"`
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	date := time.Now()

	if req.Date != "" {
		parsed, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		date = parsed
	}

	paidBy := req.PaidBy
	if paidBy == "" {
		paidBy = middleware.Username(r.Context())
	}

	e, err := h.svc.CreateExpense(r.Context(), ledger.CreateExpenseParams{
		GroupID: req.GroupID,
		Title:   req.Title,
		Amount:  req.Amount,
		Note:    req.Note,
		Date:    date,
		PaidBy:  paidBy,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.ExpensesCreated.Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toExpenseResponse(e)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(r.URL.Query().Get("group_id"))
	if err != nil {
		http.Error(w, "group_id required", http.StatusBadRequest)
		return
	}

	expenses, err := h.svc.GroupExpenses(r.Context(), groupID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toExpenseResponseList(expenses)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) recentExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.svc.RecentExpenses(r.Context(), middleware.Username(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toExpenseResponseList(expenses)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.DeleteExpense(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type recordPaymentRequest struct {
	ExpenseID uuid.UUID       `json:"expense_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"payment_method"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	username := middleware.Username(r.Context())

	status, err := h.svc.RecordPayment(r.Context(), req.ExpenseID, username, req.Amount, req.Method)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.PaymentsRecorded.Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(map[string]any{
		"message": "payment recorded",
		"status":  status,
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) pendingPayments(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.PendingPayments(r.Context(), middleware.Username(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toPendingResponse(result)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) paymentHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.PaymentHistory(r.Context(), middleware.Username(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toPaymentRecordList(records)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) groupBalances(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid group id", http.StatusBadRequest)
		return
	}

	balances, err := h.svc.GroupBalances(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make(map[string]float64, len(balances))
	for username, balance := range balances {
		resp[username] = amount(balance)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// suggestSettlements returns the plan for one group when group_id is given,
// otherwise one plan per group the caller belongs to.
func (h *Handler) suggestSettlements(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if raw := r.URL.Query().Get("group_id"); raw != "" {
		groupID, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid group id", http.StatusBadRequest)
			return
		}

		plan, err := h.svc.SuggestSettlements(r.Context(), groupID)
		if err != nil {
			writeError(w, err)
			return
		}

		if err := json.NewEncoder(w).Encode(toSettlementPlanResponse(plan)); err != nil {
			slog.Error("failed to encode response", "error", err)
		}

		return
	}

	plans, err := h.svc.SuggestSettlementsForUser(r.Context(), middleware.Username(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]settlementPlanResponse, len(plans))
	for i, plan := range plans {
		resp[i] = toSettlementPlanResponse(plan)
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.svc.Overview(r.Context(), middleware.Username(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toOverviewResponse(ov)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
