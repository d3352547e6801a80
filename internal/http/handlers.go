package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"grana/internal/core"
)

// StatsProvider serves computed dashboard data.
type StatsProvider interface {
	Dashboard(ctx context.Context, settings core.Settings, refDate time.Time) (core.DashboardStats, error)
	CardInvoices(ctx context.Context, cardID string, settings core.Settings, refDate time.Time) (core.CardInvoices, error)
}

// TransactionCreator persists manual entries.
type TransactionCreator interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (string, error)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	settings, err := parseSettings(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	refDate, err := parseRefDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := s.stats.Dashboard(r.Context(), settings, refDate)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard computation error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute dashboard")
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse(stats))
}

func (s *Server) handleCardInvoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Path shape: /cards/{id}/invoices
	rest := strings.TrimPrefix(r.URL.Path, "/cards/")
	cardID, tail, ok := strings.Cut(rest, "/")
	if !ok || cardID == "" || tail != "invoices" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	settings, err := parseSettings(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	refDate, err := parseRefDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ci, err := s.stats.CardInvoices(r.Context(), cardID, settings, refDate)
	if err != nil {
		if errors.Is(err, core.ErrCardNotFound) {
			writeError(w, http.StatusNotFound, "card not found")
			return
		}
		slog.ErrorContext(r.Context(), "Card invoices error", "error", err, "card_id", cardID)
		writeError(w, http.StatusInternalServerError, "failed to compute invoices")
		return
	}

	writeJSON(w, http.StatusOK, cardInvoicesJSON(ci))
}

type createTransactionRequest struct {
	Date               string `json:"date"`
	Description        string `json:"description"`
	Amount             string `json:"amount"`
	Category           string `json:"category"`
	Flow               string `json:"flow"`
	Kind               string `json:"kind"`
	AccountID          string `json:"account_id"`
	CardID             string `json:"card_id"`
	ManualInvoiceMonth string `json:"manual_invoice_month"`
	IsRefund           bool   `json:"is_refund"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date")
		return
	}
	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	flow := core.FlowKind(req.Flow)
	if flow == "" {
		flow = core.FlowExpense
		if amount.Cents > 0 {
			flow = core.FlowIncome
		}
	}
	kind := core.TransactionKind(req.Kind)
	if kind == "" {
		kind = core.KindManual
	}
	manualMonth := core.MonthKey(req.ManualInvoiceMonth)
	if req.ManualInvoiceMonth != "" && !manualMonth.Valid() {
		writeError(w, http.StatusUnprocessableEntity, "invalid manual_invoice_month")
		return
	}

	txn := core.Transaction{
		Date:               date,
		Description:        sanitizeInput(req.Description),
		Amount:             amount,
		Category:           sanitizeInput(req.Category),
		Flow:               flow,
		Kind:               kind,
		Status:             core.StatusPosted,
		AccountID:          req.AccountID,
		CardID:             req.CardID,
		ManualInvoiceMonth: manualMonth,
		IsRefund:           req.IsRefund,
	}
	if err := txn.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.transactions.CreateTransaction(r.Context(), txn)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction create error", "error", err,
			"description", txn.Description, "amount_cents", txn.Amount.Cents)
		writeError(w, http.StatusInternalServerError, "failed to save transaction")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
