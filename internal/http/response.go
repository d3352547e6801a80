package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"grana/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Response shapes. Amounts are cents, months are "YYYY-MM", dates are
// "YYYY-MM-DD".

type statsJSON struct {
	TotalIncome        int64              `json:"total_income_cents"`
	TotalExpense       int64              `json:"total_expense_cents"`
	TotalBalance       int64              `json:"total_balance_cents"`
	MonthlySavings     int64              `json:"monthly_savings_cents"`
	CreditCardSpending int64              `json:"credit_card_spending_cents"`
	ProjectedIncome    int64              `json:"projected_income_cents"`
	ProjectedExpense   int64              `json:"projected_expense_cents"`
	Cards              []cardInvoicesBody `json:"cards"`
}

type cardInvoicesBody struct {
	CardID         string        `json:"card_id"`
	ClosedInvoice  invoiceJSON   `json:"closed_invoice"`
	CurrentInvoice invoiceJSON   `json:"current_invoice"`
	FutureInvoices []invoiceJSON `json:"future_invoices,omitempty"`
}

type invoiceJSON struct {
	ReferenceMonth  string            `json:"reference_month"`
	PeriodStart     string            `json:"period_start,omitempty"`
	PeriodEnd       string            `json:"period_end,omitempty"`
	TotalCents      int64             `json:"total_cents"`
	ProviderSourced bool              `json:"provider_sourced"`
	Items           []invoiceItemJSON `json:"items,omitempty"`
}

type invoiceItemJSON struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	IsPayment   bool   `json:"is_payment,omitempty"`
}

func dashboardResponse(stats core.DashboardStats) statsJSON {
	out := statsJSON{
		TotalIncome:        stats.TotalIncome.Cents,
		TotalExpense:       stats.TotalExpense.Cents,
		TotalBalance:       stats.TotalBalance.Cents,
		MonthlySavings:     stats.MonthlySavings.Cents,
		CreditCardSpending: stats.CreditCardSpending.Cents,
		ProjectedIncome:    stats.ProjectedIncome.Cents,
		ProjectedExpense:   stats.ProjectedExpense.Cents,
		Cards:              make([]cardInvoicesBody, 0, len(stats.Cards)),
	}
	for _, ci := range stats.Cards {
		out.Cards = append(out.Cards, cardInvoicesJSON(ci))
	}
	return out
}

func cardInvoicesJSON(ci core.CardInvoices) cardInvoicesBody {
	body := cardInvoicesBody{
		CardID:         ci.CardID,
		ClosedInvoice:  toInvoiceJSON(ci.ClosedInvoice),
		CurrentInvoice: toInvoiceJSON(ci.CurrentInvoice),
	}
	for _, inv := range ci.FutureInvoices {
		body.FutureInvoices = append(body.FutureInvoices, toInvoiceJSON(inv))
	}
	return body
}

func toInvoiceJSON(inv core.Invoice) invoiceJSON {
	out := invoiceJSON{
		ReferenceMonth:  string(inv.ReferenceMonth),
		PeriodStart:     formatDate(inv.PeriodStart),
		PeriodEnd:       formatDate(inv.PeriodEnd),
		TotalCents:      inv.TotalAmount.Cents,
		ProviderSourced: inv.ProviderSourced,
	}
	for _, item := range inv.Items {
		out.Items = append(out.Items, invoiceItemJSON{
			Date:        formatDate(item.Date),
			Description: item.Description,
			AmountCents: item.Amount.Cents,
			IsPayment:   item.IsPayment,
		})
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
