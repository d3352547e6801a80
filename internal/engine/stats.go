package engine

import (
	"log/slog"
	"strings"
	"time"

	"grana/internal/core"
)

// Snapshot is the complete, read-only input of one computation pass. The
// engine owns no state between calls; callers memoize results keyed by a
// content hash of the snapshot.
type Snapshot struct {
	Transactions   []core.Transaction
	Cards          []core.CardAccount
	Subscriptions  []core.Subscription
	Settings       core.Settings
	Payroll        *core.PayrollConfig
	ReferenceDate  time.Time
	ReferenceMonth core.MonthKey
}

// bucket is the single classification of a transaction inside the window.
type bucket int

const (
	bucketIncome bucket = iota
	bucketBaseExpense
	bucketCardExpense
	bucketRefund
	bucketExcluded
)

// transferPatterns mark internal movements (bill payments, transfers between
// own accounts, investment sweeps) that must be excluded entirely: they are
// neither income nor expense.
var transferPatterns = []string{
	"pagamento fatura",
	"pagamento de fatura",
	"pgto fatura",
	"transferencia entre contas",
	"aplicacao",
	"resgate",
}

// expenseKeywords force the expense bucket regardless of the declared flow.
var expenseKeywords = []string{
	"boleto",
	"saque",
	"tarifa",
	"juros",
	"anuidade",
	"iof",
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(stripDiacritics(strings.ToLower(s))), " ")
}

func isBillPayment(description string) bool {
	d := normalizeText(description)
	for _, p := range transferPatterns {
		if strings.Contains(d, p) {
			return true
		}
	}
	return false
}

// classify assigns exactly one bucket under strict precedence: refund marker,
// then transfer pattern, then keyword heuristics, then the declared flow,
// then the amount sign.
func classify(t core.Transaction) bucket {
	if t.IsRefund {
		return bucketRefund
	}
	if isBillPayment(t.Description) {
		return bucketExcluded
	}
	if t.Kind == core.KindCreditCard {
		return bucketCardExpense
	}
	d := normalizeText(t.Description)
	for _, k := range expenseKeywords {
		if strings.Contains(d, k) {
			return bucketBaseExpense
		}
	}
	switch t.Flow {
	case core.FlowIncome:
		return bucketIncome
	case core.FlowExpense:
		return bucketBaseExpense
	}
	if t.Amount.Cents >= 0 {
		return bucketIncome
	}
	return bucketBaseExpense
}

// ComputeStats is the pure entry point of the engine: it folds a snapshot
// into the dashboard totals and per-card invoices. No error is returned;
// every degraded input path is an explicit fallback branch and malformed
// records are skipped, not fatal.
func ComputeStats(s Snapshot) core.DashboardStats {
	refMonth := s.ReferenceMonth
	if !refMonth.Valid() {
		refMonth = core.MonthOf(s.ReferenceDate)
	}

	var stats core.DashboardStats
	var refunds core.Money

	checking := make([]core.Transaction, 0, len(s.Transactions))
	for _, t := range s.Transactions {
		if t.Date.IsZero() {
			slog.Warn("transaction excluded from cycle assignment",
				"transaction_id", t.ID, "reason", "unparsable date")
			continue
		}
		if t.Kind != core.KindCreditCard {
			checking = append(checking, t)
		}
		if t.Status != core.StatusPosted || core.MonthOf(t.Date) != refMonth {
			continue
		}
		switch classify(t) {
		case bucketIncome:
			stats.TotalIncome = stats.TotalIncome.Add(t.Amount.Abs())
		case bucketBaseExpense:
			stats.TotalExpense = stats.TotalExpense.Add(t.Amount.Abs())
		case bucketRefund:
			refunds = refunds.Add(t.Amount.Abs())
		case bucketExcluded, bucketCardExpense:
			// Card expenses flow through the reconciler; counting them
			// here would double-count the invoice.
		}
	}

	matches := MatchCards(s.Cards, s.Transactions, s.ReferenceDate, refMonth)

	if s.Settings.IncludeCreditCard {
		stats.CreditCardSpending = TotalCardSpending(s.Cards, matches, s.ReferenceDate, s.Settings)
		stats.TotalExpense = stats.TotalExpense.Add(stats.CreditCardSpending)
	}
	stats.TotalExpense = stats.TotalExpense.Sub(refunds)

	stats.Cards = buildCardInvoices(s.Cards, matches, refMonth, s.ReferenceDate)

	var invoices []core.Invoice
	for _, ci := range stats.Cards {
		invoices = append(invoices, ci.ClosedInvoice, ci.CurrentInvoice)
		invoices = append(invoices, ci.FutureInvoices...)
	}
	stats.ProjectedExpense = ProjectedSubscriptionExpense(s.Subscriptions, refMonth, checking, invoices)
	if s.Payroll != nil {
		stats.ProjectedIncome = ProjectNetIncome(*s.Payroll).Net
	}

	stats.MonthlySavings = stats.TotalIncome.Sub(stats.TotalExpense)
	if s.Settings.IncludeChecking {
		// Projected amounts only: already-posted movements are never added
		// a second time on top of the provider balance.
		stats.TotalBalance = s.Settings.ProviderBalance.
			Add(stats.ProjectedIncome).
			Sub(stats.ProjectedExpense)
	} else {
		stats.TotalBalance = stats.MonthlySavings
	}

	return stats
}

func buildCardInvoices(cards []core.CardAccount, matches map[string]CardMatch, refMonth core.MonthKey, ref time.Time) []core.CardInvoices {
	sorted := sortedByID(cards)
	out := make([]core.CardInvoices, 0, len(sorted))
	for _, card := range sorted {
		match := matches[card.ID]
		ci := core.CardInvoices{CardID: card.ID}

		prevMonth := core.MonthOf(refMonth.Time().AddDate(0, -1, 0))
		if closed, err := BuildInvoice(card, match.Transactions, prevMonth); err == nil {
			ci.ClosedInvoice = closed
		}

		if bill, ok := selectCurrentBill(card, ref); ok {
			ci.CurrentInvoice = ProviderInvoice(card, bill)
			for _, b := range billsByDueDate(card) {
				if b.DueDate.After(bill.DueDate) {
					ci.FutureInvoices = append(ci.FutureInvoices, ProviderInvoice(card, b))
				}
			}
		} else if current, err := BuildInvoice(card, match.Transactions, refMonth); err == nil {
			ci.CurrentInvoice = current
			if next, err := BuildInvoice(card, match.Transactions, refMonth.Next()); err == nil && len(next.Items) > 0 {
				ci.FutureInvoices = append(ci.FutureInvoices, next)
			}
		}
		out = append(out, ci)
	}
	return out
}
