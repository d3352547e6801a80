package engine

import (
	"fmt"
	"sort"
	"time"

	"grana/internal/core"
)

// BuildError is the typed failure of invoice construction. Degraded paths are
// explicit branches, not caught panics: callers inspect the error and fall
// back to provider data or raw balances.
type BuildError struct {
	CardID string
	Month  core.MonthKey
	Reason string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build invoice for card %s month %s: %s", e.CardID, e.Month, e.Reason)
}

// invoiceMonthOf resolves which invoice month a transaction belongs to. An
// explicit manual override wins, then the ingestion-assigned linkage, then
// pure cycle arithmetic. Records with no parsable date are excluded from
// cycle assignment entirely.
func invoiceMonthOf(t core.Transaction, closingDay int) core.MonthKey {
	if t.ManualInvoiceMonth.Valid() {
		return t.ManualInvoiceMonth
	}
	if t.InvoiceMonth.Valid() {
		return t.InvoiceMonth
	}
	return ReferenceMonth(t.Date, closingDay)
}

// CurrentBalance sums all posted transactions dated at or before ref.
// Pending never contributes to any balance.
func CurrentBalance(txns []core.Transaction, ref time.Time) core.Money {
	var total core.Money
	for _, t := range txns {
		if t.Status != core.StatusPosted || t.Date.IsZero() {
			continue
		}
		if t.Date.After(ref) {
			continue
		}
		total = total.Add(t.Amount)
	}
	return total
}

// StatementBalance sums posted transactions inside (lastClosing, ref].
func StatementBalance(txns []core.Transaction, ref time.Time, closingDay int) core.Money {
	last := LastClosing(ref, closingDay)
	var total core.Money
	for _, t := range txns {
		if t.Status != core.StatusPosted || t.Date.IsZero() {
			continue
		}
		if !t.Date.After(last) || t.Date.After(ref) {
			continue
		}
		total = total.Add(t.Amount)
	}
	return total
}

// BuildInvoice buckets a card's transactions into the statement for the given
// reference month. TotalAmount equals the sum of the item amounts; items are
// sorted by date descending for display.
func BuildInvoice(card core.CardAccount, txns []core.Transaction, month core.MonthKey) (core.Invoice, error) {
	if !month.Valid() {
		return core.Invoice{}, &BuildError{CardID: card.ID, Month: month, Reason: "invalid reference month"}
	}
	start, end := CyclePeriod(month, card.ClosingDay)
	inv := core.Invoice{
		ReferenceMonth: month,
		PeriodStart:    start,
		PeriodEnd:      end,
	}
	for _, t := range txns {
		if t.Status != core.StatusPosted || t.Date.IsZero() {
			continue
		}
		if invoiceMonthOf(t, card.ClosingDay) != month {
			continue
		}
		inv.Items = append(inv.Items, core.InvoiceItem{
			Description: t.Description,
			Amount:      t.Amount,
			Flow:        t.Flow,
			Date:        t.Date,
			IsPayment:   isBillPayment(t.Description),
		})
		inv.TotalAmount = inv.TotalAmount.Add(t.Amount)
	}
	sort.SliceStable(inv.Items, func(i, j int) bool {
		return inv.Items[i].Date.After(inv.Items[j].Date)
	})
	return inv, nil
}

// ProviderInvoice wraps a provider-reported bill as an invoice. The provider
// value is authoritative; any locally bucketed items stay advisory.
func ProviderInvoice(card core.CardAccount, bill core.Bill) core.Invoice {
	month := ReferenceMonth(bill.DueDate, card.ClosingDay)
	start, end := CyclePeriod(month, card.ClosingDay)
	return core.Invoice{
		ReferenceMonth:  month,
		PeriodStart:     start,
		PeriodEnd:       end,
		TotalAmount:     bill.TotalAmount,
		ProviderSourced: true,
	}
}
