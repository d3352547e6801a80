package engine

import (
	"sort"
	"time"

	"grana/internal/core"
)

// billsByDueDate returns the card's bills sorted ascending by due date.
func billsByDueDate(card core.CardAccount) []core.Bill {
	bills := make([]core.Bill, len(card.Bills))
	copy(bills, card.Bills)
	sort.SliceStable(bills, func(i, j int) bool {
		return bills[i].DueDate.Before(bills[j].DueDate)
	})
	return bills
}

// selectCurrentBill picks the authoritative current bill: the open one, else
// the first future-due, else the latest known.
func selectCurrentBill(card core.CardAccount, ref time.Time) (core.Bill, bool) {
	bills := billsByDueDate(card)
	if len(bills) == 0 {
		return core.Bill{}, false
	}
	for _, b := range bills {
		if b.State == core.BillOpen {
			return b, true
		}
	}
	for _, b := range bills {
		if !b.DueDate.Before(ref) {
			return b, true
		}
	}
	return bills[len(bills)-1], true
}

// selectNextBill picks the bill immediately following the current one, or
// falls back to the current bill when none follows.
func selectNextBill(card core.CardAccount, ref time.Time) (core.Bill, bool) {
	current, ok := selectCurrentBill(card, ref)
	if !ok {
		return core.Bill{}, false
	}
	for _, b := range billsByDueDate(card) {
		if b.DueDate.After(current.DueDate) {
			return b, true
		}
	}
	return current, true
}

// usedTotal resolves the card's outstanding amount by source priority:
// reported used limit, then limit minus available, then the stored balance,
// then the current invoice figure.
func usedTotal(card core.CardAccount, current core.Money) core.Money {
	if card.HasUsedLimit && card.UsedCreditLimit.Cents >= 0 {
		return card.UsedCreditLimit
	}
	if card.HasAvailableLimit && card.CreditLimit.Cents > 0 {
		return card.CreditLimit.Sub(card.AvailableCreditLimit)
	}
	if !card.Balance.IsZero() {
		return card.Balance.Abs()
	}
	return current
}

// ReconcileCardAmount chooses the authoritative invoice value for one card
// and invoice type, merging provider-reported bills with locally matched
// transaction sums under a fixed precedence.
func ReconcileCardAmount(card core.CardAccount, match CardMatch, invType core.InvoiceType, ref time.Time, settings core.Settings) core.Money {
	if settings.UseFullLimit {
		// Conservative budgeting: treat the whole limit as committed.
		return card.CreditLimit
	}

	current := currentAmount(card, match, ref)

	switch invType {
	case core.InvoiceNext:
		if bill, ok := selectNextBill(card, ref); ok {
			return bill.TotalAmount.Abs()
		}
		return current
	case core.InvoiceUsedTotal:
		return usedTotal(card, current)
	default:
		return current
	}
}

func currentAmount(card core.CardAccount, match CardMatch, ref time.Time) core.Money {
	if bill, ok := selectCurrentBill(card, ref); ok {
		return bill.TotalAmount.Abs()
	}
	switch match.Strategy {
	case MatchProviderBalance, MatchRawBalance:
		return match.Amount.Abs()
	case MatchNone:
		return core.Money{}
	default:
		return StatementBalance(match.Transactions, ref, card.ClosingDay).Abs()
	}
}

// TotalCardSpending sums the reconciled amount over the enabled cards only.
func TotalCardSpending(cards []core.CardAccount, matches map[string]CardMatch, ref time.Time, settings core.Settings) core.Money {
	var total core.Money
	for _, card := range cards {
		if !card.Enabled(settings.EnabledCardIDs) {
			continue
		}
		amount := ReconcileCardAmount(card, matches[card.ID], settings.InvoiceTypeFor(card.ID), ref, settings)
		total = total.Add(amount)
	}
	return total
}
