package engine

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"grana/internal/core"
)

// gatewayTokens are leading payment-processor and merchant-acquirer tokens
// that carry no merchant identity and are stripped before name comparison.
var gatewayTokens = map[string]bool{
	"pix":          true,
	"ted":          true,
	"doc":          true,
	"deb":          true,
	"dl":           true,
	"mp":           true,
	"ec":           true,
	"paypal":       true,
	"picpay":       true,
	"mercadopago":  true,
	"mercadolivre": true,
	"ebanx":        true,
	"cielo":        true,
	"rede":         true,
	"stone":        true,
	"getnet":       true,
	"sumup":        true,
}

// NormalizeMerchant reduces a free-text description to a comparable merchant
// key: lowercase, diacritics stripped, non-alphanumerics replaced by spaces,
// whitespace collapsed, then gateway prefixes (PIX, PAG*, acquirer tokens)
// dropped from the front.
func NormalizeMerchant(s string) string {
	s = strings.ToLower(s)
	s = stripDiacritics(s)
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	tokens := strings.Fields(b.String())
	for len(tokens) > 0 {
		t := tokens[0]
		if gatewayTokens[t] || strings.HasPrefix(t, "pag") {
			tokens = tokens[1:]
			continue
		}
		break
	}
	return strings.Join(tokens, " ")
}

func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// namesMatch is deliberately loose: bidirectional substring containment
// after normalization. Empty keys never match anything.
func namesMatch(a, b string) bool {
	na, nb := NormalizeMerchant(a), NormalizeMerchant(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// amountsClose reports whether a is within max(R$1, 10% of b) of b.
// Amounts are compared by magnitude so sign conventions don't matter.
func amountsClose(a, b core.Money) bool {
	diff := a.Abs().Cents - b.Abs().Cents
	if diff < 0 {
		diff = -diff
	}
	tolerance := b.Abs().Cents / 10
	if tolerance < 100 {
		tolerance = 100
	}
	return diff <= tolerance
}

// SubscriptionPaid reports whether the subscription is already reflected in
// the reference month: an explicit paidMonths entry is authoritative and
// short-circuits, then an explicit back-reference on a checking transaction,
// then a checking name+amount match, then a card invoice line item match
// (skipping payment records).
func SubscriptionPaid(sub core.Subscription, month core.MonthKey, checking []core.Transaction, invoices []core.Invoice) bool {
	if sub.Paid(month) {
		return true
	}
	for _, t := range checking {
		if t.Status != core.StatusPosted || core.MonthOf(t.Date) != month {
			continue
		}
		if t.SubscriptionID != "" && t.SubscriptionID == sub.ID {
			return true
		}
		if namesMatch(t.Description, sub.Name) && amountsClose(t.Amount, sub.Amount) {
			return true
		}
	}
	for _, inv := range invoices {
		for _, item := range inv.Items {
			if item.IsPayment {
				continue
			}
			// A charge made in the reference month may only appear on the
			// following statement; the item's own date decides the month.
			itemMonth := core.MonthOf(item.Date)
			if itemMonth == "" {
				itemMonth = inv.ReferenceMonth
			}
			if itemMonth != month {
				continue
			}
			if namesMatch(item.Description, sub.Name) && amountsClose(item.Amount, sub.Amount) {
				return true
			}
		}
	}
	return false
}

// ProjectedSubscriptionExpense sums the projected contribution of active
// subscriptions not yet reflected in the month. Yearly plans contribute a
// twelfth per month so a single renewal doesn't distort one month's
// projection.
func ProjectedSubscriptionExpense(subs []core.Subscription, month core.MonthKey, checking []core.Transaction, invoices []core.Invoice) core.Money {
	var total core.Money
	for _, sub := range subs {
		if !sub.Active {
			continue
		}
		if SubscriptionPaid(sub, month, checking, invoices) {
			continue
		}
		amount := sub.Amount
		if sub.Cycle == core.BillingYearly {
			amount = core.Money{Cents: sub.Amount.Cents / 12}
		}
		total = total.Add(amount)
	}
	return total
}
