package engine

import (
	"errors"
	"testing"
	"time"

	"grana/internal/core"
)

func cents(v int64) core.Money { return core.Money{Cents: v} }

func posted(id string, d time.Time, amount int64) core.Transaction {
	return core.Transaction{
		ID:          id,
		Date:        d,
		Description: "item " + id,
		Amount:      cents(amount),
		Kind:        core.KindCreditCard,
		Status:      core.StatusPosted,
	}
}

func TestBalances(t *testing.T) {
	txns := []core.Transaction{
		posted("a", date(2024, 6, 1), -5000),
		posted("b", date(2024, 6, 20), 3000),
		{
			ID: "c", Date: date(2024, 6, 25), Description: "pending item",
			Amount: cents(1000), Kind: core.KindCreditCard, Status: core.StatusPending,
		},
	}
	ref := date(2024, 6, 25)

	// Pending never contributes to any balance.
	if got := CurrentBalance(txns, ref); got.Cents != -2000 {
		t.Errorf("CurrentBalance = %d, want -2000", got.Cents)
	}

	// Statement interval is (2024-06-15, 2024-06-25]: only the 06-20 record.
	if got := StatementBalance(txns, ref, 15); got.Cents != 3000 {
		t.Errorf("StatementBalance = %d, want 3000", got.Cents)
	}
}

func TestBuildInvoice(t *testing.T) {
	card := core.CardAccount{ID: "card-1", ClosingDay: 15}
	txns := []core.Transaction{
		posted("old", date(2024, 5, 20), -1000), // belongs to 2024-06
		posted("a", date(2024, 6, 16), -5000),   // belongs to 2024-07
		posted("b", date(2024, 6, 20), -3000),   // belongs to 2024-07
		{
			ID: "p", Date: date(2024, 6, 18), Description: "pending",
			Amount: cents(-9900), Kind: core.KindCreditCard, Status: core.StatusPending,
		},
	}

	inv, err := BuildInvoice(card, txns, core.MonthKey("2024-07"))
	if err != nil {
		t.Fatalf("BuildInvoice returned error: %v", err)
	}
	if len(inv.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(inv.Items))
	}
	// Items sorted by date descending for display.
	if !inv.Items[0].Date.After(inv.Items[1].Date) {
		t.Errorf("items not sorted date-descending: %v before %v", inv.Items[0].Date, inv.Items[1].Date)
	}
	if inv.TotalAmount.Cents != -8000 {
		t.Errorf("TotalAmount = %d, want -8000", inv.TotalAmount.Cents)
	}

	// Sum invariant for locally computed invoices.
	var sum int64
	for _, item := range inv.Items {
		sum += item.Amount.Cents
	}
	if sum != inv.TotalAmount.Cents {
		t.Errorf("sum of items %d != total %d", sum, inv.TotalAmount.Cents)
	}

	if !inv.PeriodStart.Equal(date(2024, 6, 15)) || !inv.PeriodEnd.Equal(date(2024, 7, 15)) {
		t.Errorf("period = (%v, %v), want (2024-06-15, 2024-07-15)", inv.PeriodStart, inv.PeriodEnd)
	}
}

func TestBuildInvoiceManualOverride(t *testing.T) {
	card := core.CardAccount{ID: "card-1", ClosingDay: 15}
	tx := posted("a", date(2024, 6, 16), -5000)
	tx.ManualInvoiceMonth = core.MonthKey("2024-06")

	inv, err := BuildInvoice(card, []core.Transaction{tx}, core.MonthKey("2024-06"))
	if err != nil {
		t.Fatalf("BuildInvoice returned error: %v", err)
	}
	if len(inv.Items) != 1 {
		t.Fatalf("manual invoice month not honored: got %d items", len(inv.Items))
	}
}

func TestBuildInvoiceInvalidMonth(t *testing.T) {
	_, err := BuildInvoice(core.CardAccount{ID: "card-1"}, nil, core.MonthKey("nope"))
	var buildErr *BuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("want *BuildError, got %v", err)
	}
	if buildErr.CardID != "card-1" {
		t.Errorf("BuildError.CardID = %q, want card-1", buildErr.CardID)
	}
}

func TestProviderInvoice(t *testing.T) {
	card := core.CardAccount{ID: "card-1", ClosingDay: 10}
	bill := core.Bill{DueDate: date(2024, 7, 20), TotalAmount: cents(123456), State: core.BillOpen}

	inv := ProviderInvoice(card, bill)
	if !inv.ProviderSourced {
		t.Error("ProviderSourced not set")
	}
	// Provider value is authoritative even with no items.
	if inv.TotalAmount.Cents != 123456 {
		t.Errorf("TotalAmount = %d, want 123456", inv.TotalAmount.Cents)
	}
	if inv.ReferenceMonth != core.MonthKey("2024-08") {
		t.Errorf("ReferenceMonth = %q, want 2024-08", inv.ReferenceMonth)
	}
}
