package engine

import (
	"testing"

	"grana/internal/core"
)

func TestSelectCurrentBill(t *testing.T) {
	ref := date(2024, 6, 25)
	tests := []struct {
		name    string
		bills   []core.Bill
		want    int64
		wantOK  bool
	}{
		{
			name: "open bill wins",
			bills: []core.Bill{
				{DueDate: date(2024, 5, 5), TotalAmount: cents(100), State: core.BillClosed},
				{DueDate: date(2024, 7, 5), TotalAmount: cents(200), State: core.BillOpen},
				{DueDate: date(2024, 8, 5), TotalAmount: cents(300), State: core.BillClosed},
			},
			want:   200,
			wantOK: true,
		},
		{
			name: "first future due when none open",
			bills: []core.Bill{
				{DueDate: date(2024, 5, 5), TotalAmount: cents(100), State: core.BillClosed},
				{DueDate: date(2024, 7, 5), TotalAmount: cents(200), State: core.BillClosed},
			},
			want:   200,
			wantOK: true,
		},
		{
			name: "latest known when all past due",
			bills: []core.Bill{
				{DueDate: date(2024, 4, 5), TotalAmount: cents(100), State: core.BillClosed},
				{DueDate: date(2024, 5, 5), TotalAmount: cents(150), State: core.BillClosed},
			},
			want:   150,
			wantOK: true,
		},
		{
			name:   "no bills",
			bills:  nil,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bill, ok := selectCurrentBill(core.CardAccount{ID: "c", Bills: tt.bills}, ref)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && bill.TotalAmount.Cents != tt.want {
				t.Errorf("amount = %d, want %d", bill.TotalAmount.Cents, tt.want)
			}
		})
	}
}

func TestSelectNextBill(t *testing.T) {
	ref := date(2024, 6, 25)
	card := core.CardAccount{ID: "c", Bills: []core.Bill{
		{DueDate: date(2024, 7, 5), TotalAmount: cents(200), State: core.BillOpen},
		{DueDate: date(2024, 8, 5), TotalAmount: cents(300), State: core.BillClosed},
	}}

	bill, ok := selectNextBill(card, ref)
	if !ok || bill.TotalAmount.Cents != 300 {
		t.Errorf("next = %d (ok=%v), want 300", bill.TotalAmount.Cents, ok)
	}

	// With no following bill, next falls back to current.
	card.Bills = card.Bills[:1]
	bill, ok = selectNextBill(card, ref)
	if !ok || bill.TotalAmount.Cents != 200 {
		t.Errorf("next fallback = %d (ok=%v), want 200", bill.TotalAmount.Cents, ok)
	}
}

func TestUsedTotalPriority(t *testing.T) {
	current := cents(999)
	tests := []struct {
		name string
		card core.CardAccount
		want int64
	}{
		{
			name: "reported used limit wins",
			card: core.CardAccount{
				HasUsedLimit: true, UsedCreditLimit: cents(5000),
				HasAvailableLimit: true, CreditLimit: cents(100000), AvailableCreditLimit: cents(40000),
				Balance: cents(-1234),
			},
			want: 5000,
		},
		{
			name: "limit minus available",
			card: core.CardAccount{
				HasAvailableLimit: true, CreditLimit: cents(100000), AvailableCreditLimit: cents(40000),
				Balance: cents(-1234),
			},
			want: 60000,
		},
		{
			name: "stored balance magnitude",
			card: core.CardAccount{Balance: cents(-1234)},
			want: 1234,
		},
		{
			name: "current invoice amount as last resort",
			card: core.CardAccount{},
			want: 999,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := usedTotal(tt.card, current); got.Cents != tt.want {
				t.Errorf("usedTotal = %d, want %d", got.Cents, tt.want)
			}
		})
	}
}

func TestReconcileCardAmountFullLimitOverride(t *testing.T) {
	card := core.CardAccount{ID: "c", CreditLimit: cents(500000), Balance: cents(-100)}
	got := ReconcileCardAmount(card, CardMatch{Strategy: MatchRawBalance, Amount: cents(100)},
		core.InvoiceCurrent, date(2024, 6, 25), core.Settings{UseFullLimit: true})
	if got.Cents != 500000 {
		t.Errorf("full-limit override = %d, want 500000", got.Cents)
	}
}

func TestReconcileCardAmountLocalStatement(t *testing.T) {
	card := core.CardAccount{ID: "c", ClosingDay: 15}
	match := CardMatch{Strategy: MatchDirect, Transactions: []core.Transaction{
		posted("a", date(2024, 6, 16), -5000),
		posted("b", date(2024, 6, 20), -3000),
	}}
	got := ReconcileCardAmount(card, match, core.InvoiceCurrent, date(2024, 6, 25), core.Settings{})
	if got.Cents != 8000 {
		t.Errorf("local statement amount = %d, want 8000", got.Cents)
	}
}

func TestTotalCardSpendingEnabledSetOnly(t *testing.T) {
	cards := []core.CardAccount{
		{ID: "on", Balance: cents(-1000)},
		{ID: "off", Balance: cents(-2000)},
	}
	matches := map[string]CardMatch{
		"on":  {Strategy: MatchRawBalance, Amount: cents(1000)},
		"off": {Strategy: MatchRawBalance, Amount: cents(2000)},
	}
	settings := core.Settings{EnabledCardIDs: map[string]bool{"on": true}}

	got := TotalCardSpending(cards, matches, date(2024, 6, 25), settings)
	if got.Cents != 1000 {
		t.Errorf("TotalCardSpending = %d, want 1000 (disabled card must not contribute)", got.Cents)
	}
}
