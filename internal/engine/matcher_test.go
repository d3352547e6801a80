package engine

import (
	"testing"
	"time"

	"grana/internal/core"
)

func cardTxn(id, accountID, cardID string, d time.Time, amount int64) core.Transaction {
	return core.Transaction{
		ID:          id,
		Date:        d,
		Description: "purchase " + id,
		Amount:      cents(amount),
		Kind:        core.KindCreditCard,
		Status:      core.StatusPosted,
		AccountID:   accountID,
		CardID:      cardID,
	}
}

func TestMatchCardsDirect(t *testing.T) {
	cards := []core.CardAccount{{ID: "card-a"}, {ID: "card-b"}}
	txns := []core.Transaction{
		cardTxn("t1", "", "card-a", date(2024, 6, 1), -100),
		cardTxn("t2", "card-b", "", date(2024, 6, 2), -200),
	}

	matches := MatchCards(cards, txns, date(2024, 6, 25), core.MonthKey("2024-06"))

	if m := matches["card-a"]; m.Strategy != MatchDirect || len(m.Transactions) != 1 {
		t.Errorf("card-a: got %s with %d txns, want direct with 1", m.Strategy, len(m.Transactions))
	}
	if m := matches["card-b"]; m.Strategy != MatchDirect || len(m.Transactions) != 1 {
		t.Errorf("card-b: got %s with %d txns, want direct with 1", m.Strategy, len(m.Transactions))
	}
}

// Two known cards and two all-time distinct account ids: the
// lexicographically first id is attributed to the card in position 0 of the
// deterministic (id-sorted) card order.
func TestMatchCardsIndexFallback(t *testing.T) {
	cards := []core.CardAccount{{ID: "card-b"}, {ID: "card-a"}}
	txns := []core.Transaction{
		cardTxn("t1", "acct-1", "", date(2024, 6, 1), -100),
		cardTxn("t2", "acct-2", "", date(2024, 6, 2), -200),
		cardTxn("t3", "acct-1", "", date(2024, 6, 3), -300),
	}

	matches := MatchCards(cards, txns, date(2024, 6, 25), core.MonthKey("2024-06"))

	if m := matches["card-a"]; m.Strategy != MatchIndex || len(m.Transactions) != 2 {
		t.Errorf("card-a: got %s with %d txns, want index with 2 (acct-1)", m.Strategy, len(m.Transactions))
	}
	if m := matches["card-b"]; m.Strategy != MatchIndex || len(m.Transactions) != 1 {
		t.Errorf("card-b: got %s with %d txns, want index with 1 (acct-2)", m.Strategy, len(m.Transactions))
	}
}

func TestMatchCardsSingleCardFallback(t *testing.T) {
	cards := []core.CardAccount{{ID: "only"}}
	txns := []core.Transaction{
		cardTxn("t1", "", "", date(2024, 6, 1), -100),
		cardTxn("t2", "", "", date(2024, 6, 2), -200),
	}

	matches := MatchCards(cards, txns, date(2024, 6, 25), core.MonthKey("2024-06"))

	if m := matches["only"]; m.Strategy != MatchSingleCard || len(m.Transactions) != 2 {
		t.Errorf("got %s with %d txns, want single_card with 2", m.Strategy, len(m.Transactions))
	}
}

func TestMatchCardsProviderFallback(t *testing.T) {
	cards := []core.CardAccount{{
		ID: "card-a",
		Bills: []core.Bill{
			{DueDate: date(2024, 7, 5), TotalAmount: cents(45000), State: core.BillOpen},
		},
	}}
	ref := date(2024, 6, 25)

	// Requested period is the current calendar month: provider data wins.
	matches := MatchCards(cards, nil, ref, core.MonthOf(ref))
	if m := matches["card-a"]; m.Strategy != MatchProviderBalance || m.Amount.Cents != 45000 {
		t.Errorf("got %s amount %d, want provider_balance 45000", m.Strategy, m.Amount.Cents)
	}

	// A past month cannot use the provider's current figure.
	matches = MatchCards(cards, nil, ref, core.MonthKey("2024-03"))
	if m := matches["card-a"]; m.Strategy == MatchProviderBalance {
		t.Errorf("provider fallback used for a non-current month")
	}
}

func TestMatchCardsRawBalanceFallback(t *testing.T) {
	cards := []core.CardAccount{{ID: "card-a", Balance: cents(-32100)}}

	matches := MatchCards(cards, nil, date(2024, 6, 25), core.MonthKey("2024-06"))
	if m := matches["card-a"]; m.Strategy != MatchRawBalance || m.Amount.Cents != 32100 {
		t.Errorf("got %s amount %d, want raw_balance 32100", m.Strategy, m.Amount.Cents)
	}
}

func TestMatchCardsDegradesToNone(t *testing.T) {
	cards := []core.CardAccount{{ID: "empty"}, {ID: "other"}}

	matches := MatchCards(cards, nil, date(2024, 6, 25), core.MonthKey("2024-06"))
	if m := matches["empty"]; m.Strategy != MatchNone {
		t.Errorf("got %s, want none", m.Strategy)
	}
}

// Card order in the input must not change attribution when index matching is
// in play.
func TestMatchCardsIndexFallbackStableAcrossOrdering(t *testing.T) {
	txns := []core.Transaction{
		cardTxn("t1", "acct-1", "", date(2024, 6, 1), -100),
		cardTxn("t2", "acct-2", "", date(2024, 6, 2), -200),
	}
	ref := date(2024, 6, 25)

	a := MatchCards([]core.CardAccount{{ID: "x"}, {ID: "y"}}, txns, ref, core.MonthKey("2024-06"))
	b := MatchCards([]core.CardAccount{{ID: "y"}, {ID: "x"}}, txns, ref, core.MonthKey("2024-06"))

	if a["x"].Transactions[0].ID != b["x"].Transactions[0].ID {
		t.Error("index attribution changed with card input order")
	}
}
