package engine

import (
	"sort"
	"time"

	"grana/internal/core"
)

// MatchStrategy records which resolution step attributed data to a card.
// Callers can persist the mapping instead of re-guessing it every pass.
type MatchStrategy string

const (
	MatchDirect          MatchStrategy = "direct"
	MatchIndex           MatchStrategy = "index"
	MatchSingleCard      MatchStrategy = "single_card"
	MatchProviderBalance MatchStrategy = "provider_balance"
	MatchRawBalance      MatchStrategy = "raw_balance"
	MatchNone            MatchStrategy = "none"
)

// CardMatch is the outcome of transaction->card resolution for one card.
// Strategies that bypass transaction aggregation report an Amount instead of
// a transaction set.
type CardMatch struct {
	Strategy     MatchStrategy
	Transactions []core.Transaction
	Amount       core.Money
}

// MatchCards resolves the transaction->card linkage for every card, trying
// strategies in strict order and stopping at the first that succeeds:
// direct id match, positional index pairing, single-card attribution,
// provider-reported balance, raw stored balance. The most conservative
// fallback always wins over omitting a card from totals.
//
// The index pairing assumes a stable 1:1 correspondence between observed
// account ids and cards; both sides are sorted deterministically (ids
// lexicographically, cards by id) so reruns never silently reassign
// transactions between cards.
func MatchCards(cards []core.CardAccount, txns []core.Transaction, ref time.Time, refMonth core.MonthKey) map[string]CardMatch {
	cardTxns := make([]core.Transaction, 0, len(txns))
	for _, t := range txns {
		if t.Kind == core.KindCreditCard {
			cardTxns = append(cardTxns, t)
		}
	}

	matches := make(map[string]CardMatch, len(cards))
	claimed := make(map[string]bool, len(cardTxns))

	// Strategy 1: explicit link on the transaction.
	for _, card := range cards {
		var direct []core.Transaction
		for _, t := range cardTxns {
			if t.CardID == card.ID || t.AccountID == card.ID {
				direct = append(direct, t)
				claimed[t.ID] = true
			}
		}
		if len(direct) > 0 {
			matches[card.ID] = CardMatch{Strategy: MatchDirect, Transactions: direct}
		}
	}

	// Strategy 2: positional pairing when the all-time distinct account id
	// count equals the card count.
	accountIDs := distinctAccountIDs(cardTxns)
	if len(accountIDs) == len(cards) && len(cards) > 0 {
		sorted := sortedByID(cards)
		byAccount := make(map[string][]core.Transaction, len(accountIDs))
		for _, t := range cardTxns {
			if t.AccountID != "" && !claimed[t.ID] {
				byAccount[t.AccountID] = append(byAccount[t.AccountID], t)
			}
		}
		for i, accountID := range accountIDs {
			card := sorted[i]
			if _, ok := matches[card.ID]; ok {
				continue
			}
			if paired := byAccount[accountID]; len(paired) > 0 {
				for _, t := range paired {
					claimed[t.ID] = true
				}
				matches[card.ID] = CardMatch{Strategy: MatchIndex, Transactions: paired}
			}
		}
	}

	// Strategy 3: exactly one card owns every unmatched card-flagged record.
	if len(cards) == 1 {
		card := cards[0]
		if _, ok := matches[card.ID]; !ok {
			var rest []core.Transaction
			for _, t := range cardTxns {
				if !claimed[t.ID] {
					rest = append(rest, t)
				}
			}
			if len(rest) > 0 {
				matches[card.ID] = CardMatch{Strategy: MatchSingleCard, Transactions: rest}
			}
		}
	}

	// Strategies 4 and 5: degrade to provider data, then the stored balance.
	for _, card := range cards {
		if _, ok := matches[card.ID]; ok {
			continue
		}
		if len(card.Bills) > 0 && refMonth == core.MonthOf(ref) {
			bill, ok := selectCurrentBill(card, ref)
			if ok {
				matches[card.ID] = CardMatch{Strategy: MatchProviderBalance, Amount: bill.TotalAmount}
				continue
			}
		}
		if !card.Balance.IsZero() {
			matches[card.ID] = CardMatch{Strategy: MatchRawBalance, Amount: card.Balance.Abs()}
			continue
		}
		matches[card.ID] = CardMatch{Strategy: MatchNone}
	}

	return matches
}

func distinctAccountIDs(txns []core.Transaction) []string {
	seen := make(map[string]bool)
	for _, t := range txns {
		if t.AccountID != "" {
			seen[t.AccountID] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedByID(cards []core.CardAccount) []core.CardAccount {
	out := make([]core.CardAccount, len(cards))
	copy(out, cards)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
