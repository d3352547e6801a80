package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"grana/internal/core"
)

// parseSettings reads the computation toggles from the query string.
// Booleans accept "1"/"true", enabled_cards is a comma-separated id list,
// invoice_types pairs "cardID:type" entries with commas between them.
func parseSettings(r *http.Request) (core.Settings, error) {
	q := r.URL.Query()

	settings := core.Settings{
		IncludeChecking:    parseBool(q.Get("include_checking")),
		IncludeCreditCard:  parseBool(q.Get("include_credit_card")),
		UseTotalLimit:      parseBool(q.Get("use_total_limit")),
		UseFullLimit:       parseBool(q.Get("use_full_limit")),
		IncludeOpenFinance: parseBool(q.Get("include_open_finance")),
	}

	if v := strings.TrimSpace(q.Get("enabled_cards")); v != "" {
		settings.EnabledCardIDs = make(map[string]bool)
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				settings.EnabledCardIDs[id] = true
			}
		}
	}

	if v := strings.TrimSpace(q.Get("invoice_types")); v != "" {
		settings.InvoiceSelection = make(map[string]core.InvoiceType)
		for _, pair := range strings.Split(v, ",") {
			cardID, kind, ok := strings.Cut(strings.TrimSpace(pair), ":")
			if !ok || cardID == "" {
				return core.Settings{}, fmt.Errorf("invalid invoice_types entry %q", pair)
			}
			switch t := core.InvoiceType(kind); t {
			case core.InvoiceCurrent, core.InvoiceNext, core.InvoiceUsedTotal:
				settings.InvoiceSelection[cardID] = t
			default:
				return core.Settings{}, fmt.Errorf("unknown invoice type %q", kind)
			}
		}
	}

	if v := strings.TrimSpace(q.Get("provider_balance")); v != "" {
		balance, err := core.ParseMoney(v)
		if err != nil {
			return core.Settings{}, fmt.Errorf("invalid provider_balance: %w", err)
		}
		settings.ProviderBalance = balance
	}

	return settings, nil
}

// parseRefDate reads ref_date (YYYY-MM-DD). A zero time means "now"; the
// stats service fills it in.
func parseRefDate(r *http.Request) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get("ref_date"))
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid ref_date: %w", err)
	}
	return t, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
