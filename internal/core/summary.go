package core

// InvoiceType selects which figure the reconciler reports for a card.
type InvoiceType string

const (
	InvoiceCurrent   InvoiceType = "current"
	InvoiceNext      InvoiceType = "next"
	InvoiceUsedTotal InvoiceType = "used_total"
)

// Settings is the caller-supplied computation toggle bundle.
type Settings struct {
	IncludeChecking    bool
	IncludeCreditCard  bool
	UseTotalLimit      bool
	UseFullLimit       bool
	IncludeOpenFinance bool
	EnabledCardIDs     map[string]bool
	// Per-card invoice-type selection; cards absent from the map use
	// InvoiceCurrent.
	InvoiceSelection map[string]InvoiceType
	// Provider-reported checking balance, used by the projected-balance
	// formula when IncludeChecking is set.
	ProviderBalance Money
}

// InvoiceTypeFor returns the selected invoice type for a card.
func (s Settings) InvoiceTypeFor(cardID string) InvoiceType {
	if t, ok := s.InvoiceSelection[cardID]; ok {
		return t
	}
	return InvoiceCurrent
}

// CardInvoices is the per-card output of the pipeline.
type CardInvoices struct {
	CardID         string
	ClosedInvoice  Invoice
	CurrentInvoice Invoice
	FutureInvoices []Invoice
}

// DashboardStats is the aggregate output of one computation pass.
type DashboardStats struct {
	TotalIncome        Money
	TotalExpense       Money
	TotalBalance       Money
	MonthlySavings     Money
	CreditCardSpending Money
	ProjectedIncome    Money
	ProjectedExpense   Money
	Cards              []CardInvoices
}
