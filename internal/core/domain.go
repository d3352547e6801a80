package core

import (
	"errors"
	"strings"
	"time"
)

const (
	KindChecking   TransactionKind = "checking"
	KindCreditCard TransactionKind = "credit_card"
	KindSavings    TransactionKind = "savings"
	KindManual     TransactionKind = "manual"
)

const (
	StatusPosted  TransactionStatus = "posted"
	StatusPending TransactionStatus = "pending"
)

const (
	FlowIncome  FlowKind = "income"
	FlowExpense FlowKind = "expense"
)

const (
	BillOpen   BillState = "open"
	BillClosed BillState = "closed"
)

const (
	ConnectionManual ConnectionMode = "manual"
	ConnectionAuto   ConnectionMode = "auto"
)

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
)

type (
	// TransactionKind is assigned once at ingestion. The engine never
	// re-derives it from free-text account descriptions.
	TransactionKind string

	TransactionStatus string

	FlowKind string

	BillState string

	ConnectionMode string

	BillingCycle string

	// Transaction is an immutable snapshot of one movement for the duration
	// of a computation pass.
	Transaction struct {
		ID          string
		Date        time.Time
		Description string
		Amount      Money // signed, negative for outflows
		Category    string
		Flow        FlowKind
		Kind        TransactionKind
		Status      TransactionStatus
		AccountID   string // optional
		CardID      string // optional

		// Invoice linkage, optional.
		InvoiceMonth       MonthKey
		InvoiceDueDate     time.Time
		IsProjected        bool
		ManualInvoiceMonth MonthKey

		// Back-reference to a subscription when the movement settles one.
		SubscriptionID string
		IsRefund       bool
	}

	// Bill is a provider-reported statement summary for one cycle.
	Bill struct {
		DueDate     time.Time
		TotalAmount Money
		State       BillState
	}

	CardAccount struct {
		ID                   string
		Name                 string
		ClosingDay           int // 1-31, clamped to <=28 by the engine
		CreditLimit          Money
		AvailableCreditLimit Money
		UsedCreditLimit      Money
		HasUsedLimit         bool
		HasAvailableLimit    bool
		Balance              Money
		ConnectionMode       ConnectionMode
		Bills                []Bill // ordered by due date
	}

	// InvoiceItem is one statement line. Payment records (bill payments,
	// credits against the invoice) are flagged so subscription matching can
	// skip them.
	InvoiceItem struct {
		Description string
		Amount      Money
		Flow        FlowKind
		Date        time.Time
		IsPayment   bool
	}

	// Invoice is computed, never persisted. PeriodStart is exclusive,
	// PeriodEnd inclusive. When ProviderSourced is set, TotalAmount is the
	// provider-reported figure and Items are advisory.
	Invoice struct {
		ReferenceMonth  MonthKey
		PeriodStart     time.Time
		PeriodEnd       time.Time
		TotalAmount     Money
		Items           []InvoiceItem
		ProviderSourced bool
	}

	// Subscription is a recurring expense definition. PaidMonths is the
	// authoritative suppression record and only ever grows.
	Subscription struct {
		ID         string
		Name       string
		Amount     Money
		Cycle      BillingCycle
		Active     bool
		PaidMonths map[MonthKey]bool
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidKind      = errors.New("invalid transaction kind")
	ErrInvalidStatus    = errors.New("invalid transaction status")
	ErrCardNotFound     = errors.New("card not found")
)

func (k TransactionKind) Valid() bool {
	switch k {
	case KindChecking, KindCreditCard, KindSavings, KindManual:
		return true
	}
	return false
}

func (s TransactionStatus) Valid() bool {
	return s == StatusPosted || s == StatusPending
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

func (s Subscription) Validate() error {
	if len(strings.TrimSpace(s.Name)) == 0 {
		return ErrEmptyDescription
	}
	if s.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	switch s.Cycle {
	case BillingMonthly, BillingYearly:
	default:
		return errors.New("invalid billing cycle")
	}
	return nil
}

// Paid reports whether the subscription is recorded as settled for the month.
func (s Subscription) Paid(month MonthKey) bool {
	return s.PaidMonths[month]
}

// Enabled reports whether the card participates in aggregate totals.
func (c CardAccount) Enabled(enabledIDs map[string]bool) bool {
	if len(enabledIDs) == 0 {
		return true
	}
	return enabledIDs[c.ID]
}
