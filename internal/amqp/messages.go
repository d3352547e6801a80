package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"grana/internal/core"
)

// ProviderSyncMessage carries a snapshot pushed by the open-finance
// aggregator. Monetary amounts travel as decimal strings ("123.45" or
// "123,45") and are converted to cents when the payload is decoded.
type ProviderSyncMessage struct {
	ProviderID   string               `json:"provider_id"`
	Cards        []CardPayload        `json:"cards,omitempty"`
	Transactions []TransactionPayload `json:"transactions,omitempty"`
	Balance      string               `json:"balance,omitempty"`
	Timestamp    time.Time            `json:"timestamp"`
}

type CardPayload struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	ClosingDay     int           `json:"closing_day"`
	CreditLimit    string        `json:"credit_limit"`
	AvailableLimit *string       `json:"available_limit,omitempty"`
	UsedLimit      *string       `json:"used_limit,omitempty"`
	Balance        string        `json:"balance"`
	Connection     string        `json:"connection,omitempty"`
	Bills          []BillPayload `json:"bills,omitempty"`
}

type BillPayload struct {
	DueDate string `json:"due_date"`
	Amount  string `json:"amount"`
	State   string `json:"state"`
}

type TransactionPayload struct {
	ID          string `json:"id,omitempty"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category,omitempty"`
	Kind        string `json:"kind"`
	Status      string `json:"status,omitempty"`
	AccountID   string `json:"account_id,omitempty"`
	CardID      string `json:"card_id,omitempty"`
	IsRefund    bool   `json:"is_refund,omitempty"`
}

func NewProviderSyncMessage(providerID string) *ProviderSyncMessage {
	return &ProviderSyncMessage{
		ProviderID: providerID,
		Timestamp:  time.Now(),
	}
}

func (m *ProviderSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ProviderSyncMessageFromJSON(data []byte) (*ProviderSyncMessage, error) {
	var msg ProviderSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Card converts the wire payload into a domain card account.
func (p CardPayload) Card() (core.CardAccount, error) {
	limit, err := core.ParseMoney(p.CreditLimit)
	if err != nil {
		return core.CardAccount{}, fmt.Errorf("card %s: credit_limit: %w", p.ID, err)
	}
	balance, err := core.ParseMoney(p.Balance)
	if err != nil {
		return core.CardAccount{}, fmt.Errorf("card %s: balance: %w", p.ID, err)
	}

	card := core.CardAccount{
		ID:             p.ID,
		Name:           p.Name,
		ClosingDay:     p.ClosingDay,
		CreditLimit:    limit,
		Balance:        balance,
		ConnectionMode: core.ConnectionMode(p.Connection),
	}
	if card.ConnectionMode == "" {
		card.ConnectionMode = core.ConnectionAuto
	}

	if p.AvailableLimit != nil {
		avail, err := core.ParseMoney(*p.AvailableLimit)
		if err != nil {
			return core.CardAccount{}, fmt.Errorf("card %s: available_limit: %w", p.ID, err)
		}
		card.AvailableCreditLimit = avail
		card.HasAvailableLimit = true
	}
	if p.UsedLimit != nil {
		used, err := core.ParseMoney(*p.UsedLimit)
		if err != nil {
			return core.CardAccount{}, fmt.Errorf("card %s: used_limit: %w", p.ID, err)
		}
		card.UsedCreditLimit = used
		card.HasUsedLimit = true
	}

	for _, bp := range p.Bills {
		bill, err := bp.Bill()
		if err != nil {
			return core.CardAccount{}, fmt.Errorf("card %s: %w", p.ID, err)
		}
		card.Bills = append(card.Bills, bill)
	}

	return card, nil
}

func (p BillPayload) Bill() (core.Bill, error) {
	due, err := time.Parse("2006-01-02", p.DueDate)
	if err != nil {
		return core.Bill{}, fmt.Errorf("bill due_date %q: %w", p.DueDate, err)
	}
	amount, err := core.ParseMoney(p.Amount)
	if err != nil {
		return core.Bill{}, fmt.Errorf("bill %s: amount: %w", p.DueDate, err)
	}
	state := core.BillState(p.State)
	if state != core.BillOpen && state != core.BillClosed {
		return core.Bill{}, fmt.Errorf("bill %s: unknown state %q", p.DueDate, p.State)
	}
	return core.Bill{DueDate: due, TotalAmount: amount, State: state}, nil
}

// Transaction converts the wire payload into a domain transaction.
// The amount sign convention follows the provider: negative is money out.
func (p TransactionPayload) Transaction() (core.Transaction, error) {
	date, err := time.Parse("2006-01-02", p.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: date %q: %w", p.ID, p.Date, err)
	}
	amount, err := core.ParseMoney(p.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: amount: %w", p.ID, err)
	}

	kind := core.TransactionKind(p.Kind)
	status := core.TransactionStatus(p.Status)
	if status == "" {
		status = core.StatusPosted
	}

	flow := core.FlowExpense
	if amount.Cents > 0 {
		flow = core.FlowIncome
	}

	return core.Transaction{
		ID:          p.ID,
		Date:        date,
		Description: p.Description,
		Amount:      amount,
		Category:    p.Category,
		Flow:        flow,
		Kind:        kind,
		Status:      status,
		AccountID:   p.AccountID,
		CardID:      p.CardID,
		IsRefund:    p.IsRefund,
	}, nil
}
