package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"grana/internal/amqp"
	"grana/internal/core"
	"grana/internal/services"
	"grana/internal/sheets"
)

type fakeProviderStore struct {
	cards   []core.CardAccount
	txns    []core.Transaction
	cardErr error
}

func (f *fakeProviderStore) UpsertCard(_ context.Context, card core.CardAccount) error {
	if f.cardErr != nil {
		return f.cardErr
	}
	f.cards = append(f.cards, card)
	return nil
}

func (f *fakeProviderStore) UpsertTransaction(_ context.Context, t core.Transaction) error {
	f.txns = append(f.txns, t)
	return nil
}

type fakeSnapshotSource struct{}

func (fakeSnapshotSource) ListTransactions(context.Context) ([]core.Transaction, error) {
	return nil, nil
}
func (fakeSnapshotSource) ListCards(context.Context) ([]core.CardAccount, error) {
	return nil, nil
}
func (fakeSnapshotSource) ListSubscriptions(context.Context) ([]core.Subscription, error) {
	return nil, nil
}

type fakeSummaryWriter struct {
	months []core.MonthKey
	err    error
}

func (f *fakeSummaryWriter) AppendMonthlySummary(_ context.Context, month core.MonthKey, _ core.DashboardStats) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.months = append(f.months, month)
	return "Resumo!A2:I2", nil
}

func newWorker(store ProviderStore, summary *fakeSummaryWriter) *SyncWorker {
	stats := services.NewStatsService(fakeSnapshotSource{}, nil)
	var writer sheets.SummaryWriter
	if summary != nil {
		writer = summary
	}
	w := NewSyncWorker(store, stats, writer, core.Settings{})
	w.now = func() time.Time { return time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) }
	return w
}

func snapshotMessage() *amqp.ProviderSyncMessage {
	msg := amqp.NewProviderSyncMessage("provider-1")
	msg.Cards = []amqp.CardPayload{{
		ID:          "card-1",
		Name:        "Principal",
		ClosingDay:  10,
		CreditLimit: "5000.00",
		Balance:     "-320.75",
	}}
	msg.Transactions = []amqp.TransactionPayload{{
		ID:          "prov-txn-1",
		Date:        "2025-06-05",
		Description: "Mercado",
		Amount:      "-89.90",
		Kind:        "checking",
	}}
	return msg
}

func TestHandleSyncMessagePersistsSnapshot(t *testing.T) {
	store := &fakeProviderStore{}
	summary := &fakeSummaryWriter{}
	w := newWorker(store, summary)

	if err := w.HandleSyncMessage(context.Background(), snapshotMessage()); err != nil {
		t.Fatalf("HandleSyncMessage() error: %v", err)
	}
	if len(store.cards) != 1 || store.cards[0].ID != "card-1" {
		t.Errorf("cards = %+v, want one card-1", store.cards)
	}
	if len(store.txns) != 1 || store.txns[0].ID != "prov-txn-1" {
		t.Errorf("transactions = %+v, want one prov-txn-1", store.txns)
	}
	if len(summary.months) != 1 || summary.months[0] != "2025-06" {
		t.Errorf("exported months = %v, want [2025-06]", summary.months)
	}
}

func TestHandleSyncMessageRejectsMalformedCard(t *testing.T) {
	store := &fakeProviderStore{}
	w := newWorker(store, nil)

	msg := snapshotMessage()
	msg.Cards[0].CreditLimit = "muito"
	if err := w.HandleSyncMessage(context.Background(), msg); err == nil {
		t.Fatal("expected error for malformed card payload")
	}
	if len(store.cards) != 0 {
		t.Errorf("persisted %d cards from malformed message", len(store.cards))
	}
}

func TestHandleSyncMessagePropagatesStoreError(t *testing.T) {
	store := &fakeProviderStore{cardErr: errors.New("db locked")}
	w := newWorker(store, nil)

	if err := w.HandleSyncMessage(context.Background(), snapshotMessage()); err == nil {
		t.Fatal("expected error when persistence fails")
	}
}

func TestHandleSyncMessageSurvivesExportFailure(t *testing.T) {
	store := &fakeProviderStore{}
	summary := &fakeSummaryWriter{err: errors.New("quota exceeded")}
	w := newWorker(store, summary)

	if err := w.HandleSyncMessage(context.Background(), snapshotMessage()); err != nil {
		t.Fatalf("HandleSyncMessage() error: %v, want nil when only the export fails", err)
	}
}

func TestHandleChangeNotificationOnlyExports(t *testing.T) {
	store := &fakeProviderStore{}
	summary := &fakeSummaryWriter{}
	w := newWorker(store, summary)

	if err := w.HandleSyncMessage(context.Background(), amqp.NewProviderSyncMessage("local")); err != nil {
		t.Fatalf("HandleSyncMessage() error: %v", err)
	}
	if len(store.cards) != 0 || len(store.txns) != 0 {
		t.Error("change notification must not persist anything")
	}
	if len(summary.months) != 1 {
		t.Errorf("exported %d summaries, want 1", len(summary.months))
	}
}

func TestExportMonthlySummaryWithoutWriter(t *testing.T) {
	w := newWorker(&fakeProviderStore{}, nil)
	if err := w.ExportMonthlySummary(context.Background()); err != nil {
		t.Fatalf("ExportMonthlySummary() error: %v", err)
	}
}
