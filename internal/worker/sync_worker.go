// Package worker ingests provider snapshots and keeps the exported monthly
// summary current.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"grana/internal/amqp"
	"grana/internal/core"
	"grana/internal/services"
	"grana/internal/sheets"
)

// ProviderStore is the slice of the repository the worker writes through.
type ProviderStore interface {
	UpsertCard(ctx context.Context, card core.CardAccount) error
	UpsertTransaction(ctx context.Context, t core.Transaction) error
}

// SyncWorker persists provider snapshots and re-exports the dashboard
// summary after each change. The summary writer is optional; without it the
// worker only ingests.
type SyncWorker struct {
	storage  ProviderStore
	stats    *services.StatsService
	summary  sheets.SummaryWriter
	settings core.Settings
	now      func() time.Time
}

func NewSyncWorker(storage ProviderStore, stats *services.StatsService, summary sheets.SummaryWriter, settings core.Settings) *SyncWorker {
	return &SyncWorker{
		storage:  storage,
		stats:    stats,
		summary:  summary,
		settings: settings,
		now:      time.Now,
	}
}

// HandleSyncMessage ingests one provider snapshot. Change notifications
// without payload (published after manual entries) skip straight to the
// export. A malformed card or transaction fails the whole message so the
// broker redelivers it.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ProviderSyncMessage) error {
	slog.InfoContext(ctx, "Processing provider snapshot",
		"provider_id", msg.ProviderID,
		"cards", len(msg.Cards),
		"transactions", len(msg.Transactions))

	for _, payload := range msg.Cards {
		card, err := payload.Card()
		if err != nil {
			return fmt.Errorf("decode card: %w", err)
		}
		if err := w.storage.UpsertCard(ctx, card); err != nil {
			return fmt.Errorf("persist card %s: %w", card.ID, err)
		}
	}

	for _, payload := range msg.Transactions {
		txn, err := payload.Transaction()
		if err != nil {
			return fmt.Errorf("decode transaction: %w", err)
		}
		if err := w.storage.UpsertTransaction(ctx, txn); err != nil {
			return fmt.Errorf("persist transaction %s: %w", txn.ID, err)
		}
	}

	if err := w.ExportMonthlySummary(ctx); err != nil {
		// The snapshot is persisted; a failed export must not trigger a
		// redelivery that would re-ingest it.
		slog.ErrorContext(ctx, "Failed to export monthly summary",
			"provider_id", msg.ProviderID, "error", err)
	}

	return nil
}

// ExportMonthlySummary recomputes the current month and appends one row to
// the summary sheet.
func (w *SyncWorker) ExportMonthlySummary(ctx context.Context) error {
	if w.summary == nil {
		slog.DebugContext(ctx, "No summary writer configured, skipping export")
		return nil
	}

	refDate := w.now()
	stats, err := w.stats.Dashboard(ctx, w.settings, refDate)
	if err != nil {
		return fmt.Errorf("compute dashboard stats: %w", err)
	}

	month := core.MonthOf(refDate)
	ref, err := w.summary.AppendMonthlySummary(ctx, month, stats)
	if err != nil {
		return fmt.Errorf("append monthly summary: %w", err)
	}

	slog.InfoContext(ctx, "Monthly summary exported",
		"month", string(month),
		"sheets_ref", ref)
	return nil
}
