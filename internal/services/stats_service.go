package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"grana/internal/cache"
	"grana/internal/core"
	"grana/internal/engine"
)

// SnapshotSource loads the raw records one computation pass runs on.
type SnapshotSource interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ListCards(ctx context.Context) ([]core.CardAccount, error)
	ListSubscriptions(ctx context.Context) ([]core.Subscription, error)
}

// StatsService computes dashboard stats from the stored snapshot and
// memoizes results keyed by a content hash of the inputs. The hash is the
// invalidation: any change to the underlying records or to the requested
// settings produces a different key.
type StatsService struct {
	source  SnapshotSource
	payroll *core.PayrollConfig
	memo    *cache.LRUCache[core.DashboardStats]
	now     func() time.Time
}

func NewStatsService(source SnapshotSource, payroll *core.PayrollConfig) *StatsService {
	return &StatsService{
		source:  source,
		payroll: payroll,
		memo:    cache.NewLRUCache[core.DashboardStats](64, 5*time.Minute),
		now:     time.Now,
	}
}

// Dashboard returns stats for the month containing refDate (or the current
// month when refDate is zero), under the given settings.
func (s *StatsService) Dashboard(ctx context.Context, settings core.Settings, refDate time.Time) (core.DashboardStats, error) {
	snap, err := s.loadSnapshot(ctx, settings, refDate)
	if err != nil {
		return core.DashboardStats{}, err
	}

	key, err := cache.SnapshotKey(snap)
	if err != nil {
		slog.WarnContext(ctx, "snapshot hashing failed, computing uncached", "error", err)
		return engine.ComputeStats(snap), nil
	}

	if stats, ok := s.memo.Get(key); ok {
		slog.DebugContext(ctx, "dashboard stats served from cache", "snapshot_key", key[:12])
		return stats, nil
	}

	stats := engine.ComputeStats(snap)
	s.memo.Set(key, stats)
	return stats, nil
}

// CardInvoices returns the invoice set for one card under the given
// settings, or an error when the card is unknown.
func (s *StatsService) CardInvoices(ctx context.Context, cardID string, settings core.Settings, refDate time.Time) (core.CardInvoices, error) {
	stats, err := s.Dashboard(ctx, settings, refDate)
	if err != nil {
		return core.CardInvoices{}, err
	}
	for _, ci := range stats.Cards {
		if ci.CardID == cardID {
			return ci, nil
		}
	}
	return core.CardInvoices{}, fmt.Errorf("card %s: %w", cardID, core.ErrCardNotFound)
}

func (s *StatsService) loadSnapshot(ctx context.Context, settings core.Settings, refDate time.Time) (engine.Snapshot, error) {
	txns, err := s.source.ListTransactions(ctx)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("load transactions: %w", err)
	}
	cards, err := s.source.ListCards(ctx)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("load cards: %w", err)
	}
	subs, err := s.source.ListSubscriptions(ctx)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("load subscriptions: %w", err)
	}

	if refDate.IsZero() {
		refDate = s.now()
	}

	return engine.Snapshot{
		Transactions:   txns,
		Cards:          cards,
		Subscriptions:  subs,
		Settings:       settings,
		Payroll:        s.payroll,
		ReferenceDate:  refDate,
		ReferenceMonth: core.MonthOf(refDate),
	}, nil
}
