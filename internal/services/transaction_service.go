// Package services orchestrates the repository, the computation engine and
// the sync transport. Handlers call services, never storage or the engine
// directly.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"grana/internal/amqp"
	"grana/internal/core"
)

// TransactionStore is the slice of the repository the transaction service
// needs.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (string, error)
	Close() error
}

// SyncPublisher notifies the worker that local state changed so it can
// reload and re-export.
type SyncPublisher interface {
	PublishProviderSync(ctx context.Context, msg *amqp.ProviderSyncMessage) error
	Close() error
}

// TransactionService persists manual entries and nudges the worker.
type TransactionService struct {
	storage   TransactionStore
	publisher SyncPublisher
}

func NewTransactionService(storage TransactionStore, publisher SyncPublisher) *TransactionService {
	return &TransactionService{
		storage:   storage,
		publisher: publisher,
	}
}

// CreateTransaction saves the transaction locally and publishes a change
// notification. The notification carries no payload; the worker reloads
// state from the database, so a lost message costs freshness, never data.
func (s *TransactionService) CreateTransaction(ctx context.Context, t core.Transaction) (string, error) {
	id, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	if err := s.publishChangeNotification(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"transaction_id", id, "error", err)
		// The transaction is saved locally; do not fail the request.
	}

	return id, nil
}

func (s *TransactionService) publishChangeNotification(ctx context.Context) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.publisher.PublishProviderSync(ctx, amqp.NewProviderSyncMessage("local"))
}

// Close closes both storage and AMQP connections.
func (s *TransactionService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}

	return nil
}
