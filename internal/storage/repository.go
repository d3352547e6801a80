// Package storage persists the dashboard's raw records: transactions, card
// accounts with their provider-reported bills, and subscription definitions.
// The engine never touches storage; the repository produces the immutable
// snapshot one computation pass runs on.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"grana/internal/core"
)

const dateLayout = time.RFC3339

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateTransaction validates and inserts one transaction, minting a uuid
// when the record carries none (manual entries).
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("validate transaction: %w", err)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (
			id, date, description, amount_cents, category, flow, kind, status,
			account_id, card_id, invoice_month, invoice_due_date, is_projected,
			manual_invoice_month, subscription_id, is_refund
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Date.UTC().Format(dateLayout), t.Description, t.Amount.Cents,
		t.Category, string(t.Flow), string(t.Kind), string(t.Status),
		t.AccountID, t.CardID, string(t.InvoiceMonth), formatOptionalDate(t.InvoiceDueDate),
		boolToInt(t.IsProjected), string(t.ManualInvoiceMonth), t.SubscriptionID, boolToInt(t.IsRefund),
	)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "transaction saved",
		"transaction_id", t.ID,
		"amount_cents", t.Amount.Cents,
		"kind", string(t.Kind))
	return t.ID, nil
}

// UpsertTransaction inserts or replaces a provider transaction. Providers
// re-send whole snapshots, so ingestion must be idempotent on the id.
func (r *SQLiteRepository) UpsertTransaction(ctx context.Context, t core.Transaction) error {
	if t.ID == "" {
		return fmt.Errorf("upsert transaction: missing id")
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validate transaction: %w", err)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (
			id, date, description, amount_cents, category, flow, kind, status,
			account_id, card_id, invoice_month, invoice_due_date, is_projected,
			manual_invoice_month, subscription_id, is_refund
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			description = excluded.description,
			amount_cents = excluded.amount_cents,
			category = excluded.category,
			flow = excluded.flow,
			kind = excluded.kind,
			status = excluded.status,
			account_id = excluded.account_id,
			card_id = excluded.card_id,
			invoice_month = excluded.invoice_month,
			invoice_due_date = excluded.invoice_due_date,
			is_projected = excluded.is_projected,
			is_refund = excluded.is_refund`,
		t.ID, t.Date.UTC().Format(dateLayout), t.Description, t.Amount.Cents,
		t.Category, string(t.Flow), string(t.Kind), string(t.Status),
		t.AccountID, t.CardID, string(t.InvoiceMonth), formatOptionalDate(t.InvoiceDueDate),
		boolToInt(t.IsProjected), string(t.ManualInvoiceMonth), t.SubscriptionID, boolToInt(t.IsRefund),
	)
	if err != nil {
		return fmt.Errorf("upsert transaction: %w", err)
	}
	return nil
}

// ListTransactions returns every stored transaction. Records whose date no
// longer parses are logged and skipped so one corrupt row cannot abort a
// computation pass.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, description, amount_cents, category, flow, kind, status,
			account_id, card_id, invoice_month, invoice_due_date, is_projected,
			manual_invoice_month, subscription_id, is_refund
		FROM transactions ORDER BY date DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t                   core.Transaction
			dateStr, dueStr     string
			flow, kind, status  string
			invMonth, manMonth  string
			isProjected, refund int64
		)
		if err := rows.Scan(&t.ID, &dateStr, &t.Description, &t.Amount.Cents,
			&t.Category, &flow, &kind, &status, &t.AccountID, &t.CardID,
			&invMonth, &dueStr, &isProjected, &manMonth, &t.SubscriptionID, &refund); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		parsed, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			slog.WarnContext(ctx, "transaction skipped",
				"transaction_id", t.ID, "reason", "unparsable date", "raw_date", dateStr)
			continue
		}
		t.Date = parsed
		t.Flow = core.FlowKind(flow)
		t.Kind = core.TransactionKind(kind)
		t.Status = core.TransactionStatus(status)
		t.InvoiceMonth = core.MonthKey(invMonth)
		t.ManualInvoiceMonth = core.MonthKey(manMonth)
		t.InvoiceDueDate = parseOptionalDate(dueStr)
		t.IsProjected = isProjected != 0
		t.IsRefund = refund != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpsertCard replaces the card row and its bills with the provider snapshot.
func (r *SQLiteRepository) UpsertCard(ctx context.Context, card core.CardAccount) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin card upsert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO card_accounts (
			id, name, closing_day, credit_limit_cents, available_limit_cents,
			has_available_limit, used_limit_cents, has_used_limit, balance_cents, connection_mode
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			closing_day = excluded.closing_day,
			credit_limit_cents = excluded.credit_limit_cents,
			available_limit_cents = excluded.available_limit_cents,
			has_available_limit = excluded.has_available_limit,
			used_limit_cents = excluded.used_limit_cents,
			has_used_limit = excluded.has_used_limit,
			balance_cents = excluded.balance_cents,
			connection_mode = excluded.connection_mode`,
		card.ID, card.Name, card.ClosingDay, card.CreditLimit.Cents,
		card.AvailableCreditLimit.Cents, boolToInt(card.HasAvailableLimit),
		card.UsedCreditLimit.Cents, boolToInt(card.HasUsedLimit),
		card.Balance.Cents, string(card.ConnectionMode),
	)
	if err != nil {
		return fmt.Errorf("upsert card: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bills WHERE card_id = ?`, card.ID); err != nil {
		return fmt.Errorf("clear card bills: %w", err)
	}
	for _, bill := range card.Bills {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bills (card_id, due_date, total_cents, state) VALUES (?, ?, ?, ?)`,
			card.ID, bill.DueDate.UTC().Format(dateLayout), bill.TotalAmount.Cents, string(bill.State))
		if err != nil {
			return fmt.Errorf("insert bill: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit card upsert: %w", err)
	}
	slog.InfoContext(ctx, "card snapshot saved", "card_id", card.ID, "bills", len(card.Bills))
	return nil
}

// ListCards returns all card accounts with bills ordered by due date.
func (r *SQLiteRepository) ListCards(ctx context.Context) ([]core.CardAccount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, closing_day, credit_limit_cents, available_limit_cents,
			has_available_limit, used_limit_cents, has_used_limit, balance_cents, connection_mode
		FROM card_accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	var cards []core.CardAccount
	for rows.Next() {
		var (
			c                 core.CardAccount
			hasAvail, hasUsed int64
			mode              string
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.ClosingDay, &c.CreditLimit.Cents,
			&c.AvailableCreditLimit.Cents, &hasAvail, &c.UsedCreditLimit.Cents,
			&hasUsed, &c.Balance.Cents, &mode); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		c.HasAvailableLimit = hasAvail != 0
		c.HasUsedLimit = hasUsed != 0
		c.ConnectionMode = core.ConnectionMode(mode)
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range cards {
		bills, err := r.listBills(ctx, cards[i].ID)
		if err != nil {
			return nil, err
		}
		cards[i].Bills = bills
	}
	return cards, nil
}

func (r *SQLiteRepository) listBills(ctx context.Context, cardID string) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT due_date, total_cents, state FROM bills WHERE card_id = ? ORDER BY due_date`, cardID)
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}
	defer rows.Close()

	var bills []core.Bill
	for rows.Next() {
		var (
			b      core.Bill
			dueStr string
			state  string
		)
		if err := rows.Scan(&dueStr, &b.TotalAmount.Cents, &state); err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		due, err := time.Parse(dateLayout, dueStr)
		if err != nil {
			slog.WarnContext(ctx, "bill skipped",
				"card_id", cardID, "reason", "unparsable due date", "raw_date", dueStr)
			continue
		}
		b.DueDate = due
		b.State = core.BillState(state)
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

// UpsertSubscription saves a subscription definition. Paid months are kept
// separately and only ever added to.
func (r *SQLiteRepository) UpsertSubscription(ctx context.Context, sub core.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if err := sub.Validate(); err != nil {
		return fmt.Errorf("validate subscription: %w", err)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (id, name, amount_cents, cycle, active) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			amount_cents = excluded.amount_cents,
			cycle = excluded.cycle,
			active = excluded.active`,
		sub.ID, sub.Name, sub.Amount.Cents, string(sub.Cycle), boolToInt(sub.Active))
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// MarkSubscriptionPaid records a settled month. The set is monotonic:
// repeated marks are no-ops and nothing ever removes an entry.
func (r *SQLiteRepository) MarkSubscriptionPaid(ctx context.Context, subscriptionID string, month core.MonthKey) error {
	if !month.Valid() {
		return fmt.Errorf("mark subscription paid: invalid month %q", month)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO subscription_paid_months (subscription_id, month) VALUES (?, ?)`,
		subscriptionID, string(month))
	if err != nil {
		return fmt.Errorf("mark subscription paid: %w", err)
	}
	return nil
}

// ListSubscriptions returns all definitions with their paid-month sets.
func (r *SQLiteRepository) ListSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, amount_cents, cycle, active FROM subscriptions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []core.Subscription
	for rows.Next() {
		var (
			s      core.Subscription
			cycle  string
			active int64
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Amount.Cents, &cycle, &active); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		s.Cycle = core.BillingCycle(cycle)
		s.Active = active != 0
		s.PaidMonths = make(map[core.MonthKey]bool)
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range subs {
		months, err := r.listPaidMonths(ctx, subs[i].ID)
		if err != nil {
			return nil, err
		}
		for _, m := range months {
			subs[i].PaidMonths[m] = true
		}
	}
	return subs, nil
}

func (r *SQLiteRepository) listPaidMonths(ctx context.Context, subscriptionID string) ([]core.MonthKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT month FROM subscription_paid_months WHERE subscription_id = ? ORDER BY month`, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("query paid months: %w", err)
	}
	defer rows.Close()

	var months []core.MonthKey
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan paid month: %w", err)
		}
		months = append(months, core.MonthKey(m))
	}
	return months, rows.Err()
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func formatOptionalDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func parseOptionalDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
