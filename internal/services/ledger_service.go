package services

import (
	"context"
	"fmt"
	"log/slog"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/storage"
)

// LedgerService orchestrates transaction writes across SQLite and AMQP.
// Events are published after commit; a publish failure is logged and
// never fails the request.
type LedgerService struct {
	store  *storage.Store
	events *amqp.Client
}

func NewLedgerService(store *storage.Store, events *amqp.Client) *LedgerService {
	return &LedgerService{
		store:  store,
		events: events,
	}
}

// CreateExpense records one outflow from a wallet under a category.
func (s *LedgerService) CreateExpense(ctx context.Context, in core.NewExpense) (core.TransactionEvent, error) {
	if err := in.Validate(); err != nil {
		return core.TransactionEvent{}, err
	}
	return s.create(ctx, storage.CreateTransactionParams{
		Type:           core.TxExpense,
		OccurredAt:     in.OccurredAt,
		Note:           in.Note,
		Payee:          in.Payee,
		CategoryID:     &in.CategoryID,
		IdempotencyKey: in.IdempotencyKey,
		Postings:       in.Postings(),
	})
}

// CreateIncome records one inflow into a wallet.
func (s *LedgerService) CreateIncome(ctx context.Context, in core.NewIncome) (core.TransactionEvent, error) {
	if err := in.Validate(); err != nil {
		return core.TransactionEvent{}, err
	}
	return s.create(ctx, storage.CreateTransactionParams{
		Type:           core.TxIncome,
		OccurredAt:     in.OccurredAt,
		Note:           in.Note,
		Payee:          in.Payee,
		IdempotencyKey: in.IdempotencyKey,
		Postings:       in.Postings(),
	})
}

// CreateTransfer moves money between two distinct wallets.
func (s *LedgerService) CreateTransfer(ctx context.Context, in core.NewTransfer) (core.TransactionEvent, error) {
	if err := in.Validate(); err != nil {
		return core.TransactionEvent{}, err
	}
	return s.create(ctx, storage.CreateTransactionParams{
		Type:           core.TxTransfer,
		OccurredAt:     in.OccurredAt,
		Note:           in.Note,
		Payee:          in.Payee,
		IdempotencyKey: in.IdempotencyKey,
		Postings:       in.Postings(),
	})
}

// CreateSavingsContribution moves money from a wallet into a bucket.
func (s *LedgerService) CreateSavingsContribution(ctx context.Context, in core.NewSavingsMovement) (core.TransactionEvent, error) {
	if err := in.Validate(); err != nil {
		return core.TransactionEvent{}, err
	}
	return s.create(ctx, storage.CreateTransactionParams{
		Type:           core.TxSavingsContribution,
		OccurredAt:     in.OccurredAt,
		Note:           in.Note,
		Payee:          in.Payee,
		IdempotencyKey: in.IdempotencyKey,
		Postings:       in.ContributionPostings(),
	})
}

// CreateSavingsWithdrawal moves money from a bucket back into a wallet.
func (s *LedgerService) CreateSavingsWithdrawal(ctx context.Context, in core.NewSavingsMovement) (core.TransactionEvent, error) {
	if err := in.Validate(); err != nil {
		return core.TransactionEvent{}, err
	}
	return s.create(ctx, storage.CreateTransactionParams{
		Type:           core.TxSavingsWithdrawal,
		OccurredAt:     in.OccurredAt,
		Note:           in.Note,
		Payee:          in.Payee,
		IdempotencyKey: in.IdempotencyKey,
		Postings:       in.WithdrawalPostings(),
	})
}

func (s *LedgerService) create(ctx context.Context, p storage.CreateTransactionParams) (core.TransactionEvent, error) {
	ev, err := s.store.CreateTransaction(ctx, p)
	if err != nil {
		return core.TransactionEvent{}, err
	}
	s.publish(ctx, amqp.EventTransactionCreated, ev.ID, ev.Type)
	return ev, nil
}

// UpdateExpense rewrites an expense's fields and postings. The
// idempotency key is fixed at creation and ignored here.
func (s *LedgerService) UpdateExpense(ctx context.Context, id int64, in core.NewExpense) (core.TransactionEvent, error) {
	if err := in.Validate(); err != nil {
		return core.TransactionEvent{}, err
	}
	return s.update(ctx, id, core.TxExpense, storage.CreateTransactionParams{
		OccurredAt: in.OccurredAt,
		Note:       in.Note,
		Payee:      in.Payee,
		CategoryID: &in.CategoryID,
		Postings:   in.Postings(),
	})
}

func (s *LedgerService) UpdateIncome(ctx context.Context, id int64, in core.NewIncome) (core.TransactionEvent, error) {
	if err := in.Validate(); err != nil {
		return core.TransactionEvent{}, err
	}
	return s.update(ctx, id, core.TxIncome, storage.CreateTransactionParams{
		OccurredAt: in.OccurredAt,
		Note:       in.Note,
		Payee:      in.Payee,
		Postings:   in.Postings(),
	})
}

func (s *LedgerService) UpdateTransfer(ctx context.Context, id int64, in core.NewTransfer) (core.TransactionEvent, error) {
	if err := in.Validate(); err != nil {
		return core.TransactionEvent{}, err
	}
	return s.update(ctx, id, core.TxTransfer, storage.CreateTransactionParams{
		OccurredAt: in.OccurredAt,
		Note:       in.Note,
		Payee:      in.Payee,
		Postings:   in.Postings(),
	})
}

func (s *LedgerService) UpdateSavingsContribution(ctx context.Context, id int64, in core.NewSavingsMovement) (core.TransactionEvent, error) {
	if err := in.Validate(); err != nil {
		return core.TransactionEvent{}, err
	}
	return s.update(ctx, id, core.TxSavingsContribution, storage.CreateTransactionParams{
		OccurredAt: in.OccurredAt,
		Note:       in.Note,
		Payee:      in.Payee,
		Postings:   in.ContributionPostings(),
	})
}

func (s *LedgerService) UpdateSavingsWithdrawal(ctx context.Context, id int64, in core.NewSavingsMovement) (core.TransactionEvent, error) {
	if err := in.Validate(); err != nil {
		return core.TransactionEvent{}, err
	}
	return s.update(ctx, id, core.TxSavingsWithdrawal, storage.CreateTransactionParams{
		OccurredAt: in.OccurredAt,
		Note:       in.Note,
		Payee:      in.Payee,
		Postings:   in.WithdrawalPostings(),
	})
}

func (s *LedgerService) update(ctx context.Context, id int64, typ core.TransactionType, p storage.CreateTransactionParams) (core.TransactionEvent, error) {
	p.Type = typ
	ev, err := s.store.UpdateTransaction(ctx, id, typ, p)
	if err != nil {
		return core.TransactionEvent{}, err
	}
	s.publish(ctx, amqp.EventTransactionUpdated, ev.ID, ev.Type)
	return ev, nil
}

// SoftDelete excludes the transaction from every aggregation until
// restored.
func (s *LedgerService) SoftDelete(ctx context.Context, id int64) error {
	if err := s.store.SoftDeleteTransaction(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction soft-deleted", "id", id)
	s.publish(ctx, amqp.EventTransactionDeleted, id, "")
	return nil
}

func (s *LedgerService) Restore(ctx context.Context, id int64) error {
	if err := s.store.RestoreTransaction(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction restored", "id", id)
	s.publish(ctx, amqp.EventTransactionRestored, id, "")
	return nil
}

// PermanentDelete removes the event and postings for good.
func (s *LedgerService) PermanentDelete(ctx context.Context, id int64) error {
	if err := s.store.PermanentDeleteTransaction(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction permanently deleted", "id", id)
	s.publish(ctx, amqp.EventTransactionPurged, id, "")
	return nil
}

func (s *LedgerService) Get(ctx context.Context, id int64, includeDeleted bool) (core.TransactionEvent, error) {
	return s.store.GetTransaction(ctx, id, includeDeleted)
}

func (s *LedgerService) List(ctx context.Context, f storage.TransactionFilter) ([]core.TransactionEvent, error) {
	return s.store.ListTransactions(ctx, f)
}

// BulkDelete hard-deletes the existing subset of ids and reports the
// missing ones as data, not as an error.
func (s *LedgerService) BulkDelete(ctx context.Context, ids []int64) (core.BulkDeleteResult, error) {
	if len(ids) == 0 {
		return core.BulkDeleteResult{}, &core.ValidationError{Field: "ids", Reason: "at least one id is required"}
	}
	if len(ids) > core.MaxBulkDelete {
		return core.BulkDeleteResult{}, &core.ValidationError{Field: "ids", Reason: fmt.Sprintf("at most %d ids per request", core.MaxBulkDelete)}
	}
	result, err := s.store.BulkDeleteTransactions(ctx, ids)
	if err != nil {
		return core.BulkDeleteResult{}, err
	}
	slog.InfoContext(ctx, "Bulk transaction delete",
		"requested", len(ids),
		"deleted", result.DeletedCount,
		"failed", len(result.FailedIDs))
	return result, nil
}

// WalletBalance recomputes the balance from postings on every call;
// there is no cached running total to drift.
func (s *LedgerService) WalletBalance(ctx context.Context, walletID int64) (int64, error) {
	if _, err := s.store.GetWallet(ctx, walletID); err != nil {
		return 0, err
	}
	return s.store.WalletBalance(ctx, walletID)
}

func (s *LedgerService) BucketBalance(ctx context.Context, bucketID int64) (int64, error) {
	if _, err := s.store.GetSavingsBucket(ctx, bucketID); err != nil {
		return 0, err
	}
	return s.store.BucketBalance(ctx, bucketID)
}

func (s *LedgerService) WalletStats(ctx context.Context, walletID int64) (core.WalletStats, error) {
	if _, err := s.store.GetWallet(ctx, walletID); err != nil {
		return core.WalletStats{}, err
	}
	return s.store.WalletStats(ctx, walletID)
}

func (s *LedgerService) publish(ctx context.Context, event string, id int64, typ core.TransactionType) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, event, id, string(typ)); err != nil {
		// The write already committed; the event stream is best-effort.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"event", event,
			"transaction_id", id,
			"error", err)
	}
}

// Close closes both storage and AMQP connections.
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
