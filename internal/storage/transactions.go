package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"conti/internal/core"
)

// CreateTransactionParams is the storage-level shape of a ledger write:
// one event row plus the postings produced by the shape's template.
type CreateTransactionParams struct {
	Type           core.TransactionType
	OccurredAt     time.Time
	Note           *string
	Payee          *string
	CategoryID     *int64
	IdempotencyKey *string
	Postings       []core.PostingSpec
}

// CreateTransaction persists an event and its postings as one atomic
// unit. Reference and idempotency checks run inside the same
// transaction so partial writes are never observable.
func (s *Store) CreateTransaction(ctx context.Context, p CreateTransactionParams) (core.TransactionEvent, error) {
	var eventID int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkReferences(ctx, tx, p); err != nil {
			return err
		}
		if err := s.checkIdempotencyKey(ctx, tx, p.IdempotencyKey); err != nil {
			return err
		}

		now := fmtTime(time.Now())
		res, err := tx.ExecContext(ctx,
			`INSERT INTO transaction_events (occurred_at, type, note, payee, category_id, idempotency_key, deleted_at, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, NULL, ?, ?)`,
			fmtTime(p.OccurredAt), string(p.Type), nullStr(p.Note), nullStr(p.Payee),
			nullInt(p.CategoryID), nullStr(p.IdempotencyKey), now, now)
		if err != nil {
			if isUniqueViolation(err) {
				return &core.ConflictError{Reason: "transaction with this idempotency key already exists"}
			}
			return &core.StorageError{Op: "insert transaction event", Err: err}
		}
		eventID, err = res.LastInsertId()
		if err != nil {
			return &core.StorageError{Op: "insert transaction event", Err: err}
		}

		return insertPostings(ctx, tx, eventID, p.Postings, now)
	})
	if err != nil {
		return core.TransactionEvent{}, err
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", eventID,
		"type", p.Type,
		"postings", len(p.Postings))

	return s.GetTransaction(ctx, eventID, true)
}

// UpdateTransaction re-validates the shape's preconditions and rewrites
// the event's postings atomically. The event type is immutable; wantType
// must match the stored row.
func (s *Store) UpdateTransaction(ctx context.Context, id int64, wantType core.TransactionType, p CreateTransactionParams) (core.TransactionEvent, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var (
			gotType   string
			deletedAt sql.NullString
		)
		err := tx.QueryRowContext(ctx,
			`SELECT type, deleted_at FROM transaction_events WHERE id = ?`, id).
			Scan(&gotType, &deletedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return &core.NotFoundError{Entity: "transaction", ID: id}
		}
		if err != nil {
			return &core.StorageError{Op: "get transaction event", Err: err}
		}
		if deletedAt.Valid {
			return &core.ConflictError{Reason: "cannot update a deleted transaction"}
		}
		if gotType != string(wantType) {
			return &core.ValidationError{Field: "type", Reason: fmt.Sprintf("transaction %d is %s, not %s", id, gotType, wantType)}
		}

		if err := s.checkReferences(ctx, tx, p); err != nil {
			return err
		}

		now := fmtTime(time.Now())
		if _, err := tx.ExecContext(ctx,
			`UPDATE transaction_events SET occurred_at = ?, note = ?, payee = ?, category_id = ?, updated_at = ?
			 WHERE id = ?`,
			fmtTime(p.OccurredAt), nullStr(p.Note), nullStr(p.Payee), nullInt(p.CategoryID), now, id); err != nil {
			return &core.StorageError{Op: "update transaction event", Err: err}
		}

		// Old postings are replaced, never appended.
		if _, err := tx.ExecContext(ctx, `DELETE FROM postings WHERE event_id = ?`, id); err != nil {
			return &core.StorageError{Op: "delete postings", Err: err}
		}
		return insertPostings(ctx, tx, id, p.Postings, now)
	})
	if err != nil {
		return core.TransactionEvent{}, err
	}

	slog.InfoContext(ctx, "Transaction updated", "id", id, "type", wantType)
	return s.GetTransaction(ctx, id, true)
}

// SoftDeleteTransaction marks the event deleted, excluding it and its
// postings from every aggregation until restored.
func (s *Store) SoftDeleteTransaction(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		deletedAt, err := eventDeletedAt(ctx, tx, id)
		if err != nil {
			return err
		}
		if deletedAt.Valid {
			return &core.ConflictError{Reason: "transaction already deleted"}
		}
		now := fmtTime(time.Now())
		if _, err := tx.ExecContext(ctx,
			`UPDATE transaction_events SET deleted_at = ?, updated_at = ? WHERE id = ?`, now, now, id); err != nil {
			return &core.StorageError{Op: "soft delete transaction", Err: err}
		}
		return nil
	})
}

// RestoreTransaction clears deleted_at, reincluding the event in
// aggregations immediately.
func (s *Store) RestoreTransaction(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		deletedAt, err := eventDeletedAt(ctx, tx, id)
		if err != nil {
			return err
		}
		if !deletedAt.Valid {
			return &core.ConflictError{Reason: "transaction is not deleted"}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE transaction_events SET deleted_at = NULL, updated_at = ? WHERE id = ?`,
			fmtTime(time.Now()), id); err != nil {
			return &core.StorageError{Op: "restore transaction", Err: err}
		}
		return nil
	})
}

// PermanentDeleteTransaction removes the event and its postings. This
// is irreversible and works from either lifecycle state.
func (s *Store) PermanentDeleteTransaction(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := eventDeletedAt(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM postings WHERE event_id = ?`, id); err != nil {
			return &core.StorageError{Op: "delete postings", Err: err}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM transaction_events WHERE id = ?`, id); err != nil {
			return &core.StorageError{Op: "delete transaction event", Err: err}
		}
		return nil
	})
}

// BulkDeleteTransactions hard-deletes the ids that exist and reports
// the rest as failed. The found subset commits even when failedIds is
// non-empty.
func (s *Store) BulkDeleteTransactions(ctx context.Context, ids []int64) (core.BulkDeleteResult, error) {
	result := core.BulkDeleteResult{FailedIDs: []int64{}}
	if len(ids) == 0 {
		return result, nil
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		placeholders, args := inArgs(ids)
		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM transaction_events WHERE id IN (`+placeholders+`)`, args...)
		if err != nil {
			return &core.StorageError{Op: "select transactions for bulk delete", Err: err}
		}
		found := map[int64]bool{}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return &core.StorageError{Op: "scan transaction id", Err: err}
			}
			found[id] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return &core.StorageError{Op: "select transactions for bulk delete", Err: err}
		}

		seen := map[int64]bool{}
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			if !found[id] {
				result.FailedIDs = append(result.FailedIDs, id)
			}
		}
		if len(found) == 0 {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM postings WHERE event_id IN (`+placeholders+`)`, args...); err != nil {
			return &core.StorageError{Op: "bulk delete postings", Err: err}
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM transaction_events WHERE id IN (`+placeholders+`)`, args...)
		if err != nil {
			return &core.StorageError{Op: "bulk delete transactions", Err: err}
		}
		result.DeletedCount, err = res.RowsAffected()
		if err != nil {
			return &core.StorageError{Op: "bulk delete transactions", Err: err}
		}
		return nil
	})
	if err != nil {
		return core.BulkDeleteResult{}, err
	}
	return result, nil
}

// GetTransaction loads an event with its postings and resolved category
// name. Soft-deleted events are hidden unless includeDeleted is set.
func (s *Store) GetTransaction(ctx context.Context, id int64, includeDeleted bool) (core.TransactionEvent, error) {
	ev, err := s.scanEvent(s.db.QueryRowContext(ctx,
		`SELECT e.id, e.occurred_at, e.type, e.note, e.payee, e.category_id, c.name,
		        e.idempotency_key, e.deleted_at, e.created_at, e.updated_at
		 FROM transaction_events e
		 LEFT JOIN categories c ON c.id = e.category_id
		 WHERE e.id = ?`, id))
	var nf *core.NotFoundError
	if errors.As(err, &nf) {
		return core.TransactionEvent{}, &core.NotFoundError{Entity: "transaction", ID: id}
	}
	if err != nil {
		return core.TransactionEvent{}, err
	}
	if ev.DeletedAt != nil && !includeDeleted {
		return core.TransactionEvent{}, &core.NotFoundError{Entity: "transaction", ID: id}
	}

	ev.Postings, err = s.loadPostings(ctx, ev.ID)
	if err != nil {
		return core.TransactionEvent{}, err
	}
	return ev, nil
}

// TransactionFilter narrows ListTransactions. Nil fields are ignored.
type TransactionFilter struct {
	WalletID       *int64
	BucketID       *int64
	Type           *core.TransactionType
	Month          *core.MonthKey
	IncludeDeleted bool
}

func (s *Store) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.TransactionEvent, error) {
	query := `SELECT DISTINCT e.id, e.occurred_at, e.type, e.note, e.payee, e.category_id, c.name,
	                 e.idempotency_key, e.deleted_at, e.created_at, e.updated_at
	          FROM transaction_events e
	          LEFT JOIN categories c ON c.id = e.category_id`
	var (
		where []string
		args  []any
	)
	if f.WalletID != nil || f.BucketID != nil {
		query += ` JOIN postings p ON p.event_id = e.id`
	}
	if f.WalletID != nil {
		where = append(where, `p.wallet_id = ?`)
		args = append(args, *f.WalletID)
	}
	if f.BucketID != nil {
		where = append(where, `p.savings_bucket_id = ?`)
		args = append(args, *f.BucketID)
	}
	if f.Type != nil {
		where = append(where, `e.type = ?`)
		args = append(args, string(*f.Type))
	}
	if f.Month != nil {
		start, next := f.Month.Bounds()
		where = append(where, `e.occurred_at >= ?`, `e.occurred_at < ?`)
		args = append(args, fmtTime(start), fmtTime(next))
	}
	if !f.IncludeDeleted {
		where = append(where, `e.deleted_at IS NULL`)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY e.occurred_at DESC, e.id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &core.StorageError{Op: "list transactions", Err: err}
	}
	defer rows.Close()

	var events []core.TransactionEvent
	for rows.Next() {
		ev, err := s.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StorageError{Op: "list transactions", Err: err}
	}

	for i := range events {
		events[i].Postings, err = s.loadPostings(ctx, events[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return events, nil
}

// WalletBalance sums non-deleted postings against the wallet; 0 when
// there are none. Archived wallets keep their computed balance.
func (s *Store) WalletBalance(ctx context.Context, walletID int64) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(p.amount_cents), 0)
		 FROM postings p
		 JOIN transaction_events e ON e.id = p.event_id
		 WHERE p.wallet_id = ? AND e.deleted_at IS NULL`, walletID).Scan(&balance)
	if err != nil {
		return 0, &core.StorageError{Op: "wallet balance", Err: err}
	}
	return balance, nil
}

func (s *Store) BucketBalance(ctx context.Context, bucketID int64) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(p.amount_cents), 0)
		 FROM postings p
		 JOIN transaction_events e ON e.id = p.event_id
		 WHERE p.savings_bucket_id = ? AND e.deleted_at IS NULL`, bucketID).Scan(&balance)
	if err != nil {
		return 0, &core.StorageError{Op: "bucket balance", Err: err}
	}
	return balance, nil
}

func (s *Store) WalletStats(ctx context.Context, walletID int64) (core.WalletStats, error) {
	var stats core.WalletStats
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(p.amount_cents), 0), COUNT(DISTINCT e.id)
		 FROM postings p
		 JOIN transaction_events e ON e.id = p.event_id
		 WHERE p.wallet_id = ? AND e.deleted_at IS NULL`, walletID).
		Scan(&stats.BalanceCents, &stats.TransactionCount)
	if err != nil {
		return core.WalletStats{}, &core.StorageError{Op: "wallet stats", Err: err}
	}
	return stats, nil
}

func (s *Store) checkReferences(ctx context.Context, tx *sql.Tx, p CreateTransactionParams) error {
	checkedWallets := map[int64]bool{}
	for _, spec := range p.Postings {
		if id, ok := spec.Account.WalletID(); ok && !checkedWallets[id] {
			checkedWallets[id] = true
			if err := requireActiveWallet(ctx, tx, id); err != nil {
				return err
			}
		}
		if id, ok := spec.Account.BucketID(); ok {
			if err := requireActiveBucket(ctx, tx, id); err != nil {
				return err
			}
		}
	}
	if p.CategoryID != nil {
		return requireActiveCategory(ctx, tx, *p.CategoryID)
	}
	return nil
}

func (s *Store) checkIdempotencyKey(ctx context.Context, tx *sql.Tx, key *string) error {
	if key == nil {
		return nil
	}
	var exists int64
	// Soft-deleted events still hold their key.
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM transaction_events WHERE idempotency_key = ?`, *key).Scan(&exists)
	if err != nil {
		return &core.StorageError{Op: "check idempotency key", Err: err}
	}
	if exists > 0 {
		return &core.ConflictError{Reason: "transaction with this idempotency key already exists"}
	}
	return nil
}

func requireActiveWallet(ctx context.Context, tx *sql.Tx, id int64) error {
	var archived int64
	err := tx.QueryRowContext(ctx, `SELECT archived FROM wallets WHERE id = ?`, id).Scan(&archived)
	if errors.Is(err, sql.ErrNoRows) {
		return &core.NotFoundError{Entity: "wallet", ID: id}
	}
	if err != nil {
		return &core.StorageError{Op: "check wallet", Err: err}
	}
	if archived != 0 {
		return &core.NotFoundError{Entity: "wallet", ID: id}
	}
	return nil
}

func requireActiveCategory(ctx context.Context, tx *sql.Tx, id int64) error {
	var archived int64
	err := tx.QueryRowContext(ctx, `SELECT archived FROM categories WHERE id = ?`, id).Scan(&archived)
	if errors.Is(err, sql.ErrNoRows) {
		return &core.NotFoundError{Entity: "category", ID: id}
	}
	if err != nil {
		return &core.StorageError{Op: "check category", Err: err}
	}
	if archived != 0 {
		return &core.NotFoundError{Entity: "category", ID: id}
	}
	return nil
}

func requireActiveBucket(ctx context.Context, tx *sql.Tx, id int64) error {
	var (
		archived  int64
		deletedAt sql.NullString
	)
	err := tx.QueryRowContext(ctx,
		`SELECT archived, deleted_at FROM savings_buckets WHERE id = ?`, id).Scan(&archived, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &core.NotFoundError{Entity: "savings bucket", ID: id}
	}
	if err != nil {
		return &core.StorageError{Op: "check savings bucket", Err: err}
	}
	if archived != 0 || deletedAt.Valid {
		return &core.NotFoundError{Entity: "savings bucket", ID: id}
	}
	return nil
}

func eventDeletedAt(ctx context.Context, tx *sql.Tx, id int64) (sql.NullString, error) {
	var deletedAt sql.NullString
	err := tx.QueryRowContext(ctx,
		`SELECT deleted_at FROM transaction_events WHERE id = ?`, id).Scan(&deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return deletedAt, &core.NotFoundError{Entity: "transaction", ID: id}
	}
	if err != nil {
		return deletedAt, &core.StorageError{Op: "get transaction event", Err: err}
	}
	return deletedAt, nil
}

func insertPostings(ctx context.Context, tx *sql.Tx, eventID int64, specs []core.PostingSpec, now string) error {
	for _, spec := range specs {
		walletID := sql.NullInt64{}
		bucketID := sql.NullInt64{}
		if id, ok := spec.Account.WalletID(); ok {
			walletID = sql.NullInt64{Int64: id, Valid: true}
		}
		if id, ok := spec.Account.BucketID(); ok {
			bucketID = sql.NullInt64{Int64: id, Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO postings (event_id, wallet_id, savings_bucket_id, amount_cents, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			eventID, walletID, bucketID, spec.AmountCents, now); err != nil {
			return &core.StorageError{Op: "insert posting", Err: err}
		}
	}
	return nil
}

func (s *Store) loadPostings(ctx context.Context, eventID int64) ([]core.Posting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_id, wallet_id, savings_bucket_id, amount_cents, created_at
		 FROM postings WHERE event_id = ? ORDER BY id`, eventID)
	if err != nil {
		return nil, &core.StorageError{Op: "load postings", Err: err}
	}
	defer rows.Close()

	var postings []core.Posting
	for rows.Next() {
		var (
			p        core.Posting
			walletID sql.NullInt64
			bucketID sql.NullInt64
			created  string
		)
		if err := rows.Scan(&p.ID, &p.EventID, &walletID, &bucketID, &p.AmountCents, &created); err != nil {
			return nil, &core.StorageError{Op: "scan posting", Err: err}
		}
		switch {
		case walletID.Valid:
			p.Account = core.WalletAccount(walletID.Int64)
		case bucketID.Valid:
			p.Account = core.BucketAccount(bucketID.Int64)
		}
		p.CreatedAt = parseTime(created)
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StorageError{Op: "load postings", Err: err}
	}
	return postings, nil
}

func (s *Store) scanEvent(row rowScanner) (core.TransactionEvent, error) {
	var (
		ev         core.TransactionEvent
		occurredAt string
		note       sql.NullString
		payee      sql.NullString
		categoryID sql.NullInt64
		catName    sql.NullString
		idemKey    sql.NullString
		deletedAt  sql.NullString
		created    string
		updated    string
	)
	err := row.Scan(&ev.ID, &occurredAt, &ev.Type, &note, &payee, &categoryID, &catName,
		&idemKey, &deletedAt, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.TransactionEvent{}, &core.NotFoundError{Entity: "transaction"}
	}
	if err != nil {
		return core.TransactionEvent{}, &core.StorageError{Op: "scan transaction event", Err: err}
	}
	ev.OccurredAt = parseTime(occurredAt)
	ev.Note = strPtr(note)
	ev.Payee = strPtr(payee)
	ev.CategoryID = intPtr(categoryID)
	ev.CategoryName = strPtr(catName)
	ev.IdempotencyKey = strPtr(idemKey)
	ev.DeletedAt = timePtr(deletedAt)
	ev.CreatedAt = parseTime(created)
	ev.UpdatedAt = parseTime(updated)
	return ev, nil
}

func inArgs(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}
