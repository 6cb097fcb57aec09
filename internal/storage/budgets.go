package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"conti/internal/core"
)

// CreateBudget allocates the single budget for a (month, target) pair.
// A second budget for the same pair is a Conflict; the partial unique
// indexes back this up at commit time under concurrent requests.
func (s *Store) CreateBudget(ctx context.Context, in core.NewBudget) (core.Budget, error) {
	var budgetID int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireBudgetTarget(ctx, tx, in.Target); err != nil {
			return err
		}

		categoryID, bucketID := targetColumns(in.Target)
		var exists int64
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM budgets
			 WHERE month = ?
			   AND (category_id = ? OR savings_bucket_id = ?)`,
			string(in.Month), categoryID, bucketID).Scan(&exists)
		if err != nil {
			return &core.StorageError{Op: "check budget uniqueness", Err: err}
		}
		if exists > 0 {
			return &core.ConflictError{Reason: "budget already exists for this month and target"}
		}

		now := fmtTime(time.Now())
		res, err := tx.ExecContext(ctx,
			`INSERT INTO budgets (month, category_id, savings_bucket_id, amount_cents, note, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			string(in.Month), categoryID, bucketID, in.AmountCents, nullStr(in.Note), now, now)
		if err != nil {
			if isUniqueViolation(err) {
				return &core.ConflictError{Reason: "budget already exists for this month and target"}
			}
			return &core.StorageError{Op: "insert budget", Err: err}
		}
		budgetID, err = res.LastInsertId()
		if err != nil {
			return &core.StorageError{Op: "insert budget", Err: err}
		}
		return nil
	})
	if err != nil {
		return core.Budget{}, err
	}

	slog.InfoContext(ctx, "Budget created",
		"id", budgetID,
		"month", in.Month,
		"target", in.Target.String(),
		"amount_cents", in.AmountCents)

	return s.GetBudget(ctx, budgetID)
}

func (s *Store) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	b, err := scanBudget(s.db.QueryRowContext(ctx, budgetSelect+` WHERE b.id = ?`, id))
	var nf *core.NotFoundError
	if errors.As(err, &nf) {
		return core.Budget{}, &core.NotFoundError{Entity: "budget", ID: id}
	}
	return b, err
}

func (s *Store) ListBudgets(ctx context.Context, month core.MonthKey) ([]core.Budget, error) {
	rows, err := s.db.QueryContext(ctx, budgetSelect+` WHERE b.month = ? ORDER BY b.id`, string(month))
	if err != nil {
		return nil, &core.StorageError{Op: "list budgets", Err: err}
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StorageError{Op: "list budgets", Err: err}
	}
	return budgets, nil
}

func (s *Store) UpdateBudget(ctx context.Context, id int64, u core.BudgetUpdate) (core.Budget, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE budgets SET amount_cents = ?, note = ?, updated_at = ? WHERE id = ?`,
		u.AmountCents, nullStr(u.Note), fmtTime(time.Now()), id)
	if err != nil {
		return core.Budget{}, &core.StorageError{Op: "update budget", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Budget{}, &core.StorageError{Op: "update budget", Err: err}
	}
	if n == 0 {
		return core.Budget{}, &core.NotFoundError{Entity: "budget", ID: id}
	}
	return s.GetBudget(ctx, id)
}

func (s *Store) DeleteBudget(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return &core.StorageError{Op: "delete budget", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &core.StorageError{Op: "delete budget", Err: err}
	}
	if n == 0 {
		return &core.NotFoundError{Entity: "budget", ID: id}
	}
	return nil
}

// BulkDeleteBudgets follows the same best-effort contract as
// BulkDeleteTransactions.
func (s *Store) BulkDeleteBudgets(ctx context.Context, ids []int64) (core.BulkDeleteResult, error) {
	result := core.BulkDeleteResult{FailedIDs: []int64{}}
	if len(ids) == 0 {
		return result, nil
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		placeholders, args := inArgs(ids)
		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM budgets WHERE id IN (`+placeholders+`)`, args...)
		if err != nil {
			return &core.StorageError{Op: "select budgets for bulk delete", Err: err}
		}
		found := map[int64]bool{}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return &core.StorageError{Op: "scan budget id", Err: err}
			}
			found[id] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return &core.StorageError{Op: "select budgets for bulk delete", Err: err}
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

		res, err := tx.ExecContext(ctx,
			`DELETE FROM budgets WHERE id IN (`+placeholders+`)`, args...)
		if err != nil {
			return &core.StorageError{Op: "bulk delete budgets", Err: err}
		}
		result.DeletedCount, err = res.RowsAffected()
		if err != nil {
			return &core.StorageError{Op: "bulk delete budgets", Err: err}
		}
		return nil
	})
	if err != nil {
		return core.BulkDeleteResult{}, err
	}
	return result, nil
}

// BudgetSummary computes spend-vs-budget for every budget in the month.
// Category spend counts expense postings; bucket spend counts only
// savings contributions, so withdrawals never reduce budget progress.
// Reads are independent queries; callers tolerate read skew.
func (s *Store) BudgetSummary(ctx context.Context, month core.MonthKey) (core.BudgetSummary, error) {
	budgets, err := s.ListBudgets(ctx, month)
	if err != nil {
		return core.BudgetSummary{}, err
	}

	start, next := month.Bounds()
	summary := core.BudgetSummary{Month: month, Items: []core.BudgetSummaryItem{}}
	for _, b := range budgets {
		var spent int64
		if id, ok := b.Target.CategoryID(); ok {
			err = s.db.QueryRowContext(ctx,
				`SELECT COALESCE(SUM(ABS(p.amount_cents)), 0)
				 FROM postings p
				 JOIN transaction_events e ON e.id = p.event_id
				 WHERE e.type = 'expense' AND e.category_id = ? AND e.deleted_at IS NULL
				   AND e.occurred_at >= ? AND e.occurred_at < ?`,
				id, fmtTime(start), fmtTime(next)).Scan(&spent)
		} else if id, ok := b.Target.BucketID(); ok {
			err = s.db.QueryRowContext(ctx,
				`SELECT COALESCE(SUM(p.amount_cents), 0)
				 FROM postings p
				 JOIN transaction_events e ON e.id = p.event_id
				 WHERE e.type = 'savings_contribution' AND p.savings_bucket_id = ?
				   AND p.amount_cents > 0 AND e.deleted_at IS NULL
				   AND e.occurred_at >= ? AND e.occurred_at < ?`,
				id, fmtTime(start), fmtTime(next)).Scan(&spent)
		}
		if err != nil {
			return core.BudgetSummary{}, &core.StorageError{Op: "budget spent", Err: err}
		}

		summary.Items = append(summary.Items, core.BudgetSummaryItem{
			BudgetID:       b.ID,
			Target:         b.Target,
			TargetName:     b.TargetName,
			BudgetCents:    b.AmountCents,
			SpentCents:     spent,
			RemainingCents: b.AmountCents - spent,
			PercentUsed:    core.PercentUsed(spent, b.AmountCents),
		})
		summary.TotalBudgetCents += b.AmountCents
		summary.TotalSpentCents += spent
	}
	summary.RemainingCents = summary.TotalBudgetCents - summary.TotalSpentCents
	return summary, nil
}

// CopyBudgets clones every source budget whose target is not already
// budgeted in the destination month. All inserts happen in one
// transaction: all non-duplicates land or none do.
func (s *Store) CopyBudgets(ctx context.Context, from, to core.MonthKey) (core.BudgetCopyResult, error) {
	result := core.BudgetCopyResult{Created: []core.Budget{}, Skipped: []core.BudgetTarget{}}
	var createdIDs []int64

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		source, err := listBudgetsTx(ctx, tx, from)
		if err != nil {
			return err
		}
		if len(source) == 0 {
			return &core.NotFoundError{Entity: "budgets for source month"}
		}
		dest, err := listBudgetsTx(ctx, tx, to)
		if err != nil {
			return err
		}
		existing := map[core.BudgetTarget]bool{}
		for _, b := range dest {
			existing[b.Target] = true
		}

		now := fmtTime(time.Now())
		for _, b := range source {
			if existing[b.Target] {
				result.Skipped = append(result.Skipped, b.Target)
				continue
			}
			categoryID, bucketID := targetColumns(b.Target)
			res, err := tx.ExecContext(ctx,
				`INSERT INTO budgets (month, category_id, savings_bucket_id, amount_cents, note, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				string(to), categoryID, bucketID, b.AmountCents, nullStr(b.Note), now, now)
			if err != nil {
				return &core.StorageError{Op: "copy budget", Err: err}
			}
			id, err := res.LastInsertId()
			if err != nil {
				return &core.StorageError{Op: "copy budget", Err: err}
			}
			createdIDs = append(createdIDs, id)
		}
		return nil
	})
	if err != nil {
		return core.BudgetCopyResult{}, err
	}

	for _, id := range createdIDs {
		b, err := s.GetBudget(ctx, id)
		if err != nil {
			return core.BudgetCopyResult{}, err
		}
		result.Created = append(result.Created, b)
	}

	slog.InfoContext(ctx, "Budgets copied",
		"from", from,
		"to", to,
		"created", len(result.Created),
		"skipped", len(result.Skipped))
	return result, nil
}

const budgetSelect = `SELECT b.id, b.month, b.category_id, b.savings_bucket_id,
       COALESCE(c.name, sb.name, ''), b.amount_cents, b.note, b.created_at, b.updated_at
  FROM budgets b
  LEFT JOIN categories c ON c.id = b.category_id
  LEFT JOIN savings_buckets sb ON sb.id = b.savings_bucket_id`

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b          core.Budget
		month      string
		categoryID sql.NullInt64
		bucketID   sql.NullInt64
		note       sql.NullString
		created    string
		updated    string
	)
	err := row.Scan(&b.ID, &month, &categoryID, &bucketID, &b.TargetName, &b.AmountCents, &note, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, &core.NotFoundError{Entity: "budget"}
	}
	if err != nil {
		return core.Budget{}, &core.StorageError{Op: "scan budget", Err: err}
	}
	b.Month = core.MonthKey(month)
	switch {
	case categoryID.Valid:
		b.Target = core.CategoryTarget(categoryID.Int64)
	case bucketID.Valid:
		b.Target = core.BucketTarget(bucketID.Int64)
	}
	b.Note = strPtr(note)
	b.CreatedAt = parseTime(created)
	b.UpdatedAt = parseTime(updated)
	return b, nil
}

func listBudgetsTx(ctx context.Context, tx *sql.Tx, month core.MonthKey) ([]core.Budget, error) {
	rows, err := tx.QueryContext(ctx, budgetSelect+` WHERE b.month = ? ORDER BY b.id`, string(month))
	if err != nil {
		return nil, &core.StorageError{Op: "list budgets", Err: err}
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StorageError{Op: "list budgets", Err: err}
	}
	return budgets, nil
}

func targetColumns(t core.BudgetTarget) (categoryID, bucketID sql.NullInt64) {
	if id, ok := t.CategoryID(); ok {
		categoryID = sql.NullInt64{Int64: id, Valid: true}
	}
	if id, ok := t.BucketID(); ok {
		bucketID = sql.NullInt64{Int64: id, Valid: true}
	}
	return categoryID, bucketID
}

func requireBudgetTarget(ctx context.Context, tx *sql.Tx, target core.BudgetTarget) error {
	if id, ok := target.CategoryID(); ok {
		var (
			kind     string
			archived int64
		)
		err := tx.QueryRowContext(ctx, `SELECT kind, archived FROM categories WHERE id = ?`, id).
			Scan(&kind, &archived)
		if errors.Is(err, sql.ErrNoRows) {
			return &core.NotFoundError{Entity: "category", ID: id}
		}
		if err != nil {
			return &core.StorageError{Op: "check category", Err: err}
		}
		// Only expense categories may be budgeted.
		if archived != 0 || kind != string(core.CategoryExpense) {
			return &core.NotFoundError{Entity: "category", ID: id}
		}
		return nil
	}
	if id, ok := target.BucketID(); ok {
		return requireActiveBucket(ctx, tx, id)
	}
	return &core.ValidationError{Reason: "must specify either category or savings bucket"}
}
