package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"conti/internal/core"
)

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateWallet inserts a wallet. Name collisions surface as Conflict.
func (s *Store) CreateWallet(ctx context.Context, w core.Wallet) (core.Wallet, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO wallets (name, kind, currency, archived, created_at, updated_at)
		 VALUES (?, ?, ?, 0, ?, ?)`,
		w.Name, string(w.Kind), w.Currency, fmtTime(now), fmtTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return core.Wallet{}, &core.ConflictError{Reason: "wallet name already exists"}
		}
		return core.Wallet{}, &core.StorageError{Op: "insert wallet", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Wallet{}, &core.StorageError{Op: "insert wallet", Err: err}
	}

	slog.InfoContext(ctx, "Wallet created", "id", id, "name", w.Name, "kind", w.Kind)
	return s.GetWallet(ctx, id)
}

func (s *Store) GetWallet(ctx context.Context, id int64) (core.Wallet, error) {
	w, err := scanWallet(s.db.QueryRowContext(ctx,
		`SELECT id, name, kind, currency, archived, created_at, updated_at
		 FROM wallets WHERE id = ?`, id))
	var nf *core.NotFoundError
	if errors.As(err, &nf) {
		return core.Wallet{}, &core.NotFoundError{Entity: "wallet", ID: id}
	}
	return w, err
}

func (s *Store) ListWallets(ctx context.Context) ([]core.Wallet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, kind, currency, archived, created_at, updated_at
		 FROM wallets ORDER BY name`)
	if err != nil {
		return nil, &core.StorageError{Op: "list wallets", Err: err}
	}
	defer rows.Close()

	var wallets []core.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StorageError{Op: "list wallets", Err: err}
	}
	return wallets, nil
}

// SetWalletArchived flips the archived flag. Archiving never erases
// posting history; balances stay computable.
func (s *Store) SetWalletArchived(ctx context.Context, id int64, archived bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE wallets SET archived = ?, updated_at = ? WHERE id = ?`,
		boolInt(archived), fmtTime(time.Now()), id)
	if err != nil {
		return &core.StorageError{Op: "update wallet", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &core.StorageError{Op: "update wallet", Err: err}
	}
	if n == 0 {
		return &core.NotFoundError{Entity: "wallet", ID: id}
	}
	return nil
}

func (s *Store) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (name, kind, archived, created_at, updated_at)
		 VALUES (?, ?, 0, ?, ?)`,
		c.Name, string(c.Kind), fmtTime(now), fmtTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, &core.ConflictError{Reason: "category name already exists"}
		}
		return core.Category{}, &core.StorageError{Op: "insert category", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, &core.StorageError{Op: "insert category", Err: err}
	}

	slog.InfoContext(ctx, "Category created", "id", id, "name", c.Name, "kind", c.Kind)
	return s.GetCategory(ctx, id)
}

func (s *Store) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var (
		c        core.Category
		archived int64
		created  string
		updated  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, kind, archived, created_at, updated_at
		 FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Kind, &archived, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, &core.NotFoundError{Entity: "category", ID: id}
	}
	if err != nil {
		return core.Category{}, &core.StorageError{Op: "get category", Err: err}
	}
	c.Archived = archived != 0
	c.CreatedAt = parseTime(created)
	c.UpdatedAt = parseTime(updated)
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, kind, archived, created_at, updated_at
		 FROM categories ORDER BY name`)
	if err != nil {
		return nil, &core.StorageError{Op: "list categories", Err: err}
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var (
			c        core.Category
			archived int64
			created  string
			updated  string
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind, &archived, &created, &updated); err != nil {
			return nil, &core.StorageError{Op: "scan category", Err: err}
		}
		c.Archived = archived != 0
		c.CreatedAt = parseTime(created)
		c.UpdatedAt = parseTime(updated)
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StorageError{Op: "list categories", Err: err}
	}
	return cats, nil
}

func (s *Store) SetCategoryArchived(ctx context.Context, id int64, archived bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE categories SET archived = ?, updated_at = ? WHERE id = ?`,
		boolInt(archived), fmtTime(time.Now()), id)
	if err != nil {
		return &core.StorageError{Op: "update category", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &core.StorageError{Op: "update category", Err: err}
	}
	if n == 0 {
		return &core.NotFoundError{Entity: "category", ID: id}
	}
	return nil
}

func (s *Store) CreateSavingsBucket(ctx context.Context, b core.SavingsBucket) (core.SavingsBucket, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO savings_buckets (name, description, archived, created_at, updated_at)
		 VALUES (?, ?, 0, ?, ?)`,
		b.Name, nullStr(b.Description), fmtTime(now), fmtTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return core.SavingsBucket{}, &core.ConflictError{Reason: "savings bucket name already exists"}
		}
		return core.SavingsBucket{}, &core.StorageError{Op: "insert savings bucket", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.SavingsBucket{}, &core.StorageError{Op: "insert savings bucket", Err: err}
	}

	slog.InfoContext(ctx, "Savings bucket created", "id", id, "name", b.Name)
	return s.GetSavingsBucket(ctx, id)
}

func (s *Store) GetSavingsBucket(ctx context.Context, id int64) (core.SavingsBucket, error) {
	var (
		b         core.SavingsBucket
		desc      sql.NullString
		archived  int64
		deletedAt sql.NullString
		created   string
		updated   string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, archived, deleted_at, created_at, updated_at
		 FROM savings_buckets WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &desc, &archived, &deletedAt, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingsBucket{}, &core.NotFoundError{Entity: "savings bucket", ID: id}
	}
	if err != nil {
		return core.SavingsBucket{}, &core.StorageError{Op: "get savings bucket", Err: err}
	}
	b.Description = strPtr(desc)
	b.Archived = archived != 0
	b.DeletedAt = timePtr(deletedAt)
	b.CreatedAt = parseTime(created)
	b.UpdatedAt = parseTime(updated)
	return b, nil
}

func (s *Store) ListSavingsBuckets(ctx context.Context, includeDeleted bool) ([]core.SavingsBucket, error) {
	query := `SELECT id, name, description, archived, deleted_at, created_at, updated_at
		 FROM savings_buckets`
	if !includeDeleted {
		query += ` WHERE deleted_at IS NULL`
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &core.StorageError{Op: "list savings buckets", Err: err}
	}
	defer rows.Close()

	var buckets []core.SavingsBucket
	for rows.Next() {
		var (
			b         core.SavingsBucket
			desc      sql.NullString
			archived  int64
			deletedAt sql.NullString
			created   string
			updated   string
		)
		if err := rows.Scan(&b.ID, &b.Name, &desc, &archived, &deletedAt, &created, &updated); err != nil {
			return nil, &core.StorageError{Op: "scan savings bucket", Err: err}
		}
		b.Description = strPtr(desc)
		b.Archived = archived != 0
		b.DeletedAt = timePtr(deletedAt)
		b.CreatedAt = parseTime(created)
		b.UpdatedAt = parseTime(updated)
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StorageError{Op: "list savings buckets", Err: err}
	}
	return buckets, nil
}

// SoftDeleteSavingsBucket hides a bucket from new transactions and
// budget targets while keeping its posting history.
func (s *Store) SoftDeleteSavingsBucket(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var deletedAt sql.NullString
		err := tx.QueryRowContext(ctx, `SELECT deleted_at FROM savings_buckets WHERE id = ?`, id).Scan(&deletedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return &core.NotFoundError{Entity: "savings bucket", ID: id}
		}
		if err != nil {
			return &core.StorageError{Op: "get savings bucket", Err: err}
		}
		if deletedAt.Valid {
			return &core.ConflictError{Reason: "savings bucket already deleted"}
		}
		now := fmtTime(time.Now())
		if _, err := tx.ExecContext(ctx,
			`UPDATE savings_buckets SET deleted_at = ?, updated_at = ? WHERE id = ?`, now, now, id); err != nil {
			return &core.StorageError{Op: "soft delete savings bucket", Err: err}
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWallet(row rowScanner) (core.Wallet, error) {
	var (
		w        core.Wallet
		archived int64
		created  string
		updated  string
	)
	err := row.Scan(&w.ID, &w.Name, &w.Kind, &w.Currency, &archived, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Wallet{}, &core.NotFoundError{Entity: "wallet", ID: w.ID}
	}
	if err != nil {
		return core.Wallet{}, &core.StorageError{Op: "scan wallet", Err: err}
	}
	w.Archived = archived != 0
	w.CreatedAt = parseTime(created)
	w.UpdatedAt = parseTime(updated)
	return w, nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
