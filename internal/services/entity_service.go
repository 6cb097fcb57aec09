package services

import (
	"context"
	"log/slog"

	"conti/internal/core"
	"conti/internal/storage"
)

// EntityService manages the reference entities postings point at:
// wallets, categories and savings buckets.
type EntityService struct {
	store *storage.Store
}

func NewEntityService(store *storage.Store) *EntityService {
	return &EntityService{store: store}
}

func (s *EntityService) CreateWallet(ctx context.Context, w core.Wallet) (core.Wallet, error) {
	if err := w.Validate(); err != nil {
		return core.Wallet{}, err
	}
	created, err := s.store.CreateWallet(ctx, w)
	if err != nil {
		return core.Wallet{}, err
	}
	slog.InfoContext(ctx, "Wallet created", "id", created.ID, "name", created.Name, "kind", created.Kind)
	return created, nil
}

func (s *EntityService) GetWallet(ctx context.Context, id int64) (core.Wallet, error) {
	return s.store.GetWallet(ctx, id)
}

func (s *EntityService) ListWallets(ctx context.Context) ([]core.Wallet, error) {
	return s.store.ListWallets(ctx)
}

// SetWalletArchived toggles the archived flag. Archived wallets keep
// their history but reject new postings.
func (s *EntityService) SetWalletArchived(ctx context.Context, id int64, archived bool) error {
	return s.store.SetWalletArchived(ctx, id, archived)
}

func (s *EntityService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}
	slog.InfoContext(ctx, "Category created", "id", created.ID, "name", created.Name, "kind", created.Kind)
	return created, nil
}

func (s *EntityService) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	return s.store.GetCategory(ctx, id)
}

func (s *EntityService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *EntityService) SetCategoryArchived(ctx context.Context, id int64, archived bool) error {
	return s.store.SetCategoryArchived(ctx, id, archived)
}

func (s *EntityService) CreateSavingsBucket(ctx context.Context, b core.SavingsBucket) (core.SavingsBucket, error) {
	if err := b.Validate(); err != nil {
		return core.SavingsBucket{}, err
	}
	created, err := s.store.CreateSavingsBucket(ctx, b)
	if err != nil {
		return core.SavingsBucket{}, err
	}
	slog.InfoContext(ctx, "Savings bucket created", "id", created.ID, "name", created.Name)
	return created, nil
}

func (s *EntityService) GetSavingsBucket(ctx context.Context, id int64) (core.SavingsBucket, error) {
	return s.store.GetSavingsBucket(ctx, id)
}

func (s *EntityService) ListSavingsBuckets(ctx context.Context, includeDeleted bool) ([]core.SavingsBucket, error) {
	return s.store.ListSavingsBuckets(ctx, includeDeleted)
}

// DeleteSavingsBucket soft-deletes the bucket. Its postings survive so
// historical balances stay intact.
func (s *EntityService) DeleteSavingsBucket(ctx context.Context, id int64) error {
	if err := s.store.SoftDeleteSavingsBucket(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Savings bucket soft-deleted", "id", id)
	return nil
}
