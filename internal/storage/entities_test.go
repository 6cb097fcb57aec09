package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conti/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "conti.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestWalletCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateWallet(ctx, core.Wallet{Name: "Checking", Kind: core.WalletBank, Currency: "EUR"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Checking", created.Name)
	assert.Equal(t, core.WalletBank, created.Kind)
	assert.False(t, created.Archived)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := store.GetWallet(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = store.CreateWallet(ctx, core.Wallet{Name: "Cash", Kind: core.WalletCash, Currency: "EUR"})
	require.NoError(t, err)

	wallets, err := store.ListWallets(ctx)
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, "Cash", wallets[0].Name)
	assert.Equal(t, "Checking", wallets[1].Name)
}

func TestWalletNameConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateWallet(ctx, core.Wallet{Name: "Checking", Kind: core.WalletBank, Currency: "EUR"})
	require.NoError(t, err)

	_, err = store.CreateWallet(ctx, core.Wallet{Name: "Checking", Kind: core.WalletCash, Currency: "EUR"})
	require.Error(t, err)
	assert.True(t, core.IsConflict(err))
}

func TestWalletArchive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	w, err := store.CreateWallet(ctx, core.Wallet{Name: "Old", Kind: core.WalletBank, Currency: "EUR"})
	require.NoError(t, err)

	require.NoError(t, store.SetWalletArchived(ctx, w.ID, true))
	got, err := store.GetWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, got.Archived)

	require.NoError(t, store.SetWalletArchived(ctx, w.ID, false))
	got, err = store.GetWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.False(t, got.Archived)

	err = store.SetWalletArchived(ctx, 9999, true)
	assert.True(t, core.IsNotFound(err))
}

func TestGetWalletNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetWallet(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, core.IsNotFound(err))
	assert.Contains(t, err.Error(), "wallet 42 not found")
}

func TestCategoryCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateCategory(ctx, core.Category{Name: "Groceries", Kind: core.CategoryExpense})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, core.CategoryExpense, created.Kind)

	_, err = store.CreateCategory(ctx, core.Category{Name: "Groceries", Kind: core.CategoryExpense})
	assert.True(t, core.IsConflict(err))

	_, err = store.CreateCategory(ctx, core.Category{Name: "Salary", Kind: core.CategoryIncome})
	require.NoError(t, err)

	cats, err := store.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 2)

	require.NoError(t, store.SetCategoryArchived(ctx, created.ID, true))
	got, err := store.GetCategory(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Archived)
}

func TestSavingsBucketLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	desc := "emergency fund"
	b, err := store.CreateSavingsBucket(ctx, core.SavingsBucket{Name: "Emergency", Description: &desc})
	require.NoError(t, err)
	require.NotNil(t, b.Description)
	assert.Equal(t, desc, *b.Description)
	assert.Nil(t, b.DeletedAt)

	require.NoError(t, store.SoftDeleteSavingsBucket(ctx, b.ID))

	// Hidden from the default list, still visible with the flag.
	buckets, err := store.ListSavingsBuckets(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, buckets)

	buckets, err = store.ListSavingsBuckets(ctx, true)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.NotNil(t, buckets[0].DeletedAt)

	err = store.SoftDeleteSavingsBucket(ctx, b.ID)
	assert.True(t, core.IsConflict(err))

	err = store.SoftDeleteSavingsBucket(ctx, 777)
	assert.True(t, core.IsNotFound(err))
}
