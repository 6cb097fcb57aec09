package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conti/internal/core"
)

func mustMonth(t *testing.T, s string) core.MonthKey {
	t.Helper()
	m, err := core.ParseMonth(s)
	require.NoError(t, err)
	return m
}

func TestCreateBudgetUniqueness(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedLedger(t, store)
	june := mustMonth(t, "2025-06-01")

	created, err := store.CreateBudget(ctx, core.NewBudget{
		Month:       june,
		Target:      core.CategoryTarget(f.category.ID),
		AmountCents: 500_000,
	})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", created.TargetName)
	assert.Equal(t, june, created.Month)

	// One budget per (month, target).
	_, err = store.CreateBudget(ctx, core.NewBudget{
		Month:       june,
		Target:      core.CategoryTarget(f.category.ID),
		AmountCents: 100_000,
	})
	assert.True(t, core.IsConflict(err))

	// A different target in the same month coexists.
	_, err = store.CreateBudget(ctx, core.NewBudget{
		Month:       june,
		Target:      core.BucketTarget(f.bucket.ID),
		AmountCents: 200_000,
	})
	require.NoError(t, err)

	// Same target in another month coexists too.
	_, err = store.CreateBudget(ctx, core.NewBudget{
		Month:       mustMonth(t, "2025-07-01"),
		Target:      core.CategoryTarget(f.category.ID),
		AmountCents: 500_000,
	})
	require.NoError(t, err)

	budgets, err := store.ListBudgets(ctx, june)
	require.NoError(t, err)
	assert.Len(t, budgets, 2)
}

func TestCreateBudgetTargetRules(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedLedger(t, store)
	june := mustMonth(t, "2025-06-01")

	t.Run("income category rejected", func(t *testing.T) {
		salary, err := store.CreateCategory(ctx, core.Category{Name: "Salary", Kind: core.CategoryIncome})
		require.NoError(t, err)
		_, err = store.CreateBudget(ctx, core.NewBudget{
			Month: june, Target: core.CategoryTarget(salary.ID), AmountCents: 100_000,
		})
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("archived category rejected", func(t *testing.T) {
		require.NoError(t, store.SetCategoryArchived(ctx, f.category.ID, true))
		_, err := store.CreateBudget(ctx, core.NewBudget{
			Month: june, Target: core.CategoryTarget(f.category.ID), AmountCents: 100_000,
		})
		assert.True(t, core.IsNotFound(err))
		require.NoError(t, store.SetCategoryArchived(ctx, f.category.ID, false))
	})

	t.Run("missing bucket rejected", func(t *testing.T) {
		_, err := store.CreateBudget(ctx, core.NewBudget{
			Month: june, Target: core.BucketTarget(9999), AmountCents: 100_000,
		})
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("deleted bucket rejected", func(t *testing.T) {
		require.NoError(t, store.SoftDeleteSavingsBucket(ctx, f.bucket.ID))
		_, err := store.CreateBudget(ctx, core.NewBudget{
			Month: june, Target: core.BucketTarget(f.bucket.ID), AmountCents: 100_000,
		})
		assert.True(t, core.IsNotFound(err))
	})
}

func TestUpdateAndDeleteBudget(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedLedger(t, store)
	june := mustMonth(t, "2025-06-01")

	b, err := store.CreateBudget(ctx, core.NewBudget{
		Month: june, Target: core.CategoryTarget(f.category.ID), AmountCents: 100_000,
	})
	require.NoError(t, err)

	note := "tightened"
	updated, err := store.UpdateBudget(ctx, b.ID, core.BudgetUpdate{AmountCents: 80_000, Note: &note})
	require.NoError(t, err)
	assert.Equal(t, int64(80_000), updated.AmountCents)
	require.NotNil(t, updated.Note)
	assert.Equal(t, note, *updated.Note)
	// Month and target are immutable through update.
	assert.Equal(t, b.Month, updated.Month)
	assert.Equal(t, b.Target, updated.Target)

	_, err = store.UpdateBudget(ctx, 9999, core.BudgetUpdate{AmountCents: 1})
	assert.True(t, core.IsNotFound(err))

	require.NoError(t, store.DeleteBudget(ctx, b.ID))
	_, err = store.GetBudget(ctx, b.ID)
	assert.True(t, core.IsNotFound(err))
	err = store.DeleteBudget(ctx, b.ID)
	assert.True(t, core.IsNotFound(err))
}

func TestBulkDeleteBudgets(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedLedger(t, store)
	june := mustMonth(t, "2025-06-01")

	b1, err := store.CreateBudget(ctx, core.NewBudget{
		Month: june, Target: core.CategoryTarget(f.category.ID), AmountCents: 100_000,
	})
	require.NoError(t, err)
	b2, err := store.CreateBudget(ctx, core.NewBudget{
		Month: june, Target: core.BucketTarget(f.bucket.ID), AmountCents: 50_000,
	})
	require.NoError(t, err)

	result, err := store.BulkDeleteBudgets(ctx, []int64{b1.ID, b2.ID, 424242})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.DeletedCount)
	assert.Equal(t, []int64{424242}, result.FailedIDs)
}

func TestBudgetSummary(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedLedger(t, store)
	june := mustMonth(t, "2025-06-01")

	_, err := store.CreateBudget(ctx, core.NewBudget{
		Month: june, Target: core.CategoryTarget(f.category.ID), AmountCents: 500_000,
	})
	require.NoError(t, err)

	// Two expenses inside June, one in July that must not count.
	_, err = store.CreateTransaction(ctx, expenseParams(f, 150_000, june15))
	require.NoError(t, err)
	_, err = store.CreateTransaction(ctx, expenseParams(f, 50_000, june15.Add(24*time.Hour)))
	require.NoError(t, err)
	_, err = store.CreateTransaction(ctx, expenseParams(f, 999_000, time.Date(2025, 7, 2, 8, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	summary, err := store.BudgetSummary(ctx, june)
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)

	item := summary.Items[0]
	assert.Equal(t, int64(500_000), item.BudgetCents)
	assert.Equal(t, int64(200_000), item.SpentCents)
	assert.Equal(t, int64(300_000), item.RemainingCents)
	assert.Equal(t, 40.0, item.PercentUsed)

	assert.Equal(t, int64(500_000), summary.TotalBudgetCents)
	assert.Equal(t, int64(200_000), summary.TotalSpentCents)
	assert.Equal(t, int64(300_000), summary.RemainingCents)
}

func TestBudgetSummaryExcludesDeleted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedLedger(t, store)
	june := mustMonth(t, "2025-06-01")

	_, err := store.CreateBudget(ctx, core.NewBudget{
		Month: june, Target: core.CategoryTarget(f.category.ID), AmountCents: 100_000,
	})
	require.NoError(t, err)

	ev, err := store.CreateTransaction(ctx, expenseParams(f, 60_000, june15))
	require.NoError(t, err)
	require.NoError(t, store.SoftDeleteTransaction(ctx, ev.ID))

	summary, err := store.BudgetSummary(ctx, june)
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	assert.Zero(t, summary.Items[0].SpentCents)
}

func TestBudgetSummaryBucket(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedLedger(t, store)
	june := mustMonth(t, "2025-06-01")

	_, err := store.CreateBudget(ctx, core.NewBudget{
		Month: june, Target: core.BucketTarget(f.bucket.ID), AmountCents: 100_000,
	})
	require.NoError(t, err)

	_, err = store.CreateTransaction(ctx, incomeParams(f, 200_000, june15))
	require.NoError(t, err)

	movement := core.NewSavingsMovement{
		TransactionFields: core.TransactionFields{OccurredAt: june15, AmountCents: 70_000},
		WalletID:          f.wallet.ID,
		BucketID:          f.bucket.ID,
	}
	_, err = store.CreateTransaction(ctx, CreateTransactionParams{
		Type: core.TxSavingsContribution, OccurredAt: june15, Postings: movement.ContributionPostings(),
	})
	require.NoError(t, err)

	// Withdrawals never reduce budget progress.
	movement.AmountCents = 30_000
	_, err = store.CreateTransaction(ctx, CreateTransactionParams{
		Type: core.TxSavingsWithdrawal, OccurredAt: june15, Postings: movement.WithdrawalPostings(),
	})
	require.NoError(t, err)

	summary, err := store.BudgetSummary(ctx, june)
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, int64(70_000), summary.Items[0].SpentCents)
	assert.Equal(t, int64(30_000), summary.Items[0].RemainingCents)
	assert.Equal(t, 70.0, summary.Items[0].PercentUsed)
}

func TestCopyBudgets(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedLedger(t, store)
	june := mustMonth(t, "2025-06-01")
	july := mustMonth(t, "2025-07-01")

	_, err := store.CreateBudget(ctx, core.NewBudget{
		Month: june, Target: core.CategoryTarget(f.category.ID), AmountCents: 500_000,
	})
	require.NoError(t, err)
	_, err = store.CreateBudget(ctx, core.NewBudget{
		Month: june, Target: core.BucketTarget(f.bucket.ID), AmountCents: 200_000,
	})
	require.NoError(t, err)

	// Destination already budgets the category; only the bucket copies.
	_, err = store.CreateBudget(ctx, core.NewBudget{
		Month: july, Target: core.CategoryTarget(f.category.ID), AmountCents: 111_111,
	})
	require.NoError(t, err)

	result, err := store.CopyBudgets(ctx, june, july)
	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, core.BucketTarget(f.bucket.ID), result.Created[0].Target)
	assert.Equal(t, int64(200_000), result.Created[0].AmountCents)
	assert.Equal(t, core.CategoryTarget(f.category.ID), result.Skipped[0])

	// A second copy finds every target taken.
	result, err = store.CopyBudgets(ctx, june, july)
	require.NoError(t, err)
	assert.Empty(t, result.Created)
	assert.Len(t, result.Skipped, 2)

	t.Run("empty source month", func(t *testing.T) {
		_, err := store.CopyBudgets(ctx, mustMonth(t, "2024-01-01"), july)
		assert.True(t, core.IsNotFound(err))
	})
}
