package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conti/internal/core"
)

type budgetFixture struct {
	service  *BudgetService
	category core.Category
	bucket   core.SavingsBucket
}

func newBudgetFixture(t *testing.T) budgetFixture {
	t.Helper()
	store := newTestStore(t)
	ctx := context.Background()

	category, err := store.CreateCategory(ctx, core.Category{Name: "Groceries", Kind: core.CategoryExpense})
	require.NoError(t, err)
	bucket, err := store.CreateSavingsBucket(ctx, core.SavingsBucket{Name: "Emergency"})
	require.NoError(t, err)

	return budgetFixture{
		service:  NewBudgetService(store),
		category: category,
		bucket:   bucket,
	}
}

func month(t *testing.T, s string) core.MonthKey {
	t.Helper()
	m, err := core.ParseMonth(s)
	require.NoError(t, err)
	return m
}

func TestBudgetCreateValidation(t *testing.T) {
	f := newBudgetFixture(t)
	ctx := context.Background()

	t.Run("missing target", func(t *testing.T) {
		_, err := f.service.Create(ctx, core.NewBudget{
			Month:       month(t, "2025-06-01"),
			AmountCents: 100_000,
		})
		assert.True(t, core.IsValidation(err))
	})

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := f.service.Create(ctx, core.NewBudget{
			Month:  month(t, "2025-06-01"),
			Target: core.CategoryTarget(f.category.ID),
		})
		assert.True(t, core.IsValidation(err))
	})

	t.Run("missing month", func(t *testing.T) {
		_, err := f.service.Create(ctx, core.NewBudget{
			Target:      core.CategoryTarget(f.category.ID),
			AmountCents: 100_000,
		})
		assert.True(t, core.IsValidation(err))
	})
}

func TestBudgetRoundTrip(t *testing.T) {
	f := newBudgetFixture(t)
	ctx := context.Background()
	june := month(t, "2025-06-01")

	created, err := f.service.Create(ctx, core.NewBudget{
		Month:       june,
		Target:      core.BucketTarget(f.bucket.ID),
		AmountCents: 200_000,
	})
	require.NoError(t, err)
	assert.Equal(t, "Emergency", created.TargetName)

	got, err := f.service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	listed, err := f.service.List(ctx, june)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	updated, err := f.service.Update(ctx, created.ID, core.BudgetUpdate{AmountCents: 250_000})
	require.NoError(t, err)
	assert.Equal(t, int64(250_000), updated.AmountCents)

	require.NoError(t, f.service.Delete(ctx, created.ID))
	_, err = f.service.Get(ctx, created.ID)
	assert.True(t, core.IsNotFound(err))
}

func TestBudgetUpdateValidation(t *testing.T) {
	f := newBudgetFixture(t)

	_, err := f.service.Update(context.Background(), 1, core.BudgetUpdate{AmountCents: 0})
	assert.True(t, core.IsValidation(err))
}

func TestCopyRejectsSameMonth(t *testing.T) {
	f := newBudgetFixture(t)
	june := month(t, "2025-06-01")

	_, err := f.service.Copy(context.Background(), june, june)
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.Contains(t, err.Error(), "must be different")
}

func TestBudgetBulkDeleteLimits(t *testing.T) {
	f := newBudgetFixture(t)
	ctx := context.Background()

	_, err := f.service.BulkDelete(ctx, nil)
	assert.True(t, core.IsValidation(err))

	ids := make([]int64, core.MaxBulkDelete+1)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	_, err = f.service.BulkDelete(ctx, ids)
	assert.True(t, core.IsValidation(err))
}

func TestBudgetSummaryEmptyMonth(t *testing.T) {
	f := newBudgetFixture(t)

	summary, err := f.service.Summary(context.Background(), month(t, "2025-06-01"))
	require.NoError(t, err)
	assert.Empty(t, summary.Items)
	assert.Zero(t, summary.TotalBudgetCents)
}
