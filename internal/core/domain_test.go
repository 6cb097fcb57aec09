package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(amount int64) TransactionFields {
	return TransactionFields{
		OccurredAt:  time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
		AmountCents: amount,
	}
}

func TestNewExpenseValidate(t *testing.T) {
	in := NewExpense{TransactionFields: fields(1500), WalletID: 1, CategoryID: 2}
	require.NoError(t, in.Validate())

	bad := in
	bad.AmountCents = 0
	err := bad.Validate()
	assert.True(t, IsValidation(err))

	bad = in
	bad.AmountCents = -100
	assert.True(t, IsValidation(bad.Validate()))

	bad = in
	bad.CategoryID = 0
	assert.True(t, IsValidation(bad.Validate()))
}

func TestNewTransferValidate(t *testing.T) {
	in := NewTransfer{TransactionFields: fields(1000), FromWalletID: 1, ToWalletID: 2}
	require.NoError(t, in.Validate())

	in.ToWalletID = 1
	err := in.Validate()
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "must be different")
}

func TestEmptyIdempotencyKeyRejected(t *testing.T) {
	key := ""
	in := NewIncome{TransactionFields: fields(500), WalletID: 1}
	in.IdempotencyKey = &key
	assert.True(t, IsValidation(in.Validate()))
}

func TestPostingTemplatesZeroSum(t *testing.T) {
	transfer := NewTransfer{TransactionFields: fields(2500), FromWalletID: 1, ToWalletID: 2}
	specs := transfer.Postings()
	require.Len(t, specs, 2)
	assert.Zero(t, specs[0].AmountCents+specs[1].AmountCents)

	mov := NewSavingsMovement{TransactionFields: fields(700), WalletID: 1, BucketID: 3}
	for _, specs := range [][]PostingSpec{mov.ContributionPostings(), mov.WithdrawalPostings()} {
		require.Len(t, specs, 2)
		assert.Zero(t, specs[0].AmountCents+specs[1].AmountCents)
	}
}

func TestPostingTemplateDirections(t *testing.T) {
	exp := NewExpense{TransactionFields: fields(300), WalletID: 7, CategoryID: 1}
	specs := exp.Postings()
	require.Len(t, specs, 1)
	assert.Equal(t, int64(-300), specs[0].AmountCents)
	wid, ok := specs[0].Account.WalletID()
	require.True(t, ok)
	assert.Equal(t, int64(7), wid)

	mov := NewSavingsMovement{TransactionFields: fields(400), WalletID: 7, BucketID: 9}
	contrib := mov.ContributionPostings()
	_, fromWallet := contrib[0].Account.WalletID()
	require.True(t, fromWallet)
	assert.Equal(t, int64(-400), contrib[0].AmountCents)
	bid, toBucket := contrib[1].Account.BucketID()
	require.True(t, toBucket)
	assert.Equal(t, int64(9), bid)
	assert.Equal(t, int64(400), contrib[1].AmountCents)

	withdraw := mov.WithdrawalPostings()
	_, fromBucket := withdraw[0].Account.BucketID()
	require.True(t, fromBucket)
	assert.Equal(t, int64(-400), withdraw[0].AmountCents)
}

func TestResolveBudgetTarget(t *testing.T) {
	cat := int64(4)
	bucket := int64(5)

	target, err := ResolveBudgetTarget(&cat, nil)
	require.NoError(t, err)
	id, ok := target.CategoryID()
	require.True(t, ok)
	assert.Equal(t, int64(4), id)

	target, err = ResolveBudgetTarget(nil, &bucket)
	require.NoError(t, err)
	id, ok = target.BucketID()
	require.True(t, ok)
	assert.Equal(t, int64(5), id)

	_, err = ResolveBudgetTarget(nil, nil)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "must specify either")

	_, err = ResolveBudgetTarget(&cat, &bucket)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "cannot specify both")
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-06-01")
	require.NoError(t, err)
	start, next := m.Bounds()
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), next)

	_, err = ParseMonth("2024-06-15")
	assert.True(t, IsValidation(err))

	_, err = ParseMonth("June 2024")
	assert.True(t, IsValidation(err))

	assert.Equal(t, MonthKey("2024-12-01"), MonthOf(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)))
}

func TestPercentUsed(t *testing.T) {
	assert.Equal(t, 40.0, PercentUsed(200_000, 500_000))
	assert.Equal(t, 0.0, PercentUsed(100, 0))
	assert.Equal(t, 33.33, PercentUsed(1, 3))
	assert.Equal(t, 66.67, PercentUsed(2, 3))
}

func TestErrorTaxonomy(t *testing.T) {
	var err error = &NotFoundError{Entity: "wallet", ID: 3}
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "wallet 3 not found", err.Error())

	err = &ConflictError{Reason: "transaction already deleted"}
	assert.True(t, IsConflict(err))

	err = &StorageError{Op: "insert event", Err: assert.AnError}
	assert.True(t, IsStorage(err))
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, IsConflict(err))
}
