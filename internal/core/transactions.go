package core

import (
	"time"
)

// TransactionFields carries the fields shared by all five transaction
// shapes. AmountCents is always the positive magnitude; posting signs
// come from the shape's template.
type TransactionFields struct {
	OccurredAt     time.Time
	AmountCents    int64
	Note           *string
	Payee          *string
	IdempotencyKey *string
}

func (f TransactionFields) validate() error {
	if f.AmountCents <= 0 {
		return &ValidationError{Field: "amount_cents", Reason: "amount must be a positive integer"}
	}
	if f.OccurredAt.IsZero() {
		return &ValidationError{Field: "occurred_at", Reason: "occurred_at is required"}
	}
	if f.IdempotencyKey != nil && *f.IdempotencyKey == "" {
		return &ValidationError{Field: "idempotency_key", Reason: "idempotency key cannot be empty"}
	}
	return nil
}

// PostingSpec is one row of a shape's posting template.
type PostingSpec struct {
	Account     Account
	AmountCents int64
}

type (
	NewExpense struct {
		TransactionFields
		WalletID   int64
		CategoryID int64
	}

	NewIncome struct {
		TransactionFields
		WalletID int64
	}

	NewTransfer struct {
		TransactionFields
		FromWalletID int64
		ToWalletID   int64
	}

	// NewSavingsMovement covers both contributions and withdrawals;
	// the operation decides the direction.
	NewSavingsMovement struct {
		TransactionFields
		WalletID int64
		BucketID int64
	}
)

func (in NewExpense) Validate() error {
	if err := in.validate(); err != nil {
		return err
	}
	if in.WalletID == 0 {
		return &ValidationError{Field: "wallet_id", Reason: "wallet is required"}
	}
	if in.CategoryID == 0 {
		return &ValidationError{Field: "category_id", Reason: "category is required"}
	}
	return nil
}

// Postings is the expense template: one outflow from the wallet.
func (in NewExpense) Postings() []PostingSpec {
	return []PostingSpec{{Account: WalletAccount(in.WalletID), AmountCents: -in.AmountCents}}
}

func (in NewIncome) Validate() error {
	if err := in.validate(); err != nil {
		return err
	}
	if in.WalletID == 0 {
		return &ValidationError{Field: "wallet_id", Reason: "wallet is required"}
	}
	return nil
}

// Postings is the income template: one inflow into the wallet.
func (in NewIncome) Postings() []PostingSpec {
	return []PostingSpec{{Account: WalletAccount(in.WalletID), AmountCents: in.AmountCents}}
}

func (in NewTransfer) Validate() error {
	if err := in.validate(); err != nil {
		return err
	}
	if in.FromWalletID == 0 {
		return &ValidationError{Field: "from_wallet_id", Reason: "source wallet is required"}
	}
	if in.ToWalletID == 0 {
		return &ValidationError{Field: "to_wallet_id", Reason: "destination wallet is required"}
	}
	if in.FromWalletID == in.ToWalletID {
		return &ValidationError{Field: "to_wallet_id", Reason: "source and destination wallets must be different"}
	}
	return nil
}

// Postings is the transfer template: the two legs are additive inverses.
func (in NewTransfer) Postings() []PostingSpec {
	return []PostingSpec{
		{Account: WalletAccount(in.FromWalletID), AmountCents: -in.AmountCents},
		{Account: WalletAccount(in.ToWalletID), AmountCents: in.AmountCents},
	}
}

func (in NewSavingsMovement) Validate() error {
	if err := in.validate(); err != nil {
		return err
	}
	if in.WalletID == 0 {
		return &ValidationError{Field: "wallet_id", Reason: "wallet is required"}
	}
	if in.BucketID == 0 {
		return &ValidationError{Field: "savings_bucket_id", Reason: "savings bucket is required"}
	}
	return nil
}

// ContributionPostings moves money from the wallet into the bucket.
func (in NewSavingsMovement) ContributionPostings() []PostingSpec {
	return []PostingSpec{
		{Account: WalletAccount(in.WalletID), AmountCents: -in.AmountCents},
		{Account: BucketAccount(in.BucketID), AmountCents: in.AmountCents},
	}
}

// WithdrawalPostings moves money from the bucket back into the wallet.
func (in NewSavingsMovement) WithdrawalPostings() []PostingSpec {
	return []PostingSpec{
		{Account: BucketAccount(in.BucketID), AmountCents: -in.AmountCents},
		{Account: WalletAccount(in.WalletID), AmountCents: in.AmountCents},
	}
}
