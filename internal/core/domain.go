package core

import (
	"strings"
	"time"
)

const (
	WalletCash    WalletKind = "cash"
	WalletBank    WalletKind = "bank"
	WalletEWallet WalletKind = "e-wallet"
	WalletOther   WalletKind = "other"
)

const (
	CategoryExpense CategoryKind = "expense"
	CategoryIncome  CategoryKind = "income"
)

const (
	TxExpense             TransactionType = "expense"
	TxIncome              TransactionType = "income"
	TxTransfer            TransactionType = "transfer"
	TxSavingsContribution TransactionType = "savings_contribution"
	TxSavingsWithdrawal   TransactionType = "savings_withdrawal"
)

// MaxBulkDelete bounds the number of ids a single bulk delete accepts.
const MaxBulkDelete = 100

type (
	WalletKind      string
	CategoryKind    string
	TransactionType string

	Wallet struct {
		ID        int64      `json:"id"`
		Name      string     `json:"name"`
		Kind      WalletKind `json:"kind"`
		Currency  string     `json:"currency"`
		Archived  bool       `json:"archived"`
		CreatedAt time.Time  `json:"created_at"`
		UpdatedAt time.Time  `json:"updated_at"`
	}

	Category struct {
		ID        int64        `json:"id"`
		Name      string       `json:"name"`
		Kind      CategoryKind `json:"kind"`
		Archived  bool         `json:"archived"`
		CreatedAt time.Time    `json:"created_at"`
		UpdatedAt time.Time    `json:"updated_at"`
	}

	SavingsBucket struct {
		ID          int64      `json:"id"`
		Name        string     `json:"name"`
		Description *string    `json:"description,omitempty"`
		Archived    bool       `json:"archived"`
		DeletedAt   *time.Time `json:"deleted_at,omitempty"`
		CreatedAt   time.Time  `json:"created_at"`
		UpdatedAt   time.Time  `json:"updated_at"`
	}

	// Posting is one signed monetary entry against exactly one wallet or
	// savings bucket. Outflows are negative, inflows positive.
	Posting struct {
		ID          int64     `json:"id"`
		EventID     int64     `json:"event_id"`
		Account     Account   `json:"account"`
		AmountCents int64     `json:"amount_cents"`
		CreatedAt   time.Time `json:"created_at"`
	}

	// TransactionEvent is one financial occurrence owning 1-2 postings.
	// Type is immutable after creation.
	TransactionEvent struct {
		ID             int64           `json:"id"`
		OccurredAt     time.Time       `json:"occurred_at"`
		Type           TransactionType `json:"type"`
		Note           *string         `json:"note,omitempty"`
		Payee          *string         `json:"payee,omitempty"`
		CategoryID     *int64          `json:"category_id,omitempty"`
		CategoryName   *string         `json:"category_name,omitempty"`
		IdempotencyKey *string         `json:"idempotency_key,omitempty"`
		DeletedAt      *time.Time      `json:"deleted_at,omitempty"`
		CreatedAt      time.Time       `json:"created_at"`
		UpdatedAt      time.Time       `json:"updated_at"`
		Postings       []Posting       `json:"postings"`
	}

	Budget struct {
		ID          int64        `json:"id"`
		Month       MonthKey     `json:"month"`
		Target      BudgetTarget `json:"target"`
		TargetName  string       `json:"target_name"`
		AmountCents int64        `json:"amount_cents"`
		Note        *string      `json:"note,omitempty"`
		CreatedAt   time.Time    `json:"created_at"`
		UpdatedAt   time.Time    `json:"updated_at"`
	}

	WalletStats struct {
		BalanceCents     int64 `json:"balance_cents"`
		TransactionCount int64 `json:"transaction_count"`
	}

	BulkDeleteResult struct {
		DeletedCount int64   `json:"deleted_count"`
		FailedIDs    []int64 `json:"failed_ids"`
	}
)

func (k WalletKind) Valid() bool {
	switch k {
	case WalletCash, WalletBank, WalletEWallet, WalletOther:
		return true
	}
	return false
}

func (k CategoryKind) Valid() bool {
	return k == CategoryExpense || k == CategoryIncome
}

func (t TransactionType) Valid() bool {
	switch t {
	case TxExpense, TxIncome, TxTransfer, TxSavingsContribution, TxSavingsWithdrawal:
		return true
	}
	return false
}

// Validate checks the fields shared by every wallet create request.
func (w Wallet) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return &ValidationError{Field: "name", Reason: "name cannot be empty"}
	}
	if !w.Kind.Valid() {
		return &ValidationError{Field: "kind", Reason: "kind must be one of cash, bank, e-wallet, other"}
	}
	if strings.TrimSpace(w.Currency) == "" {
		return &ValidationError{Field: "currency", Reason: "currency cannot be empty"}
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Reason: "name cannot be empty"}
	}
	if !c.Kind.Valid() {
		return &ValidationError{Field: "kind", Reason: "kind must be expense or income"}
	}
	return nil
}

func (b SavingsBucket) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return &ValidationError{Field: "name", Reason: "name cannot be empty"}
	}
	return nil
}
