package core

import (
	"encoding/json"
	"fmt"
)

type accountKind uint8

const (
	accountWallet accountKind = iota + 1
	accountBucket
)

// Account identifies exactly one wallet or one savings bucket. The zero
// value references nothing; postings always carry a non-zero Account.
type Account struct {
	kind accountKind
	id   int64
}

func WalletAccount(id int64) Account { return Account{kind: accountWallet, id: id} }
func BucketAccount(id int64) Account { return Account{kind: accountBucket, id: id} }

// WalletID returns the wallet id and true when the account is a wallet.
func (a Account) WalletID() (int64, bool) { return a.id, a.kind == accountWallet }

// BucketID returns the savings bucket id and true when the account is a bucket.
func (a Account) BucketID() (int64, bool) { return a.id, a.kind == accountBucket }

func (a Account) IsZero() bool { return a.kind == 0 }

func (a Account) String() string {
	switch a.kind {
	case accountWallet:
		return fmt.Sprintf("wallet:%d", a.id)
	case accountBucket:
		return fmt.Sprintf("bucket:%d", a.id)
	}
	return "account:none"
}

func (a Account) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case accountWallet:
		return json.Marshal(struct {
			WalletID int64 `json:"wallet_id"`
		}{a.id})
	case accountBucket:
		return json.Marshal(struct {
			BucketID int64 `json:"savings_bucket_id"`
		}{a.id})
	}
	return []byte("null"), nil
}

type targetKind uint8

const (
	targetCategory targetKind = iota + 1
	targetBucket
)

// BudgetTarget is the single category or savings bucket a budget amount
// applies to for a given month.
type BudgetTarget struct {
	kind targetKind
	id   int64
}

func CategoryTarget(id int64) BudgetTarget { return BudgetTarget{kind: targetCategory, id: id} }
func BucketTarget(id int64) BudgetTarget   { return BudgetTarget{kind: targetBucket, id: id} }

// CategoryID returns the category id and true when the target is a category.
func (t BudgetTarget) CategoryID() (int64, bool) { return t.id, t.kind == targetCategory }

// BucketID returns the savings bucket id and true when the target is a bucket.
func (t BudgetTarget) BucketID() (int64, bool) { return t.id, t.kind == targetBucket }

func (t BudgetTarget) IsZero() bool { return t.kind == 0 }

func (t BudgetTarget) String() string {
	switch t.kind {
	case targetCategory:
		return fmt.Sprintf("category:%d", t.id)
	case targetBucket:
		return fmt.Sprintf("bucket:%d", t.id)
	}
	return "target:none"
}

func (t BudgetTarget) MarshalJSON() ([]byte, error) {
	switch t.kind {
	case targetCategory:
		return json.Marshal(struct {
			CategoryID int64 `json:"category_id"`
		}{t.id})
	case targetBucket:
		return json.Marshal(struct {
			BucketID int64 `json:"savings_bucket_id"`
		}{t.id})
	}
	return []byte("null"), nil
}
