package core

import (
	"math"
)

type (
	NewBudget struct {
		Month       MonthKey
		Target      BudgetTarget
		AmountCents int64
		Note        *string
	}

	BudgetUpdate struct {
		AmountCents int64
		Note        *string
	}

	BudgetSummaryItem struct {
		BudgetID       int64        `json:"budget_id"`
		Target         BudgetTarget `json:"target"`
		TargetName     string       `json:"target_name"`
		BudgetCents    int64        `json:"budget_cents"`
		SpentCents     int64        `json:"spent_cents"`
		RemainingCents int64        `json:"remaining_cents"`
		PercentUsed    float64      `json:"percent_used"`
	}

	BudgetSummary struct {
		Month            MonthKey            `json:"month"`
		TotalBudgetCents int64               `json:"total_budget_cents"`
		TotalSpentCents  int64               `json:"total_spent_cents"`
		RemainingCents   int64               `json:"remaining_cents"`
		Items            []BudgetSummaryItem `json:"items"`
	}

	BudgetCopyResult struct {
		Created []Budget       `json:"created"`
		Skipped []BudgetTarget `json:"skipped"`
	}
)

// ResolveBudgetTarget turns the transport's two optional ids into the
// target union, enforcing the exactly-one rule.
func ResolveBudgetTarget(categoryID, bucketID *int64) (BudgetTarget, error) {
	switch {
	case categoryID != nil && bucketID != nil:
		return BudgetTarget{}, &ValidationError{Reason: "cannot specify both category and savings bucket"}
	case categoryID != nil:
		return CategoryTarget(*categoryID), nil
	case bucketID != nil:
		return BucketTarget(*bucketID), nil
	}
	return BudgetTarget{}, &ValidationError{Reason: "must specify either category or savings bucket"}
}

func (in NewBudget) Validate() error {
	if in.Month == "" {
		return &ValidationError{Field: "month", Reason: "month is required"}
	}
	if in.Target.IsZero() {
		return &ValidationError{Reason: "must specify either category or savings bucket"}
	}
	if in.AmountCents <= 0 {
		return &ValidationError{Field: "amount_cents", Reason: "amount must be a positive integer"}
	}
	return nil
}

func (u BudgetUpdate) Validate() error {
	if u.AmountCents <= 0 {
		return &ValidationError{Field: "amount_cents", Reason: "amount must be a positive integer"}
	}
	return nil
}

// PercentUsed computes 100*spent/budget rounded to two decimals,
// returning 0 for a zero budget.
func PercentUsed(spent, budget int64) float64 {
	if budget == 0 {
		return 0
	}
	return math.Round(float64(spent)/float64(budget)*100*100) / 100
}
