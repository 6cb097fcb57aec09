package services

import (
	"context"
	"fmt"
	"log/slog"

	"conti/internal/core"
	"conti/internal/storage"
)

// BudgetService allocates monthly budgets and reports spend against
// them. It is a thin orchestrator; the uniqueness and target rules live
// with the store where they run inside the write transaction.
type BudgetService struct {
	store *storage.Store
}

func NewBudgetService(store *storage.Store) *BudgetService {
	return &BudgetService{store: store}
}

func (s *BudgetService) Create(ctx context.Context, in core.NewBudget) (core.Budget, error) {
	if err := in.Validate(); err != nil {
		return core.Budget{}, err
	}
	return s.store.CreateBudget(ctx, in)
}

func (s *BudgetService) Update(ctx context.Context, id int64, u core.BudgetUpdate) (core.Budget, error) {
	if err := u.Validate(); err != nil {
		return core.Budget{}, err
	}
	return s.store.UpdateBudget(ctx, id, u)
}

func (s *BudgetService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteBudget(ctx, id)
}

func (s *BudgetService) BulkDelete(ctx context.Context, ids []int64) (core.BulkDeleteResult, error) {
	if len(ids) == 0 {
		return core.BulkDeleteResult{}, &core.ValidationError{Field: "ids", Reason: "at least one id is required"}
	}
	if len(ids) > core.MaxBulkDelete {
		return core.BulkDeleteResult{}, &core.ValidationError{Field: "ids", Reason: fmt.Sprintf("at most %d ids per request", core.MaxBulkDelete)}
	}
	result, err := s.store.BulkDeleteBudgets(ctx, ids)
	if err != nil {
		return core.BulkDeleteResult{}, err
	}
	slog.InfoContext(ctx, "Bulk budget delete",
		"requested", len(ids),
		"deleted", result.DeletedCount,
		"failed", len(result.FailedIDs))
	return result, nil
}

func (s *BudgetService) Get(ctx context.Context, id int64) (core.Budget, error) {
	return s.store.GetBudget(ctx, id)
}

func (s *BudgetService) List(ctx context.Context, month core.MonthKey) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx, month)
}

func (s *BudgetService) Summary(ctx context.Context, month core.MonthKey) (core.BudgetSummary, error) {
	return s.store.BudgetSummary(ctx, month)
}

func (s *BudgetService) Copy(ctx context.Context, from, to core.MonthKey) (core.BudgetCopyResult, error) {
	if from == to {
		return core.BudgetCopyResult{}, &core.ValidationError{Field: "to_month", Reason: "source and destination months must be different"}
	}
	return s.store.CopyBudgets(ctx, from, to)
}
