package http

import (
	"net/http"

	"conti/internal/core"
)

type budgetRequest struct {
	Month           string  `json:"month"`
	CategoryID      *int64  `json:"category_id"`
	SavingsBucketID *int64  `json:"savings_bucket_id"`
	AmountCents     int64   `json:"amount_cents"`
	Note            *string `json:"note"`
}

type budgetUpdateRequest struct {
	AmountCents int64   `json:"amount_cents"`
	Note        *string `json:"note"`
}

type budgetCopyRequest struct {
	FromMonth string `json:"from_month"`
	ToMonth   string `json:"to_month"`
}

func (h *Handler) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	month, err := core.ParseMonth(req.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	target, err := core.ResolveBudgetTarget(req.CategoryID, req.SavingsBucketID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	budget, err := h.budgets.Create(r.Context(), core.NewBudget{
		Month:       month,
		Target:      target,
		AmountCents: req.AmountCents,
		Note:        req.Note,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, budget)
}

func (h *Handler) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	budget, err := h.budgets.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

func (h *Handler) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	budgets, err := h.budgets.List(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if budgets == nil {
		budgets = []core.Budget{}
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (h *Handler) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req budgetUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	budget, err := h.budgets.Update(r.Context(), id, core.BudgetUpdate{
		AmountCents: req.AmountCents,
		Note:        req.Note,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

func (h *Handler) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.budgets.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleBulkDeleteBudgets(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.budgets.BulkDelete(r.Context(), req.IDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleBudgetSummary(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := h.budgets.Summary(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleCopyBudgets(w http.ResponseWriter, r *http.Request) {
	var req budgetCopyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	from, err := core.ParseMonth(req.FromMonth)
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := core.ParseMonth(req.ToMonth)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.budgets.Copy(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
