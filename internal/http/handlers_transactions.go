package http

import (
	"fmt"
	"net/http"
	"time"

	"conti/internal/core"
	"conti/internal/storage"
)

// transactionRequest is the flat wire shape for all five transaction
// types. Which reference fields are required depends on type.
type transactionRequest struct {
	Type            core.TransactionType `json:"type"`
	OccurredAt      time.Time            `json:"occurred_at"`
	AmountCents     int64                `json:"amount_cents"`
	Note            *string              `json:"note"`
	Payee           *string              `json:"payee"`
	IdempotencyKey  *string              `json:"idempotency_key"`
	WalletID        int64                `json:"wallet_id"`
	CategoryID      int64                `json:"category_id"`
	FromWalletID    int64                `json:"from_wallet_id"`
	ToWalletID      int64                `json:"to_wallet_id"`
	SavingsBucketID int64                `json:"savings_bucket_id"`
}

func (req transactionRequest) fields() core.TransactionFields {
	return core.TransactionFields{
		OccurredAt:     req.OccurredAt,
		AmountCents:    req.AmountCents,
		Note:           req.Note,
		Payee:          req.Payee,
		IdempotencyKey: req.IdempotencyKey,
	}
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

func (h *Handler) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var (
		ev  core.TransactionEvent
		err error
	)
	switch req.Type {
	case core.TxExpense:
		ev, err = h.ledger.CreateExpense(r.Context(), core.NewExpense{
			TransactionFields: req.fields(),
			WalletID:          req.WalletID,
			CategoryID:        req.CategoryID,
		})
	case core.TxIncome:
		ev, err = h.ledger.CreateIncome(r.Context(), core.NewIncome{
			TransactionFields: req.fields(),
			WalletID:          req.WalletID,
		})
	case core.TxTransfer:
		ev, err = h.ledger.CreateTransfer(r.Context(), core.NewTransfer{
			TransactionFields: req.fields(),
			FromWalletID:      req.FromWalletID,
			ToWalletID:        req.ToWalletID,
		})
	case core.TxSavingsContribution:
		ev, err = h.ledger.CreateSavingsContribution(r.Context(), core.NewSavingsMovement{
			TransactionFields: req.fields(),
			WalletID:          req.WalletID,
			BucketID:          req.SavingsBucketID,
		})
	case core.TxSavingsWithdrawal:
		ev, err = h.ledger.CreateSavingsWithdrawal(r.Context(), core.NewSavingsMovement{
			TransactionFields: req.fields(),
			WalletID:          req.WalletID,
			BucketID:          req.SavingsBucketID,
		})
	default:
		err = &core.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown transaction type %q", req.Type)}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (h *Handler) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var ev core.TransactionEvent
	switch req.Type {
	case core.TxExpense:
		ev, err = h.ledger.UpdateExpense(r.Context(), id, core.NewExpense{
			TransactionFields: req.fields(),
			WalletID:          req.WalletID,
			CategoryID:        req.CategoryID,
		})
	case core.TxIncome:
		ev, err = h.ledger.UpdateIncome(r.Context(), id, core.NewIncome{
			TransactionFields: req.fields(),
			WalletID:          req.WalletID,
		})
	case core.TxTransfer:
		ev, err = h.ledger.UpdateTransfer(r.Context(), id, core.NewTransfer{
			TransactionFields: req.fields(),
			FromWalletID:      req.FromWalletID,
			ToWalletID:        req.ToWalletID,
		})
	case core.TxSavingsContribution:
		ev, err = h.ledger.UpdateSavingsContribution(r.Context(), id, core.NewSavingsMovement{
			TransactionFields: req.fields(),
			WalletID:          req.WalletID,
			BucketID:          req.SavingsBucketID,
		})
	case core.TxSavingsWithdrawal:
		ev, err = h.ledger.UpdateSavingsWithdrawal(r.Context(), id, core.NewSavingsMovement{
			TransactionFields: req.fields(),
			WalletID:          req.WalletID,
			BucketID:          req.SavingsBucketID,
		})
	default:
		err = &core.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown transaction type %q", req.Type)}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *Handler) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ev, err := h.ledger.Get(r.Context(), id, boolQuery(r, "include_deleted"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := transactionFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	events, err := h.ledger.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if events == nil {
		events = []core.TransactionEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func transactionFilter(r *http.Request) (storage.TransactionFilter, error) {
	var f storage.TransactionFilter
	q := r.URL.Query()

	if raw := q.Get("wallet_id"); raw != "" {
		id, err := parsePositiveInt(raw)
		if err != nil {
			return f, &core.ValidationError{Field: "wallet_id", Reason: "must be a positive integer"}
		}
		f.WalletID = &id
	}
	if raw := q.Get("savings_bucket_id"); raw != "" {
		id, err := parsePositiveInt(raw)
		if err != nil {
			return f, &core.ValidationError{Field: "savings_bucket_id", Reason: "must be a positive integer"}
		}
		f.BucketID = &id
	}
	if raw := q.Get("type"); raw != "" {
		typ := core.TransactionType(raw)
		if !typ.Valid() {
			return f, &core.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown transaction type %q", raw)}
		}
		f.Type = &typ
	}
	if raw := q.Get("month"); raw != "" {
		month, err := core.ParseMonth(raw)
		if err != nil {
			return f, err
		}
		f.Month = &month
	}
	f.IncludeDeleted = boolQuery(r, "include_deleted")
	return f, nil
}

func (h *Handler) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.ledger.SoftDelete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRestoreTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.ledger.Restore(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	ev, err := h.ledger.Get(r.Context(), id, false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *Handler) handlePermanentDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.ledger.PermanentDelete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleBulkDeleteTransactions(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.ledger.BulkDelete(r.Context(), req.IDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
