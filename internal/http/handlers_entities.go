package http

import (
	"net/http"

	"conti/internal/core"
)

type walletRequest struct {
	Name     string          `json:"name"`
	Kind     core.WalletKind `json:"kind"`
	Currency string          `json:"currency"`
}

type categoryRequest struct {
	Name string            `json:"name"`
	Kind core.CategoryKind `json:"kind"`
}

type savingsBucketRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type balanceResponse struct {
	BalanceCents int64 `json:"balance_cents"`
}

func (h *Handler) handleCreateWallet(w http.ResponseWriter, r *http.Request) {
	var req walletRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	wallet, err := h.entities.CreateWallet(r.Context(), core.Wallet{
		Name:     req.Name,
		Kind:     req.Kind,
		Currency: req.Currency,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wallet)
}

func (h *Handler) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	wallet, err := h.entities.GetWallet(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (h *Handler) handleListWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := h.entities.ListWallets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if wallets == nil {
		wallets = []core.Wallet{}
	}
	writeJSON(w, http.StatusOK, wallets)
}

func (h *Handler) handleArchiveWallet(w http.ResponseWriter, r *http.Request) {
	h.setWalletArchived(w, r, true)
}

func (h *Handler) handleUnarchiveWallet(w http.ResponseWriter, r *http.Request) {
	h.setWalletArchived(w, r, false)
}

func (h *Handler) setWalletArchived(w http.ResponseWriter, r *http.Request, archived bool) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.entities.SetWalletArchived(r.Context(), id, archived); err != nil {
		writeError(w, r, err)
		return
	}
	wallet, err := h.entities.GetWallet(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (h *Handler) handleWalletBalance(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	balance, err := h.ledger.WalletBalance(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{BalanceCents: balance})
}

func (h *Handler) handleWalletStats(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := h.ledger.WalletStats(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	category, err := h.entities.CreateCategory(r.Context(), core.Category{
		Name: req.Name,
		Kind: req.Kind,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *Handler) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	category, err := h.entities.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.entities.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if categories == nil {
		categories = []core.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) handleArchiveCategory(w http.ResponseWriter, r *http.Request) {
	h.setCategoryArchived(w, r, true)
}

func (h *Handler) handleUnarchiveCategory(w http.ResponseWriter, r *http.Request) {
	h.setCategoryArchived(w, r, false)
}

func (h *Handler) setCategoryArchived(w http.ResponseWriter, r *http.Request, archived bool) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.entities.SetCategoryArchived(r.Context(), id, archived); err != nil {
		writeError(w, r, err)
		return
	}
	category, err := h.entities.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *Handler) handleCreateSavingsBucket(w http.ResponseWriter, r *http.Request) {
	var req savingsBucketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	bucket, err := h.entities.CreateSavingsBucket(r.Context(), core.SavingsBucket{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bucket)
}

func (h *Handler) handleGetSavingsBucket(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	bucket, err := h.entities.GetSavingsBucket(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bucket)
}

func (h *Handler) handleListSavingsBuckets(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.entities.ListSavingsBuckets(r.Context(), boolQuery(r, "include_deleted"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if buckets == nil {
		buckets = []core.SavingsBucket{}
	}
	writeJSON(w, http.StatusOK, buckets)
}

func (h *Handler) handleDeleteSavingsBucket(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.entities.DeleteSavingsBucket(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleBucketBalance(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	balance, err := h.ledger.BucketBalance(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{BalanceCents: balance})
}
