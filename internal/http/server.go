package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Server struct {
	http.Server
}

// NewServer configures routes and middleware, returning a
// ready-to-run http.Server.
func NewServer(addr string, h *Handler) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", h.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Route("/wallets", func(r chi.Router) {
			r.Get("/", h.handleListWallets)
			r.Post("/", h.handleCreateWallet)
			r.Get("/{id}", h.handleGetWallet)
			r.Post("/{id}/archive", h.handleArchiveWallet)
			r.Post("/{id}/unarchive", h.handleUnarchiveWallet)
			r.Get("/{id}/balance", h.handleWalletBalance)
			r.Get("/{id}/stats", h.handleWalletStats)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.handleListCategories)
			r.Post("/", h.handleCreateCategory)
			r.Get("/{id}", h.handleGetCategory)
			r.Post("/{id}/archive", h.handleArchiveCategory)
			r.Post("/{id}/unarchive", h.handleUnarchiveCategory)
		})

		r.Route("/savings-buckets", func(r chi.Router) {
			r.Get("/", h.handleListSavingsBuckets)
			r.Post("/", h.handleCreateSavingsBucket)
			r.Get("/{id}", h.handleGetSavingsBucket)
			r.Delete("/{id}", h.handleDeleteSavingsBucket)
			r.Get("/{id}/balance", h.handleBucketBalance)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.handleListTransactions)
			r.Post("/", h.handleCreateTransaction)
			r.Post("/bulk-delete", h.handleBulkDeleteTransactions)
			r.Get("/{id}", h.handleGetTransaction)
			r.Put("/{id}", h.handleUpdateTransaction)
			r.Delete("/{id}", h.handleDeleteTransaction)
			r.Post("/{id}/restore", h.handleRestoreTransaction)
			r.Delete("/{id}/permanent", h.handlePermanentDeleteTransaction)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", h.handleListBudgets)
			r.Post("/", h.handleCreateBudget)
			r.Post("/bulk-delete", h.handleBulkDeleteBudgets)
			r.Get("/summary", h.handleBudgetSummary)
			r.Post("/copy", h.handleCopyBudgets)
			r.Get("/{id}", h.handleGetBudget)
			r.Put("/{id}", h.handleUpdateBudget)
			r.Delete("/{id}", h.handleDeleteBudget)
		})
	})

	return &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: r,
		},
	}
}

// requestLogger logs one line per request with method, path, status and
// duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.InfoContext(r.Context(), "Request completed",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"url", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady answers ready only when the database responds.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := h.entities.ListWallets(ctx); err != nil {
		slog.ErrorContext(ctx, "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
