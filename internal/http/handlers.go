package http

import (
	"conti/internal/services"
)

// Handler holds the services the HTTP layer delegates to.
type Handler struct {
	ledger   *services.LedgerService
	budgets  *services.BudgetService
	entities *services.EntityService
}

func NewHandler(ledger *services.LedgerService, budgets *services.BudgetService, entities *services.EntityService) *Handler {
	return &Handler{
		ledger:   ledger,
		budgets:  budgets,
		entities: entities,
	}
}
