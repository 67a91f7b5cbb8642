package http

import (
	"net/http"

	"finanse/internal/auth"
	"finanse/internal/core"
	applog "finanse/internal/log"
	"finanse/internal/storage"
)

type listResponse[T any] struct {
	Items     []T  `json:"items"`
	FromCache bool `json:"fromCache"`
}

// orEmpty keeps empty lists as [] on the wire.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, fromCache := s.deps.Ledger.Categories(r.Context(), auth.OwnerFrom(r.Context()))
	s.appMetrics.recordRead(fromCache)
	NewJSONResponse().Body(listResponse[core.Category]{Items: orEmpty(cats), FromCache: fromCache}).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	owner := auth.OwnerFrom(r.Context())
	c, err := s.deps.Ledger.AddCategory(r.Context(), owner, req.toCategory())
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	s.ledgerWritten(r, applog.OpCreate, owner, storage.Categories, c.ID)
	NewJSONResponse().Status(http.StatusCreated).Body(c).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	owner, id := auth.OwnerFrom(r.Context()), r.PathValue("id")
	if err := s.deps.Ledger.DeleteCategory(r.Context(), owner, id); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	s.ledgerWritten(r, applog.OpDelete, owner, storage.Categories, id)
	NoContent().Write(w)
}

func (s *Server) handleCleanupCategories(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFrom(r.Context())
	kept, removed, err := s.deps.Ledger.CleanupDuplicateCategories(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, "cleanup", err)
		return
	}
	if removed > 0 {
		s.ledgerWritten(r, applog.OpDelete, owner, storage.Categories, "")
	}
	NewJSONResponse().Body(map[string]any{"categories": kept, "removed": removed}).Write(w)
}

func (s *Server) handleSeedCategories(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFrom(r.Context())
	added, err := s.deps.Ledger.SeedCategories(r.Context(), owner, s.deps.CategorySeed)
	if err != nil {
		s.writeError(w, r, "seed", err)
		return
	}
	if added > 0 {
		s.ledgerWritten(r, applog.OpCreate, owner, storage.Categories, "")
	}
	NewJSONResponse().Body(map[string]int{"added": added}).Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, fromCache := s.deps.Ledger.Transactions(r.Context(), auth.OwnerFrom(r.Context()))
	s.appMetrics.recordRead(fromCache)
	NewJSONResponse().Body(listResponse[core.Transaction]{Items: orEmpty(txs), FromCache: fromCache}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	owner := auth.OwnerFrom(r.Context())
	t, err := s.deps.Ledger.AddTransaction(r.Context(), owner, req.toTransaction(""))
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	s.ledgerWritten(r, applog.OpCreate, owner, storage.Transactions, t.ID)
	NewJSONResponse().Status(http.StatusCreated).Body(t).Write(w)
}

func (s *Server) handleReplaceTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	owner := auth.OwnerFrom(r.Context())
	t, err := s.deps.Ledger.ReplaceTransaction(r.Context(), owner, req.toTransaction(r.PathValue("id")))
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	s.ledgerWritten(r, applog.OpUpdate, owner, storage.Transactions, t.ID)
	NewJSONResponse().Body(t).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	owner, id := auth.OwnerFrom(r.Context()), r.PathValue("id")
	if err := s.deps.Ledger.DeleteTransaction(r.Context(), owner, id); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	s.ledgerWritten(r, applog.OpDelete, owner, storage.Transactions, id)
	NoContent().Write(w)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets := s.deps.Ledger.Budgets(r.Context(), auth.OwnerFrom(r.Context()))
	NewJSONResponse().Body(listResponse[core.Budget]{Items: orEmpty(budgets)}).Write(w)
}

// handleBudgetUsage returns every budget with its category and spending.
func (s *Server) handleBudgetUsage(w http.ResponseWriter, r *http.Request) {
	views := s.deps.Ledger.BudgetViews(r.Context(), auth.OwnerFrom(r.Context()))
	NewJSONResponse().Body(listResponse[core.BudgetView]{Items: orEmpty(views)}).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	owner := auth.OwnerFrom(r.Context())
	b, err := s.deps.Ledger.AddBudget(r.Context(), owner, req.toBudget(""))
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	s.ledgerWritten(r, applog.OpCreate, owner, storage.Budgets, b.ID)
	NewJSONResponse().Status(http.StatusCreated).Body(b).Write(w)
}

func (s *Server) handleReplaceBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	owner := auth.OwnerFrom(r.Context())
	b, err := s.deps.Ledger.ReplaceBudget(r.Context(), owner, req.toBudget(r.PathValue("id")))
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	s.ledgerWritten(r, applog.OpUpdate, owner, storage.Budgets, b.ID)
	NewJSONResponse().Body(b).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	owner, id := auth.OwnerFrom(r.Context()), r.PathValue("id")
	if err := s.deps.Ledger.DeleteBudget(r.Context(), owner, id); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	s.ledgerWritten(r, applog.OpDelete, owner, storage.Budgets, id)
	NoContent().Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Dashboard.Load(r.Context(), auth.OwnerFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(d).Write(w)
}
