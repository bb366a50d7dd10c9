package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"muscleup/internal/core"
	"muscleup/internal/services"
)

// mutationResponse pairs the persisted expense with the outcome of the
// cut synchronization it triggered.
type mutationResponse struct {
	Expense  core.Expense      `json:"expense"`
	SyncInfo services.SyncInfo `json:"sync_info"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var input core.Expense
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, info, err := s.expenses.Create(r.Context(), input, actor(r))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	s.invalidateDate(created.Date)
	writeJSON(w, http.StatusCreated, mutationResponse{Expense: created, SyncInfo: info})
}

func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "/api/expenses/")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodPut:
		s.updateExpense(w, r, id)
	case http.MethodDelete:
		s.deleteExpense(w, r, id)
	default:
		w.Header().Set("Allow", "PUT, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) updateExpense(w http.ResponseWriter, r *http.Request, id string) {
	var input core.Expense
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, info, err := s.expenses.Update(r.Context(), id, input, actor(r))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	// The expense may have moved to another date and the old one is not
	// known here, so drop every cached aggregate.
	s.invalidateAll()
	writeJSON(w, http.StatusOK, mutationResponse{Expense: updated, SyncInfo: info})
}

func (s *Server) deleteExpense(w http.ResponseWriter, r *http.Request, id string) {
	hard := r.URL.Query().Get("hard") == "true"

	deleted, info, err := s.expenses.Delete(r.Context(), id, hard, actor(r))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	s.invalidateDate(deleted.Date)
	writeJSON(w, http.StatusOK, mutationResponse{Expense: deleted, SyncInfo: info})
}

func (s *Server) handleDailyExpenses(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	ledger, err := s.expenses.ListDay(r.Context(), date)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	if ledger.Expenses == nil {
		ledger.Expenses = []core.Expense{}
	}
	writeJSON(w, http.StatusOK, ledger)
}

func (s *Server) invalidateDate(date string) {
	s.aggregateCache.Delete("daily:" + date)
	if len(date) >= 7 {
		s.aggregateCache.Delete("monthly:" + date[:7])
	}
}

func (s *Server) invalidateAll() {
	s.aggregateCache.DeletePrefix("")
}
