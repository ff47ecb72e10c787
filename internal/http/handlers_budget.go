package http

import (
	"encoding/json"
	"net/http"

	"prodash/internal/core"
	"prodash/internal/identity"
	"prodash/internal/services"
)

// budgetRequest accepts the amount either as a JSON number or as a string
// such as "12,50".
type budgetRequest struct {
	Amount      json.RawMessage `json:"amount"`
	Category    string          `json:"category"`
	Type        core.EntryType  `json:"type"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
}

func (req budgetRequest) entry() (core.BudgetEntry, error) {
	amountText := string(req.Amount)
	var quoted string
	if err := json.Unmarshal(req.Amount, &quoted); err == nil {
		amountText = quoted
	}
	amount, err := core.ParseAmount(amountText)
	if err != nil {
		return core.BudgetEntry{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.BudgetEntry{}, err
	}
	return core.BudgetEntry{
		Amount:      amount,
		Category:    sanitizeInput(req.Category),
		Type:        req.Type,
		Date:        date,
		Description: sanitizeInput(req.Description),
	}, nil
}

func (s *Server) handleListBudget(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	entries, err := s.svc.Budget.List(r.Context(), sess.User.ID)
	if err != nil {
		s.failure(r, err, "Budget entry", "Failed to fetch budget entries").Write(w)
		return
	}
	ListResponse(entries).Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	e, err := s.svc.Budget.Get(r.Context(), sess.User.ID, r.PathValue("id"))
	if err != nil {
		s.failure(r, err, "Budget entry", "Failed to fetch budget entry").Write(w)
		return
	}
	NewJSONResponse().Data(e).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	var req budgetRequest
	if res := DecodeOrFail(r, &req); res != nil {
		res.Write(w)
		return
	}
	e, err := req.entry()
	if err == nil {
		e, err = s.svc.Budget.Create(r.Context(), sess.User.ID, e)
	}
	if err != nil {
		s.failure(r, err, "Budget entry", "Failed to create budget entry").Write(w)
		return
	}
	s.metrics.recordsCreated.WithLabelValues(services.CollectionBudget).Inc()
	created(w, e)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	var patch core.BudgetPatch
	if res := DecodeOrFail(r, &patch); res != nil {
		res.Write(w)
		return
	}
	e, err := s.svc.Budget.Update(r.Context(), sess.User.ID, r.PathValue("id"), patch)
	if err != nil {
		s.failure(r, err, "Budget entry", "Failed to update budget entry").Write(w)
		return
	}
	NewJSONResponse().Data(e).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	if err := s.svc.Budget.Delete(r.Context(), sess.User.ID, r.PathValue("id")); err != nil {
		s.failure(r, err, "Budget entry", "Failed to delete budget entry").Write(w)
		return
	}
	deleted(w)
}

// handleBudgetSummary returns totals and the per-category breakdown.
func (s *Server) handleBudgetSummary(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	report, err := s.svc.Budget.Report(r.Context(), sess.User.ID)
	if err != nil {
		s.failure(r, err, "Budget", "Failed to compute budget summary").Write(w)
		return
	}
	NewJSONResponse().Data(report).Write(w)
}
