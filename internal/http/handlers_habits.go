package http

import (
	"net/http"

	"prodash/internal/core"
	"prodash/internal/identity"
	"prodash/internal/services"
)

type habitRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	CompletedDates []string `json:"completedDates"`
}

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	habits, err := s.svc.Habits.List(r.Context(), sess.User.ID)
	if err != nil {
		s.failure(r, err, "Habit", "Failed to fetch habits").Write(w)
		return
	}
	ListResponse(habits).Write(w)
}

func (s *Server) handleGetHabit(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	h, err := s.svc.Habits.Get(r.Context(), sess.User.ID, r.PathValue("id"))
	if err != nil {
		s.failure(r, err, "Habit", "Failed to fetch habit").Write(w)
		return
	}
	NewJSONResponse().Data(h).Write(w)
}

func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	var req habitRequest
	if res := DecodeOrFail(r, &req); res != nil {
		res.Write(w)
		return
	}
	h, err := s.svc.Habits.Create(r.Context(), sess.User.ID, core.Habit{
		Name:           sanitizeInput(req.Name),
		Description:    sanitizeInput(req.Description),
		CompletedDates: req.CompletedDates,
	})
	if err != nil {
		s.failure(r, err, "Habit", "Failed to create habit").Write(w)
		return
	}
	s.metrics.recordsCreated.WithLabelValues(services.CollectionHabits).Inc()
	created(w, h)
}

func (s *Server) handleUpdateHabit(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	var patch core.HabitPatch
	if res := DecodeOrFail(r, &patch); res != nil {
		res.Write(w)
		return
	}
	h, err := s.svc.Habits.Update(r.Context(), sess.User.ID, r.PathValue("id"), patch)
	if err != nil {
		s.failure(r, err, "Habit", "Failed to update habit").Write(w)
		return
	}
	NewJSONResponse().Data(h).Write(w)
}

func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	if err := s.svc.Habits.Delete(r.Context(), sess.User.ID, r.PathValue("id")); err != nil {
		s.failure(r, err, "Habit", "Failed to delete habit").Write(w)
		return
	}
	deleted(w)
}

// handleToggleHabit marks today done, or undone when it already was.
func (s *Server) handleToggleHabit(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	h, err := s.svc.Habits.Toggle(r.Context(), sess.User.ID, r.PathValue("id"))
	if err != nil {
		s.failure(r, err, "Habit", "Failed to update habit").Write(w)
		return
	}
	s.metrics.habitToggles.Inc()
	NewJSONResponse().Data(h).Write(w)
}
