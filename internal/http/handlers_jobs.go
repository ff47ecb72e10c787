package http

import (
	"net/http"

	"prodash/internal/core"
	"prodash/internal/identity"
	"prodash/internal/services"
)

type jobRequest struct {
	Company     string         `json:"company"`
	Role        string         `json:"role"`
	Status      core.JobStatus `json:"status"`
	Notes       string         `json:"notes"`
	DateApplied string         `json:"dateApplied"`
}

func (req jobRequest) job() (core.Job, error) {
	j := core.Job{
		Company: sanitizeInput(req.Company),
		Role:    sanitizeInput(req.Role),
		Status:  req.Status,
		Notes:   sanitizeInput(req.Notes),
	}
	if req.DateApplied != "" {
		d, err := core.ParseDate(req.DateApplied)
		if err != nil {
			return core.Job{}, err
		}
		j.DateApplied = d
	}
	return j, nil
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	jobs, err := s.svc.Jobs.List(r.Context(), sess.User.ID)
	if err != nil {
		s.failure(r, err, "Job", "Failed to fetch jobs").Write(w)
		return
	}
	ListResponse(jobs).Write(w)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	j, err := s.svc.Jobs.Get(r.Context(), sess.User.ID, r.PathValue("id"))
	if err != nil {
		s.failure(r, err, "Job", "Failed to fetch job").Write(w)
		return
	}
	NewJSONResponse().Data(j).Write(w)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	var req jobRequest
	if res := DecodeOrFail(r, &req); res != nil {
		res.Write(w)
		return
	}
	j, err := req.job()
	if err == nil {
		j, err = s.svc.Jobs.Create(r.Context(), sess.User.ID, j)
	}
	if err != nil {
		s.failure(r, err, "Job", "Failed to create job").Write(w)
		return
	}
	s.metrics.recordsCreated.WithLabelValues(services.CollectionJobs).Inc()
	created(w, j)
}

func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	var patch core.JobPatch
	if res := DecodeOrFail(r, &patch); res != nil {
		res.Write(w)
		return
	}
	j, err := s.svc.Jobs.Update(r.Context(), sess.User.ID, r.PathValue("id"), patch)
	if err != nil {
		s.failure(r, err, "Job", "Failed to update job").Write(w)
		return
	}
	NewJSONResponse().Data(j).Write(w)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	if err := s.svc.Jobs.Delete(r.Context(), sess.User.ID, r.PathValue("id")); err != nil {
		s.failure(r, err, "Job", "Failed to delete job").Write(w)
		return
	}
	deleted(w)
}

// handleAdvanceJob moves the application to the next Kanban column.
func (s *Server) handleAdvanceJob(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	j, err := s.svc.Jobs.Advance(r.Context(), sess.User.ID, r.PathValue("id"))
	if err != nil {
		s.failure(r, err, "Job", "Failed to update job").Write(w)
		return
	}
	NewJSONResponse().Data(j).Write(w)
}
