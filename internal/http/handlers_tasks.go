package http

import (
	"net/http"

	"prodash/internal/core"
	"prodash/internal/identity"
	"prodash/internal/services"
)

type taskRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Priority    core.TaskPriority `json:"priority"`
	Status      core.TaskStatus   `json:"status"`
	DueDate     string            `json:"dueDate"`
	ProjectID   string            `json:"projectId"`
}

func (req taskRequest) task() (core.Task, error) {
	t := core.Task{
		Title:       sanitizeInput(req.Title),
		Description: sanitizeInput(req.Description),
		Priority:    req.Priority,
		Status:      req.Status,
		ProjectID:   sanitizeInput(req.ProjectID),
	}
	if req.DueDate != "" {
		d, err := core.ParseDate(req.DueDate)
		if err != nil {
			return core.Task{}, err
		}
		t.DueDate = &d
	}
	return t, nil
}

func deleted(w http.ResponseWriter) {
	NewJSONResponse().Data(map[string]bool{"success": true}).Write(w)
}

func created(w http.ResponseWriter, v any) {
	NewJSONResponse().Status(http.StatusCreated).Data(v).Write(w)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	tasks, err := s.svc.Tasks.List(r.Context(), sess.User.ID)
	if err != nil {
		s.failure(r, err, "Task", "Failed to fetch tasks").Write(w)
		return
	}
	ListResponse(tasks).Write(w)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	task, err := s.svc.Tasks.Get(r.Context(), sess.User.ID, r.PathValue("id"))
	if err != nil {
		s.failure(r, err, "Task", "Failed to fetch task").Write(w)
		return
	}
	NewJSONResponse().Data(task).Write(w)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	var req taskRequest
	if res := DecodeOrFail(r, &req); res != nil {
		res.Write(w)
		return
	}
	t, err := req.task()
	if err == nil {
		t, err = s.svc.Tasks.Create(r.Context(), sess.User.ID, t)
	}
	if err != nil {
		s.failure(r, err, "Task", "Failed to create task").Write(w)
		return
	}
	s.metrics.recordsCreated.WithLabelValues(services.CollectionTasks).Inc()
	created(w, t)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	var patch core.TaskPatch
	if res := DecodeOrFail(r, &patch); res != nil {
		res.Write(w)
		return
	}
	t, err := s.svc.Tasks.Update(r.Context(), sess.User.ID, r.PathValue("id"), patch)
	if err != nil {
		s.failure(r, err, "Task", "Failed to update task").Write(w)
		return
	}
	NewJSONResponse().Data(t).Write(w)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	if err := s.svc.Tasks.Delete(r.Context(), sess.User.ID, r.PathValue("id")); err != nil {
		s.failure(r, err, "Task", "Failed to delete task").Write(w)
		return
	}
	deleted(w)
}

type projectRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Status      core.ProjectStatus `json:"status"`
	Progress    int                `json:"progress"`
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	projects, err := s.svc.Projects.List(r.Context(), sess.User.ID)
	if err != nil {
		s.failure(r, err, "Project", "Failed to fetch projects").Write(w)
		return
	}
	ListResponse(projects).Write(w)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	p, err := s.svc.Projects.Get(r.Context(), sess.User.ID, r.PathValue("id"))
	if err != nil {
		s.failure(r, err, "Project", "Failed to fetch project").Write(w)
		return
	}
	NewJSONResponse().Data(p).Write(w)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	var req projectRequest
	if res := DecodeOrFail(r, &req); res != nil {
		res.Write(w)
		return
	}
	p, err := s.svc.Projects.Create(r.Context(), sess.User.ID, core.Project{
		Name:        sanitizeInput(req.Name),
		Description: sanitizeInput(req.Description),
		Status:      req.Status,
		Progress:    req.Progress,
	})
	if err != nil {
		s.failure(r, err, "Project", "Failed to create project").Write(w)
		return
	}
	s.metrics.recordsCreated.WithLabelValues(services.CollectionProjects).Inc()
	created(w, p)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	var patch core.ProjectPatch
	if res := DecodeOrFail(r, &patch); res != nil {
		res.Write(w)
		return
	}
	p, err := s.svc.Projects.Update(r.Context(), sess.User.ID, r.PathValue("id"), patch)
	if err != nil {
		s.failure(r, err, "Project", "Failed to update project").Write(w)
		return
	}
	NewJSONResponse().Data(p).Write(w)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	if err := s.svc.Projects.Delete(r.Context(), sess.User.ID, r.PathValue("id")); err != nil {
		s.failure(r, err, "Project", "Failed to delete project").Write(w)
		return
	}
	deleted(w)
}
