package http

import (
	"net/http"

	"prodash/internal/identity"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	ov, err := s.svc.Dashboard.Overview(r.Context(), sess.User.ID)
	if err != nil {
		s.failure(r, err, "Dashboard", "Failed to load dashboard").Write(w)
		return
	}
	NewJSONResponse().Data(ov).Write(w)
}
