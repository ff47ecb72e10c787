package http

import (
	"net/http"

	"prodash/internal/identity"
)

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	msgs, err := s.svc.Chat.History(r.Context(), sess.User.ID)
	if err != nil {
		s.failure(r, err, "Chat", "Failed to fetch messages").Write(w)
		return
	}
	ListResponse(msgs).Write(w)
}

// handleChatSend stores the user's message and answers with the assistant's
// reply. Assistant failures still produce a reply.
func (s *Server) handleChatSend(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	content := p.Get("content")
	if content == "" {
		content = p.Get("message")
	}

	reply, err := s.svc.Chat.Send(r.Context(), sess.User.ID, content)
	if err != nil {
		s.failure(r, err, "Chat", "Failed to send message").Write(w)
		return
	}
	s.metrics.chatReplies.Inc()
	NewJSONResponse().Data(map[string]any{"reply": reply.Content, "message": reply}).Write(w)
}

func (s *Server) handleChatClear(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	n, err := s.svc.Chat.Clear(r.Context(), sess.User.ID)
	if err != nil {
		s.failure(r, err, "Chat", "Failed to clear messages").Write(w)
		return
	}
	NewJSONResponse().Data(map[string]any{"success": true, "deleted": n}).Write(w)
}
