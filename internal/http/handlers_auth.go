package http

import (
	"errors"
	"net/http"
	"time"

	"prodash/internal/core"
	"prodash/internal/identity"
	applog "prodash/internal/log"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "prodash_session"

func (s *Server) sessionCookie(token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(s.auth.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) clearedSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func sessionToken(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// session resolves the request's cookie. ok is false for anonymous or
// invalid sessions; err is set only when the lookup itself failed.
func (s *Server) session(r *http.Request) (sess identity.Session, ok bool, err error) {
	token := sessionToken(r)
	if token == "" {
		return identity.Session{}, false, nil
	}
	sess, err = s.auth.Authenticate(r.Context(), token)
	if errors.Is(err, identity.ErrInvalidSession) {
		s.metrics.authFailures.WithLabelValues("invalid_session").Inc()
		return identity.Session{}, false, nil
	}
	if err != nil {
		return identity.Session{}, false, err
	}
	return sess, true, nil
}

// sessionHandler is a handler that runs for an authenticated user.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sess identity.Session)

// requireSession rejects requests without a valid session cookie and
// places the session on the request context.
func (s *Server) requireSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok, err := s.session(r)
		if err != nil {
			s.failure(r, err, "Session", "Failed to check session").Write(w)
			return
		}
		if !ok {
			UnauthorizedError("Unauthorized").Write(w)
			return
		}
		ctx := identity.WithSession(r.Context(), sess)
		ctx = applog.WithContext(ctx, applog.FromContext(ctx).With(applog.FieldUserID, sess.User.ID))
		next(w, r.WithContext(ctx), sess)
	}
}

// requireAdmin additionally requires the admin label.
func (s *Server) requireAdmin(next sessionHandler) http.HandlerFunc {
	return s.requireSession(func(w http.ResponseWriter, r *http.Request, sess identity.Session) {
		if !sess.User.IsAdmin() {
			s.metrics.authFailures.WithLabelValues("forbidden").Inc()
			ForbiddenError("Forbidden").Write(w)
			return
		}
		next(w, r, sess)
	})
}

type authResponse struct {
	Success bool       `json:"success"`
	UserID  string     `json:"userId,omitempty"`
	Name    string     `json:"name,omitempty"`
	Email   string     `json:"email,omitempty"`
	User    *core.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}

	issued, err := s.auth.Register(r.Context(), p.Get("name"), p.Get("email"), p.Get("password"))
	switch {
	case errors.Is(err, identity.ErrMissingFields):
		BadRequestError("Name, email and password required").Write(w)
		return
	case errors.Is(err, identity.ErrWeakPassword):
		BadRequestError(err.Error()).Write(w)
		return
	case errors.Is(err, identity.ErrEmailTaken):
		ConflictError("Email already registered").Write(w)
		return
	case err != nil:
		s.errors.LogError(r.Context(), "Registration failed", err, applog.OpCreate, applog.NewFields().WithRequestID(requestIDFrom(r)))
		InternalServerError("Registration failed").Write(w)
		return
	}

	s.logger.InfoContext(r.Context(), "User registered", applog.FieldUserID, issued.User.ID)
	NewJSONResponse().
		Cookie(s.sessionCookie(issued.Token, issued.ExpiresAt)).
		Data(authResponse{
			Success: true,
			UserID:  issued.User.ID,
			Name:    issued.User.Name,
			Email:   issued.User.Email,
			User:    &issued.User,
		}).
		Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}

	issued, err := s.auth.Login(r.Context(), p.Get("email"), p.Get("password"))
	switch {
	case errors.Is(err, identity.ErrMissingFields):
		BadRequestError("Email and password required").Write(w)
		return
	case errors.Is(err, identity.ErrInvalidCredentials):
		s.metrics.authFailures.WithLabelValues("invalid_credentials").Inc()
		UnauthorizedError("Invalid email or password").Write(w)
		return
	case err != nil:
		s.errors.LogError(r.Context(), "Login failed", err, applog.OpRead, applog.NewFields().WithRequestID(requestIDFrom(r)))
		InternalServerError("Login failed").Write(w)
		return
	}

	NewJSONResponse().
		Cookie(s.sessionCookie(issued.Token, issued.ExpiresAt)).
		Data(authResponse{Success: true, User: &issued.User}).
		Write(w)
}

// handleLogout always clears the cookie, even when the session is already gone.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), sessionToken(r)); err != nil {
		s.errors.LogError(r.Context(), "Logout failed", err, applog.OpDelete, applog.NewFields().WithRequestID(requestIDFrom(r)))
	}
	NewJSONResponse().
		Cookie(s.clearedSessionCookie()).
		Data(map[string]bool{"success": true}).
		Write(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok, err := s.session(r)
	if err != nil {
		s.failure(r, err, "Session", "Failed to check session").Write(w)
		return
	}
	if !ok {
		NewJSONResponse().Status(http.StatusUnauthorized).Data(map[string]any{"user": nil}).Write(w)
		return
	}
	NewJSONResponse().Data(map[string]any{"user": sess.User}).Write(w)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, _ identity.Session) {
	users, err := s.auth.ListUsers(r.Context())
	if err != nil {
		s.failure(r, err, "User", "Failed to list users").Write(w)
		return
	}
	ListResponse(users).Write(w)
}
