// Package identity implements the local identity provider: password
// accounts, signed session cookies backed by a session table, and labels.
package identity

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"prodash/internal/core"
	"prodash/internal/storage"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSession     = errors.New("invalid session")
)

// Session is the authenticated principal of a request.
type Session struct {
	ID        string
	User      core.User
	ExpiresAt time.Time
}

// Issued is the result of a successful login or registration.
type Issued struct {
	User      core.User
	Token     string
	ExpiresAt time.Time
}

type claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type Options struct {
	Secret     string
	TTL        time.Duration
	BcryptCost int
	Now        func() time.Time
}

type Service struct {
	users    storage.UserRepository
	sessions storage.SessionRepository
	secret   []byte
	ttl      time.Duration
	cost     int
	now      func() time.Time
}

func NewService(users storage.UserRepository, sessions storage.SessionRepository, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = 30 * 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		users:    users,
		sessions: sessions,
		secret:   []byte(opts.Secret),
		ttl:      opts.TTL,
		cost:     opts.BcryptCost,
		now:      opts.Now,
	}
}

// TTL is the lifetime of newly issued sessions.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Register creates an account and opens a session for it.
func (s *Service) Register(ctx context.Context, name, email, password string) (Issued, error) {
	name, email = strings.TrimSpace(name), normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return Issued{}, ErrMissingFields
	}
	if len(password) < MinPasswordLength {
		return Issued{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Issued{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, core.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Labels:       []string{},
	})
	if errors.Is(err, storage.ErrDuplicateEmail) {
		return Issued{}, ErrEmailTaken
	}
	if err != nil {
		return Issued{}, fmt.Errorf("create user: %w", err)
	}
	return s.issue(ctx, user)
}

// Login checks the credentials and opens a new session.
func (s *Service) Login(ctx context.Context, email, password string) (Issued, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Issued{}, ErrMissingFields
	}

	user, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return Issued{}, ErrInvalidCredentials
	}
	if err != nil {
		return Issued{}, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Issued{}, ErrInvalidCredentials
	}
	return s.issue(ctx, user)
}

func (s *Service) issue(ctx context.Context, user core.User) (Issued, error) {
	now := s.now().UTC()
	sess := core.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return Issued{}, fmt.Errorf("create session: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		SessionID: sess.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return Issued{}, fmt.Errorf("sign session token: %w", err)
	}
	return Issued{User: user, Token: signed, ExpiresAt: sess.ExpiresAt}, nil
}

// Authenticate resolves a session token to its session and user.
func (s *Service) Authenticate(ctx context.Context, token string) (Session, error) {
	c, err := s.parse(token)
	if err != nil {
		return Session{}, err
	}

	sess, err := s.sessions.Session(ctx, c.SessionID)
	if errors.Is(err, core.ErrNotFound) {
		return Session{}, ErrInvalidSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	if sess.UserID != c.Subject || sess.Expired(s.now()) {
		return Session{}, ErrInvalidSession
	}

	user, err := s.users.UserByID(ctx, sess.UserID)
	if errors.Is(err, core.ErrNotFound) {
		return Session{}, ErrInvalidSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	return Session{ID: sess.ID, User: user, ExpiresAt: sess.ExpiresAt}, nil
}

// Logout deletes the session behind token. Invalid tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	c, err := s.parse(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, c.SessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) parse(token string) (*claims, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.SessionID == "" {
		return nil, ErrInvalidSession
	}
	return c, nil
}

// PurgeExpired removes sessions that are past their expiry.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	return s.sessions.DeleteExpiredSessions(ctx, s.now())
}

func (s *Service) ListUsers(ctx context.Context) ([]core.User, error) {
	return s.users.ListUsers(ctx)
}

// UserByEmail looks a user up by email, case-insensitively.
func (s *Service) UserByEmail(ctx context.Context, email string) (core.User, error) {
	return s.users.UserByEmail(ctx, normalizeEmail(email))
}

// AddLabel grants label to the user with the given email.
func (s *Service) AddLabel(ctx context.Context, email, label string) (core.User, error) {
	return s.editLabels(ctx, email, label, func(labels []string, label string) []string {
		if slices.Contains(labels, label) {
			return labels
		}
		return append(labels, label)
	})
}

// RemoveLabel revokes label from the user with the given email.
func (s *Service) RemoveLabel(ctx context.Context, email, label string) (core.User, error) {
	return s.editLabels(ctx, email, label, func(labels []string, label string) []string {
		return slices.DeleteFunc(labels, func(l string) bool { return l == label })
	})
}

func (s *Service) editLabels(ctx context.Context, email, label string, edit func([]string, string) []string) (core.User, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return core.User{}, ErrMissingFields
	}
	user, err := s.users.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return core.User{}, fmt.Errorf("load user %s: %w", email, err)
	}
	user.Labels = edit(slices.Clone(user.Labels), label)
	if err := s.users.SetLabels(ctx, user.ID, user.Labels); err != nil {
		return core.User{}, fmt.Errorf("set labels: %w", err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type sessionKey struct{}

// WithSession places sess on ctx.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(Session)
	return sess, ok
}
