// Package session holds the process-wide authenticated identity and its
// lifecycle: restore on startup, replace on sign-in, clear on sign-out.
package session

import (
	"context"
	"sync"

	"watchtrack/models"
)

// Authenticator is the identity provider boundary the session delegates to.
type Authenticator interface {
	SignUp(ctx context.Context, email, password, fullName string) (token string, user models.User, err error)
	SignIn(ctx context.Context, email, password string) (token string, user models.User, err error)
	SignOut(ctx context.Context, token string) error
	Restore(ctx context.Context, token string) (models.User, error)
}

// Session tracks the current user. Listeners registered with OnChange are
// invoked on every transition, including the clearing one.
type Session struct {
	auth Authenticator

	mu        sync.RWMutex
	user      *models.User
	token     string
	loading   bool
	listeners []func(*models.User)
}

// New creates a session with no identity. It reports loading until Restore
// or the first sign-in settles.
func New(auth Authenticator) *Session {
	return &Session{auth: auth, loading: true}
}

// Restore attempts to resume the session behind a previously issued token,
// as on application startup. An empty or rejected token settles to signed-out
// without error; restore failure is not a caller-facing fault.
func (s *Session) Restore(ctx context.Context, token string) {
	if token == "" {
		s.set(nil, "")
		return
	}
	user, err := s.auth.Restore(ctx, token)
	if err != nil {
		s.set(nil, "")
		return
	}
	s.set(&user, token)
}

// SignIn establishes a new session, replacing any current one.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	token, user, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	s.set(&user, token)
	return nil
}

// SignUp registers a new account and establishes its session.
func (s *Session) SignUp(ctx context.Context, email, password, fullName string) error {
	token, user, err := s.auth.SignUp(ctx, email, password, fullName)
	if err != nil {
		return err
	}
	s.set(&user, token)
	return nil
}

// SignOut clears the session. The provider-side revocation failure still
// clears local state; a token the provider no longer honors is equivalent.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	var err error
	if token != "" {
		err = s.auth.SignOut(ctx, token)
	}
	s.set(nil, "")
	return err
}

// CurrentUser returns the authenticated user, or nil when signed out.
func (s *Session) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the bearer token of the active session, or empty.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Loading reports whether the initial restore is still outstanding.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// OnChange registers fn to run on every session transition. fn receives the
// new user, or nil on sign-out.
func (s *Session) OnChange(fn func(*models.User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) set(user *models.User, token string) {
	s.mu.Lock()
	s.user = user
	s.token = token
	s.loading = false
	listeners := append([]func(*models.User){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(user)
	}
}
