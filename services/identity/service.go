// Package identity is the provider behind sign-up, sign-in, sign-out and
// session restore. Passwords are stored as bcrypt hashes; sessions are HS256
// bearer tokens revocable before expiry.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"watchtrack/internal/database"
	"watchtrack/models"
)

const (
	tokenIssuer  = "watchtrack"
	tokenTTL     = 7 * 24 * time.Hour
	minPasswordLen = 6
)

var (
	// ErrInvalidLogin covers unknown email and wrong password alike.
	ErrInvalidLogin = errors.New("invalid email or password")
	// ErrInvalidToken covers malformed, expired, and revoked tokens.
	ErrInvalidToken = errors.New("invalid or expired session token")
	// ErrEmailTaken is re-exported so handlers need not import the database package.
	ErrEmailTaken = database.ErrEmailTaken
	// ErrWeakPassword rejects passwords below the minimum length.
	ErrWeakPassword = fmt.Errorf("password must be at least %d characters", minPasswordLen)
	// ErrBadEmail rejects emails that cannot plausibly be addresses.
	ErrBadEmail = errors.New("invalid email address")
)

// Session is an established identity: the bearer token and its user.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// Service implements the identity provider against local storage.
type Service struct {
	accounts *database.AccountRepository
	tokens   *database.TokenRepository
	secret   []byte
}

// NewService wires the identity provider to the database and signing secret.
func NewService(db *database.DB, secret string) *Service {
	return &Service{
		accounts: db.Accounts,
		tokens:   db.Tokens,
		secret:   []byte(secret),
	}
}

// SignUp creates an account and returns an established session for it.
func (s *Service) SignUp(ctx context.Context, email, password, fullName string) (Session, error) {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") || len(email) < 3 {
		return Session{}, ErrBadEmail
	}
	if len(password) < minPasswordLen {
		return Session{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	acc, err := s.accounts.Create(ctx, email, string(hash), strings.TrimSpace(fullName))
	if err != nil {
		return Session{}, err
	}
	return s.issue(acc.User())
}

// SignIn verifies the credentials and returns a fresh session.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	acc, err := s.accounts.ByEmail(ctx, email)
	if errors.Is(err, database.ErrAccountNotFound) {
		return Session{}, ErrInvalidLogin
	}
	if err != nil {
		return Session{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return Session{}, ErrInvalidLogin
	}
	return s.issue(acc.User())
}

// SignOut revokes the token until its natural expiry. Tokens that no longer
// validate are treated as already signed out.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	return s.tokens.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Validate restores the session behind a bearer token, rejecting revoked
// tokens and tokens of deleted accounts.
func (s *Service) Validate(ctx context.Context, token string) (models.User, error) {
	claims, err := s.parse(token)
	if err != nil {
		return models.User{}, ErrInvalidToken
	}

	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return models.User{}, err
	}
	if revoked {
		return models.User{}, ErrInvalidToken
	}

	acc, err := s.accounts.ByID(ctx, claims.Subject)
	if errors.Is(err, database.ErrAccountNotFound) {
		return models.User{}, ErrInvalidToken
	}
	if err != nil {
		return models.User{}, err
	}
	return acc.User(), nil
}

// Profile returns the profile row for the user, creating it on first view.
func (s *Service) Profile(ctx context.Context, userID string) (models.Profile, error) {
	return s.accounts.GetOrCreateProfile(ctx, userID)
}

func (s *Service) issue(user models.User) (Session, error) {
	now := time.Now()
	expires := now.Add(tokenTTL)
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   user.ID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	return Session{Token: token, ExpiresAt: expires, User: user}, nil
}

func (s *Service) parse(token string) (jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return jwt.RegisteredClaims{}, err
	}
	return claims, nil
}
