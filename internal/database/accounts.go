package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"watchtrack/models"
)

var (
	// ErrEmailTaken is returned when an account with the email already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrAccountNotFound is returned when no account matches the lookup.
	ErrAccountNotFound = errors.New("account not found")
)

// Account is the credential-bearing row behind a user.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// User converts the account into its client-visible shape.
func (a Account) User() models.User {
	return models.User{ID: a.ID, Email: a.Email, FullName: a.FullName}
}

// AccountRepository persists accounts and their lazily created profiles.
type AccountRepository struct {
	conn *sql.DB
}

func NewAccountRepository(conn *sql.DB) *AccountRepository {
	return &AccountRepository{conn: conn}
}

// Create inserts a new account. Emails are stored lowercased.
func (r *AccountRepository) Create(ctx context.Context, email, passwordHash, fullName string) (Account, error) {
	now := time.Now().UTC()
	acc := Account{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		FullName:     fullName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO accounts (id, email, password_hash, full_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		acc.ID, acc.Email, acc.PasswordHash, acc.FullName, acc.CreatedAt, acc.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Account{}, ErrEmailTaken
		}
		return Account{}, fmt.Errorf("insert account: %w", err)
	}
	return acc, nil
}

// ByEmail looks up an account by its lowercased email.
func (r *AccountRepository) ByEmail(ctx context.Context, email string) (Account, error) {
	return r.one(ctx, `WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
}

// ByID looks up an account by id.
func (r *AccountRepository) ByID(ctx context.Context, id string) (Account, error) {
	return r.one(ctx, `WHERE id = ?`, id)
}

func (r *AccountRepository) one(ctx context.Context, where string, arg any) (Account, error) {
	var acc Account
	err := r.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, full_name, created_at, updated_at FROM accounts `+where,
		arg).Scan(&acc.ID, &acc.Email, &acc.PasswordHash, &acc.FullName, &acc.CreatedAt, &acc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("query account: %w", err)
	}
	return acc, nil
}

// GetOrCreateProfile returns the profile row for userID, creating it from the
// account on first access.
func (r *AccountRepository) GetOrCreateProfile(ctx context.Context, userID string) (models.Profile, error) {
	profile, err := r.profile(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, fmt.Errorf("query profile: %w", err)
	}

	acc, err := r.ByID(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}

	now := time.Now().UTC()
	_, err = r.conn.ExecContext(ctx,
		`INSERT INTO profiles (id, email, full_name, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, '', ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		acc.ID, acc.Email, acc.FullName, now, now)
	if err != nil {
		return models.Profile{}, fmt.Errorf("insert profile: %w", err)
	}

	profile, err = r.profile(ctx, userID)
	if err != nil {
		return models.Profile{}, fmt.Errorf("query profile: %w", err)
	}
	return profile, nil
}

func (r *AccountRepository) profile(ctx context.Context, userID string) (models.Profile, error) {
	var (
		p        models.Profile
		fullName sql.NullString
		avatar   sql.NullString
	)
	err := r.conn.QueryRowContext(ctx,
		`SELECT id, email, full_name, avatar_url, created_at, updated_at FROM profiles WHERE id = ?`,
		userID).Scan(&p.ID, &p.Email, &fullName, &avatar, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Profile{}, err
	}
	p.FullName = fullName.String
	p.AvatarURL = avatar.String
	return p, nil
}
