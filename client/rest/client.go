// Package rest is the HTTP implementation of the client-side boundaries:
// the identity provider, the remote row store, and the change feed, all
// served by the watchtrack backend.
package rest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"watchtrack/client/session"
	"watchtrack/client/watchlist"
	"watchtrack/models"
)

// ErrUserMismatch means an operation was scoped to a user other than the one
// the client is signed in as. The server enforces ownership too; this is the
// client-side half of the defense.
var ErrUserMismatch = errors.New("operation scoped to a different user")

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to the watchtrack backend. It remembers the bearer token and
// user id of the signed-in session.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu     sync.RWMutex
	token  string
	userID string
}

var (
	_ session.Authenticator = (*Client)(nil)
	_ watchlist.Remote      = (*Client)(nil)
	_ watchlist.ChangeFeed  = (*Client)(nil)
)

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No timeout: the same client carries the long-lived event stream.
		// Per-request deadlines come from the caller's context.
		httpClient: &http.Client{},
	}
}

type sessionResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// SignUp registers an account and adopts its session.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (string, models.User, error) {
	return c.establish(ctx, "/api/auth/signup", map[string]string{
		"email": email, "password": password, "full_name": fullName,
	})
}

// SignIn authenticates and adopts the session.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, models.User, error) {
	return c.establish(ctx, "/api/auth/signin", map[string]string{
		"email": email, "password": password,
	})
}

// SignOut revokes the token and forgets the session.
func (c *Client) SignOut(ctx context.Context, token string) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/signout", nil, nil, token)
	c.mu.Lock()
	c.token = ""
	c.userID = ""
	c.mu.Unlock()
	return err
}

// Restore validates a previously issued token and adopts it on success.
func (c *Client) Restore(ctx context.Context, token string) (models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/session", nil, &user, token); err != nil {
		return models.User{}, err
	}
	c.mu.Lock()
	c.token = token
	c.userID = user.ID
	c.mu.Unlock()
	return user, nil
}

// Profile fetches the caller's profile row, creating it on first view.
func (c *Client) Profile(ctx context.Context) (models.Profile, error) {
	var profile models.Profile
	err := c.do(ctx, http.MethodGet, "/api/profile", nil, &profile, c.currentToken())
	return profile, err
}

// ListItems returns the signed-in user's watchlist, newest first.
func (c *Client) ListItems(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	if err := c.checkScope(userID); err != nil {
		return nil, err
	}
	var items []models.WatchlistItem
	err := c.do(ctx, http.MethodGet, "/api/watchlist", nil, &items, c.currentToken())
	return items, err
}

// InsertItem creates a watchlist row.
func (c *Client) InsertItem(ctx context.Context, ins models.WatchlistInsert) error {
	if err := c.checkScope(ins.UserID); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/api/watchlist", ins, nil, c.currentToken())
}

// DeleteItem removes a watchlist row by id.
func (c *Client) DeleteItem(ctx context.Context, id, userID string) error {
	if err := c.checkScope(userID); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/api/watchlist/"+id, nil, nil, c.currentToken())
}

// UpdateWatched sets the watched flag of a row.
func (c *Client) UpdateWatched(ctx context.Context, id, userID string, watched bool) error {
	if err := c.checkScope(userID); err != nil {
		return err
	}
	body := map[string]bool{"is_watched": watched}
	return c.do(ctx, http.MethodPut, "/api/watchlist/"+id+"/watched", body, nil, c.currentToken())
}

// UpdateRating sets or clears the rating of a row.
func (c *Client) UpdateRating(ctx context.Context, id, userID string, rating *int) error {
	if err := c.checkScope(userID); err != nil {
		return err
	}
	body := map[string]*int{"rating": rating}
	return c.do(ctx, http.MethodPut, "/api/watchlist/"+id+"/rating", body, nil, c.currentToken())
}

// Subscribe opens the server-sent event stream for userID and invokes
// onChange for every change event. The stream does not reconnect; when it
// ends, live updates stop until the caller resubscribes.
func (c *Client) Subscribe(ctx context.Context, userID string, onChange func()) (func(), error) {
	if err := c.checkScope(userID); err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, c.baseURL+"/api/events", nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.currentToken())
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open event stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "event stream rejected"}
	}

	go func() {
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		event := ""
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case line == "":
				if event == "change" {
					onChange()
				}
				event = ""
			}
		}
		if err := scanner.Err(); err != nil && streamCtx.Err() == nil {
			log.Printf("[rest-client] event stream ended: %v", err)
		}
	}()

	return cancel, nil
}

func (c *Client) establish(ctx context.Context, path string, body any) (string, models.User, error) {
	var sess sessionResponse
	if err := c.do(ctx, http.MethodPost, path, body, &sess, ""); err != nil {
		return "", models.User{}, err
	}
	c.mu.Lock()
	c.token = sess.Token
	c.userID = sess.User.ID
	c.mu.Unlock()
	return sess.Token, sess.User, nil
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) checkScope(userID string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.userID == "" || (userID != "" && userID != c.userID) {
		return ErrUserMismatch
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, token string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
