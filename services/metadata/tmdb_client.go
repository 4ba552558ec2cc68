// Package metadata wraps the TMDB search and detail endpoints. All operations
// are stateless request/normalize functions; substituting the base URL is
// enough to test them against a fake upstream.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"watchtrack/config"
	"watchtrack/models"
)

// placeholderImageURL is shown for titles without artwork.
const placeholderImageURL = "https://images.pexels.com/photos/7991579/pexels-photo-7991579.jpeg?auto=compress&cs=tinysrgb&w=500"

// DefaultImageSize is the poster size used when callers do not pick one.
const DefaultImageSize = "w500"

var (
	// ErrNotConfigured means the API key is missing or a placeholder; no
	// network call is attempted.
	ErrNotConfigured = errors.New("tmdb api key is not configured")
	// ErrInvalidCredential means TMDB rejected the API key (401).
	ErrInvalidCredential = errors.New("tmdb api key was rejected")
)

// TransportError is a non-2xx response other than a credential rejection.
type TransportError struct {
	StatusCode int
	Status     string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("tmdb api error: %s", e.Status)
}

// Client issues TMDB requests. It holds no mutable state.
type Client struct {
	cfg        config.TMDB
	httpClient *http.Client
}

// NewClient creates a TMDB client from the resolved configuration.
func NewClient(cfg config.TMDB) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Search runs a multi search and returns only movie and TV results, each
// normalized so Title and ReleaseDate are populated regardless of kind.
// An empty or whitespace-only query returns an empty page without a request.
func (c *Client) Search(ctx context.Context, query string) (models.SearchResponse, error) {
	if strings.TrimSpace(query) == "" {
		return models.SearchResponse{Page: 1}, nil
	}
	if err := c.checkKey(); err != nil {
		return models.SearchResponse{}, err
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")

	var resp models.SearchResponse
	if err := c.get(ctx, "/search/multi", params, &resp); err != nil {
		return models.SearchResponse{}, err
	}

	filtered := make([]models.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		// Multi search also returns people; only the two tracked kinds survive.
		if !models.ValidMediaType(r.MediaType) {
			continue
		}
		r.Title = r.DisplayTitle()
		r.ReleaseDate = r.PrimaryDate()
		filtered = append(filtered, r)
	}
	resp.Results = filtered
	return resp, nil
}

// MovieDetails fetches the full record for one movie.
func (c *Client) MovieDetails(ctx context.Context, movieID int64) (models.MovieDetails, error) {
	if err := c.checkKey(); err != nil {
		return models.MovieDetails{}, err
	}
	var details models.MovieDetails
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", movieID), nil, &details); err != nil {
		return models.MovieDetails{}, err
	}
	return details, nil
}

// TVDetails fetches the full record for one TV show.
func (c *Client) TVDetails(ctx context.Context, tvID int64) (models.TVDetails, error) {
	if err := c.checkKey(); err != nil {
		return models.TVDetails{}, err
	}
	var details models.TVDetails
	if err := c.get(ctx, fmt.Sprintf("/tv/%d", tvID), nil, &details); err != nil {
		return models.TVDetails{}, err
	}
	return details, nil
}

// SeasonDetails fetches one season of a show including its episode list.
func (c *Client) SeasonDetails(ctx context.Context, tvID int64, seasonNumber int) (models.SeasonDetails, error) {
	if err := c.checkKey(); err != nil {
		return models.SeasonDetails{}, err
	}
	var details models.SeasonDetails
	if err := c.get(ctx, fmt.Sprintf("/tv/%d/season/%d", tvID, seasonNumber), nil, &details); err != nil {
		return models.SeasonDetails{}, err
	}
	return details, nil
}

// TrendingMovies returns this week's trending movies tagged as movie results.
func (c *Client) TrendingMovies(ctx context.Context) ([]models.SearchResult, error) {
	return c.trending(ctx, "/trending/movie/week", models.MediaTypeMovie)
}

// TrendingTV returns this week's trending shows tagged as TV results.
func (c *Client) TrendingTV(ctx context.Context) ([]models.SearchResult, error) {
	return c.trending(ctx, "/trending/tv/week", models.MediaTypeTV)
}

func (c *Client) trending(ctx context.Context, path, mediaType string) ([]models.SearchResult, error) {
	if err := c.checkKey(); err != nil {
		return nil, err
	}
	var resp models.SearchResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	results := make([]models.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		r.MediaType = mediaType
		r.Title = r.DisplayTitle()
		r.ReleaseDate = r.PrimaryDate()
		results = append(results, r)
	}
	return results, nil
}

// ImageURL builds a CDN URL for a relative artwork path at the given size
// token. An absent path yields a fixed placeholder; no network call is made.
func (c *Client) ImageURL(path, size string) string {
	if path == "" {
		return placeholderImageURL
	}
	if size == "" {
		size = DefaultImageSize
	}
	return c.cfg.ImageBaseURL + "/" + size + path
}

func (c *Client) checkKey() error {
	if !config.ValidCredential(c.cfg.APIKey) {
		return ErrNotConfigured
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrInvalidCredential
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
