package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/vmunix/moviedeck/internal/cache"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBaseURL  = "https://api.themoviedb.org"
	defaultLanguage = "ko-KR"

	pathPopular    = "/3/movie/popular"
	pathNowPlaying = "/3/movie/now_playing"
	pathDiscover   = "/3/discover/movie"

	// RecommendedKey caches the fallback recommendation source.
	RecommendedKey = cache.Namespace + "recommended"
)

var (
	// ErrMissingAPIKey is returned before any request is built when no credential is configured.
	ErrMissingAPIKey = errors.New("tmdb api key required")

	// ErrNotFound is returned when a movie doesn't exist in TMDB.
	ErrNotFound = errors.New("movie not found")
)

// APIError is a non-2xx response other than 404.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("TMDB API error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("TMDB API error: %d %s", e.StatusCode, e.Message)
}

// Credentials supplies the API key at request time.
type Credentials interface {
	APIKey() string
}

// StaticKey is a fixed credential.
type StaticKey string

func (k StaticKey) APIKey() string { return string(k) }

// Client is a TMDB API client with a read-through cache.
type Client struct {
	creds      Credentials
	cache      *cache.Store
	baseURL    string
	language   string
	region     string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLanguage sets the response locale sent with every request.
func WithLanguage(lang string) Option {
	return func(c *Client) {
		c.language = lang
	}
}

// WithRegion sets the default discover region.
func WithRegion(region string) Option {
	return func(c *Client) {
		c.region = region
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new TMDB client.
func NewClient(creds Credentials, store *cache.Store, opts ...Option) *Client {
	c := &Client{
		creds:    creds,
		cache:    store,
		baseURL:  defaultBaseURL,
		language: defaultLanguage,
		region:   DefaultRegion,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetMovies fetches a page of popular movies.
func (c *Client) GetMovies(ctx context.Context, page int) (*Page, error) {
	var p Page
	q := url.Values{"page": {strconv.Itoa(page)}}
	if err := c.cached(ctx, cache.Key("list", page), pathPopular, q, &p); err != nil {
		return nil, fmt.Errorf("popular movies page %d: %w", page, err)
	}
	return &p, nil
}

// GetMovieDetails fetches movie metadata by TMDB ID.
func (c *Client) GetMovieDetails(ctx context.Context, tmdbID int64) (*Movie, error) {
	var m Movie
	path := fmt.Sprintf("/3/movie/%d", tmdbID)
	if err := c.cached(ctx, cache.Key("details", tmdbID), path, nil, &m); err != nil {
		return nil, fmt.Errorf("movie %d: %w", tmdbID, err)
	}
	return &m, nil
}

// GetRecommendedMovies returns the first popular page under its own cache key.
func (c *Client) GetRecommendedMovies(ctx context.Context) (*Page, error) {
	var p Page
	q := url.Values{"page": {"1"}}
	if err := c.cached(ctx, RecommendedKey, pathPopular, q, &p); err != nil {
		return nil, fmt.Errorf("recommended movies: %w", err)
	}
	return &p, nil
}

// GetNowPlaying fetches a page of movies currently in theaters.
func (c *Client) GetNowPlaying(ctx context.Context, page int) (*Page, error) {
	var p Page
	q := url.Values{"page": {strconv.Itoa(page)}}
	if err := c.cached(ctx, cache.Key("now_playing", page), pathNowPlaying, q, &p); err != nil {
		return nil, fmt.Errorf("now playing page %d: %w", page, err)
	}
	return &p, nil
}

// Discover runs a filtered search. An empty filter region falls back to the
// client's region.
func (c *Client) Discover(ctx context.Context, f Filter) (*Page, error) {
	if f.Region == "" {
		f.Region = c.region
	}
	q := f.Query()
	var p Page
	if err := c.cached(ctx, cache.Key("discover", q.Encode()), pathDiscover, q, &p); err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	return &p, nil
}

// GetFeaturedMovie returns the most popular movie.
func (c *Client) GetFeaturedMovie(ctx context.Context) (*MovieSummary, error) {
	p, err := c.GetMovies(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(p.Results) == 0 {
		return nil, ErrNotFound
	}
	featured := p.Results[0]
	return &featured, nil
}

// Prefetch warms the cache for the given popular pages concurrently.
func (c *Client) Prefetch(ctx context.Context, pages ...int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, page := range pages {
		g.Go(func() error {
			_, err := c.GetMovies(ctx, page)
			return err
		})
	}
	return g.Wait()
}

// ClearCache drops every cached catalog response.
func (c *Client) ClearCache(ctx context.Context) (int, error) {
	return c.cache.Clear(ctx)
}

// cached consults the cache, and on miss fetches path and stores the decoded
// response before returning it.
func (c *Client) cached(ctx context.Context, key, path string, q url.Values, dest any) error {
	if c.cache.Get(ctx, key, dest) {
		c.logger.Debug("cache hit", "key", key)
		return nil
	}
	// A cached entry that failed to decode may have left dest partly filled.
	if v := reflect.ValueOf(dest); v.Kind() == reflect.Pointer && !v.IsNil() {
		v.Elem().SetZero()
	}

	if err := c.get(ctx, path, q, dest); err != nil {
		return err
	}

	// A failed cache write still returns fresh data.
	if err := c.cache.Set(ctx, key, dest); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return nil
}

// buildRequest attaches the credential and locale to every request.
func (c *Client) buildRequest(ctx context.Context, path string, q url.Values) (*http.Request, error) {
	apiKey := ""
	if c.creds != nil {
		apiKey = c.creds.APIKey()
	}
	if apiKey == "" {
		c.logger.Error("tmdb api key missing")
		return nil, ErrMissingAPIKey
	}

	params := url.Values{}
	for k, v := range q {
		params[k] = v
	}
	params.Set("api_key", apiKey)
	params.Set("language", c.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dest any) error {
	req, err := c.buildRequest(ctx, path, q)
	if err != nil {
		return err
	}

	c.logger.Debug("api request", "path", path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("api request failed", "path", path, "error", err)
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.logger.Error("api response error", "path", path, "status", resp.StatusCode)
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body struct {
			StatusMessage string `json:"status_message"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(data, &body) == nil {
			apiErr.Message = body.StatusMessage
		}
		c.logger.Error("api response error", "path", path, "status", resp.StatusCode, "message", apiErr.Message)
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	c.logger.Debug("api response", "path", path, "status", resp.StatusCode)
	return nil
}
