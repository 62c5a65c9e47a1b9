package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/campus-velo/velo/internal/cache"
	"github.com/campus-velo/velo/internal/models"
	"github.com/campus-velo/velo/internal/series"
	"github.com/campus-velo/velo/internal/snapshot"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultCacheTTL = 30 * time.Second
	maxErrorBody    = 4 << 10

	// RequestIDHeader carries the per-request correlation ID
	RequestIDHeader = "X-Request-ID"
)

// UserAgent is sent with every request
var UserAgent = "velo/dev"

// Cache interface for caching HTTP responses
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
}

// Connectivity reports whether the client is online
type Connectivity interface {
	Online() bool
}

// Client is the API client for the fleet backend
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	cache      Cache
	conn       Connectivity
	logger     *zap.Logger
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL points the client at another backend
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithToken sends a bearer token with every request
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithCache enables caching with the provided cache implementation
func WithCache(cache Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithDefaultCache enables caching with the default file cache
func WithDefaultCache(ttl time.Duration) ClientOption {
	return func(c *Client) {
		if ttl <= 0 {
			ttl = defaultCacheTTL
		}
		fc, err := cache.NewFileCache(cache.DefaultCacheDir(), ttl)
		if err == nil {
			c.cache = fc
		}
	}
}

// WithConnectivity makes every request fail fast with ErrOffline while the
// source reports the client offline
func WithConnectivity(conn Connectivity) ClientOption {
	return func(c *Client) {
		c.conn = conn
	}
}

// WithLogger sets the logger for request tracing
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a new API client
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: BaseURL,
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidFormat("api_url", "absolute http(s) URL")
	}

	return c, nil
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetStations fetches every station. Malformed records are excluded from the
// snapshot and counted, never returned as an error.
func (c *Client) GetStations(ctx context.Context) (snapshot.StationSnapshot, error) {
	body, err := c.GetStationsRaw(ctx)
	if err != nil {
		return snapshot.StationSnapshot{}, err
	}

	records, err := decodeArray(body)
	if err != nil {
		return snapshot.StationSnapshot{}, fmt.Errorf("failed to parse stations response: %w", err)
	}

	snap := snapshot.LoadStations(records)
	c.logProblems(EndpointStations, snap.Problems)
	return snap, nil
}

// GetStationsRaw fetches stations and returns raw JSON
func (c *Client) GetStationsRaw(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, c.baseURL+EndpointStations)
}

// GetBikes fetches every bike
func (c *Client) GetBikes(ctx context.Context) (snapshot.BikeSnapshot, error) {
	body, err := c.GetBikesRaw(ctx)
	if err != nil {
		return snapshot.BikeSnapshot{}, err
	}

	records, err := decodeArray(body)
	if err != nil {
		return snapshot.BikeSnapshot{}, fmt.Errorf("failed to parse bikes response: %w", err)
	}

	snap := snapshot.LoadBikes(records)
	c.logProblems(EndpointBikes, snap.Problems)
	return snap, nil
}

// GetBikesRaw fetches bikes and returns raw JSON
func (c *Client) GetBikesRaw(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, c.baseURL+EndpointBikes)
}

// GetUsage24h fetches the last 24 hours of utilization, normalised and
// ordered from its first hour
func (c *Client) GetUsage24h(ctx context.Context) ([]models.UsagePoint, error) {
	body, err := c.GetUsage24hRaw(ctx)
	if err != nil {
		return nil, err
	}

	records, err := decodeArray(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse usage response: %w", err)
	}

	raw := make([]models.UsageResponse, 0, len(records))
	for i, rec := range records {
		var r models.UsageResponse
		if err := json.Unmarshal(rec, &r); err != nil {
			// Keep the slot so the hour count stays intact
			c.logger.Warn("malformed usage record",
				zap.String("endpoint", EndpointUsage24h),
				zap.Int("index", i),
				zap.Error(err))
		}
		raw = append(raw, r)
	}

	return series.Normalize(raw), nil
}

// GetUsage24hRaw fetches the utilization series and returns raw JSON
func (c *Client) GetUsage24hRaw(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, c.baseURL+EndpointUsage24h)
}

// Fleet is one consistent fetch of every endpoint
type Fleet struct {
	Stations snapshot.StationSnapshot
	Bikes    snapshot.BikeSnapshot
	Usage    []models.UsagePoint
}

// FetchFleet fetches stations, bikes and usage in parallel. The first error
// cancels the remaining requests.
func (c *Client) FetchFleet(ctx context.Context) (Fleet, error) {
	var f Fleet
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s, err := c.GetStations(gctx)
		if err != nil {
			return err
		}
		f.Stations = s
		return nil
	})
	g.Go(func() error {
		b, err := c.GetBikes(gctx)
		if err != nil {
			return err
		}
		f.Bikes = b
		return nil
	})
	g.Go(func() error {
		u, err := c.GetUsage24h(gctx)
		if err != nil {
			return err
		}
		f.Usage = u
		return nil
	})

	if err := g.Wait(); err != nil {
		return Fleet{}, err
	}
	return f, nil
}

func (c *Client) logProblems(endpoint string, problems []snapshot.RecordError) {
	for _, p := range problems {
		c.logger.Warn("excluded malformed record",
			zap.String("endpoint", endpoint),
			zap.Int("index", p.Index),
			zap.Error(p.Err))
	}
}

// decodeArray splits a JSON array body. An empty body or null is an empty
// array; any other shape is ErrMalformedResponse.
func decodeArray(body []byte) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return []json.RawMessage{}, nil
	}
	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return records, nil
}

// doRequest performs an HTTP GET request with optional caching
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	endpoint := extractEndpoint(reqURL)

	if c.conn != nil && !c.conn.Online() {
		return nil, fmt.Errorf("%w: %s", ErrOffline, endpoint)
	}

	// Check cache first
	if c.cache != nil {
		if data, ok := c.cache.Get(reqURL); ok {
			c.logger.Debug("cache hit", zap.String("endpoint", endpoint))
			return data, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set(RequestIDHeader, requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	log := c.logger.With(zap.String("endpoint", endpoint), zap.String("request_id", requestID))
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug("request failed", zap.Error(err))
		// Check for context errors
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	log.Debug("response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := parseAPIError(resp, endpoint, errBody)
		apiErr.RequestID = requestID
		log.Warn("backend error", zap.Int("status", resp.StatusCode), zap.String("message", apiErr.Message))
		return nil, apiErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// Store in cache
	if c.cache != nil {
		_ = c.cache.Set(reqURL, body)
	}

	return body, nil
}

// extractEndpoint extracts the endpoint path from a full URL
func extractEndpoint(fullURL string) string {
	u, err := url.Parse(fullURL)
	if err != nil {
		return fullURL
	}
	return u.Path
}
