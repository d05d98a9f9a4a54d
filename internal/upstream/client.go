package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/wanted/internal/domain"
	"github.com/your-org/wanted/internal/metrics"
)

const (
	// DefaultBaseURL is the public FBI API host
	DefaultBaseURL = "https://api.fbi.gov"

	// DefaultUserAgent identifies the proxy to the upstream
	DefaultUserAgent = "FBI-Wanted-Directory-App/1.0"

	// DefaultTimeout bounds every upstream request
	DefaultTimeout = 10 * time.Second

	listPath   = "/wanted/v1/list"
	personPath = "/@wanted-person/"

	// upper bound on a decoded response body
	maxBodyBytes = 16 << 20
)

// Config configures the FBI client
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Client talks to the FBI Wanted API (implements domain.WantedSource)
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewClient creates an FBI API client. Empty config fields get defaults.
func NewClient(cfg Config, m *metrics.Metrics, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		metrics:    m,
		logger:     logger,
	}
}

// List returns one page of the wanted list. A non-empty Title turns it into a search.
func (c *Client) List(ctx context.Context, params domain.ListParams) (domain.Payload, error) {
	query := url.Values{}
	if params.Page > 0 {
		query.Set("page", strconv.Itoa(params.Page))
	}
	if params.PageSize > 0 {
		query.Set("pageSize", strconv.Itoa(params.PageSize))
	}
	if params.Title != "" {
		query.Set("title", params.Title)
	}

	endpoint := "list"
	if params.Title != "" {
		endpoint = "search"
	}
	return c.get(ctx, endpoint, listPath, query)
}

// Person returns a single wanted person by uid
func (c *Client) Person(ctx context.Context, id string) (domain.Payload, error) {
	if id == "" {
		return nil, fmt.Errorf("person id is empty: %w", domain.ErrNotFound)
	}
	return c.get(ctx, "person", personPath+url.PathEscape(id), nil)
}

// get performs the request and maps failures onto domain errors
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values) (domain.Payload, error) {
	start := time.Now()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		mapped := mapTransportError(err)
		c.record(endpoint, "error", start)
		c.logger.Error("FBI API request failed",
			zap.String("endpoint", endpoint),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, mapped
	}
	defer resp.Body.Close()

	c.record(endpoint, strconv.Itoa(resp.StatusCode), start)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn("FBI API rate limit hit", zap.String("endpoint", endpoint))
		return nil, domain.ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("upstream %s: %w", path, domain.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.Error("FBI API returned unexpected status",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("upstream status %d: %w", resp.StatusCode, domain.ErrUpstream)
	}

	var payload domain.Payload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		if isTimeout(err) {
			return nil, domain.ErrUpstreamTimeout
		}
		return nil, fmt.Errorf("decode upstream response: %v: %w", err, domain.ErrUpstream)
	}
	if payload == nil {
		payload = domain.Payload{}
	}

	c.logger.Debug("FBI API request completed",
		zap.String("endpoint", endpoint),
		zap.Duration("duration", time.Since(start)),
	)
	return payload, nil
}

func (c *Client) record(endpoint, status string, start time.Time) {
	c.metrics.RecordUpstreamRequest(endpoint, status, time.Since(start))
}

// mapTransportError turns client errors into domain errors
func mapTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if isTimeout(err) {
		return domain.ErrUpstreamTimeout
	}
	return fmt.Errorf("%v: %w", err, domain.ErrUpstream)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Verify that Client implements domain.WantedSource interface
var _ domain.WantedSource = (*Client)(nil)
