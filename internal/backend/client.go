// Package backend is the HTTP client for the optional remote analysis
// service. Nothing in the data manager depends on it; callers fall back to
// locally derived statistics when it is disabled or unreachable.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tsifsaropt1/microplastics-analyzer/internal/config"
	"github.com/tsifsaropt1/microplastics-analyzer/internal/logging"
	"github.com/tsifsaropt1/microplastics-analyzer/internal/metrics"
)

const (
	endpointHealth     = "/api/health"
	endpointAnalyze    = "/api/analyze"
	endpointReports    = "/api/reports"
	endpointStatistics = "/api/statistics"

	maxErrorBody = 512
)

// Client talks to the analysis backend. Requests are paced client-side and
// tagged with an X-Request-ID.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	log     *logging.Logger
	metrics *metrics.Metrics
}

// New creates a client from the backend section of the config. log and m
// may be nil.
func New(cfg config.BackendConfig, log *logging.Logger, m *metrics.Metrics) *Client {
	if log == nil {
		log = logging.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		http: &http.Client{
			Timeout:   cfg.Timeout(),
			Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
		},
		limiter: rate.NewLimiter(limit, burst),
		log:     log.WithComponent("backend"),
		metrics: m,
	}
}

// Close drops idle keep-alive connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// Health checks that the backend is up.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.getJSON(ctx, endpointHealth, nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Statistics fetches the backend's aggregate statistics.
func (c *Client) Statistics(ctx context.Context) (*Statistics, error) {
	var s Statistics
	if err := c.getJSON(ctx, endpointStatistics, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Reports fetches one page of past analysis reports. Pages start at 1.
func (c *Client) Reports(ctx context.Context, page, perPage int) (*ReportPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("per_page", fmt.Sprint(perPage))

	var p ReportPage
	if err := c.getJSON(ctx, endpointReports, q, &p); err != nil {
		return nil, err
	}
	if p.Page == 0 {
		p.Page = page
	}
	if p.PerPage == 0 {
		p.PerPage = perPage
	}
	return &p, nil
}

// Analyze uploads an image as the multipart field "image" and parses the
// returned report.
func (c *Client) Analyze(ctx context.Context, filename string, image io.Reader) (*Analysis, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpointAnalyze, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var a Analysis
	if err := c.do(req, endpointAnalyze, &a); err != nil {
		return nil, err
	}

	parsed, err := ParseReport(a.Report)
	if err != nil {
		return nil, err
	}
	a.Parsed = parsed
	if a.Filename == "" {
		a.Filename = filename
	}
	return &a, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, endpoint, out)
}

// do paces, sends and decodes one request, recording its outcome.
func (c *Client) do(req *http.Request, endpoint string, out any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return fmt.Errorf("wait for rate limiter: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	log := c.log.WithFields("endpoint", endpoint, "request_id", requestID)
	log.Debugw("backend request", "method", req.Method)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveBackend(endpoint, "unavailable", time.Since(start))
		log.Warnw("backend request failed", "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.ObserveBackend(endpoint, "error", time.Since(start))
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Warnw("backend returned error status", "status", resp.StatusCode)
		return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.ObserveBackend(endpoint, "error", time.Since(start))
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}

	c.metrics.ObserveBackend(endpoint, "ok", time.Since(start))
	log.Debugw("backend response", "status", resp.StatusCode, "elapsed", time.Since(start))
	return nil
}
