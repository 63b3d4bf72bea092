// Package upstream holds the HTTP clients for the identity, ledger and
// reporting services. Every request carries the operator's bearer token and
// every non-2xx answer surfaces as a *domain.UpstreamError with the body kept.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/branchledger/dashboard/internal/core/domain"
	"github.com/branchledger/dashboard/internal/metrics"
)

const (
	defaultTimeout = 10 * time.Second
	// maxBody bounds how much of a response is buffered; exports are the largest.
	// A larger response is rejected whole.
	maxBody = 32 << 20
)

// client is the shared transport for one upstream service.
type client struct {
	service    string
	baseURL    *url.URL
	httpClient *http.Client
	maxBody    int64
	log        zerolog.Logger
}

type response struct {
	header http.Header
	body   []byte
}

func newClient(service, baseURL string, timeout time.Duration, log zerolog.Logger) (*client, error) {
	baseURL = strings.TrimSpace(baseURL)
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s service: invalid base url %q", service, baseURL)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &client{
		service:    service,
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
		maxBody:    maxBody,
		log:        log.With().Str("upstream", service).Logger(),
	}, nil
}

// do sends one request and returns the buffered response. Transport failures
// wrap domain.ErrNetwork; non-2xx statuses become *domain.UpstreamError.
func (c *client) do(ctx context.Context, method, path, token string, query url.Values, reqBody any) (*response, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("%s %s %s: encode request: %w", c.service, method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%s %s %s: build request: %w", c.service, method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, "network_error", start)
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("upstream request failed")
		return nil, fmt.Errorf("%w: %s %s %s: %v", domain.ErrNetwork, c.service, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	c.observe(method, strconv.Itoa(resp.StatusCode), start)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s %s: read body: %v", domain.ErrNetwork, c.service, method, path, err)
	}
	if int64(len(respBody)) > c.maxBody {
		return nil, fmt.Errorf("%w: %s %s %s: response exceeds %d bytes", domain.ErrNetwork, c.service, method, path, c.maxBody)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("upstream request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.UpstreamError{
			Service:    c.service,
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}
	return &response{header: resp.Header, body: respBody}, nil
}

// doJSON is do plus decoding the response into out when out is non-nil.
func (c *client) doJSON(ctx context.Context, method, path, token string, query url.Values, reqBody, out any) error {
	resp, err := c.do(ctx, method, path, token, query, reqBody)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("%s %s %s: decode response: %w", c.service, method, path, err)
	}
	return nil
}

// Ping calls the service's /health endpoint.
func (c *client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", "", nil, nil)
	return err
}

func (c *client) Name() string { return c.service }

func (c *client) observe(method, code string, start time.Time) {
	metrics.UpstreamRequestsTotal.WithLabelValues(c.service, method, code).Inc()
	metrics.UpstreamRequestDuration.WithLabelValues(c.service).Observe(time.Since(start).Seconds())
}

// scopeQuery sets branch_id only for a concrete branch.
func scopeQuery(scope domain.BranchScope) url.Values {
	q := url.Values{}
	if id, ok := scope.BranchID(); ok {
		q.Set("branch_id", strconv.Itoa(id))
	}
	return q
}
