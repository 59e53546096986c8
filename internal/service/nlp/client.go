// Package nlp contains the HTTP clients for the backend services the
// orchestrator talks to: product NLP, order NLP, opportunity lookup and
// opportunity submission.
package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"voice-session-orchestrator/internal/observability/metrics"
)

// apiClient is the shared base for all backend clients. Each call is recorded
// under its kind label in the lookup metrics.
type apiClient struct {
	baseURL string
	client  *http.Client
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func newAPIClient(baseURL string, timeout time.Duration, component string) apiClient {
	return apiClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		metrics: metrics.DefaultMetrics,
		log:     log.With().Str("component", component).Logger(),
	}
}

// postJSON sends body as JSON and decodes the response into out.
func (c *apiClient) postJSON(ctx context.Context, kind, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building %s request: %w", kind, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(kind, req, out)
}

// getJSON issues a GET with query params and decodes the response into out.
func (c *apiClient) getJSON(ctx context.Context, kind, path string, params url.Values, out any) error {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("building %s request: %w", kind, err)
	}

	return c.do(kind, req, out)
}

func (c *apiClient) do(kind string, req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.client.Do(req)
	c.metrics.RecordLookup(kind, err, time.Since(start).Seconds())
	if err != nil {
		c.log.Error().Err(err).Str("kind", kind).Msg("Backend call failed")
		return fmt.Errorf("%s call: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.metrics.LookupErrors.WithLabelValues(kind).Inc()
		c.log.Error().Str("kind", kind).Int("status", resp.StatusCode).Msg("Backend returned non-OK status")
		return fmt.Errorf("%s call: status %d: %s", kind, resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", kind, err)
	}
	return nil
}
