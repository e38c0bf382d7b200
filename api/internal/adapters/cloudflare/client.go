// api/internal/adapters/cloudflare/client.go
package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pixelfort/api/internal/core/domain"
	"pixelfort/api/internal/telemetry"
)

const defaultBaseURL = "https://api.cloudflare.com/client/v4"

// Client is a thin, stateless wrapper over the provider REST API: custom
// hostnames for domain-validated TLS, worker routes for traffic routing.
// It holds credentials and nothing else; retry and compensation policy
// belong to the orchestrator.
type Client struct {
	baseURL       string
	apiToken      string
	zoneID        string
	workerService string // default routing-rule target
	httpClient    *http.Client
	logger        *slog.Logger
}

func NewClient(apiToken, zoneID, workerService string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:       defaultBaseURL,
		apiToken:      apiToken,
		zoneID:        zoneID,
		workerService: workerService,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		logger:        logger,
	}
}

// WithBaseURL points the client at a non-production endpoint. Used by tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = strings.TrimRight(base, "/")
	return c
}

// WorkerService exposes the configured default routing target.
func (c *Client) WorkerService() string { return c.workerService }

// ==============================================================================
// 1. Wire Types (uniform provider envelope)
// ==============================================================================

type envelope struct {
	Success bool            `json:"success"`
	Errors  []apiError      `json:"errors"`
	Result  json.RawMessage `json:"result"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type customHostname struct {
	ID       string `json:"id"`
	Hostname string `json:"hostname"`
	Status   string `json:"status"`
	SSL      struct {
		Status string `json:"status"`
		// Older API versions inline the challenge; newer ones list records.
		HTTPURL           string `json:"http_url,omitempty"`
		HTTPBody          string `json:"http_body,omitempty"`
		ValidationRecords []struct {
			HTTPURL  string `json:"http_url"`
			HTTPBody string `json:"http_body"`
		} `json:"validation_records,omitempty"`
	} `json:"ssl"`
}

type workerRoute struct {
	ID      string `json:"id"`
	Pattern string `json:"pattern"`
	Script  string `json:"script"`
}

// ==============================================================================
// 2. Hostname Registration (domain-validated TLS)
// ==============================================================================

func (c *Client) RegisterHostname(ctx context.Context, name string) (*domain.HostnameRegistration, error) {
	payload := map[string]any{
		"hostname": name,
		"ssl": map[string]any{
			"method": "http",
			"type":   "dv",
		},
	}

	var ch customHostname
	if err := c.do(ctx, "register_hostname", http.MethodPost,
		fmt.Sprintf("/zones/%s/custom_hostnames", c.zoneID), payload, &ch); err != nil {
		return nil, err
	}

	return toRegistration(&ch), nil
}

// GetHostnameStatus looks the hostname up by name rather than id: the caller
// may not have persisted the id yet, and a fresh lookup is current truth.
func (c *Client) GetHostnameStatus(ctx context.Context, name string) (*domain.HostnameRegistration, error) {
	var matches []customHostname
	path := fmt.Sprintf("/zones/%s/custom_hostnames?hostname=%s", c.zoneID, url.QueryEscape(name))
	if err := c.do(ctx, "get_hostname_status", http.MethodGet, path, nil, &matches); err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		return nil, domain.ErrNotFound
	}
	return toRegistration(&matches[0]), nil
}

func (c *Client) DeleteHostname(ctx context.Context, hostnameID string) error {
	path := fmt.Sprintf("/zones/%s/custom_hostnames/%s", c.zoneID, hostnameID)
	return c.do(ctx, "delete_hostname", http.MethodDelete, path, nil, nil)
}

// ==============================================================================
// 3. Routing Rules (worker routes)
// ==============================================================================

func (c *Client) CreateRoutingRule(ctx context.Context, name, targetService string) (string, error) {
	if targetService == "" {
		targetService = c.workerService
	}

	payload := map[string]string{
		"pattern": routePattern(name),
		"script":  targetService,
	}

	var route workerRoute
	if err := c.do(ctx, "create_routing_rule", http.MethodPost,
		fmt.Sprintf("/zones/%s/workers/routes", c.zoneID), payload, &route); err != nil {
		return "", err
	}
	return route.ID, nil
}

// FindRoutingRule scans the zone's routes for the hostname's pattern. The
// route id is not persisted locally, so teardown always re-discovers it.
func (c *Client) FindRoutingRule(ctx context.Context, name string) (string, error) {
	var routes []workerRoute
	if err := c.do(ctx, "find_routing_rule", http.MethodGet,
		fmt.Sprintf("/zones/%s/workers/routes", c.zoneID), nil, &routes); err != nil {
		return "", err
	}

	want := routePattern(name)
	for _, r := range routes {
		if r.Pattern == want {
			return r.ID, nil
		}
	}
	return "", domain.ErrNotFound
}

func (c *Client) DeleteRoutingRule(ctx context.Context, ruleID string) error {
	path := fmt.Sprintf("/zones/%s/workers/routes/%s", c.zoneID, ruleID)
	return c.do(ctx, "delete_routing_rule", http.MethodDelete, path, nil, nil)
}

// routePattern binds every path under the hostname.
func routePattern(name string) string {
	return name + "/*"
}

// ==============================================================================
// 4. Transport Core
// ==============================================================================

// do executes one provider round trip and unwraps the uniform envelope.
// A non-success envelope becomes *domain.ProviderError; anything below that
// (network, malformed body) is a plain transport error.
func (c *Client) do(ctx context.Context, op, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.ProviderCalls.WithLabelValues(op, "transport_error").Inc()
		return fmt.Errorf("provider %s transport: %w", op, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		telemetry.ProviderCalls.WithLabelValues(op, "transport_error").Inc()
		return fmt.Errorf("decode %s response: %w", op, err)
	}

	if !env.Success {
		telemetry.ProviderCalls.WithLabelValues(op, "provider_error").Inc()
		msg := "unknown provider failure"
		if len(env.Errors) > 0 {
			msg = env.Errors[0].Message
		}
		c.logger.Warn("Provider rejected request",
			slog.String("op", op),
			slog.Int("http_status", resp.StatusCode),
			slog.String("error", msg))
		return &domain.ProviderError{Op: op, Message: msg}
	}

	telemetry.ProviderCalls.WithLabelValues(op, "ok").Inc()

	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", op, err)
		}
	}
	return nil
}

func toRegistration(ch *customHostname) *domain.HostnameRegistration {
	reg := &domain.HostnameRegistration{
		HostnameID:      ch.ID,
		Status:          ch.Status,
		SSLStatus:       ch.SSL.Status,
		ValidationToken: lastPathSegment(ch.SSL.HTTPURL),
		ValidationBody:  ch.SSL.HTTPBody,
	}
	if reg.ValidationToken == "" && len(ch.SSL.ValidationRecords) > 0 {
		rec := ch.SSL.ValidationRecords[0]
		reg.ValidationToken = lastPathSegment(rec.HTTPURL)
		reg.ValidationBody = rec.HTTPBody
	}
	return reg
}

func lastPathSegment(u string) string {
	if u == "" {
		return ""
	}
	if i := strings.LastIndex(u, "/"); i >= 0 {
		return u[i+1:]
	}
	return u
}
