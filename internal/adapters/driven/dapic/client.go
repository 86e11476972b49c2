package dapic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/saron-retail/saron-core/internal/core/domain"
	"github.com/saron-retail/saron-core/internal/core/ports/driven"
	"github.com/saron-retail/saron-core/internal/core/ports/driving"
)

var (
	_ driven.SalesSource = (*Client)(nil)
	_ driving.ERPReader  = (*Client)(nil)
)

// Client talks to the Dapic ERP on behalf of every configured store.
// It owns the per-store token cache; a fresh Client starts with no tokens.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	clock       clock.Clock
	logger      *slog.Logger
	credentials map[domain.StoreID]domain.StoreCredential

	mu     sync.Mutex
	tokens map[domain.StoreID]cachedToken
}

type cachedToken struct {
	value     string
	expiresAt time.Time
}

// NewClient creates a new Dapic client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	creds := make(map[domain.StoreID]domain.StoreCredential, len(cfg.Credentials))
	for _, c := range cfg.Credentials {
		creds[c.Store] = c
	}

	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		httpClient:  httpClient,
		clock:       clk,
		logger:      logger,
		credentials: creds,
		tokens:      make(map[domain.StoreID]cachedToken),
	}
}

// AvailableStores returns the stores holding both credential halves, in canonical order.
func (c *Client) AvailableStores() []domain.StoreID {
	var stores []domain.StoreID
	for _, store := range domain.AllStores() {
		if cred, ok := c.credentials[store]; ok && cred.Available() {
			stores = append(stores, store)
		}
	}
	return stores
}

// loginRequest is the Dapic login body.
type loginRequest struct {
	Empresa         string `json:"Empresa"`
	TokenIntegracao string `json:"TokenIntegracao"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// GetAccessToken returns a cached bearer token for the store, logging in when
// the cached one has reached its expiry threshold.
func (c *Client) GetAccessToken(ctx context.Context, store domain.StoreID) (string, error) {
	cred, ok := c.credentials[store]
	if !ok || !cred.Available() {
		return "", &domain.ConfigurationError{Store: store}
	}

	now := c.clock.Now()
	c.mu.Lock()
	cached, found := c.tokens[store]
	c.mu.Unlock()
	if found && now.Before(cached.expiresAt) {
		return cached.value, nil
	}

	token, err := c.login(ctx, cred)
	if err != nil {
		loginsTotal.WithLabelValues(string(store), "error").Inc()
		return "", &domain.AuthenticationError{Store: store, Err: err}
	}
	loginsTotal.WithLabelValues(string(store), "success").Inc()

	lifetime := tokenLifetime(token.ExpiresIn)
	if time.Duration(token.ExpiresIn)*time.Second <= TokenSafetyMargin {
		c.logger.Warn("dapic token lifetime shorter than safety margin",
			"store_id", store, "expires_in", token.ExpiresIn, "cached_for", lifetime)
	}
	c.mu.Lock()
	c.tokens[store] = cachedToken{value: token.AccessToken, expiresAt: now.Add(lifetime)}
	c.mu.Unlock()

	c.logger.Debug("dapic token refreshed", "store_id", store, "expires_in", token.ExpiresIn)
	return token.AccessToken, nil
}

// tokenLifetime is expires_in minus TokenSafetyMargin. A token that lives no
// longer than the margin is cached for half its lifetime instead.
func tokenLifetime(expiresIn int64) time.Duration {
	full := time.Duration(expiresIn) * time.Second
	if full > TokenSafetyMargin {
		return full - TokenSafetyMargin
	}
	if full <= 0 {
		return 0
	}
	return full / 2
}

func (c *Client) login(ctx context.Context, cred domain.StoreCredential) (*loginResponse, error) {
	body, err := json.Marshal(loginRequest{Empresa: cred.EmpresaID, TokenIntegracao: cred.IntegrationToken})
	if err != nil {
		return nil, fmt.Errorf("encode login: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+LoginPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("login status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var token loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("decode login: %w", err)
	}
	if token.AccessToken == "" {
		return nil, errors.New("login returned no access token")
	}
	return &token, nil
}

// invalidate drops a cached token the ERP rejected.
func (c *Client) invalidate(store domain.StoreID) {
	c.mu.Lock()
	delete(c.tokens, store)
	c.mu.Unlock()
}

// MakeRequest performs one authenticated GET and returns the raw body.
// Data-call failures come back as *domain.TransportError; nothing is retried.
func (c *Client) MakeRequest(ctx context.Context, store domain.StoreID, endpoint string, params url.Values) ([]byte, error) {
	token, err := c.GetAccessToken(ctx, store)
	if err != nil {
		return nil, err
	}

	target := c.baseURL + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	start := c.clock.Now()
	body, err := c.get(ctx, target, token)
	requestDuration.WithLabelValues(endpoint).Observe(c.clock.Now().Sub(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(endpoint, "error").Inc()
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusUnauthorized {
			c.invalidate(store)
		}
		return nil, &domain.TransportError{Store: store, Endpoint: endpoint, Err: err}
	}
	requestsTotal.WithLabelValues(endpoint, "success").Inc()
	return body, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

func (c *Client) get(ctx context.Context, target, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		msg := string(body)
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(msg)}
	}
	return body, nil
}

// listEnvelope is the Dapic list response; the records sit under either key.
type listEnvelope struct {
	Dados     []domain.ExternalRecord `json:"Dados"`
	Resultado []domain.ExternalRecord `json:"Resultado"`
}

// DecodeRecords extracts the record list from a Dapic response body.
// A bare JSON array is accepted too. Numbers decode as json.Number.
func DecodeRecords(body []byte) ([]domain.ExternalRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	if trimmed[0] == '[' {
		var records []domain.ExternalRecord
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("decode records: %w", err)
		}
		return records, nil
	}

	var env listEnvelope
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	if env.Dados != nil {
		return env.Dados, nil
	}
	return env.Resultado, nil
}
