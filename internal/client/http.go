package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// HTTPClient makes command calls to the host. It sets no client-side
// timeout; callers bound each call through ctx.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a client targeting the given base URL (e.g. "http://127.0.0.1:3000").
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{},
	}
}

// Authorize sends POST /api/v1/authorize and returns the host's verdict.
func (c *HTTPClient) Authorize(ctx context.Context, serialNumber, emailAddress string) (bool, error) {
	body := AuthorizeRequest{SerialNumber: serialNumber, EmailAddress: emailAddress}
	var out AuthorizeResponse
	if err := c.post(ctx, "/api/v1/authorize", body, &out); err != nil {
		return false, err
	}
	return out.Authorized, nil
}

// ValidatePassword sends POST /api/v1/validate_password.
func (c *HTTPClient) ValidatePassword(ctx context.Context, password string) (bool, error) {
	var out PasswordResponse
	if err := c.post(ctx, "/api/v1/validate_password", PasswordRequest{Password: password}, &out); err != nil {
		return false, err
	}
	return out.Valid, nil
}

// GetUIConfig fetches /api/v1/ui_config.
func (c *HTTPClient) GetUIConfig(ctx context.Context) (UIConfig, error) {
	var out UIConfig
	if err := c.get(ctx, "/api/v1/ui_config", &out); err != nil {
		return UIConfig{}, err
	}
	return out, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s: %d %s", path, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *HTTPClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("POST %s: %d %s", path, resp.StatusCode, string(respBody))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
