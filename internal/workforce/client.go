package workforce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotaworks/workforce-auth/internal"
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/employee"
)

// TokenResponse is the password-grant exchange result.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	ExpiresIn   int64  `json:"expires_in"`
}

type Location struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// DepartmentRoster carries department metadata plus the complete staff list
// and the manager subset for one department.
type DepartmentRoster struct {
	ID         int64   `json:"id"`
	LocationID int64   `json:"location_id"`
	Name       string  `json:"name"`
	Colour     string  `json:"colour"`
	ExportName string  `json:"export_name"`
	RecordID   *int64  `json:"record_id"`
	UpdatedAt  *int64  `json:"updated_at"`
	Staff      []int64 `json:"staff"`
	Managers   []int64 `json:"managers"`
}

type Config struct {
	BaseURL     string
	APIURL      string
	AccessToken string
	Timeout     time.Duration
}

type Client struct {
	baseURL    string
	apiURL     string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.RWMutex
	token string
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = strings.TrimRight(cfg.BaseURL, "/") + "/api/v2/"
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiURL:     strings.TrimRight(apiURL, "/") + "/",
		timeout:    timeout,
		token:      cfg.AccessToken,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SetToken replaces the bearer token used by subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// IsConfigured reports whether a bearer token is present.
func (c *Client) IsConfigured() bool {
	return c.currentToken() != ""
}

// GetToken exchanges admin credentials for a bearer token using the
// platform's password grant.
func (c *Client) GetToken(ctx context.Context, email, password string, scopes []string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	form.Set("scope", strings.Join(scopes, " "))
	form.Set("grant_type", "password")

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, internal.NewInternalError("failed to build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, internal.ErrUpstreamUnavailable.WithCause(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			ErrorDescription string `json:"error_description"`
		}
		_ = json.Unmarshal(body, &errBody)
		message := errBody.ErrorDescription
		if message == "" {
			message = "Failed to get token"
		}
		return nil, internal.NewExternalError(message, internal.ErrCodeUpstreamRejected, fmt.Errorf("token endpoint returned status %d", resp.StatusCode))
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, internal.NewExternalError("failed to decode token response", internal.ErrCodeUpstreamRejected, err)
	}

	return &token, nil
}

// TestConnection verifies the configured token against the current-user
// endpoint.
func (c *Client) TestConnection(ctx context.Context) error {
	return c.request(ctx, http.MethodGet, "users/me", nil, nil, nil)
}

func (c *Client) GetLocations(ctx context.Context) ([]Location, error) {
	var out struct {
		Data []Location `json:"data"`
	}
	if err := c.request(ctx, http.MethodGet, "locations", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) GetDepartments(ctx context.Context, locationIDs []int64) ([]DepartmentRoster, error) {
	query := url.Values{}
	if len(locationIDs) > 0 {
		ids := make([]string, len(locationIDs))
		for i, id := range locationIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		query.Set("location_ids", strings.Join(ids, ","))
	}

	var out struct {
		Data []DepartmentRoster `json:"data"`
	}
	if err := c.request(ctx, http.MethodGet, "departments", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GetUsers returns employee snapshots for one location.
func (c *Client) GetUsers(ctx context.Context, locationID int64) ([]employee.Record, error) {
	query := url.Values{}
	query.Set("location_id", strconv.FormatInt(locationID, 10))

	var out struct {
		Data []employee.Record `json:"data"`
	}
	if err := c.request(ctx, http.MethodGet, "users", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) GetUserByID(ctx context.Context, id int64) (*employee.Record, error) {
	var out struct {
		Data employee.Record `json:"data"`
	}
	if err := c.request(ctx, http.MethodGet, "users/"+strconv.FormatInt(id, 10), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) request(ctx context.Context, method, endpoint string, query url.Values, payload, out any) error {
	token := c.currentToken()
	if token == "" {
		return internal.NewValidationError("no access token configured", internal.ErrCodeValidationFailed)
	}

	reqURL := c.apiURL + strings.TrimLeft(endpoint, "/")
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return internal.NewInternalError("failed to marshal request body", err)
		}
		body = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return internal.NewInternalError("failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("workforce request failed", "method", method, "endpoint", endpoint, "error", err)
		return internal.ErrUpstreamUnavailable.WithCause(err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return internal.ErrUserNotFound
	}

	if resp.StatusCode >= 400 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(respBody, &errBody)
		message := errBody.Error
		if message == "" {
			message = fmt.Sprintf("API error: HTTP %d", resp.StatusCode)
		}
		c.logger.Warn("workforce request rejected", "method", method, "endpoint", endpoint, "status", resp.StatusCode)
		return internal.NewExternalError(message, internal.ErrCodeUpstreamRejected, fmt.Errorf("status %d", resp.StatusCode))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return internal.NewExternalError("failed to decode response", internal.ErrCodeUpstreamRejected, err)
		}
	}

	return nil
}
