// Package client is a Go client for the virtual pet API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pocketpet/api/internal/models"
)

// DefaultTimeout bounds each API call
const DefaultTimeout = 10 * time.Second

// Client calls the HTTP API
type Client struct {
	HTTP    *http.Client
	BaseURL string
}

// New creates a Client for baseURL
func New(baseURL string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		BaseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// APIError is a non-2xx response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status=%d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Tokens is the body of a login or refresh response
type Tokens struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         *models.User `json:"user"`
}

// InteractResult is the body of an interact response
type InteractResult struct {
	models.Pet
	LeveledUp bool `json:"leveled_up"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an account
func (c *Client) Register(ctx context.Context, username, password string) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/register", "", credentials{username, password}, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Login exchanges credentials for tokens
func (c *Client) Login(ctx context.Context, username, password string) (*Tokens, error) {
	var out Tokens
	if err := c.do(ctx, http.MethodPost, "/login", "", credentials{username, password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges a refresh token for new tokens
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	var out Tokens
	in := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/refresh", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the token's session
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/logout", token, nil, nil)
}

// GetPet fetches the caller's pet
func (c *Client) GetPet(ctx context.Context, token string) (*models.Pet, error) {
	var out models.Pet
	if err := c.do(ctx, http.MethodGet, "/pet", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePet adopts a pet
func (c *Client) CreatePet(ctx context.Context, token, name string, petType models.PetType) (*models.Pet, error) {
	var out models.Pet
	in := map[string]string{"name": name, "type": string(petType)}
	if err := c.do(ctx, http.MethodPost, "/pet", token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Interact applies an action on the server
func (c *Client) Interact(ctx context.Context, token, action string) (*InteractResult, error) {
	var out InteractResult
	in := map[string]string{"action": action}
	if err := c.do(ctx, http.MethodPut, "/pet/interact", token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Standing is the caller's leaderboard rank and pet
type Standing struct {
	Rank int64      `json:"rank"`
	Pet  models.Pet `json:"pet"`
}

// Standing fetches the caller's leaderboard rank
func (c *Client) Standing(ctx context.Context, token string) (*Standing, error) {
	var out Standing
	if err := c.do(ctx, http.MethodGet, "/leaderboard/me", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PetTypes lists the adoptable types
func (c *Client) PetTypes(ctx context.Context) ([]models.PetTypeInfo, error) {
	var out struct {
		Types []models.PetTypeInfo `json:"types"`
	}
	if err := c.do(ctx, http.MethodGet, "/pet/types", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Types, nil
}

// Leaderboard returns the top pets; limit 0 uses the server default
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	path := "/leaderboard"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Entries []models.LeaderboardEntry `json:"entries"`
	}
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: marshal json: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("client: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("client: do request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &e) == nil {
			apiErr.Message = e.Error
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("client: unmarshal json: %w", err)
	}
	return nil
}
