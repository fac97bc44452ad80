package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"venuebook/internal/models"
)

// HTTPClient talks to the hosted auth provider's REST API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

type errorResponse struct {
	Code    string `json:"error_code"`
	Message string `json:"msg"`
}

func (c *HTTPClient) SignUp(ctx context.Context, email, password string) (string, error) {
	var out sessionResponse
	err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", map[string]string{
		"email": email, "password": password,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.User.ID, nil
}

func (c *HTTPClient) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	var out sessionResponse
	err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", map[string]string{
		"email": email, "password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.session(), nil
}

func (c *HTTPClient) SignOut(ctx context.Context, accessToken string) error {
	if err := c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil); err != nil {
		// best effort: the caller clears local state either way
		log.Printf("[provider][signout] remote logout failed: %v", err)
	}
	return nil
}

func (c *HTTPClient) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	var out sessionResponse
	err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", map[string]string{
		"refresh_token": refreshToken,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.session(), nil
}

func (c *HTTPClient) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	if accessToken == "" {
		return ErrUnauthenticated
	}
	return c.do(ctx, http.MethodPut, "/auth/v1/user", accessToken, map[string]string{
		"password": newPassword,
	}, nil)
}

func (c *HTTPClient) RecoverSession(ctx context.Context, email string) (*models.Session, error) {
	var out sessionResponse
	err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=recovery", "", map[string]string{
		"email": email,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.session(), nil
}

func (s *sessionResponse) session() *models.Session {
	return &models.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(s.ExpiresIn) * time.Second),
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path, accessToken string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}

	var apiErr errorResponse
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &apiErr)
	log.Printf("[provider][err] %s %s status=%d code=%q msg=%q", method, path, resp.StatusCode, apiErr.Code, apiErr.Message)

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity && apiErr.Code == "user_already_exists",
		apiErr.Code == "email_exists":
		return ErrDuplicateAccount
	case resp.StatusCode == http.StatusBadRequest && apiErr.Code == "weak_password":
		return ErrInvalidCredentials
	case resp.StatusCode == http.StatusBadRequest && apiErr.Code == "refresh_token_not_found",
		apiErr.Code == "refresh_token_already_used":
		return ErrSessionInvalid
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthenticated
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusForbidden:
		return ErrInvalidCredentials
	case resp.StatusCode == http.StatusNotFound:
		return ErrAccountNotFound
	}
	return fmt.Errorf("provider %s %s: unexpected status %d", method, path, resp.StatusCode)
}
