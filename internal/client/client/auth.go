package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/miarbol/internal/client/models"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type roleRequest struct {
	Role models.Role `json:"role"`
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {

	var raw json.RawMessage
	if err := c.callPublic(ctx, http.MethodPost, "/auth/login", credentials{Email: email, Password: password}, &raw); err != nil {
		return nil, err
	}

	resp, err := c.acceptAuthResponse(raw, true)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return resp, nil
}

func (c *HTTPClient) Register(ctx context.Context, in models.RegisterInput) (*models.AuthResponse, error) {

	var raw json.RawMessage
	if err := c.callPublic(ctx, http.MethodPost, "/auth/register", in, &raw); err != nil {
		return nil, err
	}

	resp, err := c.acceptAuthResponse(raw, true)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return resp, nil
}

// Logout revokes the refresh token on the backend. The local tokens are
// dropped even when the call fails.
func (c *HTTPClient) Logout(ctx context.Context) error {

	t := c.Tokens()
	defer c.ClearTokens()

	if t.Access == "" && t.Refresh == "" {
		return nil
	}

	r, err := newRequest(http.MethodPost, "/auth/logout", "/auth/logout", map[string]string{"refreshToken": t.Refresh}, nil)
	if err != nil {
		return err
	}
	// no refresh just to log out
	return c.sendOnce(ctx, r, t.Access)
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {

	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, "/auth/me", "/auth/me", nil, &raw); err != nil {
		return nil, err
	}
	return decodeUser(raw)
}

func (c *HTTPClient) AddRole(ctx context.Context, role models.Role) error {
	return c.call(ctx, http.MethodPost, "/auth/roles/add", "/auth/roles/add", roleRequest{Role: role}, nil)
}

// SwitchRole changes the active role. When the backend issues new tokens
// for the new role the client starts using them.
func (c *HTTPClient) SwitchRole(ctx context.Context, role models.Role) (*models.AuthResponse, error) {

	var raw json.RawMessage
	if err := c.call(ctx, http.MethodPost, "/auth/roles/switch", "/auth/roles/switch", roleRequest{Role: role}, &raw); err != nil {
		return nil, err
	}

	resp, err := c.acceptAuthResponse(raw, false)
	if err != nil {
		return nil, fmt.Errorf("switch role: %w", err)
	}
	return resp, nil
}

// acceptAuthResponse decodes an auth body and arms the client with any
// tokens it carries. strict requires both a token and a user; otherwise a
// missing user stays nil and missing tokens keep the current ones.
func (c *HTTPClient) acceptAuthResponse(raw json.RawMessage, strict bool) (*models.AuthResponse, error) {

	var resp models.AuthResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}

	if resp.User == nil {
		if u, err := decodeUser(raw); err == nil {
			resp.User = u
		} else if strict {
			return nil, err
		}
	}

	if resp.Token == "" {
		if strict {
			return nil, errors.New("auth response without token")
		}
		return &resp, nil
	}

	t := Tokens{Access: resp.Token, Refresh: resp.RefreshToken}
	if t.Refresh == "" {
		t.Refresh = c.Tokens().Refresh
	}
	c.SetTokens(t)
	return &resp, nil
}

// sendOnce performs r with the given token and no refresh handling.
func (c *HTTPClient) sendOnce(ctx context.Context, r *request, token string) error {

	status, raw, err := c.roundTrip(ctx, r, token)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return c.statusError(r, status, raw)
	}
	return nil
}
