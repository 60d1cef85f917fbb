package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"medipet/internal/platform/httpclient"
	"medipet/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("supabase client not configured")
	ErrUnauthorized  = errors.New("supabase unauthorized")
	ErrUpstream      = errors.New("supabase upstream error")
)

// Config del cliente Supabase Auth (GoTrue).
// BaseURL y AnonKey normalmente vienen de env vars (SUPABASE_URL / SUPABASE_ANON_KEY).
type Config struct {
	BaseURL string
	AnonKey string

	// Timeout HTTP del client interno.
	Timeout time.Duration
}

type Client struct {
	anonKey string
	http    *httpclient.Client
}

func NewClient(cfg Config) (*Client, error) {
	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("supabase: %w", err)
	}

	return &Client{
		anonKey: strings.TrimSpace(cfg.AnonKey),
		http:    hc,
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.anonKey != ""
}

// VerifyToken resuelve el usuario dueño del access token contra GoTrue.
// GET /auth/v1/user devuelve el user si el JWT sigue vigente.
func (c *Client) VerifyToken(ctx context.Context, token string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrUnauthorized
	}

	var out struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}

	headers := map[string]string{
		"apikey":        c.anonKey,
		"Authorization": "Bearer " + token,
	}

	err := c.http.DoJSON(ctx, http.MethodGet, "/auth/v1/user", headers, nil, &out)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			switch httpErr.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				return auth.Claims{}, ErrUnauthorized
			}
			return auth.Claims{}, fmt.Errorf("%w: status=%d", ErrUpstream, httpErr.StatusCode)
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	out.ID = strings.TrimSpace(out.ID)
	if out.ID == "" {
		return auth.Claims{}, errors.New("supabase response missing user id")
	}

	return auth.Claims{
		UserID: out.ID,
		Email:  strings.TrimSpace(out.Email),
	}, nil
}
