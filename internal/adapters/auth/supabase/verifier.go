package supabase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"medipet/internal/ports/auth"
)

var ErrTokenEmpty = errors.New("token is empty")

// Verifier implementa auth.AuthVerifier contra Supabase Auth.
// Se instancia desde main si SUPABASE_URL/SUPABASE_ANON_KEY están seteados.
type Verifier struct {
	client *Client
}

func NewVerifier(client *Client) *Verifier {
	return &Verifier{client: client}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	claims, err := v.client.VerifyToken(ctx, token)
	if err != nil {
		// El middleware decide si corta o deja pasar sin claims.
		return auth.Claims{}, fmt.Errorf("supabase verify failed: %w", err)
	}

	if strings.TrimSpace(claims.UserID) == "" {
		return auth.Claims{}, errors.New("supabase claims missing user id")
	}

	return claims, nil
}
