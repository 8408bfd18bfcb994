package conta

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"herd-reproduction/internal/ports/auth"
)

var (
	ErrTokenEmpty = errors.New("token is empty")
)

// Verifier implementa auth.AuthVerifier usando o serviço de contas.
// Instanciado a partir de main quando ACCOUNTS_BASE_URL está definido.
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
		return auth.Claims{}, fmt.Errorf("conta verify failed: %w", err)
	}

	claims.OwnerID = strings.TrimSpace(claims.OwnerID)
	if claims.OwnerID == "" {
		return auth.Claims{}, errors.New("conta claims missing owner id")
	}

	return claims, nil
}
