package conta

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"herd-reproduction/internal/platform/httpclient"
	"herd-reproduction/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("conta client not configured")
	ErrUnauthorized  = errors.New("conta unauthorized")
	ErrUpstream      = errors.New("conta upstream error")
)

// Config do cliente do serviço de contas da plataforma.
// BaseURL e APIKey normalmente vêm de env vars em quem instancia.
type Config struct {
	BaseURL string
	APIKey  string

	// Opcional: header da API key. Vazio => "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrNotConfigured
	}

	hc, err := httpclient.NewWithBaseURL(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	header := strings.TrimSpace(cfg.APIKeyHeader)
	if header == "" {
		header = "X-Api-Key"
	}

	return &Client{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: header,
	}, nil
}

type verifyRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	OwnerID string `json:"owner_id"`
	Email   string `json:"email"`
}

// VerifyToken valida o token no serviço de contas e devolve as claims.
func (c *Client) VerifyToken(ctx context.Context, token string) (auth.Claims, error) {
	if c == nil || c.http == nil {
		return auth.Claims{}, ErrNotConfigured
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers[c.apiKeyHeader] = c.apiKey
	}

	var out verifyResponse
	err := c.http.DoJSON(ctx, http.MethodPost, "/v1/tokens/verify", headers, verifyRequest{Token: token}, &out)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			if httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden {
				return auth.Claims{}, ErrUnauthorized
			}
			return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		return auth.Claims{}, err
	}

	return auth.Claims{OwnerID: out.OwnerID, Email: out.Email}, nil
}
