package middleware

import (
	"context"
	"net/http"
	"strings"

	"herd-reproduction/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// AuthContext:
// - Com verifier e Bearer token => tenta Verify() e grava as claims.
// - Sem verifier => modo dev: o header X-Debug-Owner-ID grava as claims.
// - Sem claims, o request segue igual; o escopo por dono simplesmente não
//   se aplica (tenant é opcional neste núcleo).
func AuthContext(verifier auth.AuthVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Modo dev: injetar dono sem verifier
			if verifier == nil {
				if owner := strings.TrimSpace(r.Header.Get("X-Debug-Owner-ID")); owner != "" {
					claims := auth.Claims{OwnerID: owner}
					ctx := context.WithValue(r.Context(), claimsKey, claims)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}

				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				// Não corta aqui para não acoplar; o handler decide.
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

// OwnerID devolve o dono das claims, ou vazio quando não autenticado.
func OwnerID(ctx context.Context) string {
	c, _ := GetClaims(ctx)
	return c.OwnerID
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
