package main

import (
	"net/http"
	"os"
	"time"

	"herd-reproduction/internal/adapters/auth/conta"
	"herd-reproduction/internal/platform/logger"
	"herd-reproduction/internal/ports/auth"
	"herd-reproduction/internal/router"

	_ "herd-reproduction/docs"
)

// @title Herd Reproduction API
// @version 0.1
// @description Motor de aplicação de protocolos reprodutivos (IATF e pré-sincronização).
// @BasePath /
func main() {
	log := logger.NewFromEnv()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	// Verifier só quando o serviço de contas estiver configurado;
	// sem ele, modo dev com X-Debug-Owner-ID.
	var verifier auth.AuthVerifier
	if base := os.Getenv("ACCOUNTS_BASE_URL"); base != "" {
		client, err := conta.NewClient(conta.Config{
			BaseURL: base,
			APIKey:  os.Getenv("ACCOUNTS_API_KEY"),
		})
		if err != nil {
			log.Error("accounts client config", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		verifier = conta.NewVerifier(client)
	}

	r := router.NewRouter(router.Options{AuthVerifier: verifier, Logger: log})

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
