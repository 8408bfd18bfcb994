package router

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	mem "herd-reproduction/internal/adapters/storage/memory"
	pg "herd-reproduction/internal/adapters/storage/postgres"
	"herd-reproduction/internal/domain/protocols"
	"herd-reproduction/internal/domain/reproduction"
	"herd-reproduction/internal/domain/schema"
	"herd-reproduction/internal/middleware"
	"herd-reproduction/internal/platform/logger"
	"herd-reproduction/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // pode ser nil (modo dev)

	// Opcional: com DB usa Postgres; sem DB, in-memory com protocolos demo.
	DB *sql.DB

	Logger logger.Logger
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewFromEnv()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Se não vier DB explícito, tenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			} else {
				log.Warn("postgres unavailable, falling back to memory", map[string]any{"error": err.Error()})
			}
		}
	}

	var (
		protocolRepo protocols.Repository
		stageStore   reproduction.Store
	)

	if db != nil {
		// O mapeamento de colunas resolve uma vez aqui; falha de
		// introspecção degrada para os defaults, nunca derruba o processo.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		mapping, err := schema.Resolve(ctx, pg.NewCatalog(db), schema.DefaultTables())
		cancel()
		if err != nil {
			log.Warn("schema introspection degraded", map[string]any{"error": err.Error()})
		}

		protocolRepo = pg.NewProtocolsRepo(db, mapping.Protocols)
		stageStore = pg.NewStagesRepo(db, mapping)
	} else {
		memRepo := mem.NewProtocolsRepo(demoProtocols()...)
		protocolRepo = memRepo
		stageStore = mem.NewStagesRepo()
		log.Info("using in-memory storage with demo protocols", nil)
	}

	protocolsSvc := protocols.NewService(protocolRepo)
	reproductionSvc := reproduction.NewService(protocolsSvc, stageStore)

	protocols.RegisterRoutes(r, protocolsSvc)
	reproduction.RegisterRoutes(r, reproductionSvc)

	return r
}

// demoProtocols dá ao modo dev um catálogo utilizável sem banco.
func demoProtocols() []protocols.Record {
	return []protocols.Record{
		{
			ID:   "demo-iatf",
			Name: "IATF 10 dias (demo)",
			Type: "IATF",
			Steps: `[
				{"day": 0, "hormonio": "BE 2mg + dispositivo P4", "acao": "inserir dispositivo"},
				{"day": 7, "hormonio": "PGF2a", "acao": "retirada + PGF"},
				{"day": 10, "acao": "IA em tempo fixo"}
			]`,
		},
		{
			ID:   "demo-presync",
			Name: "Pré-sincronização 14 dias (demo)",
			Type: "pre-sincronizacao",
			Steps: `[
				{"day": 0, "hormonio": "GnRH"},
				{"day": 14, "hormonio": "PGF2a"}
			]`,
		},
	}
}
