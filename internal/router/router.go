package router

import (
	"database/sql"
	"net/http"
	"os"

	mem "medipet/internal/adapters/storage/memory"
	pg "medipet/internal/adapters/storage/postgres"
	"medipet/internal/domain/doses"
	"medipet/internal/domain/medications"
	"medipet/internal/domain/preferences"
	"medipet/internal/middleware"
	"medipet/internal/platform/logger"
	"medipet/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Cron spec del sweeper de dosis perdidas ("@every 5m").
	// Vacío => no arranca el sweeper (útil en tests).
	SweepSpec string

	Logger logger.Logger
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	log := opts.Logger
	if log == nil {
		log = logger.New(logger.Options{Level: logger.Info})
	}

	var (
		medsRepo  medications.Repository
		prefsRepo preferences.Repository
		dosesRepo doses.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			} else {
				log.Warn("db open failed, falling back to memory", map[string]any{"error": err.Error()})
			}
		}
	}

	if db != nil {
		medsRepo = pg.NewMedicationsRepo(db)
		prefsRepo = pg.NewPreferencesRepo(db)
		dosesRepo = pg.NewDosesRepo(db)
	} else {
		medsRepo = mem.NewMedicationRepo()
		prefsRepo = mem.NewPreferencesRepo()
		dosesRepo = mem.NewDoseRepo()
	}

	// Services por módulo
	medsSvc := medications.NewService(medsRepo)
	prefsSvc := preferences.NewService(prefsRepo)
	dosesSvc := doses.NewService(dosesRepo)

	// Rutas por módulo
	medications.RegisterRoutes(r, medsSvc, prefsSvc)
	preferences.RegisterRoutes(r, prefsSvc)
	doses.RegisterRoutes(r, dosesSvc, medsSvc, prefsSvc)

	if opts.SweepSpec != "" {
		sweeper := doses.NewSweeper(dosesSvc, medsSvc, prefsSvc, log)
		if err := sweeper.Start(opts.SweepSpec); err != nil {
			log.Error("sweeper start failed", map[string]any{"error": err.Error()})
		}
	}

	return r
}
