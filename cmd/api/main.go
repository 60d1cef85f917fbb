package main

import (
	"net/http"
	"os"
	"time"

	"medipet/internal/adapters/auth/supabase"
	"medipet/internal/platform/logger"
	"medipet/internal/ports/auth"
	"medipet/internal/router"
)

func main() {
	log := logger.NewFromEnv()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	// Verifier real solo si Supabase está configurado; si no, modo dev
	// (identidad por header X-Debug-User-ID).
	var verifier auth.AuthVerifier
	if url := os.Getenv("SUPABASE_URL"); url != "" {
		client, err := supabase.NewClient(supabase.Config{
			BaseURL: url,
			AnonKey: os.Getenv("SUPABASE_ANON_KEY"),
		})
		if err != nil {
			log.Error("supabase config invalid", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		verifier = supabase.NewVerifier(client)
	}

	sweepSpec := os.Getenv("SWEEP_SPEC")
	if sweepSpec == "" {
		sweepSpec = "@every 5m"
	}

	r := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		SweepSpec:    sweepSpec,
		Logger:       log,
	})

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
