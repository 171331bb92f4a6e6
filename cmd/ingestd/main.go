// cmd/ingestd/main.go
//
// ingestd is a slim ingestion-only daemon: no dashboard endpoints, just
// trigger routes suitable for internal cron or webhook callers.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/stn-analytics/stn-dashboard/internal/cache"
	"github.com/stn-analytics/stn-dashboard/internal/config"
	"github.com/stn-analytics/stn-dashboard/internal/mailbox"
	"github.com/stn-analytics/stn-dashboard/internal/repository/postgres"
	"github.com/stn-analytics/stn-dashboard/internal/resolve"
	"github.com/stn-analytics/stn-dashboard/internal/service"
	"github.com/stn-analytics/stn-dashboard/internal/storage"
	"github.com/stn-analytics/stn-dashboard/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	ctx := context.Background()

	sqlxDB, err := sqlx.ConnectContext(ctx, "pgx", cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	db := postgres.WrapDB(sqlxDB)
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	source, err := mailbox.NewSource(ctx, cfg.Mail)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize mailbox source")
	}

	archive, err := storage.NewArchive(cfg.Archive)
	if err != nil {
		log.Warn().Err(err).Msg("attachment archive unavailable, running without it")
		archive = storage.NewNoopArchive()
	}

	refs := postgres.NewReferenceRepository(db)
	resolver := resolve.New(refs, cfg.Match.PlaceholderHeads)
	ingestService := service.NewIngestService(
		cfg.Mail,
		source,
		refs,
		postgres.NewFactRepository(db),
		postgres.NewRunRepository(db),
		resolver,
		archive,
		cache.NewNoopReportCache(),
	)

	r := mux.NewRouter()
	r.HandleFunc("/ingest/all", triggerAll(ingestService)).Methods("POST")
	r.HandleFunc("/ingest/{source}", triggerSource(ingestService)).Methods("POST")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("ingestd starting")
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal().Err(err).Msg("ingestd stopped")
	}
}

func triggerSource(ingest *service.IngestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		source := mux.Vars(r)["source"]

		result, err := ingest.Run(r.Context(), source)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func triggerAll(ingest *service.IngestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := ingest.RunAll(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"error":   err.Error(),
				"results": results,
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
