// cmd/updater/main.go
//
// updater is the operator CLI: run migrations or pull a single report from
// the mailbox without standing up the HTTP server.
package main

import (
	"context"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/stn-analytics/stn-dashboard/internal/cache"
	"github.com/stn-analytics/stn-dashboard/internal/config"
	"github.com/stn-analytics/stn-dashboard/internal/mailbox"
	"github.com/stn-analytics/stn-dashboard/internal/pipeline"
	"github.com/stn-analytics/stn-dashboard/internal/repository/postgres"
	"github.com/stn-analytics/stn-dashboard/internal/resolve"
	"github.com/stn-analytics/stn-dashboard/internal/seed"
	"github.com/stn-analytics/stn-dashboard/internal/service"
	"github.com/stn-analytics/stn-dashboard/internal/storage"
	"github.com/stn-analytics/stn-dashboard/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "updater",
		Usage: "run report ingestion and maintenance tasks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db-url",
				Usage:   "Postgres connection string, overrides the env-based settings",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug, release)",
				Value: "release",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "apply the database schema",
				Action: func(c *cli.Context) error {
					db, err := openDB(c)
					if err != nil {
						return err
					}
					defer db.Close()
					return db.Migrate(c.Context)
				},
			},
			ingestCommand("sales", "ingest the latest sales report", pipeline.SourceSales),
			ingestCommand("stock", "ingest the latest warehouse balance report", pipeline.SourceStock),
			ingestCommand("production", "ingest the latest production execution report", pipeline.SourceProduction),
			ingestCommand("purchases", "ingest the latest purchases report", pipeline.SourcePurchases),
			{
				Name:  "seed",
				Usage: "load reference tables from CSV exports",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "clients", Usage: "path to clients CSV"},
					&cli.StringFlag{Name: "products", Usage: "path to products CSV"},
					&cli.StringFlag{Name: "regions", Usage: "path to regions CSV"},
				},
				Action: func(c *cli.Context) error {
					db, err := openDB(c)
					if err != nil {
						return err
					}
					defer db.Close()

					if err := db.Migrate(c.Context); err != nil {
						return err
					}

					seeder := seed.NewSeeder(postgres.NewReferenceRepository(db))
					if path := c.String("clients"); path != "" {
						if _, err := seeder.LoadClients(c.Context, path); err != nil {
							return err
						}
					}
					if path := c.String("products"); path != "" {
						if _, err := seeder.LoadProducts(c.Context, path); err != nil {
							return err
						}
					}
					if path := c.String("regions"); path != "" {
						if _, err := seeder.LoadRegions(c.Context, path); err != nil {
							return err
						}
					}
					return nil
				},
			},
			{
				Name:  "all",
				Usage: "ingest every report in sequence",
				Action: func(c *cli.Context) error {
					ingest, closeFn, err := buildIngest(c)
					if err != nil {
						return err
					}
					defer closeFn()

					results, err := ingest.RunAll(c.Context)
					for _, res := range results {
						log.Info().Str("source", res.Source).Int("rows", res.Rows).Bool("skipped", res.Skipped).Msg("run finished")
					}
					return err
				},
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("updater failed")
	}
}

func ingestCommand(name, usage, source string) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(c *cli.Context) error {
			ingest, closeFn, err := buildIngest(c)
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := ingest.Run(c.Context, source)
			if err != nil {
				return err
			}
			if result.Skipped {
				log.Info().Str("source", source).Msg("no matching report, nothing ingested")
				return nil
			}
			log.Info().Str("source", source).Int("rows", result.Rows).Str("subject", result.Subject).Msg("ingestion completed")
			return nil
		},
	}
}

func openDB(c *cli.Context) (*postgres.DB, error) {
	if dbURL := c.String("db-url"); dbURL != "" {
		sqlxDB, err := sqlx.Connect("postgres", dbURL)
		if err != nil {
			return nil, err
		}
		return postgres.WrapDB(sqlxDB), nil
	}
	cfg := config.Load()
	return postgres.NewDB(&cfg.Database)
}

func buildIngest(c *cli.Context) (*service.IngestService, func(), error) {
	cfg := config.Load()

	db, err := openDB(c)
	if err != nil {
		return nil, nil, err
	}

	source, err := mailbox.NewSource(context.Background(), cfg.Mail)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	archive, err := storage.NewArchive(cfg.Archive)
	if err != nil {
		log.Warn().Err(err).Msg("attachment archive unavailable, running without it")
		archive = storage.NewNoopArchive()
	}

	reportCache, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		reportCache = cache.NewNoopReportCache()
	}

	refs := postgres.NewReferenceRepository(db)
	resolver := resolve.New(refs, cfg.Match.PlaceholderHeads)
	ingest := service.NewIngestService(
		cfg.Mail,
		source,
		refs,
		postgres.NewFactRepository(db),
		postgres.NewRunRepository(db),
		resolver,
		archive,
		reportCache,
	)
	return ingest, func() { db.Close() }, nil
}
