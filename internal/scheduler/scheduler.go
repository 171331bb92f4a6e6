// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/stn-analytics/stn-dashboard/internal/config"
	"github.com/stn-analytics/stn-dashboard/internal/pipeline"
	"github.com/stn-analytics/stn-dashboard/internal/service"
)

const runTimeout = 10 * time.Minute

// Scheduler drives the periodic ingestion runs from cron specs. Sources
// without a spec are simply never scheduled.
type Scheduler struct {
	cron    *cron.Cron
	ingest  *service.IngestService
	entries int
}

func New(cfg config.ScheduleConfig, ingest *service.IngestService) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		ingest: ingest,
	}

	specs := map[string]string{
		pipeline.SourceSales:      cfg.Sales,
		pipeline.SourceStock:      cfg.Stock,
		pipeline.SourceProduction: cfg.Production,
		pipeline.SourcePurchases:  cfg.Purchases,
	}
	for source, spec := range specs {
		if spec == "" {
			continue
		}
		source := source
		_, err := s.cron.AddFunc(spec, func() { s.runSource(source) })
		if err != nil {
			return nil, err
		}
		s.entries++
		log.Info().Str("source", source).Str("spec", spec).Msg("ingestion scheduled")
	}

	return s, nil
}

// Start launches the cron loop. It is a no-op when nothing is scheduled.
func (s *Scheduler) Start() {
	if s.entries == 0 {
		log.Info().Msg("no cron specs configured, scheduler idle")
		return
	}
	s.cron.Start()
}

// Stop halts scheduling and waits for in-flight runs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runSource(source string) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	result, err := s.ingest.Run(ctx, source)
	if err != nil {
		log.Error().Err(err).Str("source", source).Msg("scheduled ingestion failed")
		return
	}
	if result.Skipped {
		log.Info().Str("source", source).Msg("scheduled ingestion skipped, no matching report")
		return
	}
	log.Info().Str("source", source).Int("rows", result.Rows).Msg("scheduled ingestion completed")
}
