// internal/service/ingest_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stn-analytics/stn-dashboard/internal/cache"
	"github.com/stn-analytics/stn-dashboard/internal/config"
	"github.com/stn-analytics/stn-dashboard/internal/domain"
	"github.com/stn-analytics/stn-dashboard/internal/mailbox"
	"github.com/stn-analytics/stn-dashboard/internal/pipeline"
	"github.com/stn-analytics/stn-dashboard/internal/report"
	"github.com/stn-analytics/stn-dashboard/internal/resolve"
	"github.com/stn-analytics/stn-dashboard/internal/storage"
)

// RunResult summarizes one ingestion run for the caller.
type RunResult struct {
	Source  string `json:"source"`
	RunID   string `json:"run_id"`
	Rows    int    `json:"rows"`
	Skipped bool   `json:"skipped"`
	Subject string `json:"subject,omitempty"`
}

// ReferenceWriter persists newly discovered reference entities.
type ReferenceWriter interface {
	InsertClients(ctx context.Context, clients []domain.Client) error
	InsertProducts(ctx context.Context, products []domain.Product) error
}

// FactWriter lands parsed batches in the fact tables per the source's
// write mode.
type FactWriter interface {
	WriteSales(ctx context.Context, facts []domain.SalesFact, mode pipeline.WriteMode) error
	WriteStockBalances(ctx context.Context, rows []domain.StockBalance, mode pipeline.WriteMode) error
	WriteProduction(ctx context.Context, rows []domain.ProductionExec, mode pipeline.WriteMode) error
	WritePurchases(ctx context.Context, rows []domain.Purchase, mode pipeline.WriteMode) error
}

// RunTracker records ingestion run lifecycle rows.
type RunTracker interface {
	StartRun(ctx context.Context, source string) (*domain.IngestionRun, error)
	FinishRun(ctx context.Context, run *domain.IngestionRun, status domain.RunStatus, rows int, subject string, runErr error) error
}

// IngestService orchestrates the full path for every source: mailbox fetch,
// normalization, entity delta resolution, pivot and write. Each source is
// gated by its own mutex; two overlapping runs of the same source would
// interleave appends otherwise.
type IngestService struct {
	mail    config.MailConfig
	source  mailbox.Source
	refs    ReferenceWriter
	facts   FactWriter
	runs    RunTracker
	resolve *resolve.Resolver
	archive storage.Archive
	cache   cache.ReportCache

	locks map[string]*sync.Mutex
}

func NewIngestService(
	mail config.MailConfig,
	source mailbox.Source,
	refs ReferenceWriter,
	facts FactWriter,
	runs RunTracker,
	resolver *resolve.Resolver,
	archive storage.Archive,
	reportCache cache.ReportCache,
) *IngestService {
	locks := make(map[string]*sync.Mutex, len(pipeline.Descriptors))
	for source := range pipeline.Descriptors {
		locks[source] = &sync.Mutex{}
	}
	return &IngestService{
		mail:    mail,
		source:  source,
		refs:    refs,
		facts:   facts,
		runs:    runs,
		resolve: resolver,
		archive: archive,
		cache:   reportCache,
		locks:   locks,
	}
}

// Run executes the named source pipeline.
func (s *IngestService) Run(ctx context.Context, source string) (*RunResult, error) {
	switch source {
	case pipeline.SourceSales:
		return s.RunSales(ctx)
	case pipeline.SourceStock:
		return s.RunStock(ctx)
	case pipeline.SourceProduction:
		return s.RunProduction(ctx)
	case pipeline.SourcePurchases:
		return s.RunPurchases(ctx)
	default:
		return nil, fmt.Errorf("unknown ingestion source: %s", source)
	}
}

// RunAll refreshes every source in sequence. A failed source does not stop
// the others; the first error is reported after all have run.
func (s *IngestService) RunAll(ctx context.Context) ([]*RunResult, error) {
	var (
		results  []*RunResult
		firstErr error
	)
	for _, source := range []string{
		pipeline.SourceSales,
		pipeline.SourceStock,
		pipeline.SourceProduction,
		pipeline.SourcePurchases,
	} {
		res, err := s.Run(ctx, source)
		if err != nil {
			log.Error().Err(err).Str("source", source).Msg("ingestion run failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", source, err)
			}
			continue
		}
		results = append(results, res)
	}
	return results, firstErr
}

// RunSales ingests the sales report: normalize, resolve new clients and
// products, pivot and append the fact rows.
func (s *IngestService) RunSales(ctx context.Context) (*RunResult, error) {
	return s.run(ctx, pipeline.SourceSales, s.mail.SalesSubject, func(ctx context.Context, att *mailbox.Attachment) (int, error) {
		grid, err := report.ReadGrid(att.Data, att.Filename)
		if err != nil {
			return 0, err
		}
		rows, err := report.Normalize(grid)
		if err != nil {
			return 0, err
		}

		clients, err := s.resolve.NewClients(ctx, rows)
		if err != nil {
			return 0, err
		}
		if len(clients) > 0 {
			if err := s.refs.InsertClients(ctx, clients); err != nil {
				return 0, err
			}
			log.Info().Int("count", len(clients)).Msg("new clients added")
		}

		products, err := s.resolve.NewProducts(ctx, rows)
		if err != nil {
			return 0, err
		}
		if len(products) > 0 {
			if err := s.refs.InsertProducts(ctx, products); err != nil {
				return 0, err
			}
			log.Info().Int("count", len(products)).Msg("new products added")
		}

		facts := pipeline.BuildSales(rows)
		if err := s.facts.WriteSales(ctx, facts, pipeline.Descriptors[pipeline.SourceSales].Mode); err != nil {
			return 0, err
		}
		return len(facts), nil
	})
}

// RunStock ingests the warehouse balance snapshot.
func (s *IngestService) RunStock(ctx context.Context) (*RunResult, error) {
	return s.run(ctx, pipeline.SourceStock, s.mail.StockSubject, func(ctx context.Context, att *mailbox.Attachment) (int, error) {
		grid, err := report.ReadGrid(att.Data, att.Filename)
		if err != nil {
			return 0, err
		}
		now := time.Now()
		reportDate := pipeline.ReportDateFromSubject(att.Subject, now)
		rows, err := pipeline.ParseStock(grid, reportDate, now)
		if err != nil {
			return 0, err
		}
		if err := s.facts.WriteStockBalances(ctx, rows, pipeline.Descriptors[pipeline.SourceStock].Mode); err != nil {
			return 0, err
		}
		return len(rows), nil
	})
}

// RunProduction ingests the production execution report, replacing the
// previous snapshot wholesale.
func (s *IngestService) RunProduction(ctx context.Context) (*RunResult, error) {
	return s.run(ctx, pipeline.SourceProduction, s.mail.ProductionSubject, func(ctx context.Context, att *mailbox.Attachment) (int, error) {
		grid, err := report.ReadGrid(att.Data, att.Filename)
		if err != nil {
			return 0, err
		}
		rows, err := pipeline.ParseProduction(grid, time.Now())
		if err != nil {
			return 0, err
		}
		if err := s.facts.WriteProduction(ctx, rows, pipeline.Descriptors[pipeline.SourceProduction].Mode); err != nil {
			return 0, err
		}
		return len(rows), nil
	})
}

// RunPurchases ingests the supplier purchase list.
func (s *IngestService) RunPurchases(ctx context.Context) (*RunResult, error) {
	return s.run(ctx, pipeline.SourcePurchases, s.mail.PurchasesSubject, func(ctx context.Context, att *mailbox.Attachment) (int, error) {
		grid, err := report.ReadGrid(att.Data, att.Filename)
		if err != nil {
			return 0, err
		}
		reportDate := pipeline.ReportDateFromSubject(att.Subject, time.Now())
		rows, err := pipeline.ParsePurchases(grid, reportDate)
		if err != nil {
			return 0, err
		}
		if err := s.facts.WritePurchases(ctx, rows, pipeline.Descriptors[pipeline.SourcePurchases].Mode); err != nil {
			return 0, err
		}
		return len(rows), nil
	})
}

type ingestFunc func(ctx context.Context, att *mailbox.Attachment) (int, error)

func (s *IngestService) run(ctx context.Context, source, subject string, ingest ingestFunc) (*RunResult, error) {
	mu := s.locks[source]
	mu.Lock()
	defer mu.Unlock()

	if err := s.mail.Validate(); err != nil {
		return nil, err
	}

	run, err := s.runs.StartRun(ctx, source)
	if err != nil {
		return nil, err
	}
	result := &RunResult{Source: source, RunID: run.ID}

	att, err := s.source.FetchLatest(ctx, subject)
	if errors.Is(err, mailbox.ErrNoMatchingAttachment) {
		log.Info().Str("source", source).Str("subject", subject).Msg("no report this run")
		result.Skipped = true
		return result, s.runs.FinishRun(ctx, run, domain.RunSkipped, 0, "", nil)
	}
	if err != nil {
		_ = s.runs.FinishRun(ctx, run, domain.RunFailed, 0, "", err)
		return nil, err
	}
	result.Subject = att.Subject

	rows, err := ingest(ctx, att)
	if err != nil {
		_ = s.runs.FinishRun(ctx, run, domain.RunFailed, 0, att.Subject, err)
		return nil, err
	}
	result.Rows = rows

	if err := s.runs.FinishRun(ctx, run, domain.RunCompleted, rows, att.Subject, nil); err != nil {
		return nil, err
	}

	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("report cache invalidation failed")
	}
	s.archiveAttachment(ctx, source, att)

	log.Info().Str("source", source).Int("rows", rows).Str("subject", att.Subject).Msg("ingestion run completed")
	return result, nil
}

func (s *IngestService) archiveAttachment(ctx context.Context, source string, att *mailbox.Attachment) {
	key := fmt.Sprintf("%s/%s/%s", source, time.Now().Format("2006-01-02"), att.Filename)
	if err := s.archive.Store(ctx, key, att.Data); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("attachment archive failed")
	}
}
