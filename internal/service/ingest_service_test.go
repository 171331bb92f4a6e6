package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/stn-analytics/stn-dashboard/internal/cache"
	"github.com/stn-analytics/stn-dashboard/internal/config"
	"github.com/stn-analytics/stn-dashboard/internal/domain"
	"github.com/stn-analytics/stn-dashboard/internal/mailbox"
	"github.com/stn-analytics/stn-dashboard/internal/pipeline"
	"github.com/stn-analytics/stn-dashboard/internal/resolve"
	"github.com/stn-analytics/stn-dashboard/internal/storage"
)

type fakeMailSource struct {
	att *mailbox.Attachment
	err error
}

func (f *fakeMailSource) FetchLatest(ctx context.Context, subjectFilter string) (*mailbox.Attachment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.att, nil
}

type finishedRun struct {
	status  domain.RunStatus
	rows    int
	subject string
	err     error
}

type fakeRunTracker struct {
	started  []string
	finished []finishedRun
}

func (f *fakeRunTracker) StartRun(ctx context.Context, source string) (*domain.IngestionRun, error) {
	f.started = append(f.started, source)
	return &domain.IngestionRun{ID: "run-1", Source: source, Status: domain.RunStarted}, nil
}

func (f *fakeRunTracker) FinishRun(ctx context.Context, run *domain.IngestionRun, status domain.RunStatus, rows int, subject string, runErr error) error {
	f.finished = append(f.finished, finishedRun{status: status, rows: rows, subject: subject, err: runErr})
	return nil
}

type factCall struct {
	method string
	rows   int
	mode   pipeline.WriteMode
}

type fakeFactWriter struct {
	calls []factCall
}

func (f *fakeFactWriter) WriteSales(ctx context.Context, facts []domain.SalesFact, mode pipeline.WriteMode) error {
	f.calls = append(f.calls, factCall{method: "sales", rows: len(facts), mode: mode})
	return nil
}

func (f *fakeFactWriter) WriteStockBalances(ctx context.Context, rows []domain.StockBalance, mode pipeline.WriteMode) error {
	f.calls = append(f.calls, factCall{method: "stock", rows: len(rows), mode: mode})
	return nil
}

func (f *fakeFactWriter) WriteProduction(ctx context.Context, rows []domain.ProductionExec, mode pipeline.WriteMode) error {
	f.calls = append(f.calls, factCall{method: "production", rows: len(rows), mode: mode})
	return nil
}

func (f *fakeFactWriter) WritePurchases(ctx context.Context, rows []domain.Purchase, mode pipeline.WriteMode) error {
	f.calls = append(f.calls, factCall{method: "purchases", rows: len(rows), mode: mode})
	return nil
}

type fakeReferenceWriter struct {
	clients  int
	products int
}

func (f *fakeReferenceWriter) InsertClients(ctx context.Context, clients []domain.Client) error {
	f.clients += len(clients)
	return nil
}

func (f *fakeReferenceWriter) InsertProducts(ctx context.Context, products []domain.Product) error {
	f.products += len(products)
	return nil
}

type emptyRefStore struct{}

func (emptyRefStore) ClientCodes(ctx context.Context) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (emptyRefStore) Products(ctx context.Context) ([]domain.Product, error) { return nil, nil }

func (emptyRefStore) Regions(ctx context.Context) ([]string, error) { return nil, nil }

func testMailConfig() config.MailConfig {
	return config.MailConfig{
		User:              "reports@example.com",
		Password:          "secret",
		Server:            "imap.example.com",
		SalesSubject:      "Продажи",
		StockSubject:      "Остатки",
		ProductionSubject: "Производство",
		PurchasesSubject:  "Закупки",
	}
}

func newTestIngestService(src mailbox.Source) (*IngestService, *fakeRunTracker, *fakeFactWriter) {
	runs := &fakeRunTracker{}
	facts := &fakeFactWriter{}
	svc := NewIngestService(
		testMailConfig(),
		src,
		&fakeReferenceWriter{},
		facts,
		runs,
		resolve.New(emptyRefStore{}, nil),
		storage.NewNoopArchive(),
		cache.NewNoopReportCache(),
	)
	return svc, runs, facts
}

func workbookBytes(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		for j, value := range row {
			axis, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", axis, value))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestRunRecordsSkipWhenNoAttachment(t *testing.T) {
	svc, runs, facts := newTestIngestService(&fakeMailSource{err: mailbox.ErrNoMatchingAttachment})

	res, err := svc.RunStock(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Skipped)
	assert.Equal(t, 0, res.Rows)

	require.Len(t, runs.finished, 1)
	assert.Equal(t, domain.RunSkipped, runs.finished[0].status)
	assert.Equal(t, 0, runs.finished[0].rows)
	assert.Empty(t, facts.calls, "a skipped run must not write facts")
}

func TestRunRecordsFailureOnFetchError(t *testing.T) {
	fetchErr := errors.New("imap connection refused")
	svc, runs, facts := newTestIngestService(&fakeMailSource{err: fetchErr})

	res, err := svc.RunStock(context.Background())
	require.ErrorIs(t, err, fetchErr)
	assert.Nil(t, res)

	require.Len(t, runs.finished, 1)
	assert.Equal(t, domain.RunFailed, runs.finished[0].status)
	assert.Equal(t, fetchErr, runs.finished[0].err)
	assert.Empty(t, facts.calls)
}

func TestRunRecordsFailureOnUnreadableAttachment(t *testing.T) {
	svc, runs, facts := newTestIngestService(&fakeMailSource{att: &mailbox.Attachment{
		Filename: "остатки.xlsx",
		Subject:  "Остатки на 01.03.2024",
		Data:     []byte("это не книга excel"),
	}})

	res, err := svc.RunStock(context.Background())
	require.Error(t, err)
	assert.Nil(t, res)

	require.Len(t, runs.finished, 1)
	assert.Equal(t, domain.RunFailed, runs.finished[0].status)
	assert.Equal(t, "Остатки на 01.03.2024", runs.finished[0].subject)
	require.Error(t, runs.finished[0].err)
	assert.Empty(t, facts.calls)
}

func TestRunStockCompletedAppends(t *testing.T) {
	data := workbookBytes(t, [][]string{
		{"Артикул", "Номенклатура", "Склад", "Количество", "Оценка"},
		{"TR-20", "Труба 20мм", "Основной", "120", "24000"},
		{"KR-01", "Краска белая", "Втор", "3,5", "1050,75"},
	})
	svc, runs, facts := newTestIngestService(&fakeMailSource{att: &mailbox.Attachment{
		Filename: "остатки.xlsx",
		Subject:  "Остатки на 01.03.2024",
		Data:     data,
	}})

	res, err := svc.RunStock(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Skipped)
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, "Остатки на 01.03.2024", res.Subject)

	require.Len(t, runs.finished, 1)
	assert.Equal(t, domain.RunCompleted, runs.finished[0].status)
	assert.Equal(t, 2, runs.finished[0].rows)

	require.Len(t, facts.calls, 1)
	assert.Equal(t, "stock", facts.calls[0].method)
	assert.Equal(t, pipeline.WriteAppend, facts.calls[0].mode)
}

func TestRunProductionReplacesSnapshot(t *testing.T) {
	data := workbookBytes(t, [][]string{
		{"Выполнение заказов на производство"},
		{"за март 2024"},
		{"Артикул", "Номенклатура, Характеристика", "План", "Факт"},
		{"TR-20", "Труба 20мм", "10", "8"},
	})
	svc, runs, facts := newTestIngestService(&fakeMailSource{att: &mailbox.Attachment{
		Filename: "производство.xlsx",
		Subject:  "Производство",
		Data:     data,
	}})

	res, err := svc.RunProduction(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rows)

	require.Len(t, runs.finished, 1)
	assert.Equal(t, domain.RunCompleted, runs.finished[0].status)

	require.Len(t, facts.calls, 1)
	assert.Equal(t, "production", facts.calls[0].method)
	assert.Equal(t, pipeline.WriteReplace, facts.calls[0].mode)
}

func TestRunRejectsMissingCredentialsBeforeStart(t *testing.T) {
	runs := &fakeRunTracker{}
	svc := NewIngestService(
		config.MailConfig{},
		&fakeMailSource{err: mailbox.ErrNoMatchingAttachment},
		&fakeReferenceWriter{},
		&fakeFactWriter{},
		runs,
		resolve.New(emptyRefStore{}, nil),
		storage.NewNoopArchive(),
		cache.NewNoopReportCache(),
	)

	_, err := svc.RunSales(context.Background())
	require.Error(t, err)

	var missing *config.MissingCredentialsError
	require.True(t, errors.As(err, &missing))
	assert.Empty(t, runs.started, "no run row before credentials check passes")
}

func TestRunUnknownSource(t *testing.T) {
	svc, _, _ := newTestIngestService(&fakeMailSource{err: mailbox.ErrNoMatchingAttachment})

	_, err := svc.Run(context.Background(), "накладные")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown ingestion source")
}
