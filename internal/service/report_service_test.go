package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stn-analytics/stn-dashboard/internal/cache"
	"github.com/stn-analytics/stn-dashboard/internal/domain"
)

type fakeReportStore struct {
	salesFilter   *domain.SalesFilter
	staleDate     string
	stockDates    []string
	staleByDate   map[string][]domain.StaleStockItem
	dynamicsByKey []domain.SalesDynamicsPoint
}

func (f *fakeReportStore) SalesDynamics(ctx context.Context, filter *domain.SalesFilter) ([]domain.SalesDynamicsPoint, error) {
	f.salesFilter = filter
	return f.dynamicsByKey, nil
}

func (f *fakeReportStore) StaleStock(ctx context.Context, reportDate string) ([]domain.StaleStockItem, error) {
	f.staleDate = reportDate
	return f.staleByDate[reportDate], nil
}

func (f *fakeReportStore) StockReportDates(ctx context.Context) ([]string, error) {
	return f.stockDates, nil
}

func (f *fakeReportStore) ProductionSummary(ctx context.Context) ([]domain.ProductionSummaryRow, error) {
	return nil, nil
}

func (f *fakeReportStore) PurchaseTotals(ctx context.Context) ([]domain.PurchaseTotal, error) {
	return nil, nil
}

type fakeRunLister struct {
	limit int
}

func (f *fakeRunLister) RecentRuns(ctx context.Context, limit int) ([]domain.IngestionRun, error) {
	f.limit = limit
	return nil, nil
}

func TestSalesDynamicsNilFilter(t *testing.T) {
	store := &fakeReportStore{dynamicsByKey: []domain.SalesDynamicsPoint{{Year: 2024, Month: 3}}}
	svc := NewReportService(store, &fakeRunLister{}, cache.NewNoopReportCache())

	points, err := svc.SalesDynamics(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, points, 1)

	require.NotNil(t, store.salesFilter, "store must receive a usable filter")
	assert.Equal(t, 0, store.salesFilter.Year)
	assert.Equal(t, "", store.salesFilter.Type)
}

func TestStaleStockDefaultsToLatestDate(t *testing.T) {
	store := &fakeReportStore{
		stockDates: []string{"2024-03-01", "2024-02-01"},
		staleByDate: map[string][]domain.StaleStockItem{
			"2024-03-01": {{Article: "TR-20"}},
		},
	}
	svc := NewReportService(store, &fakeRunLister{}, cache.NewNoopReportCache())

	items, err := svc.StaleStock(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2024-03-01", store.staleDate)
}

func TestStaleStockNoSnapshots(t *testing.T) {
	svc := NewReportService(&fakeReportStore{}, &fakeRunLister{}, cache.NewNoopReportCache())

	items, err := svc.StaleStock(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestRecentRunsClampsLimit(t *testing.T) {
	for _, limit := range []int{-5, 0, 101} {
		lister := &fakeRunLister{}
		svc := NewReportService(&fakeReportStore{}, lister, cache.NewNoopReportCache())

		_, err := svc.RecentRuns(context.Background(), limit)
		require.NoError(t, err)
		assert.Equal(t, 20, lister.limit, "limit %d should clamp to the default", limit)
	}
}
