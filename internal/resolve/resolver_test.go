package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stn-analytics/stn-dashboard/internal/domain"
	"github.com/stn-analytics/stn-dashboard/internal/report"
)

type fakeRefs struct {
	clients  map[string]struct{}
	products []domain.Product
	regions  []string
}

func (f *fakeRefs) ClientCodes(ctx context.Context) (map[string]struct{}, error) {
	return f.clients, nil
}

func (f *fakeRefs) Products(ctx context.Context) ([]domain.Product, error) {
	return f.products, nil
}

func (f *fakeRefs) Regions(ctx context.Context) ([]string, error) {
	return f.regions, nil
}

func row(cells map[string]string) report.Row {
	return report.Row{Cells: cells, Date: "01.03.2024", Year: 2024, Month: 3, Type: report.RecordTypeActual}
}

func TestNewClientsReturnsOnlyUnknownCodes(t *testing.T) {
	refs := &fakeRefs{clients: map[string]struct{}{"A100": {}}}
	r := New(refs, nil)

	rows := []report.Row{
		row(map[string]string{report.ColClientCode: "A100", report.ColClientName: "ООО Ромашка"}),
		row(map[string]string{report.ColClientCode: "B200", report.ColClientName: "ООО Лютик"}),
		row(map[string]string{report.ColClientCode: "B200", report.ColClientName: "ООО Лютик"}),
	}

	clients, err := r.NewClients(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "B200", clients[0].Code)
	assert.Equal(t, "ООО Лютик", clients[0].Name)
}

func TestNewClientsPlaceholderHeadSubstitution(t *testing.T) {
	r := New(&fakeRefs{}, []string{"Физическое лицо"})

	rows := []report.Row{
		row(map[string]string{
			report.ColClientCode: "C300",
			report.ColClientName: "Иванов И.И.",
			report.ColClientHead: "Физическое лицо",
		}),
		row(map[string]string{
			report.ColClientCode: "D400",
			report.ColClientName: "ООО Пион",
			report.ColClientHead: "АО Холдинг",
		}),
	}

	clients, err := r.NewClients(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "Иванов И.И.", clients[0].HeadName)
	assert.Equal(t, "АО Холдинг", clients[1].HeadName)
}

func TestNewClientsRegionStaysUnresolved(t *testing.T) {
	refs := &fakeRefs{regions: []string{"Московская область"}}
	r := New(refs, nil)

	rows := []report.Row{
		row(map[string]string{report.ColClientCode: "E500", report.ColClientName: "ООО Астра"}),
	}

	clients, err := r.NewClients(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "", clients[0].Region)
}

func TestNewClientsSkipsEmptyCodes(t *testing.T) {
	r := New(&fakeRefs{}, nil)

	rows := []report.Row{
		row(map[string]string{report.ColClientCode: "", report.ColClientName: "без кода"}),
	}

	clients, err := r.NewClients(context.Background(), rows)
	require.NoError(t, err)
	assert.Empty(t, clients)
}

func TestNewProductsAssignsSubcategoryByName(t *testing.T) {
	refs := &fakeRefs{products: []domain.Product{
		{Code: "P1", Name: "труба стальная 20мм", Subcategory: "Трубы"},
		{Code: "P2", Name: "краска белая", Subcategory: "Краски"},
	}}
	r := New(refs, nil)

	rows := []report.Row{
		row(map[string]string{
			report.ColProductCode:   "P3",
			report.ColProductName:   "труба стальная 25мм",
			report.ColProductVendor: "TR-25",
		}),
	}

	products, err := r.NewProducts(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "P3", products[0].Code)
	assert.Equal(t, "TR-25", products[0].VendorCode)
	assert.Equal(t, "Трубы", products[0].Subcategory)
	assert.Equal(t, 0, products[0].Ord)
	assert.Equal(t, "0", products[0].CodeAP)
}

func TestNewProductsNothingNew(t *testing.T) {
	refs := &fakeRefs{products: []domain.Product{{Code: "P1", Name: "труба", Subcategory: "Трубы"}}}
	r := New(refs, nil)

	rows := []report.Row{
		row(map[string]string{report.ColProductCode: "P1", report.ColProductName: "труба"}),
	}

	products, err := r.NewProducts(context.Background(), rows)
	require.NoError(t, err)
	assert.Nil(t, products)
}

func TestNewProductsEmptyReferenceDictionary(t *testing.T) {
	r := New(&fakeRefs{}, nil)

	rows := []report.Row{
		row(map[string]string{report.ColProductCode: "P9", report.ColProductName: "новинка"}),
	}

	products, err := r.NewProducts(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "", products[0].Subcategory)
}
