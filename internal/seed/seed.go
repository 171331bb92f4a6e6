// Package seed loads the initial reference tables from CSV exports. The
// ingestion pipeline only ever appends entities it discovers in reports, so
// a fresh installation needs the known clients, products and regions loaded
// once up front.
package seed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/stn-analytics/stn-dashboard/internal/domain"
	"github.com/stn-analytics/stn-dashboard/internal/repository/postgres"
)

type Seeder struct {
	refs *postgres.ReferenceRepository
}

func NewSeeder(refs *postgres.ReferenceRepository) *Seeder {
	return &Seeder{refs: refs}
}

// LoadClients reads a clients CSV with a header row naming at least the
// code and name columns. Unknown columns are ignored.
func (s *Seeder) LoadClients(ctx context.Context, path string) (int, error) {
	rows, colMap, err := openCSV(path, "code", "name")
	if err != nil {
		return 0, err
	}

	var clients []domain.Client
	for _, record := range rows {
		code := field(record, colMap, "code")
		if code == "" {
			continue
		}
		clients = append(clients, domain.Client{
			Code:     code,
			Name:     field(record, colMap, "name"),
			HeadName: field(record, colMap, "head_name"),
			Region:   field(record, colMap, "region"),
			Type:     field(record, colMap, "type"),
		})
	}

	if err := s.refs.InsertClients(ctx, clients); err != nil {
		return 0, err
	}
	log.Info().Int("count", len(clients)).Str("path", path).Msg("clients seeded")
	return len(clients), nil
}

// LoadProducts reads a products CSV keyed by the code column.
func (s *Seeder) LoadProducts(ctx context.Context, path string) (int, error) {
	rows, colMap, err := openCSV(path, "code", "name")
	if err != nil {
		return 0, err
	}

	var products []domain.Product
	for _, record := range rows {
		code := field(record, colMap, "code")
		if code == "" {
			continue
		}
		ord, _ := strconv.Atoi(field(record, colMap, "ord"))
		codeAP := field(record, colMap, "code_ap")
		if codeAP == "" {
			codeAP = "0"
		}
		products = append(products, domain.Product{
			Code:        code,
			VendorCode:  field(record, colMap, "vendor_code"),
			Name:        field(record, colMap, "name"),
			Type:        field(record, colMap, "type"),
			Unit:        field(record, colMap, "unit"),
			Ord:         ord,
			CodeAP:      codeAP,
			Subcategory: field(record, colMap, "subcategory"),
		})
	}

	if err := s.refs.InsertProducts(ctx, products); err != nil {
		return 0, err
	}
	log.Info().Int("count", len(products)).Str("path", path).Msg("products seeded")
	return len(products), nil
}

// LoadRegions reads a single-column region list.
func (s *Seeder) LoadRegions(ctx context.Context, path string) (int, error) {
	rows, colMap, err := openCSV(path, "region")
	if err != nil {
		return 0, err
	}

	var regions []string
	for _, record := range rows {
		if region := field(record, colMap, "region"); region != "" {
			regions = append(regions, region)
		}
	}

	if err := s.refs.InsertRegions(ctx, regions); err != nil {
		return 0, err
	}
	log.Info().Int("count", len(regions)).Str("path", path).Msg("regions seeded")
	return len(regions), nil
}

func openCSV(path string, required ...string) ([][]string, map[string]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colMap := make(map[string]int)
	for i, col := range header {
		colMap[col] = i
	}
	for _, col := range required {
		if _, ok := colMap[col]; !ok {
			return nil, nil, fmt.Errorf("%s: missing required column %q", path, col)
		}
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("error reading record: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, colMap, nil
}

func field(record []string, colMap map[string]int, name string) string {
	i, ok := colMap[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}
