package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/stn-analytics/stn-dashboard/internal/domain"
)

// ReferenceRepository serves the slowly-changing dimension tables. Existing
// entries are never mutated by the ingestion pipeline; inserts are
// new-entity-only by code.
type ReferenceRepository struct {
	db *DB
}

func NewReferenceRepository(db *DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

func (r *ReferenceRepository) ClientCodes(ctx context.Context) (map[string]struct{}, error) {
	var codes []string
	if err := r.db.SelectContext(ctx, &codes, `SELECT code FROM clients`); err != nil {
		return nil, fmt.Errorf("select client codes: %w", err)
	}
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return set, nil
}

// Products returns the reference table ordered by code so that downstream
// fuzzy dictionaries iterate in a reproducible order.
func (r *ReferenceRepository) Products(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	query := `
		SELECT code, vendor_code, name, type, unit, ord, code_ap, subcategory
		FROM products
		ORDER BY code
	`
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return products, nil
}

func (r *ReferenceRepository) Regions(ctx context.Context) ([]string, error) {
	var regions []string
	if err := r.db.SelectContext(ctx, &regions, `SELECT region FROM regions ORDER BY region`); err != nil {
		return nil, fmt.Errorf("select regions: %w", err)
	}
	return regions, nil
}

// InsertRegions loads the region reference list used by address matching.
func (r *ReferenceRepository) InsertRegions(ctx context.Context, regions []string) error {
	if len(regions) == 0 {
		return nil
	}
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, region := range regions {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO regions (region) VALUES ($1) ON CONFLICT (region) DO NOTHING`, region); err != nil {
				return fmt.Errorf("insert region: %w", err)
			}
		}
		return nil
	})
}

// InsertClients appends new client entities. A conflicting code is left
// untouched: reconciliation of existing clients is out of scope here.
func (r *ReferenceRepository) InsertClients(ctx context.Context, clients []domain.Client) error {
	if len(clients) == 0 {
		return nil
	}
	query := `
		INSERT INTO clients (code, name, head_name, region, type)
		VALUES (:code, :name, :head_name, :region, :type)
		ON CONFLICT (code) DO NOTHING
	`
	if _, err := r.db.NamedExecContext(ctx, query, clients); err != nil {
		return fmt.Errorf("insert clients: %w", err)
	}
	return nil
}

func (r *ReferenceRepository) InsertProducts(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	query := `
		INSERT INTO products (code, vendor_code, name, type, unit, ord, code_ap, subcategory)
		VALUES (:code, :vendor_code, :name, :type, :unit, :ord, :code_ap, :subcategory)
		ON CONFLICT (code) DO NOTHING
	`
	if _, err := r.db.NamedExecContext(ctx, query, products); err != nil {
		return fmt.Errorf("insert products: %w", err)
	}
	return nil
}
