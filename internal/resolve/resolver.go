// Package resolve determines which clients and products in a freshly
// normalized report are new relative to the reference tables, enriching new
// rows via fuzzy matching before they are persisted.
package resolve

import (
	"context"

	"github.com/stn-analytics/stn-dashboard/internal/domain"
	"github.com/stn-analytics/stn-dashboard/internal/match"
	"github.com/stn-analytics/stn-dashboard/internal/report"
)

// ReferenceStore is the read side of the reference tables.
type ReferenceStore interface {
	ClientCodes(ctx context.Context) (map[string]struct{}, error)
	Products(ctx context.Context) ([]domain.Product, error)
	Regions(ctx context.Context) ([]string, error)
}

type Resolver struct {
	refs             ReferenceStore
	placeholderHeads map[string]struct{}
}

func New(refs ReferenceStore, placeholderHeads []string) *Resolver {
	set := make(map[string]struct{}, len(placeholderHeads))
	for _, h := range placeholderHeads {
		set[h] = struct{}{}
	}
	return &Resolver{refs: refs, placeholderHeads: set}
}

// NewClients returns the clients referenced by the report that are absent
// from the reference table. An empty result means nothing to insert.
func (r *Resolver) NewClients(ctx context.Context, rows []report.Row) ([]domain.Client, error) {
	existing, err := r.refs.ClientCodes(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var clients []domain.Client
	for _, row := range rows {
		code := row.Cell(report.ColClientCode)
		if code == "" {
			continue
		}
		if _, ok := existing[code]; ok {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}

		name := row.Cell(report.ColClientName)
		head := row.Cell(report.ColClientHead)
		if _, placeholder := r.placeholderHeads[head]; placeholder {
			head = name
		}

		region, err := r.regionFor(ctx, row.Cell(report.ColClientAddress))
		if err != nil {
			return nil, err
		}

		clients = append(clients, domain.Client{
			Code:     code,
			Name:     name,
			HeadName: head,
			Region:   region,
			Type:     row.Cell(report.ColClientType),
		})
	}
	return clients, nil
}

// regionFor resolves a region via fuzzy match over the regions dictionary.
// The report carries no address-derived search value today, so new clients
// get an unresolved region; the lookup stays in place for when the address
// column starts being populated upstream.
func (r *Resolver) regionFor(ctx context.Context, search string) (string, error) {
	if search == "" {
		return match.NoMatch, nil
	}
	regions, err := r.refs.Regions(ctx)
	if err != nil {
		return "", err
	}
	dict := make(match.Dictionary, 0, len(regions))
	for _, reg := range regions {
		dict = append(dict, match.Entry{Key: reg, Label: reg})
	}
	return match.Resolve([]string{search}, dict)[search], nil
}

// NewProducts returns the products referenced by the report that are absent
// from the reference table, with subcategory resolved by fuzzy match
// against names of already-known products.
func (r *Resolver) NewProducts(ctx context.Context, rows []report.Row) ([]domain.Product, error) {
	existing, err := r.refs.Products(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(existing))
	dict := make(match.Dictionary, 0, len(existing))
	for _, p := range existing {
		known[p.Code] = struct{}{}
		dict = append(dict, match.Entry{Key: p.Subcategory, Label: p.Name})
	}

	seen := make(map[string]struct{})
	var fresh []domain.Product
	var names []string
	for _, row := range rows {
		code := row.Cell(report.ColProductCode)
		if code == "" {
			continue
		}
		if _, ok := known[code]; ok {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}

		name := row.Cell(report.ColProductName)
		names = append(names, name)
		fresh = append(fresh, domain.Product{
			Code:       code,
			VendorCode: row.Cell(report.ColProductVendor),
			Name:       name,
			Type:       row.Cell(report.ColProductType),
			Unit:       row.Cell(report.ColProductUnit),
			Ord:        0,
			CodeAP:     "0",
		})
	}
	if len(fresh) == 0 {
		return nil, nil
	}

	subcats := match.Resolve(names, dict)
	for i := range fresh {
		fresh[i].Subcategory = subcats[fresh[i].Name]
	}
	return fresh, nil
}
