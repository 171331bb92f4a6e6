// Package pipeline turns normalized report rows into fact-table shapes. Each
// ingestion source has its own transform and an explicit write mode: most
// fact tables accumulate batches, production is a single current snapshot
// and is replaced wholesale on every run.
package pipeline

// Source identifiers, also used as route segments and run labels.
const (
	SourceSales      = "sales"
	SourceStock      = "stock"
	SourceProduction = "production"
	SourcePurchases  = "purchases"
)

// WriteMode says how a batch lands in its fact table.
type WriteMode string

const (
	// WriteAppend accumulates batches; rows are immutable after insert.
	WriteAppend WriteMode = "append"
	// WriteReplace discards the prior batch before writing the new one.
	WriteReplace WriteMode = "replace"
)

// Descriptor binds a source to its write policy. The mode is threaded into
// the fact writes, so flipping it here is the whole change.
type Descriptor struct {
	Source string
	Mode   WriteMode
}

// Descriptors lists every ingestion source this service knows.
var Descriptors = map[string]Descriptor{
	SourceSales:      {Source: SourceSales, Mode: WriteAppend},
	SourceStock:      {Source: SourceStock, Mode: WriteAppend},
	SourceProduction: {Source: SourceProduction, Mode: WriteReplace},
	SourcePurchases:  {Source: SourcePurchases, Mode: WriteAppend},
}
