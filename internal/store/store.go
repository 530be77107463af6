// Package store persists projects, items, source URLs and the price ledger.
// Two drivers are provided: Postgres (pgx) and SQLite (modernc). The
// at-most-one-primary-per-(item, condition) invariant is enforced inside each
// driver's write transactions and backed by a partial unique index.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pricebook/internal/model"
)

// PriceFilter specifies criteria for listing price records.
type PriceFilter struct {
	ItemID    string          `json:"item_id"`
	Condition model.Condition `json:"condition,omitempty"`
	Limit     int             `json:"limit,omitempty"`
	Offset    int             `json:"offset,omitempty"`
}

// Store defines the persistence interface shared by both drivers.
// Lookups for absent rows return (nil, nil); deletes of absent rows return
// (false, nil). Writes that touch the primary flag run transactionally.
type Store interface {
	// Projects
	CreateProject(ctx context.Context, in model.ProjectInput) (*model.Project, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	DeleteProject(ctx context.Context, id string) (bool, error)

	// Items
	CreateItem(ctx context.Context, projectID string, in model.ItemInput) (*model.Item, error)
	GetItem(ctx context.Context, id string) (*model.Item, error)
	ListItems(ctx context.Context, projectID string) ([]model.Item, error)
	DeleteItem(ctx context.Context, id string) (bool, error)

	// Source URL registry
	EnsureSourceURL(ctx context.Context, rawURL, normalized, title string) (*model.SourceURL, error)
	GetSourceURL(ctx context.Context, id string) (*model.SourceURL, error)

	// Price ledger
	CreatePrice(ctx context.Context, itemID string, in model.PriceInput) (*model.PriceRecord, error)
	GetPrice(ctx context.Context, id string) (*model.PriceRecord, error)
	ListPrices(ctx context.Context, filter PriceFilter) ([]model.PriceRecord, error)
	UpdatePrice(ctx context.Context, id string, patch model.PricePatch) (*model.PriceRecord, error)
	DeletePrice(ctx context.Context, id string) (bool, error)
	PricesForItem(ctx context.Context, itemID string) ([]model.PriceRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// applyPatch merges a partial update into the current row: absent fields stay,
// explicit nulls clear. The result is the effective row the update writes.
func applyPatch(rec model.PriceRecord, p model.PricePatch) model.PriceRecord {
	if c, ok := p.Condition.Get(); ok {
		rec.Condition = c
	}
	if a, ok := p.Amount.Get(); ok {
		rec.Amount = a
	}
	if c, ok := p.Currency.Get(); ok {
		rec.Currency = c
	}
	if st, ok := p.SourceType.Get(); ok {
		rec.SourceType = st
	}
	if p.SourceURLID.IsSet() {
		if id, ok := p.SourceURLID.Get(); ok {
			rec.SourceURLID = &id
		} else {
			rec.SourceURLID = nil
		}
	}
	if p.SourceNote.IsSet() {
		rec.SourceNote = p.SourceNote.Value()
	}
	if p.Note.IsSet() {
		rec.Note = p.Note.Value()
	}
	if b, ok := p.IsPrimary.Get(); ok {
		rec.IsPrimary = b
	}
	if t, ok := p.ObservedAt.Get(); ok {
		rec.ObservedAt = t.UTC()
	}
	return rec
}

// validateMerged re-checks source consistency on the effective row. This rule
// depends on the current row, so it cannot be fully checked before the
// transaction opens.
func validateMerged(rec model.PriceRecord) error {
	switch rec.SourceType {
	case model.SourceTypeURL:
		if rec.SourceURLID == nil || *rec.SourceURLID == "" {
			return eris.Wrap(model.ErrInvalid, "url source requires a resolved source_url_id")
		}
	case model.SourceTypeManual:
		if rec.SourceURLID != nil {
			return eris.Wrap(model.ErrInvalid, "manual source must not carry a source_url_id")
		}
	}
	return nil
}
