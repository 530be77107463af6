package ledger

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pricebook/internal/model"
	"github.com/sells-group/pricebook/internal/store"
)

// List pagination bounds. Values outside the range are a caller error, not
// silently clamped.
const (
	minListLimit = 1
	maxListLimit = 100
)

// Store is the slice of the persistence layer the ledger needs.
type Store interface {
	CreatePrice(ctx context.Context, itemID string, in model.PriceInput) (*model.PriceRecord, error)
	GetPrice(ctx context.Context, id string) (*model.PriceRecord, error)
	ListPrices(ctx context.Context, filter store.PriceFilter) ([]model.PriceRecord, error)
	UpdatePrice(ctx context.Context, id string, patch model.PricePatch) (*model.PriceRecord, error)
	DeletePrice(ctx context.Context, id string) (bool, error)
	PricesForItem(ctx context.Context, itemID string) ([]model.PriceRecord, error)
}

// Service is the ledger operations contract the HTTP layer calls. Writes run
// inside store transactions; validation happens here, before any transaction
// opens.
type Service struct {
	store Store
	log   *zap.Logger
}

// NewService creates a ledger Service on top of a store.
func NewService(st Store) *Service {
	return &Service{
		store: st,
		log:   zap.L().With(zap.String("component", "ledger")),
	}
}

// List returns an item's price records ordered by observed_at descending.
func (s *Service) List(ctx context.Context, filter store.PriceFilter) ([]model.PriceRecord, error) {
	if filter.ItemID == "" {
		return nil, eris.Wrap(model.ErrInvalid, "item_id is required")
	}
	if filter.Limit < minListLimit || filter.Limit > maxListLimit {
		return nil, eris.Wrapf(model.ErrInvalid, "limit must be between %d and %d, got %d", minListLimit, maxListLimit, filter.Limit)
	}
	if filter.Offset < 0 {
		return nil, eris.Wrapf(model.ErrInvalid, "offset must be non-negative, got %d", filter.Offset)
	}
	if filter.Condition != "" {
		if _, err := model.ParseCondition(string(filter.Condition)); err != nil {
			return nil, err
		}
	}
	return s.store.ListPrices(ctx, filter)
}

// Create records one price observation for an item.
func (s *Service) Create(ctx context.Context, itemID string, in model.PriceInput) (*model.PriceRecord, error) {
	if itemID == "" {
		return nil, eris.Wrap(model.ErrInvalid, "item_id is required")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	rec, err := s.store.CreatePrice(ctx, itemID, in)
	if err != nil {
		return nil, err
	}
	s.log.Info("price recorded",
		zap.String("price_id", rec.ID),
		zap.String("item_id", rec.ItemID),
		zap.String("condition", string(rec.Condition)),
		zap.Bool("primary", rec.IsPrimary),
	)
	return rec, nil
}

// Get fetches one record; (nil, nil) when the id is unknown.
func (s *Service) Get(ctx context.Context, id string) (*model.PriceRecord, error) {
	return s.store.GetPrice(ctx, id)
}

// Update applies a partial update; (nil, nil) when the id is unknown.
func (s *Service) Update(ctx context.Context, id string, patch model.PricePatch) (*model.PriceRecord, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	rec, err := s.store.UpdatePrice(ctx, id, patch)
	if err != nil || rec == nil {
		return nil, err
	}
	s.log.Info("price updated",
		zap.String("price_id", rec.ID),
		zap.String("item_id", rec.ItemID),
		zap.Bool("primary", rec.IsPrimary),
	)
	return rec, nil
}

// Delete removes a record, reporting whether a row was actually removed.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := s.store.DeletePrice(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.log.Info("price deleted", zap.String("price_id", id))
	}
	return deleted, nil
}

// Summary computes the item's price summary from its current records; nil
// when the item has no records.
func (s *Service) Summary(ctx context.Context, itemID string) (*model.PriceSummary, error) {
	records, err := s.store.PricesForItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return Summarize(records), nil
}
