package model

import "github.com/shopspring/decimal"

// PriceSummary is the derived price overview for one item. It is never stored;
// it is recomputed from the item's current price records on every read.
type PriceSummary struct {
	MinAmount        decimal.Decimal  `json:"min_amount"`
	MaxAmount        decimal.Decimal  `json:"max_amount"`
	PriceCount       int              `json:"price_count"`
	Currency         string           `json:"currency"`
	HasMixedCurrency bool             `json:"has_mixed_currency"`
	New              ConditionSummary `json:"new"`
	Used             ConditionSummary `json:"used"`
}

// ConditionSummary summarizes one condition partition. MinAmount is nil when
// the partition is empty, which is a valid and common state.
type ConditionSummary struct {
	MinAmount        *decimal.Decimal `json:"min_amount"`
	Count            int              `json:"count"`
	Currency         string           `json:"currency,omitempty"`
	HasMixedCurrency bool             `json:"has_mixed_currency"`
}
