// Package ledger implements the price ledger service: validated CRUD over
// price records and the derived per-item price summary.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/pricebook/internal/model"
)

// Summarize computes the price summary for one item from its full record set.
// It is a pure function of the current records and is recomputed on every
// read; nothing here is cached or stored. An item with no records has no
// summary at all, so the result is nil rather than a zeroed struct.
//
// The min/max computation deliberately ignores which record is flagged
// primary: the summary reflects the whole observed price set.
func Summarize(records []model.PriceRecord) *model.PriceSummary {
	if len(records) == 0 {
		return nil
	}

	var newRecs, usedRecs []model.PriceRecord
	for _, r := range records {
		if r.Condition == model.ConditionNew {
			newRecs = append(newRecs, r)
		} else {
			usedRecs = append(usedRecs, r)
		}
	}

	minAmt, maxAmt, cur, mixed := amountStats(records)
	return &model.PriceSummary{
		MinAmount:        minAmt,
		MaxAmount:        maxAmt,
		PriceCount:       len(records),
		Currency:         cur,
		HasMixedCurrency: mixed,
		New:              summarizeCondition(newRecs),
		Used:             summarizeCondition(usedRecs),
	}
}

func summarizeCondition(recs []model.PriceRecord) model.ConditionSummary {
	if len(recs) == 0 {
		return model.ConditionSummary{}
	}
	minAmt, _, cur, mixed := amountStats(recs)
	return model.ConditionSummary{
		MinAmount:        &minAmt,
		Count:            len(recs),
		Currency:         cur,
		HasMixedCurrency: mixed,
	}
}

// amountStats scans one partition. The representative currency is the
// currency of the minimum-amount record; on ties the first record in scan
// order wins. HasMixedCurrency is the binding signal when currencies differ.
func amountStats(recs []model.PriceRecord) (minAmt, maxAmt decimal.Decimal, currency string, mixed bool) {
	minAmt = recs[0].Amount
	maxAmt = recs[0].Amount
	currency = recs[0].Currency

	currencies := make(map[string]struct{}, 1)
	for _, r := range recs {
		currencies[r.Currency] = struct{}{}
		if r.Amount.LessThan(minAmt) {
			minAmt = r.Amount
			currency = r.Currency
		}
		if r.Amount.GreaterThan(maxAmt) {
			maxAmt = r.Amount
		}
	}
	return minAmt, maxAmt, currency, len(currencies) > 1
}
