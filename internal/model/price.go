package model

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Condition classifies an observed price by the state of the goods.
type Condition string

const (
	ConditionNew  Condition = "new"
	ConditionUsed Condition = "used"
)

// ParseCondition validates a condition string.
func ParseCondition(s string) (Condition, error) {
	switch Condition(s) {
	case ConditionNew, ConditionUsed:
		return Condition(s), nil
	}
	return "", invalidf("condition must be %q or %q, got %q", ConditionNew, ConditionUsed, s)
}

// SourceType records where a price observation came from.
type SourceType string

const (
	SourceTypeURL    SourceType = "url"
	SourceTypeManual SourceType = "manual"
)

// ParseSourceType validates a source type string.
func ParseSourceType(s string) (SourceType, error) {
	switch SourceType(s) {
	case SourceTypeURL, SourceTypeManual:
		return SourceType(s), nil
	}
	return "", invalidf("source_type must be %q or %q, got %q", SourceTypeURL, SourceTypeManual, s)
}

// PriceRecord is one observed price for one item.
type PriceRecord struct {
	ID          string          `json:"id"`
	ItemID      string          `json:"item_id"`
	Condition   Condition       `json:"condition"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	SourceType  SourceType      `json:"source_type"`
	SourceURLID *string         `json:"source_url_id,omitempty"`
	SourceURL   string          `json:"source_url,omitempty"` // denormalized from source_urls on read
	SourceNote  string          `json:"source_note,omitempty"`
	Note        string          `json:"note,omitempty"`
	IsPrimary   bool            `json:"is_primary"`
	ObservedAt  time.Time       `json:"observed_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PriceInput carries the caller-supplied fields for creating a price record.
// SourceURLID must already be resolved by the URL registry for url sources.
type PriceInput struct {
	Condition   Condition       `json:"condition"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	SourceType  SourceType      `json:"source_type"`
	SourceURLID *string         `json:"source_url_id,omitempty"`
	SourceNote  string          `json:"source_note,omitempty"`
	Note        string          `json:"note,omitempty"`
	IsPrimary   bool            `json:"is_primary"`
	ObservedAt  *time.Time      `json:"observed_at,omitempty"`
}

// Validate rejects malformed input before any transaction opens.
func (in PriceInput) Validate() error {
	if _, err := ParseCondition(string(in.Condition)); err != nil {
		return err
	}
	if _, err := ParseSourceType(string(in.SourceType)); err != nil {
		return err
	}
	if in.Amount.IsNegative() {
		return invalidf("amount must be non-negative, got %s", in.Amount)
	}
	if err := ValidateCurrency(in.Currency); err != nil {
		return err
	}
	switch in.SourceType {
	case SourceTypeURL:
		if in.SourceURLID == nil || *in.SourceURLID == "" {
			return invalidf("url source requires a resolved source_url_id")
		}
	case SourceTypeManual:
		if in.SourceURLID != nil {
			return invalidf("manual source must not carry a source_url_id")
		}
	}
	return nil
}

// PricePatch is a partial update: absent fields are untouched, an explicit
// null clears a nullable field.
type PricePatch struct {
	Condition   Optional[Condition]       `json:"condition"`
	Amount      Optional[decimal.Decimal] `json:"amount"`
	Currency    Optional[string]          `json:"currency"`
	SourceType  Optional[SourceType]      `json:"source_type"`
	SourceURLID Optional[string]          `json:"source_url_id"`
	SourceNote  Optional[string]          `json:"source_note"`
	Note        Optional[string]          `json:"note"`
	IsPrimary   Optional[bool]            `json:"is_primary"`
	ObservedAt  Optional[time.Time]       `json:"observed_at"`
}

// IsEmpty reports whether the patch touches no fields.
func (p PricePatch) IsEmpty() bool {
	return !p.Condition.IsSet() && !p.Amount.IsSet() && !p.Currency.IsSet() &&
		!p.SourceType.IsSet() && !p.SourceURLID.IsSet() && !p.SourceNote.IsSet() &&
		!p.Note.IsSet() && !p.IsPrimary.IsSet() && !p.ObservedAt.IsSet()
}

// Validate rejects malformed patches before any transaction opens. Only
// patch-internal rules are checked here; rules that depend on the current row
// (e.g. source consistency after merging) are re-checked inside the write
// transaction.
func (p PricePatch) Validate() error {
	if p.Condition.IsNull() || p.Amount.IsNull() || p.Currency.IsNull() ||
		p.SourceType.IsNull() || p.IsPrimary.IsNull() || p.ObservedAt.IsNull() {
		return invalidf("condition, amount, currency, source_type, is_primary and observed_at cannot be null")
	}
	if c, ok := p.Condition.Get(); ok {
		if _, err := ParseCondition(string(c)); err != nil {
			return err
		}
	}
	if a, ok := p.Amount.Get(); ok && a.IsNegative() {
		return invalidf("amount must be non-negative, got %s", a)
	}
	if c, ok := p.Currency.Get(); ok {
		if err := ValidateCurrency(c); err != nil {
			return err
		}
	}
	if st, ok := p.SourceType.Get(); ok {
		if _, err := ParseSourceType(string(st)); err != nil {
			return err
		}
		// A source type change forces the source_url_id to be re-stated so the
		// caller cannot leave a stale resolution behind.
		switch st {
		case SourceTypeURL:
			if id, ok := p.SourceURLID.Get(); !ok || id == "" {
				return invalidf("changing source_type to url requires a resolved source_url_id")
			}
		case SourceTypeManual:
			if _, ok := p.SourceURLID.Get(); ok {
				return invalidf("changing source_type to manual requires a null source_url_id")
			}
		}
	}
	return nil
}

// ValidateCurrency requires an uppercase 3-letter ISO 4217 code.
func ValidateCurrency(code string) error {
	if len(code) != 3 {
		return invalidf("currency must be a 3-letter code, got %q", code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return invalidf("currency must be uppercase letters, got %q", code)
		}
	}
	if _, err := currency.ParseISO(code); err != nil {
		return invalidf("unknown currency code %q", code)
	}
	return nil
}
