package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func validInput() PriceInput {
	return PriceInput{
		Condition:  ConditionNew,
		Amount:     decimal.NewFromInt(100),
		Currency:   "USD",
		SourceType: SourceTypeManual,
	}
}

func TestPriceInput_Validate(t *testing.T) {
	t.Run("valid manual", func(t *testing.T) {
		assert.NoError(t, validInput().Validate())
	})

	t.Run("valid url", func(t *testing.T) {
		in := validInput()
		in.SourceType = SourceTypeURL
		in.SourceURLID = strPtr("su-1")
		assert.NoError(t, in.Validate())
	})

	t.Run("zero amount is allowed", func(t *testing.T) {
		in := validInput()
		in.Amount = decimal.Zero
		assert.NoError(t, in.Validate())
	})

	t.Run("bad condition", func(t *testing.T) {
		in := validInput()
		in.Condition = "mint"
		err := in.Validate()
		assert.True(t, errors.Is(err, ErrInvalid))
	})

	t.Run("negative amount", func(t *testing.T) {
		in := validInput()
		in.Amount = decimal.NewFromInt(-1)
		assert.True(t, errors.Is(in.Validate(), ErrInvalid))
	})

	t.Run("bad source type", func(t *testing.T) {
		in := validInput()
		in.SourceType = "scraped"
		assert.True(t, errors.Is(in.Validate(), ErrInvalid))
	})

	t.Run("url source without resolved id", func(t *testing.T) {
		in := validInput()
		in.SourceType = SourceTypeURL
		assert.True(t, errors.Is(in.Validate(), ErrInvalid))
	})

	t.Run("manual source with url id", func(t *testing.T) {
		in := validInput()
		in.SourceURLID = strPtr("su-1")
		assert.True(t, errors.Is(in.Validate(), ErrInvalid))
	})
}

func TestValidateCurrency(t *testing.T) {
	assert.NoError(t, ValidateCurrency("USD"))
	assert.NoError(t, ValidateCurrency("EUR"))
	assert.NoError(t, ValidateCurrency("JPY"))

	for _, bad := range []string{"", "US", "usd", "USDX", "U$D", "ZZZ"} {
		err := ValidateCurrency(bad)
		assert.True(t, errors.Is(err, ErrInvalid), "expected %q to be rejected", bad)
	}
}

func TestPricePatch_Validate(t *testing.T) {
	t.Run("empty patch is valid", func(t *testing.T) {
		assert.NoError(t, PricePatch{}.Validate())
	})

	t.Run("nullable fields accept null", func(t *testing.T) {
		p := PricePatch{
			SourceNote: Null[string](),
			Note:       Null[string](),
		}
		assert.NoError(t, p.Validate())
	})

	t.Run("non-nullable fields reject null", func(t *testing.T) {
		for name, p := range map[string]PricePatch{
			"condition":   {Condition: Null[Condition]()},
			"amount":      {Amount: Null[decimal.Decimal]()},
			"currency":    {Currency: Null[string]()},
			"source_type": {SourceType: Null[SourceType]()},
			"is_primary":  {IsPrimary: Null[bool]()},
		} {
			assert.True(t, errors.Is(p.Validate(), ErrInvalid), "field %s", name)
		}
	})

	t.Run("switch to url requires source_url_id", func(t *testing.T) {
		p := PricePatch{SourceType: Some(SourceTypeURL)}
		assert.True(t, errors.Is(p.Validate(), ErrInvalid))

		p.SourceURLID = Some("su-1")
		assert.NoError(t, p.Validate())
	})

	t.Run("switch to manual rejects source_url_id", func(t *testing.T) {
		p := PricePatch{
			SourceType:  Some(SourceTypeManual),
			SourceURLID: Some("su-1"),
		}
		assert.True(t, errors.Is(p.Validate(), ErrInvalid))

		p.SourceURLID = Null[string]()
		assert.NoError(t, p.Validate())
	})

	t.Run("bad values rejected", func(t *testing.T) {
		assert.Error(t, PricePatch{Condition: Some(Condition("mint"))}.Validate())
		assert.Error(t, PricePatch{Amount: Some(decimal.NewFromInt(-5))}.Validate())
		assert.Error(t, PricePatch{Currency: Some("dollars")}.Validate())
	})
}

func TestPricePatch_JSONDistinguishesAbsentFromNull(t *testing.T) {
	var p PricePatch
	require.NoError(t, json.Unmarshal([]byte(`{"note": null, "is_primary": true}`), &p))

	assert.True(t, p.Note.IsNull())
	assert.False(t, p.SourceNote.IsSet())
	v, ok := p.IsPrimary.Get()
	assert.True(t, ok)
	assert.True(t, v)
	assert.False(t, p.IsEmpty())

	var empty PricePatch
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.True(t, empty.IsEmpty())
}
