package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pricebook/internal/model"
	"github.com/sells-group/pricebook/internal/store"
)

// fakeStore records calls and returns canned results.
type fakeStore struct {
	created    *model.PriceRecord
	createErr  error
	records    []model.PriceRecord
	lastFilter store.PriceFilter
	updated    *model.PriceRecord
	deleted    bool
	calls      []string
}

func (f *fakeStore) CreatePrice(_ context.Context, itemID string, in model.PriceInput) (*model.PriceRecord, error) {
	f.calls = append(f.calls, "create")
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.created != nil {
		return f.created, nil
	}
	return &model.PriceRecord{ID: "p-1", ItemID: itemID, Condition: in.Condition, Amount: in.Amount, Currency: in.Currency, IsPrimary: in.IsPrimary}, nil
}

func (f *fakeStore) GetPrice(_ context.Context, id string) (*model.PriceRecord, error) {
	f.calls = append(f.calls, "get")
	for i := range f.records {
		if f.records[i].ID == id {
			return &f.records[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListPrices(_ context.Context, filter store.PriceFilter) ([]model.PriceRecord, error) {
	f.calls = append(f.calls, "list")
	f.lastFilter = filter
	return f.records, nil
}

func (f *fakeStore) UpdatePrice(_ context.Context, _ string, _ model.PricePatch) (*model.PriceRecord, error) {
	f.calls = append(f.calls, "update")
	return f.updated, nil
}

func (f *fakeStore) DeletePrice(_ context.Context, _ string) (bool, error) {
	f.calls = append(f.calls, "delete")
	return f.deleted, nil
}

func (f *fakeStore) PricesForItem(_ context.Context, _ string) ([]model.PriceRecord, error) {
	f.calls = append(f.calls, "forItem")
	return f.records, nil
}

func TestService_List_Validation(t *testing.T) {
	fs := &fakeStore{}
	svc := NewService(fs)
	ctx := context.Background()

	_, err := svc.List(ctx, store.PriceFilter{Limit: 50})
	assert.True(t, errors.Is(err, model.ErrInvalid), "missing item_id")

	_, err = svc.List(ctx, store.PriceFilter{ItemID: "i-1", Limit: 0})
	assert.True(t, errors.Is(err, model.ErrInvalid), "limit below range")

	_, err = svc.List(ctx, store.PriceFilter{ItemID: "i-1", Limit: 101})
	assert.True(t, errors.Is(err, model.ErrInvalid), "limit above range")

	_, err = svc.List(ctx, store.PriceFilter{ItemID: "i-1", Limit: 10, Offset: -1})
	assert.True(t, errors.Is(err, model.ErrInvalid), "negative offset")

	_, err = svc.List(ctx, store.PriceFilter{ItemID: "i-1", Limit: 10, Condition: "mint"})
	assert.True(t, errors.Is(err, model.ErrInvalid), "bad condition")

	// None of the invalid calls may reach the store.
	assert.Empty(t, fs.calls)
}

func TestService_List_PassesFilterThrough(t *testing.T) {
	fs := &fakeStore{records: []model.PriceRecord{{ID: "p-1"}}}
	svc := NewService(fs)

	got, err := svc.List(context.Background(), store.PriceFilter{
		ItemID: "i-1", Condition: model.ConditionUsed, Limit: 100, Offset: 20,
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "i-1", fs.lastFilter.ItemID)
	assert.Equal(t, model.ConditionUsed, fs.lastFilter.Condition)
	assert.Equal(t, 100, fs.lastFilter.Limit)
	assert.Equal(t, 20, fs.lastFilter.Offset)
}

func TestService_Create_RejectsInvalidInput(t *testing.T) {
	fs := &fakeStore{}
	svc := NewService(fs)

	_, err := svc.Create(context.Background(), "", model.PriceInput{})
	assert.True(t, errors.Is(err, model.ErrInvalid))

	_, err = svc.Create(context.Background(), "i-1", model.PriceInput{Condition: "mint"})
	assert.True(t, errors.Is(err, model.ErrInvalid))

	assert.Empty(t, fs.calls)
}

func TestService_Create_Valid(t *testing.T) {
	fs := &fakeStore{}
	svc := NewService(fs)

	rec, err := svc.Create(context.Background(), "i-1", model.PriceInput{
		Condition:  model.ConditionNew,
		Amount:     decimal.NewFromInt(42),
		Currency:   "USD",
		SourceType: model.SourceTypeManual,
		IsPrimary:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "i-1", rec.ItemID)
	assert.True(t, rec.IsPrimary)
	assert.Equal(t, []string{"create"}, fs.calls)
}

func TestService_Update_RejectsInvalidPatch(t *testing.T) {
	fs := &fakeStore{}
	svc := NewService(fs)

	_, err := svc.Update(context.Background(), "p-1", model.PricePatch{
		Amount: model.Null[decimal.Decimal](),
	})
	assert.True(t, errors.Is(err, model.ErrInvalid))
	assert.Empty(t, fs.calls)
}

func TestService_Update_NotFound(t *testing.T) {
	fs := &fakeStore{updated: nil}
	svc := NewService(fs)

	rec, err := svc.Update(context.Background(), "missing", model.PricePatch{
		Note: model.Some("x"),
	})
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestService_Delete(t *testing.T) {
	fs := &fakeStore{deleted: true}
	svc := NewService(fs)

	ok, err := svc.Delete(context.Background(), "p-1")
	require.NoError(t, err)
	assert.True(t, ok)

	fs.deleted = false
	ok, err = svc.Delete(context.Background(), "p-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_Summary(t *testing.T) {
	fs := &fakeStore{records: []model.PriceRecord{
		{Condition: model.ConditionNew, Amount: decimal.NewFromInt(10), Currency: "USD"},
	}}
	svc := NewService(fs)

	s, err := svc.Summary(context.Background(), "i-1")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 1, s.PriceCount)

	fs.records = nil
	s, err = svc.Summary(context.Background(), "i-1")
	require.NoError(t, err)
	assert.Nil(t, s)
}
