package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional_AbsentField(t *testing.T) {
	var payload struct {
		Note Optional[string] `json:"note"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &payload))

	assert.False(t, payload.Note.IsSet())
	assert.False(t, payload.Note.IsNull())
	_, ok := payload.Note.Get()
	assert.False(t, ok)
}

func TestOptional_NullField(t *testing.T) {
	var payload struct {
		Note Optional[string] `json:"note"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"note": null}`), &payload))

	assert.True(t, payload.Note.IsSet())
	assert.True(t, payload.Note.IsNull())
	_, ok := payload.Note.Get()
	assert.False(t, ok)
}

func TestOptional_ValueField(t *testing.T) {
	var payload struct {
		Note Optional[string] `json:"note"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"note": "checked in store"}`), &payload))

	assert.True(t, payload.Note.IsSet())
	assert.False(t, payload.Note.IsNull())
	v, ok := payload.Note.Get()
	assert.True(t, ok)
	assert.Equal(t, "checked in store", v)
}

func TestOptional_EmptyStringIsAValue(t *testing.T) {
	var payload struct {
		Note Optional[string] `json:"note"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"note": ""}`), &payload))

	v, ok := payload.Note.Get()
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestOptional_TypeMismatch(t *testing.T) {
	var payload struct {
		Flag Optional[bool] `json:"flag"`
	}
	err := json.Unmarshal([]byte(`{"flag": "yes"}`), &payload)
	assert.Error(t, err)
}

func TestOptional_MarshalRoundTrip(t *testing.T) {
	out, err := json.Marshal(Some(42))
	require.NoError(t, err)
	assert.Equal(t, `42`, string(out))

	out, err = json.Marshal(Null[int]())
	require.NoError(t, err)
	assert.Equal(t, `null`, string(out))
}
