package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"foreign key", &pgconn.PgError{Code: "23503"}, ErrForeignKey},
		{"unique", &pgconn.PgError{Code: "23505"}, ErrConflict},
		{"serialization", &pgconn.PgError{Code: "40001"}, ErrTransient},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, ErrTransient},
		{"connection failure", &pgconn.PgError{Code: "08006"}, ErrTransient},
		{"deadline", context.DeadlineExceeded, ErrTransient},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Translate(tc.in, "op")
			assert.True(t, errors.Is(got, tc.want))
		})
	}
}

func TestTranslate_Nil(t *testing.T) {
	assert.NoError(t, Translate(nil, "op"))
}

func TestTranslate_UnknownPassesThrough(t *testing.T) {
	in := eris.New("something else")
	got := Translate(in, "op")
	assert.True(t, errors.Is(got, in))
	assert.False(t, errors.Is(got, ErrForeignKey))
	assert.False(t, errors.Is(got, ErrConflict))
	assert.False(t, errors.Is(got, ErrTransient))
}

func TestTranslate_WrappedPgError(t *testing.T) {
	in := eris.Wrap(&pgconn.PgError{Code: "23505"}, "insert")
	assert.True(t, errors.Is(Translate(in, "op"), ErrConflict))
}

func TestErrorKindsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrForeignKey, ErrConflict))
	assert.False(t, errors.Is(ErrConflict, ErrTransient))
	assert.False(t, errors.Is(ErrTransient, ErrForeignKey))
}
