package model

import "github.com/rotisserie/eris"

// ErrInvalid marks client-caused validation failures. Callers test for it with
// errors.Is; the HTTP layer maps it to a 400.
var ErrInvalid = eris.New("invalid input")

func invalidf(format string, args ...any) error {
	return eris.Wrapf(ErrInvalid, format, args...)
}
