package errors

import (
	"errors"

	"github.com/docuchat/docuchat/internal/pkg/errcode"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalid       = errors.New("invalid")
	ErrConflict      = errors.New("conflict")
	ErrQuotaExceeded = errors.New("daily token limit reached")
	ErrUnavailable   = errors.New("provider unavailable")
	ErrInternal      = errors.New("internal")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// Code maps an error to its stable numeric code for outer surfaces.
func Code(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrForbidden):
		return errcode.ErrForbidden
	case errors.Is(err, ErrNotFound):
		return errcode.ErrNotFound
	case errors.Is(err, ErrInvalid):
		return errcode.ErrInvalid
	case errors.Is(err, ErrConflict):
		return errcode.ErrConflict
	case errors.Is(err, ErrQuotaExceeded):
		return errcode.ErrQuotaExceeded
	case errors.Is(err, ErrUnavailable):
		return errcode.ErrAIUnavailable
	case errors.Is(err, ErrInternal):
		return errcode.ErrInternal
	default:
		return errcode.ErrUnknown
	}
}
