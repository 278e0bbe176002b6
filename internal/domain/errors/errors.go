package errors

import "errors"

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
	ErrCatalogIntegrity   = errors.New("catalog integrity violation")

	ErrInvalidTransition = errors.New("invalid state transition")
	ErrCancelDelivered   = errors.New("cannot cancel a delivered order")
	ErrAlreadyCanceled   = errors.New("order is already canceled")
	ErrStateConflict     = errors.New("order state changed concurrently")
)

// IsBusinessRule reports whether err is a well-formed request rejected by the current order state.
func IsBusinessRule(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrCancelDelivered) ||
		errors.Is(err, ErrAlreadyCanceled) ||
		errors.Is(err, ErrStateConflict)
}
