package storage

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// ValidationError marks a structurally invalid point. The API layer maps it
// to a 400; it never reaches the alert or interpolation engines.
type ValidationError struct {
	Field   string
	Problem string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Problem)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
