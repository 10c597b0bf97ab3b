package property

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodePropertyNotFound = "property_not_found"
)

// ErrPropertyNotFound is returned when a referenced listing does not exist.
var ErrPropertyNotFound = errors.New("property not found", errors.CategoryNotFound).
	WithTextCode(TextCodePropertyNotFound).
	WithCode(errors.CodeNotFound)
