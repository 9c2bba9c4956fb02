package model

import "errors"

// Error kinds shared across layers. Packages wrap these so callers can
// classify failures with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
)
