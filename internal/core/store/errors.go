package store

import "errors"

// Store errors
var (
	ErrInvalidViewTarget = errors.New("invalid view target")
	ErrFormNotFound      = errors.New("form not found")
)
