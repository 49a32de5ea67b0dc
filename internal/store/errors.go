package store

import "errors"

// Repository errors.
var (
	ErrCompanyNotFound = errors.New("company not found")
)
