package sources

import "errors"

// Source errors.
var (
	ErrInvalidURL = errors.New("invalid status page url")
	ErrNoData     = errors.New("no data from source")
)
