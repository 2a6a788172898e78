package antikvarium

import "errors"

var (
	// ErrInsufficientInput is returned when a request carries neither
	// usable identifiers nor title/author text, so no query can be built.
	// This is the only resolution failure surfaced to callers; every
	// other failure mode degrades to fewer or zero records.
	ErrInsufficientInput = errors.New("insufficient metadata to construct query")

	// ErrNotFound is returned when the site answers a request with 404.
	ErrNotFound = errors.New("page not found")

	// ErrBadStatus is returned for any other non-2xx response.
	ErrBadStatus = errors.New("unexpected response status")
)
