// Package httpapi provides a JSON REST adapter for chapterdex.
// Every response is wrapped in a Response envelope.
package httpapi

import "errors"

var (
	// ErrMissingSearchService is returned when the search service is not provided.
	ErrMissingSearchService = errors.New("httpapi: search service is required")

	// ErrMissingChapterService is returned when the chapter service is not provided.
	ErrMissingChapterService = errors.New("httpapi: chapter service is required")
)
