// Package mcp provides an MCP (Model Context Protocol) server adapter for chapterdex.
// It lets AI assistants search the documentation corpus and read chapters.
package mcp

import "errors"

var (
	// ErrMissingSearchService is returned when the search service is not provided.
	ErrMissingSearchService = errors.New("mcp: search service is required")

	// ErrMissingChapterService is returned when the chapter service is not provided.
	ErrMissingChapterService = errors.New("mcp: chapter service is required")
)
