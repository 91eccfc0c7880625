package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for chapterdex resources.
	uriScheme = "chapterdex://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "document",
		Name:        "document-info",
		Description: "Title and size of the imported document",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "chapters/{chapterId}",
		Name:        "chapter-content",
		Description: "Title and content of a chapter",
		MIMEType:    "text/markdown",
	}, s.handleChapterResource)
}

// handleDocumentResource returns document info as JSON.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	info, err := s.ports.Chapters.DocumentInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading document info: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling document info: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleChapterResource returns a chapter rendered as markdown.
func (s *Server) handleChapterResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	chapterID, ok := extractChapterID(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	ch, err := s.ports.Chapters.GetChapter(ctx, chapterID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting chapter: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     renderChapter(ch),
		}},
	}, nil
}

// renderChapter formats a chapter as a heading followed by its content.
func renderChapter(ch *domain.Chapter) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(ch.Title)
	b.WriteString("\n")
	if text := ch.Content.Flatten(); strings.TrimSpace(text) != "" {
		b.WriteString("\n")
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String()
}

// extractChapterID extracts the chapter id from a URI like chapterdex://chapters/{chapterId}.
func extractChapterID(uri string) (int, bool) {
	const prefix = uriScheme + "chapters/"

	if !strings.HasPrefix(uri, prefix) {
		return 0, false
	}

	id, err := strconv.Atoi(strings.TrimPrefix(uri, prefix))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
