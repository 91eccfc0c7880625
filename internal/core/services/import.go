package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
	"github.com/custodia-labs/chapterdex/internal/core/ports/driving"
	"github.com/custodia-labs/chapterdex/internal/logger"
)

// Ensure ImportService implements the interface.
var _ driving.ImportService = (*ImportService)(nil)

// ImportService loads document-structure files into the document store.
type ImportService struct {
	chapters driving.ChapterService
	newID    func() string
}

// NewImportService creates a new import service.
func NewImportService(chapters driving.ChapterService) *ImportService {
	return &ImportService{
		chapters: chapters,
		newID:    uuid.NewString,
	}
}

// parsedDocument is one decoded file ready to be written.
type parsedDocument struct {
	format   domain.ImportFormat
	metadata []metadataPair
	chapters []domain.ChapterInput
	untitled int
}

type metadataPair struct {
	key, value string
}

// ImportFiles reads each file in order under one import id. Later files
// overwrite chapters of earlier ones, so the usual order is structure
// analysis, then RAG chapters, then full-text pages.
func (s *ImportService) ImportFiles(ctx context.Context, paths []string) (*domain.ImportReport, error) {
	report := &domain.ImportReport{
		ImportID: s.newID(),
		Files:    []string{},
		Formats:  []domain.ImportFormat{},
	}
	logger.Section("Import " + report.ImportID)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		raw, err := readDocumentFile(path)
		if err != nil {
			return report, fmt.Errorf("read %s: %w", path, err)
		}
		doc, err := parseDocument(raw)
		if err != nil {
			return report, fmt.Errorf("parse %s: %w", path, err)
		}
		logger.Info("Importing %s as %s: %d chapters", path, doc.format, len(doc.chapters))

		if err := s.write(ctx, doc, report); err != nil {
			return report, fmt.Errorf("import %s: %w", path, err)
		}
		report.Files = append(report.Files, path)
		report.Formats = append(report.Formats, doc.format)
	}

	if err := s.chapters.SetMetadata(ctx, domain.MetaLastImportID, report.ImportID); err != nil {
		return report, err
	}

	logger.Info("Import finished: %d chapters, %d pages, %d skipped",
		report.Imported, report.Pages, report.Skipped)
	return report, nil
}

func (s *ImportService) write(ctx context.Context, doc *parsedDocument, report *domain.ImportReport) error {
	for _, m := range doc.metadata {
		if err := s.chapters.SetMetadata(ctx, m.key, m.value); err != nil {
			return err
		}
	}

	result, err := s.chapters.UpsertChapters(ctx, doc.chapters)
	if err != nil {
		return err
	}
	for _, e := range result.Errors {
		logger.Warn("Skipped chapter %d: %s", e.ChapterID, e.Error)
	}

	if doc.format == domain.ImportFormatFullText {
		report.Pages += result.SuccessCount
	} else {
		report.Imported += result.SuccessCount
	}
	report.Skipped += doc.untitled + len(result.Errors)
	return nil
}

// readDocumentFile decodes a JSON or YAML file, chosen by extension.
func readDocumentFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("%w: file extension %q", domain.ErrUnsupportedType, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return doc, nil
}

// DetectFormat identifies the layout of a decoded document.
func DetectFormat(doc map[string]any) (domain.ImportFormat, error) {
	switch {
	case doc["structure_analysis"] != nil:
		return domain.ImportFormatStructure, nil
	case doc["chapters"] != nil:
		return domain.ImportFormatRAG, nil
	case doc["pages"] != nil:
		return domain.ImportFormatFullText, nil
	default:
		return "", fmt.Errorf("%w: no structure_analysis, chapters or pages", domain.ErrUnsupportedType)
	}
}

func parseDocument(doc map[string]any) (*parsedDocument, error) {
	format, err := DetectFormat(doc)
	if err != nil {
		return nil, err
	}

	parsed := &parsedDocument{format: format}
	switch format {
	case domain.ImportFormatStructure:
		parseStructure(doc, parsed)
	case domain.ImportFormatRAG:
		parsed.metadata = documentMetadata(asMap(doc["metadata"]))
		parseRAGChapters(doc, parsed)
	case domain.ImportFormatFullText:
		parsed.metadata = documentMetadata(asMap(doc["metadata"]))
		parsePages(doc, parsed)
	}
	return parsed, nil
}

// parseStructure reads document_info and structure_analysis. Chapters carry
// counts but no content; a later RAG import fills it in.
func parseStructure(doc map[string]any, parsed *parsedDocument) {
	parsed.metadata = documentMetadata(asMap(doc["document_info"]))

	analysis := asMap(doc["structure_analysis"])
	if analysis == nil {
		return
	}
	parsed.metadata = append(parsed.metadata,
		metadataPair{domain.MetaTotalChapters, numberString(analysis["total_chapters"])},
		metadataPair{domain.MetaChaptersWithContent, numberString(analysis["chapters_with_content"])},
		metadataPair{domain.MetaChaptersWithTables, numberString(analysis["chapters_with_tables"])},
	)

	for _, item := range asSlice(analysis["chapter_details"]) {
		ch := asMap(item)
		title := asString(ch["title"])
		if strings.TrimSpace(title) == "" {
			parsed.untitled++
			continue
		}
		parsed.chapters = append(parsed.chapters, domain.ChapterInput{
			ChapterID:    asInt(ch["id"]),
			Title:        title,
			PageStart:    asInt(ch["page_start"]),
			ContentLines: asInt(ch["content_lines"]),
			ImagesCount:  asInt(ch["images_count"]),
			TablesCount:  asInt(ch["tables_count"]),
		})
	}
}

func parseRAGChapters(doc map[string]any, parsed *parsedDocument) {
	for _, item := range asSlice(doc["chapters"]) {
		ch := asMap(item)
		title := asString(ch["title"])
		if strings.TrimSpace(title) == "" {
			parsed.untitled++
			continue
		}
		content := domain.ContentFromAny(ch["content"])
		parsed.chapters = append(parsed.chapters, domain.ChapterInput{
			ChapterID:    asInt(ch["id"]),
			Title:        title,
			Content:      content,
			PageStart:    asInt(ch["page_start"]),
			ContentLines: content.Lines(),
			ImagesCount:  len(asSlice(ch["images"])),
			TablesCount:  len(asSlice(ch["tables"])),
		})
	}
}

// parsePages turns every page with text into a chapter numbered
// PageChapterOffset + page number.
func parsePages(doc map[string]any, parsed *parsedDocument) {
	for _, item := range asSlice(doc["pages"]) {
		page := asMap(item)
		text := asString(page["content"])
		if strings.TrimSpace(text) == "" {
			continue
		}
		number := asInt(page["page_number"])
		parsed.chapters = append(parsed.chapters, domain.ChapterInput{
			ChapterID: domain.PageChapterOffset + number,
			Title:     fmt.Sprintf("Страница %d", number),
			Content:   domain.TextContent(text),
			PageStart: number,
		})
	}
}

// documentMetadata maps a title/page_count/file_size block to metadata.
// Absent blocks record nothing; absent fields record defaults.
func documentMetadata(info map[string]any) []metadataPair {
	if info == nil {
		return nil
	}
	title := asString(info["title"])
	if title == "" {
		title = domain.DefaultDocumentTitle
	}
	return []metadataPair{
		{domain.MetaDocumentTitle, title},
		{domain.MetaPageCount, numberString(info["page_count"])},
		{domain.MetaFileSize, numberString(info["file_size"])},
	}
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asInt accepts JSON numbers (float64), YAML integers and numeric strings.
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(n))
		return i
	default:
		return 0
	}
}

// numberString renders a count for metadata, "0" when absent.
func numberString(v any) string {
	switch n := v.(type) {
	case nil:
		return "0"
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case string:
		if n == "" {
			return "0"
		}
		return n
	default:
		return strconv.Itoa(asInt(n))
	}
}
