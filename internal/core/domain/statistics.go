package domain

import "time"

// Statistics aggregates counts over every stored chapter.
type Statistics struct {
	TotalChapters       int `json:"total_chapters"`
	ChaptersWithContent int `json:"chapters_with_content"`
	ChaptersWithTables  int `json:"chapters_with_tables"`
	ChaptersWithImages  int `json:"chapters_with_images"`
	TotalContentLines   int `json:"total_content_lines"`
	TotalTables         int `json:"total_tables"`
	TotalImages         int `json:"total_images"`
}

// MetadataEntry is a document-level fact held by the store.
type MetadataEntry struct {
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Well-known metadata keys written by the importer.
const (
	MetaDocumentTitle       = "document_title"
	MetaPageCount           = "page_count"
	MetaFileSize            = "file_size"
	MetaTotalChapters       = "total_chapters"
	MetaChaptersWithContent = "chapters_with_content"
	MetaChaptersWithTables  = "chapters_with_tables"
	MetaLastImportID        = "last_import_id"
)

// DefaultDocumentTitle is reported when no title has been imported.
const DefaultDocumentTitle = "Cleverence Mobile Smarts Documentation"

// DocumentInfo summarises the imported source document.
// Numeric fields are nil when the importer never recorded them.
type DocumentInfo struct {
	Title               string `json:"title"`
	PageCount           *int   `json:"page_count"`
	FileSize            *int   `json:"file_size"`
	TotalChapters       *int   `json:"total_chapters"`
	ChaptersWithContent *int   `json:"chapters_with_content"`
}
