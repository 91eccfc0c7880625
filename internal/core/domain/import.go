package domain

// ImportFormat identifies the layout of a document-structure file.
type ImportFormat string

// Supported import formats.
const (
	// ImportFormatStructure has document_info and structure_analysis.chapter_details.
	ImportFormatStructure ImportFormat = "structure_analysis"

	// ImportFormatRAG has metadata and chapters with content.
	ImportFormatRAG ImportFormat = "rag_structure"

	// ImportFormatFullText has metadata and pages.
	ImportFormatFullText ImportFormat = "full_text_structure"
)

// PageChapterOffset is added to a page number to form the chapter id of a page.
const PageChapterOffset = 10000

// ImportReport summarises one import run.
type ImportReport struct {
	// ImportID identifies the run and is recorded in metadata.
	ImportID string `json:"import_id"`

	// Files lists the files read, in order.
	Files []string `json:"files"`

	// Formats lists the detected format of each file.
	Formats []ImportFormat `json:"formats"`

	// Imported counts chapters written from chapter lists.
	Imported int `json:"imported"`

	// Skipped counts chapters rejected (missing title or failed write).
	Skipped int `json:"skipped"`

	// Pages counts full-text pages written as chapters.
	Pages int `json:"pages"`
}
