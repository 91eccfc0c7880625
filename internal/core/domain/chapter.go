package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Chapter represents a titled unit of documentation content.
// It is the record of truth held by the document store.
type Chapter struct {
	// ID is the sequential identifier assigned by the store.
	// It is distinct from ChapterID and never supplied by callers.
	ID int `json:"id"`

	// ChapterID is the externally supplied unique identifier.
	ChapterID int `json:"chapter_id"`

	// Title is the human-readable title. Never empty for a stored chapter.
	Title string `json:"title"`

	// Content is either plain text or a sequence of content blocks.
	Content Content `json:"content"`

	// PageStart is the page the chapter begins on in the source document.
	PageStart int `json:"page_start"`

	// ContentLines is the number of lines (or blocks) of content.
	ContentLines int `json:"content_lines"`

	// ImagesCount is the number of images in the chapter.
	ImagesCount int `json:"images_count"`

	// TablesCount is the number of tables in the chapter.
	TablesCount int `json:"tables_count"`

	// CreatedAt is when the chapter was first stored.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the chapter was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// ChapterInput carries the caller-supplied fields of an upsert.
// ContentLines of zero means "derive from Content".
type ChapterInput struct {
	ChapterID    int     `json:"chapter_id"`
	Title        string  `json:"title"`
	Content      Content `json:"content"`
	PageStart    int     `json:"page_start"`
	ContentLines int     `json:"content_lines"`
	ImagesCount  int     `json:"images_count"`
	TablesCount  int     `json:"tables_count"`
}

// Validate checks the fields every stored chapter must carry.
func (in ChapterInput) Validate() error {
	if in.ChapterID <= 0 {
		return fmt.Errorf("%w: chapter_id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.PageStart < 0 || in.ContentLines < 0 || in.ImagesCount < 0 || in.TablesCount < 0 {
		return fmt.Errorf("%w: counts must not be negative", ErrInvalidInput)
	}
	return nil
}

// ContentKind identifies the variant held by a Content value.
type ContentKind int

const (
	// ContentNone means no content was supplied.
	ContentNone ContentKind = iota

	// ContentText is a plain string.
	ContentText

	// ContentBlocks is an ordered sequence of blocks.
	ContentBlocks
)

// ContentBlock is one element of block content.
// Text is nil for non-text blocks such as images or tables.
type ContentBlock struct {
	Text  *string
	Extra map[string]any
}

// TextBlock returns a block carrying text.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Text: &text}
}

// Content is a tagged variant: plain text or a sequence of blocks.
type Content struct {
	kind   ContentKind
	text   string
	blocks []ContentBlock
}

// TextContent returns plain text content.
func TextContent(text string) Content {
	return Content{kind: ContentText, text: text}
}

// BlockContent returns block sequence content.
func BlockContent(blocks ...ContentBlock) Content {
	return Content{kind: ContentBlocks, blocks: blocks}
}

// Kind returns the variant tag.
func (c Content) Kind() ContentKind {
	return c.kind
}

// Blocks returns the blocks of block content, nil otherwise.
func (c Content) Blocks() []ContentBlock {
	return c.blocks
}

// Flatten renders the content as a single string.
// Text passes through; blocks are joined by single spaces, with an
// empty string standing in for each block that carries no text.
func (c Content) Flatten() string {
	switch c.kind {
	case ContentText:
		return c.text
	case ContentBlocks:
		parts := make([]string, len(c.blocks))
		for i, b := range c.blocks {
			if b.Text != nil {
				parts[i] = *b.Text
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

// Lines returns the derived line count: newline count plus one for text,
// the block count for blocks, zero when there is no content.
func (c Content) Lines() int {
	switch c.kind {
	case ContentText:
		return strings.Count(c.text, "\n") + 1
	case ContentBlocks:
		return len(c.blocks)
	default:
		return 0
	}
}

// HasText reports whether the flattened content is non-blank.
func (c Content) HasText() bool {
	return strings.TrimSpace(c.Flatten()) != ""
}

// MarshalJSON encodes text as a JSON string and blocks as an array of objects.
func (c Content) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case ContentText:
		return json.Marshal(c.text)
	case ContentBlocks:
		out := make([]map[string]any, len(c.blocks))
		for i, b := range c.blocks {
			m := make(map[string]any, len(b.Extra)+1)
			for k, v := range b.Extra {
				m[k] = v
			}
			if b.Text != nil {
				m["text"] = *b.Text
			}
			out[i] = m
		}
		return json.Marshal(out)
	default:
		return []byte(`""`), nil
	}
}

// UnmarshalJSON accepts a string, an array of blocks, or null.
// Bare strings inside an array are read as text blocks.
func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = Content{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = TextContent(s)
		return nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		blocks := make([]ContentBlock, 0, len(raw))
		for _, item := range raw {
			blocks = append(blocks, decodeBlock(item))
		}
		*c = BlockContent(blocks...)
		return nil
	default:
		// Numbers, objects and booleans carry no searchable text.
		*c = Content{}
		return nil
	}
}

// ContentFromAny converts a decoded YAML/JSON value into Content.
func ContentFromAny(v any) Content {
	switch val := v.(type) {
	case string:
		return TextContent(val)
	case []any:
		blocks := make([]ContentBlock, 0, len(val))
		for _, item := range val {
			blocks = append(blocks, blockFromAny(item))
		}
		return BlockContent(blocks...)
	default:
		return Content{}
	}
}

func decodeBlock(item json.RawMessage) ContentBlock {
	var v any
	if err := json.Unmarshal(item, &v); err != nil {
		return ContentBlock{}
	}
	return blockFromAny(v)
}

func blockFromAny(v any) ContentBlock {
	switch val := v.(type) {
	case string:
		return TextBlock(val)
	case map[string]any:
		block := ContentBlock{}
		for k, field := range val {
			if k == "text" {
				if s, ok := field.(string); ok && s != "" {
					block.Text = &s
					continue
				}
			}
			if block.Extra == nil {
				block.Extra = make(map[string]any)
			}
			block.Extra[k] = field
		}
		return block
	default:
		return ContentBlock{}
	}
}

// BulkResult reports the outcome of a multi-chapter upsert.
type BulkResult struct {
	// Total counts the inputs received.
	Total int `json:"total"`

	// SuccessCount counts chapters written.
	SuccessCount int `json:"success_count"`

	// ErrorCount counts rejected inputs.
	ErrorCount int `json:"error_count"`

	// Errors lists rejected inputs by position.
	Errors []BulkError `json:"errors"`
}

// BulkError describes one rejected input of a bulk upsert.
type BulkError struct {
	Index     int    `json:"index"`
	ChapterID int    `json:"chapter_id"`
	Error     string `json:"error"`
}
