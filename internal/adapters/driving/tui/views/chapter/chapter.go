// Package chapter provides the scrollable chapter content view for the TUI.
package chapter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/chapterdex/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/chapterdex/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/chapterdex/internal/core/domain"
	"github.com/custodia-labs/chapterdex/internal/core/ports/driving"
)

// ErrNoChapterService indicates that no chapter service was provided.
var ErrNoChapterService = errors.New("chapter service is required")

// View shows one chapter's metadata and wrapped content.
type View struct {
	styles   *styles.Styles
	chapters driving.ChapterService
	ctx      context.Context

	chapterID int
	back      messages.ViewType
	chapter   *domain.Chapter
	lines     []string
	offset    int

	width   int
	height  int
	loading bool
	err     error
}

// NewView creates a new chapter content view.
func NewView(s *styles.Styles, chapters driving.ChapterService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:   s,
		chapters: chapters,
		ctx:      context.Background(),
		back:     messages.ViewMenu,
		width:    80,
		height:   24,
	}
}

// WithContext sets the context used for store calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Open resets the view for a chapter and returns the command that loads it.
// Esc returns to back.
func (v *View) Open(chapterID int, back messages.ViewType) tea.Cmd {
	v.chapterID = chapterID
	v.back = back
	v.chapter = nil
	v.lines = nil
	v.offset = 0
	v.err = nil
	v.loading = true

	ctx, svc := v.ctx, v.chapters
	return func() tea.Msg {
		if svc == nil {
			return messages.ChapterLoaded{Err: ErrNoChapterService}
		}
		ch, err := svc.GetChapter(ctx, chapterID)
		return messages.ChapterLoaded{Chapter: ch, Err: err}
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the chapter view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ChapterLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.chapter = msg.Chapter
		v.wrap()
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.offset > 0 {
			v.offset--
		}
	case "down", "j":
		if v.offset < v.maxOffset() {
			v.offset++
		}
	case "pgup", "ctrl+u":
		v.offset = max(v.offset-v.visibleLines(), 0)
	case "pgdown", "ctrl+d", " ":
		v.offset = min(v.offset+v.visibleLines(), v.maxOffset())
	case "home", "g":
		v.offset = 0
	case "end", "G":
		v.offset = v.maxOffset()
	case "esc":
		back := v.back
		return v, func() tea.Msg {
			return messages.ViewChanged{View: back}
		}
	}
	return v, nil
}

// wrap splits the flattened content into lines no wider than the view.
func (v *View) wrap() {
	v.lines = nil
	if v.chapter == nil {
		return
	}
	text := displayText(v.chapter.Content)
	if strings.TrimSpace(text) == "" {
		return
	}

	width := v.width - 4
	if width < 20 {
		width = 20
	}
	for _, line := range strings.Split(text, "\n") {
		v.lines = append(v.lines, wrapLine(line, width)...)
	}
	if v.offset > v.maxOffset() {
		v.offset = v.maxOffset()
	}
}

// displayText puts each text block on its own line.
func displayText(c domain.Content) string {
	if c.Kind() != domain.ContentBlocks {
		return c.Flatten()
	}
	parts := make([]string, 0, len(c.Blocks()))
	for _, b := range c.Blocks() {
		if b.Text != nil {
			parts = append(parts, *b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// wrapLine breaks a line at word boundaries, hard-splitting words longer
// than width.
func wrapLine(line string, width int) []string {
	if lipgloss.Width(line) <= width {
		return []string{line}
	}

	var out []string
	var cur []rune
	for _, word := range strings.Fields(line) {
		w := []rune(word)
		for len(w) > width {
			if len(cur) > 0 {
				out = append(out, string(cur))
				cur = nil
			}
			out = append(out, string(w[:width]))
			w = w[width:]
		}
		switch {
		case len(cur) == 0:
			cur = w
		case len(cur)+1+len(w) <= width:
			cur = append(append(cur, ' '), w...)
		default:
			out = append(out, string(cur))
			cur = w
		}
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

func (v *View) visibleLines() int {
	// title, metadata, separator, position, help
	return max(v.height-8, 1)
}

func (v *View) maxOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the chapter.
func (v *View) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Chapter %d", v.chapterID)
	if v.chapter != nil {
		title = fmt.Sprintf("%d. %s", v.chapter.ChapterID, v.chapter.Title)
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")

	if v.chapter != nil {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("page %d  |  %d lines  |  %d images  |  %d tables",
			v.chapter.PageStart, v.chapter.ContentLines, v.chapter.ImagesCount, v.chapter.TablesCount)))
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 1), 60)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading chapter..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("(No content)"))
	default:
		visible := v.visibleLines()
		end := min(v.offset+visible, len(v.lines))
		for _, line := range v.lines[v.offset:end] {
			b.WriteString(v.styles.Normal.Render(line))
			b.WriteString("\n")
		}
		if len(v.lines) > visible {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  Line %d-%d of %d", v.offset+1, end, len(v.lines))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions and rewraps the content.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.wrap()
}

// Chapter returns the loaded chapter.
func (v *View) Chapter() *domain.Chapter {
	return v.chapter
}

// Lines returns the wrapped content lines.
func (v *View) Lines() []string {
	return v.lines
}

// Offset returns the scroll offset.
func (v *View) Offset() int {
	return v.offset
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
