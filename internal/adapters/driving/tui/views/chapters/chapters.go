// Package chapters provides the paginated chapter list view for the TUI.
package chapters

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/chapterdex/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/chapterdex/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/chapterdex/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/chapterdex/internal/core/domain"
	"github.com/custodia-labs/chapterdex/internal/core/ports/driving"
)

// PageSize is the number of chapters requested per page.
const PageSize = 20

// ErrNoChapterService indicates that no chapter service was provided.
var ErrNoChapterService = errors.New("chapter service is required")

// View lists chapters one page at a time with an optional title filter.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	chapters driving.ChapterService
	ctx      context.Context

	filter    textinput.Model
	filtering bool

	page       int
	items      []domain.Chapter
	pagination domain.Pagination
	selected   int
	scroll     int

	width   int
	height  int
	loading bool
	err     error
}

// NewView creates a new chapter list view.
func NewView(s *styles.Styles, chapters driving.ChapterService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "filter by title or content"
	ti.CharLimit = 128

	return &View{
		styles:   s,
		keymap:   keymap.DefaultKeyMap(),
		chapters: chapters,
		ctx:      context.Background(),
		filter:   ti,
		page:     1,
		width:    80,
		height:   24,
	}
}

// WithContext sets the context used for store calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the first page.
func (v *View) Init() tea.Cmd {
	v.page = 1
	return v.load()
}

func (v *View) load() tea.Cmd {
	v.loading = true
	ctx, svc, page, search := v.ctx, v.chapters, v.page, strings.TrimSpace(v.filter.Value())
	return func() tea.Msg {
		if svc == nil {
			return messages.ChaptersLoaded{Err: ErrNoChapterService}
		}
		p, err := svc.ListChapters(ctx, page, PageSize, search)
		return messages.ChaptersLoaded{Page: p, Err: err}
	}
}

// Update handles messages for the chapter list view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.filtering {
			return v.handleFilterKey(msg)
		}
		return v.handleKey(msg)

	case messages.ChaptersLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.items = msg.Page.Chapters
		v.pagination = msg.Page.Pagination
		v.selected = 0
		v.scroll = 0
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
	}
	return v, nil
}

func (v *View) handleFilterKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		v.filtering = false
		v.filter.Blur()
		v.page = 1
		return v, v.load()
	case tea.KeyEsc:
		v.filtering = false
		v.filter.Blur()
		return v, nil
	default:
		var cmd tea.Cmd
		v.filter, cmd = v.filter.Update(msg)
		return v, cmd
	}
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	km, pressed := v.keymap, msg.String()
	switch {
	case keymap.Matches(pressed, km.Up):
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case keymap.Matches(pressed, km.Down):
		if v.selected < len(v.items)-1 {
			v.selected++
			v.adjustScroll()
		}
	case keymap.Matches(pressed, km.NextPage):
		if v.page < v.pagination.Pages {
			v.page++
			return v, v.load()
		}
	case keymap.Matches(pressed, km.PrevPage):
		if v.page > 1 {
			v.page--
			return v, v.load()
		}
	case keymap.Matches(pressed, km.Filter):
		v.filtering = true
		return v, v.filter.Focus()
	case keymap.Matches(pressed, km.Reload):
		return v, v.load()
	case keymap.Matches(pressed, km.Open):
		if ch := v.SelectedChapter(); ch != nil {
			id := ch.ChapterID
			return v, func() tea.Msg {
				return messages.ChapterSelected{ChapterID: id, Back: messages.ViewChapters}
			}
		}
	case keymap.Matches(pressed, km.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scroll {
		v.scroll = v.selected
	} else if v.selected >= v.scroll+visible {
		v.scroll = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	// title, filter, pager, help
	available := v.height - 9
	if available < 1 {
		available = 1
	}
	return available
}

// View renders the chapter list.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Chapters (%d)", v.pagination.Total)))
	b.WriteString("\n")
	if v.filtering || v.filter.Value() != "" {
		b.WriteString(v.styles.Muted.Render("Filter: ") + v.filter.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading chapters..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.items) == 0:
		b.WriteString(v.styles.Muted.Render("No chapters. Import a document with 'chapterdex import'."))
	default:
		visible := v.visibleItemCount()
		for i := v.scroll; i < len(v.items) && i < v.scroll+visible; i++ {
			b.WriteString(v.renderChapter(i, &v.items[i]))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  page %d of %d", v.pagination.Page, max(v.pagination.Pages, 1))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render(keymap.HelpLine(v.keymap.ChaptersHelp())))
	return b.String()
}

func (v *View) renderChapter(index int, ch *domain.Chapter) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	title := ch.Title
	maxTitle := v.width - 30
	if maxTitle < 10 {
		maxTitle = 10
	}
	if r := []rune(title); len(r) > maxTitle {
		title = string(r[:maxTitle-3]) + "..."
	}

	line := fmt.Sprintf("%s%5d  %s", indicator, ch.ChapterID, title)
	info := fmt.Sprintf("  p.%d  %d lines", ch.PageStart, ch.ContentLines)
	if index == v.selected {
		return v.styles.Selected.Render(line) + v.styles.Muted.Render(info)
	}
	return v.styles.Normal.Render(line) + v.styles.Muted.Render(info)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Chapters returns the chapters on the current page.
func (v *View) Chapters() []domain.Chapter {
	return v.items
}

// Page returns the current page number.
func (v *View) Page() int {
	return v.page
}

// Filtering reports whether the filter input has focus.
func (v *View) Filtering() bool {
	return v.filtering
}

// SelectedChapter returns the highlighted chapter, or nil if the page is empty.
func (v *View) SelectedChapter() *domain.Chapter {
	if v.selected < 0 || v.selected >= len(v.items) {
		return nil
	}
	return &v.items[v.selected]
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
