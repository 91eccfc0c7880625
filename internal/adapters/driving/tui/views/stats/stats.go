// Package stats provides the statistics view for the TUI.
package stats

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/chapterdex/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/chapterdex/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/chapterdex/internal/core/domain"
	"github.com/custodia-labs/chapterdex/internal/core/ports/driving"
)

// View shows document info, store statistics and vector index state.
// The index service is optional.
type View struct {
	styles   *styles.Styles
	chapters driving.ChapterService
	index    driving.IndexService
	ctx      context.Context

	stats   *domain.Statistics
	info    *domain.DocumentInfo
	vectors *domain.VectorStats

	loading bool
	err     error
}

// NewView creates a new statistics view.
func NewView(s *styles.Styles, chapters driving.ChapterService, index driving.IndexService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:   s,
		chapters: chapters,
		index:    index,
		ctx:      context.Background(),
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the statistics.
func (v *View) Init() tea.Cmd {
	v.loading = true
	ctx, chapters, index := v.ctx, v.chapters, v.index
	return func() tea.Msg {
		if chapters == nil {
			return messages.StatsLoaded{Err: fmt.Errorf("chapter service is required")}
		}
		st, err := chapters.Statistics(ctx)
		if err != nil {
			return messages.StatsLoaded{Err: err}
		}
		info, err := chapters.DocumentInfo(ctx)
		if err != nil {
			return messages.StatsLoaded{Err: err}
		}
		msg := messages.StatsLoaded{Statistics: st, Document: info}
		if index != nil {
			vs := index.Stats(ctx)
			msg.Vectors = &vs
		}
		return msg
	}
}

// Update handles messages for the statistics view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.StatsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.stats, v.info, v.vectors = msg.Statistics, msg.Document, msg.Vectors
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return v, v.Init()
		case "esc":
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
	}
	return v, nil
}

// View renders the statistics.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Statistics"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	default:
		v.renderDocument(&b)
		v.renderStore(&b)
		v.renderVectors(&b)
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[r] reload  [esc] back"))
	return b.String()
}

func (v *View) renderDocument(b *strings.Builder) {
	if v.info == nil {
		return
	}
	b.WriteString(v.styles.Subtitle.Render("Document"))
	b.WriteString("\n")
	row(b, v.styles, "Title", v.info.Title)
	row(b, v.styles, "Pages", optional(v.info.PageCount))
	row(b, v.styles, "File size", optional(v.info.FileSize))
	b.WriteString("\n")
}

func (v *View) renderStore(b *strings.Builder) {
	if v.stats == nil {
		return
	}
	s := v.stats
	b.WriteString(v.styles.Subtitle.Render("Chapters"))
	b.WriteString("\n")
	row(b, v.styles, "Total", fmt.Sprint(s.TotalChapters))
	row(b, v.styles, "With content", fmt.Sprint(s.ChaptersWithContent))
	row(b, v.styles, "With tables", fmt.Sprintf("%d (%d tables)", s.ChaptersWithTables, s.TotalTables))
	row(b, v.styles, "With images", fmt.Sprintf("%d (%d images)", s.ChaptersWithImages, s.TotalImages))
	row(b, v.styles, "Content lines", fmt.Sprint(s.TotalContentLines))
	b.WriteString("\n")
}

func (v *View) renderVectors(b *strings.Builder) {
	b.WriteString(v.styles.Subtitle.Render("Vector index"))
	b.WriteString("\n")
	if v.vectors == nil {
		row(b, v.styles, "Status", v.styles.Warning.Render("not configured"))
		return
	}
	status := v.styles.Warning.Render("not built (searches fall back to substring match)")
	if v.vectors.IsInitialized {
		status = v.styles.Success.Render("ready")
	}
	row(b, v.styles, "Status", status)
	row(b, v.styles, "Embeddings", fmt.Sprint(v.vectors.TotalEmbeddings))
	row(b, v.styles, "Model", fmt.Sprintf("%s (%d dims)", v.vectors.Model.Name, v.vectors.Model.Dimension))
	if v.vectors.Model.VocabularySize > 0 {
		row(b, v.styles, "Vocabulary", fmt.Sprintf("%d terms", v.vectors.Model.VocabularySize))
	}
}

func row(b *strings.Builder, s *styles.Styles, label, value string) {
	b.WriteString(s.Muted.Render(fmt.Sprintf("  %-14s", label)))
	b.WriteString(s.Normal.Render(value))
	b.WriteString("\n")
}

func optional(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

// Statistics returns the loaded store statistics.
func (v *View) Statistics() *domain.Statistics {
	return v.stats
}

// Vectors returns the loaded vector index state.
func (v *View) Vectors() *domain.VectorStats {
	return v.vectors
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
