// Package input provides text input components for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/chapterdex/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

// searchTypes is the order the tab key cycles through.
var searchTypes = []domain.SearchType{
	domain.SearchTypeHybrid,
	domain.SearchTypeSemantic,
	domain.SearchTypeKeyword,
}

// SearchInput wraps a bubbles textinput and tracks the selected search type.
type SearchInput struct {
	textinput  textinput.Model
	styles     *styles.Styles
	searchType domain.SearchType
	width      int
}

// NewSearchInput creates a new search input component.
func NewSearchInput(s *styles.Styles) *SearchInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Search chapters..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	return &SearchInput{
		textinput:  ti,
		styles:     s,
		searchType: domain.SearchTypeHybrid,
		width:      50,
	}
}

// Init initialises the search input.
func (s *SearchInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	var cmd tea.Cmd
	s.textinput, cmd = s.textinput.Update(msg)
	return s, cmd
}

// View renders the label, the search type badge and the input box.
func (s *SearchInput) View() string {
	label := s.styles.Title.Render("Search ")
	badge := s.styles.SearchType(s.searchType).Render("[" + string(s.searchType) + "] ")
	box := s.styles.InputField.Render(s.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, badge, box)
}

// Value returns the current input value.
func (s *SearchInput) Value() string {
	return s.textinput.Value()
}

// SetValue sets the input value.
func (s *SearchInput) SetValue(value string) {
	s.textinput.SetValue(value)
}

// SearchType returns the selected search type.
func (s *SearchInput) SearchType() domain.SearchType {
	return s.searchType
}

// SetSearchType selects a search type. Unknown types are ignored.
func (s *SearchInput) SetSearchType(t domain.SearchType) {
	if t.IsValid() {
		s.searchType = t
	}
}

// CycleSearchType moves to the next search type and returns it.
func (s *SearchInput) CycleSearchType() domain.SearchType {
	for i, t := range searchTypes {
		if t == s.searchType {
			s.searchType = searchTypes[(i+1)%len(searchTypes)]
			return s.searchType
		}
	}
	s.searchType = searchTypes[0]
	return s.searchType
}

// Focus sets focus on the input.
func (s *SearchInput) Focus() tea.Cmd {
	return s.textinput.Focus()
}

// Blur removes focus from the input.
func (s *SearchInput) Blur() {
	s.textinput.Blur()
}

// Focused returns whether the input is focused.
func (s *SearchInput) Focused() bool {
	return s.textinput.Focused()
}

// SetWidth sets the width of the input.
func (s *SearchInput) SetWidth(width int) {
	s.width = width
	// label, badge and border
	inputWidth := width - 24
	if inputWidth < 20 {
		inputWidth = 20
	}
	s.textinput.Width = inputWidth
}

// Width returns the current width.
func (s *SearchInput) Width() int {
	return s.width
}

// Reset clears the input. The search type is kept.
func (s *SearchInput) Reset() {
	s.textinput.Reset()
}
