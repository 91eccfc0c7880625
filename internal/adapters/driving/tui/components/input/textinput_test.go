package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

func TestNewSearchInput(t *testing.T) {
	in := NewSearchInput(nil)

	require.NotNil(t, in)
	assert.True(t, in.Focused())
	assert.Equal(t, domain.SearchTypeHybrid, in.SearchType())
	assert.Empty(t, in.Value())
}

func TestSearchInput_Typing(t *testing.T) {
	in := NewSearchInput(nil)

	in, _ = in.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("принтер")})

	assert.Equal(t, "принтер", in.Value())
}

func TestSearchInput_CycleSearchType(t *testing.T) {
	in := NewSearchInput(nil)

	assert.Equal(t, domain.SearchTypeSemantic, in.CycleSearchType())
	assert.Equal(t, domain.SearchTypeKeyword, in.CycleSearchType())
	assert.Equal(t, domain.SearchTypeHybrid, in.CycleSearchType())
}

func TestSearchInput_SetSearchType(t *testing.T) {
	in := NewSearchInput(nil)

	in.SetSearchType(domain.SearchTypeKeyword)
	assert.Equal(t, domain.SearchTypeKeyword, in.SearchType())

	in.SetSearchType("fuzzy")
	assert.Equal(t, domain.SearchTypeKeyword, in.SearchType())
}

func TestSearchInput_ViewShowsType(t *testing.T) {
	in := NewSearchInput(nil)
	in.SetSearchType(domain.SearchTypeSemantic)

	assert.Contains(t, in.View(), "[semantic]")
}

func TestSearchInput_FocusBlurReset(t *testing.T) {
	in := NewSearchInput(nil)
	in.SetValue("query")
	in.SetSearchType(domain.SearchTypeKeyword)

	in.Blur()
	assert.False(t, in.Focused())
	in.Focus()
	assert.True(t, in.Focused())

	in.Reset()
	assert.Empty(t, in.Value())
	assert.Equal(t, domain.SearchTypeKeyword, in.SearchType())
}

func TestSearchInput_SetWidth(t *testing.T) {
	in := NewSearchInput(nil)

	in.SetWidth(100)
	assert.Equal(t, 100, in.Width())
	assert.Equal(t, 76, in.textinput.Width)

	in.SetWidth(10)
	assert.Equal(t, 20, in.textinput.Width)
}
