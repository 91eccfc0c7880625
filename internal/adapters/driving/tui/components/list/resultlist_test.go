package list

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

func sampleResults() []domain.RankedResult {
	return []domain.RankedResult{
		{ChapterID: 3, Title: "Замена картриджа", FinalScore: 0.91, Similarity: 0.8, SearchType: domain.SearchTypeHybrid},
		{ChapterID: 7, Title: "Настройка сети", FinalScore: 0.42, Similarity: 0.6, SearchType: domain.SearchTypeSemantic},
		{ChapterID: 12, Title: "", FinalScore: 0.1, Similarity: 0.33, SearchType: domain.SearchTypeKeyword},
	}
}

func TestResultList_Empty(t *testing.T) {
	l := NewResultList(nil)

	assert.Equal(t, 0, l.Count())
	assert.Nil(t, l.SelectedResult())
	assert.Contains(t, l.View(), "No results")
}

func TestResultList_Navigation(t *testing.T) {
	l := NewResultList(nil)
	l.SetResults(sampleResults())

	l.MoveUp()
	assert.Equal(t, 0, l.Selected())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, l.Selected())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.Equal(t, 2, l.Selected())

	l.MoveDown()
	assert.Equal(t, 2, l.Selected())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	require.NotNil(t, l.SelectedResult())
	assert.Equal(t, 7, l.SelectedResult().ChapterID)
}

func TestResultList_SetResultsResetsSelection(t *testing.T) {
	l := NewResultList(nil)
	l.SetResults(sampleResults())
	l.SetSelected(2)

	l.SetResults(sampleResults()[:1])

	assert.Equal(t, 0, l.Selected())
}

func TestResultList_SetSelectedOutOfRange(t *testing.T) {
	l := NewResultList(nil)
	l.SetResults(sampleResults())

	l.SetSelected(5)
	assert.Equal(t, 0, l.Selected())
	l.SetSelected(-1)
	assert.Equal(t, 0, l.Selected())
}

func TestResultList_View(t *testing.T) {
	l := NewResultList(nil)
	l.SetDimensions(100, 20)
	l.SetResults(sampleResults())

	view := l.View()

	assert.Contains(t, view, "Results (3)")
	assert.Contains(t, view, "Замена картриджа")
	assert.Contains(t, view, "(Untitled)")
	assert.Contains(t, view, "0.910")
	assert.Contains(t, view, "hybrid")
	assert.Contains(t, view, "semantic")
}

func TestResultList_ViewScrollsToSelection(t *testing.T) {
	l := NewResultList(nil)
	l.SetDimensions(100, 4) // one result visible
	l.SetResults(sampleResults())
	l.SetSelected(1)

	view := l.View()

	assert.Contains(t, view, "Настройка сети")
	assert.NotContains(t, view, "Замена картриджа")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "Глава", truncateRunes("Глава", 10))
	assert.Equal(t, "Глава о...", truncateRunes("Глава о печати", 10))
	assert.Equal(t, "Гл", truncateRunes("Глава", 2))
}
