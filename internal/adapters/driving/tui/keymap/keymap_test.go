package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()
	require.NotNil(t, km)

	tests := []struct {
		name    string
		binding key.Binding
		keys    []string
	}{
		{"quit", km.Quit, []string{"q", "ctrl+c"}},
		{"help", km.Help, []string{"?"}},
		{"back", km.Back, []string{"esc"}},
		{"search", km.Search, []string{"enter"}},
		{"up", km.Up, []string{"up", "k"}},
		{"down", km.Down, []string{"down", "j"}},
		{"select", km.Select, []string{"enter"}},
		{"cancel", km.Cancel, []string{"esc"}},
		{"new search", km.NewSearch, []string{"n"}},
		{"open", km.Open, []string{"enter"}},
		{"next type", km.NextType, []string{"tab"}},
		{"next page", km.NextPage, []string{"right", "l", "pgdown"}},
		{"prev page", km.PrevPage, []string{"left", "h", "pgup"}},
		{"filter", km.Filter, []string{"/"}},
		{"reload", km.Reload, []string{"r"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range tt.keys {
				assert.Contains(t, tt.binding.Keys(), k)
			}
			assert.NotEmpty(t, tt.binding.Help().Key)
			assert.NotEmpty(t, tt.binding.Help().Desc)
		})
	}
}

func TestShortHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.ShortHelp()

	require.Len(t, bindings, 2)
	assert.Equal(t, km.Quit, bindings[0])
	assert.Equal(t, km.Help, bindings[1])
}

func TestResultsHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.ResultsHelp()

	require.Len(t, bindings, 4)
	assert.Equal(t, km.Open, bindings[2])
}

func TestChaptersHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.ChaptersHelp()

	require.Len(t, bindings, 7)
	assert.Equal(t, km.Filter, bindings[3])
	assert.Equal(t, km.Back, bindings[6])
}

func TestHelpLine(t *testing.T) {
	km := DefaultKeyMap()

	line := HelpLine([]key.Binding{km.Filter, km.Back})

	assert.Equal(t, "[/] filter  [esc] back", line)
}

func TestHelpLine_Empty(t *testing.T) {
	assert.Empty(t, HelpLine(nil))
}

func TestFullHelp(t *testing.T) {
	km := DefaultKeyMap()

	groups := km.FullHelp()

	require.Len(t, groups, 3)
	assert.Len(t, groups[0], 3) // Up, Down, Select
	assert.Len(t, groups[1], 4) // Search, NextType, Back, Cancel
	assert.Len(t, groups[2], 2) // Help, Quit
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("q", km.Quit))
	assert.True(t, Matches("ctrl+c", km.Quit))
	assert.True(t, Matches("tab", km.NextType))
	assert.True(t, Matches("k", km.Up))

	assert.False(t, Matches("x", km.Quit))
	assert.False(t, Matches("down", km.Up))
}
