package keys

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap_ToggleHighlight(t *testing.T) {
	km := DefaultKeyMap()

	require.Equal(t, []string{"m"}, km.ToggleHighlight.Keys())
	require.Equal(t, "toggle highlight mode", km.ToggleHighlight.Help().Desc)
}

func TestDefaultKeyMap_QuitMatchesCtrlC(t *testing.T) {
	km := DefaultKeyMap()

	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlC}, km.Quit))
	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}, km.Quit))
	require.False(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}}, km.Quit))
}

func TestFullHelp_ContainsEveryBinding(t *testing.T) {
	km := DefaultKeyMap()

	var count int
	seen := map[string]bool{}
	for _, group := range km.FullHelp() {
		for _, b := range group {
			require.NotEmpty(t, b.Help().Key)
			require.False(t, seen[b.Help().Key], "duplicate help key %q", b.Help().Key)
			seen[b.Help().Key] = true
			count++
		}
	}
	require.Equal(t, 8, count)
}

func TestShortHelp_EndsWithQuit(t *testing.T) {
	km := DefaultKeyMap()
	short := km.ShortHelp()

	require.NotEmpty(t, short)
	require.Equal(t, km.Quit.Help(), short[len(short)-1].Help())
}
