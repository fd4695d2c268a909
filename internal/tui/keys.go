package tui

import (
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/momentum/internal/ui/layout"
)

type keyMap struct {
	Options []key.Binding
	Prev    key.Binding
	Next    key.Binding
	Submit  key.Binding
	Yes     key.Binding
	No      key.Binding
	Skip    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Options: []key.Binding{
			key.NewBinding(key.WithKeys("1", "a"), key.WithHelp("1-4", "answer")),
			key.NewBinding(key.WithKeys("2", "b")),
			key.NewBinding(key.WithKeys("3", "c")),
			key.NewBinding(key.WithKeys("4", "d")),
		},
		Prev:   key.NewBinding(key.WithKeys("left", "h", "p"), key.WithHelp("←", "prev")),
		Next:   key.NewBinding(key.WithKeys("right", "l", "n", "enter"), key.WithHelp("→", "next")),
		Submit: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "submit")),
		Yes:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		No:     key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		Skip:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "skip")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// hints turns bindings into footer hints.
func hints(bs ...key.Binding) []layout.KeyHint {
	out := make([]layout.KeyHint, 0, len(bs))
	for _, b := range bs {
		h := b.Help()
		out = append(out, layout.KeyHint{Key: h.Key, Description: h.Desc})
	}
	return out
}

// option returns the index of the option key pressed, or -1.
func (k keyMap) option(msg tea.KeyPressMsg) int {
	for i, b := range k.Options {
		if key.Matches(msg, b) {
			return i
		}
	}
	return -1
}

func pressed(msg tea.KeyPressMsg, b key.Binding) bool { return key.Matches(msg, b) }
