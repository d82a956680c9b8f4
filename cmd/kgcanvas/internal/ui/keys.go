package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keyboard shortcuts
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Back    key.Binding
	Tab     key.Binding
	Quit    key.Binding
	Help    key.Binding
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Reset   key.Binding
	Fit     key.Binding
	Menu    key.Binding
	Delete  key.Binding
	Layout  key.Binding
	Filter  key.Binding
	Links   key.Binding
	MindMap key.Binding
	Yes     key.Binding
	No      key.Binding
}

var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "confirm"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab", "shift+tab"),
		key.WithHelp("tab", "next field"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "q"),
		key.WithHelp("q", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	ZoomIn: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "zoom in"),
	),
	ZoomOut: key.NewBinding(
		key.WithKeys("-", "_"),
		key.WithHelp("-", "zoom out"),
	),
	Reset: key.NewBinding(
		key.WithKeys("0"),
		key.WithHelp("0", "reset view"),
	),
	Fit: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "fit"),
	),
	Menu: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add child"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d", "delete"),
		key.WithHelp("d", "delete"),
	),
	Layout: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "layout"),
	),
	Filter: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "category"),
	),
	Links: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "link strength"),
	),
	MindMap: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "mind map"),
	),
	Yes: key.NewBinding(
		key.WithKeys("y", "enter"),
		key.WithHelp("y", "yes"),
	),
	No: key.NewBinding(
		key.WithKeys("n", "esc"),
		key.WithHelp("n", "no"),
	),
}

// helpKeys picks the bindings that apply to one screen.
type helpKeys struct {
	short []key.Binding
	full  [][]key.Binding
}

func (h helpKeys) ShortHelp() []key.Binding  { return h.short }
func (h helpKeys) FullHelp() [][]key.Binding { return h.full }

func (k KeyMap) canvasHelp() helpKeys {
	return helpKeys{
		short: []key.Binding{k.Menu, k.Delete, k.Layout, k.MindMap, k.Help, k.Quit},
		full: [][]key.Binding{
			{k.ZoomIn, k.ZoomOut, k.Reset, k.Fit},
			{k.Menu, k.Delete},
			{k.Layout, k.Filter, k.Links},
			{k.MindMap, k.Help, k.Quit},
		},
	}
}

func (k KeyMap) menuHelp() helpKeys {
	bs := []key.Binding{k.Up, k.Down, k.Enter, k.Back}
	return helpKeys{short: bs, full: [][]key.Binding{bs}}
}

func (k KeyMap) dialogHelp() helpKeys {
	bs := []key.Binding{k.Tab, k.Enter, k.Back}
	return helpKeys{short: bs, full: [][]key.Binding{bs}}
}

func (k KeyMap) confirmHelp() helpKeys {
	bs := []key.Binding{k.Yes, k.No}
	return helpKeys{short: bs, full: [][]key.Binding{bs}}
}

func (k KeyMap) mindMapHelp() helpKeys {
	bs := []key.Binding{k.ZoomIn, k.ZoomOut, k.Reset, k.MindMap, k.Quit}
	return helpKeys{short: bs, full: [][]key.Binding{bs}}
}
