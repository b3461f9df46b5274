package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Tabs      []key.Binding
	NextTab   key.Binding
	PrevTab   key.Binding
	Focus     key.Binding
	Up        key.Binding
	Down      key.Binding
	Filter    key.Binding
	Submit    key.Binding
	Clear     key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tabs: []key.Binding{
			key.NewBinding(key.WithKeys("f1"), key.WithHelp("F1", "并发症查询")),
			key.NewBinding(key.WithKeys("f2"), key.WithHelp("F2", "ADRG查询")),
			key.NewBinding(key.WithKeys("f3"), key.WithHelp("F3", "不应编码")),
			key.NewBinding(key.WithKeys("f4"), key.WithHelp("F4", "入组查询")),
		},
		NextTab:   key.NewBinding(key.WithKeys("ctrl+right"), key.WithHelp("ctrl+→", "next tab")),
		PrevTab:   key.NewBinding(key.WithKeys("ctrl+left"), key.WithHelp("ctrl+←", "prev tab")),
		Focus:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "focus")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "down")),
		Filter:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		Clear:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
	}
}
