package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the dashboard. Printable keys are
// only bound where no text input has focus.
type KeyMap struct {
	Up   key.Binding
	Down key.Binding

	NextTab key.Binding
	PrevTab key.Binding

	Submit key.Binding
	Back   key.Binding

	// Records tab.
	Search    key.Binding
	CycleType key.Binding
	CycleDate key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	ClearAll  key.Binding

	// Users tab.
	NewUser      key.Binding
	ToggleActive key.Binding
	DeleteUser   key.Binding

	Logout key.Binding
	Quit   key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "上移"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "下移"),
	),
	NextTab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "下一頁籤"),
	),
	PrevTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("S-tab", "上一頁籤"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "確定"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "返回"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "搜尋"),
	),
	CycleType: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "類型"),
	),
	CycleDate: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "日期"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("n", "right", "pgdown"),
		key.WithHelp("n/→", "下一頁"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("p", "left", "pgup"),
		key.WithHelp("p/←", "上一頁"),
	),
	ClearAll: key.NewBinding(
		key.WithKeys("X"),
		key.WithHelp("X", "清除記錄"),
	),
	NewUser: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "新增使用者"),
	),
	ToggleActive: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "停用/啟用"),
	),
	DeleteUser: key.NewBinding(
		key.WithKeys("D"),
		key.WithHelp("D", "刪除"),
	),
	Logout: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("C-l", "登出"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("C-c", "離開"),
	),
}
