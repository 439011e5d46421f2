// Package tui is the terminal dashboard: an access gate, a login form and
// a tabbed view for generating content, browsing generation records and
// managing users.
//
// Model.Update is a pure reducer over key and result messages. Every call
// into the services runs inside a tea.Cmd and reports back with a message,
// so the model itself never blocks.
package tui
