package tui

import "strings"

// input is a single-line text buffer.
type input struct {
	label  string
	value  []rune
	masked bool
}

func (in *input) HandleRune(r rune) {
	in.value = append(in.value, r)
}

// HandleBackspace removes the last rune. It reports whether anything
// was removed.
func (in *input) HandleBackspace() bool {
	if len(in.value) == 0 {
		return false
	}
	in.value = in.value[:len(in.value)-1]
	return true
}

func (in *input) Clear() {
	in.value = nil
}

func (in *input) Value() string {
	return string(in.value)
}

// Render shows the buffer, masked for passwords, with a cursor when
// focused.
func (in *input) Render(focused bool) string {
	text := string(in.value)
	if in.masked {
		text = strings.Repeat("•", len(in.value))
	}
	if focused {
		text += "█"
	}
	return text
}

// form is an ordered set of inputs with one focused field.
type form struct {
	fields []*input
	focus  int
}

func newForm(fields ...*input) *form {
	return &form{fields: fields}
}

func (f *form) Focused() *input {
	return f.fields[f.focus]
}

func (f *form) Next() {
	f.focus = (f.focus + 1) % len(f.fields)
}

func (f *form) Prev() {
	f.focus = (f.focus - 1 + len(f.fields)) % len(f.fields)
}

func (f *form) Reset() {
	for _, in := range f.fields {
		in.Clear()
	}
	f.focus = 0
}
