package canvas

// Field is a single-line or multi-line text-editing widget.
type Field interface {
	SetValue(v string)
	Value() string
	HasFocus() bool
}

// Sync pushes an externally changed value into f. A focused field is left
// alone so an edit in progress is not overwritten and the caret does not
// jump. It reports whether f was written.
func Sync(f Field, value string) bool {
	if f.HasFocus() || f.Value() == value {
		return false
	}
	f.SetValue(value)
	return true
}

// TextField is an in-memory Field holding what an editing client has typed.
type TextField struct {
	value    string
	focused  bool
	onCommit func(string) error
}

// NewTextField returns a field holding value. onCommit runs on Blur.
func NewTextField(value string, onCommit func(string) error) *TextField {
	return &TextField{value: value, onCommit: onCommit}
}

func (f *TextField) SetValue(v string) { f.value = v }
func (f *TextField) Value() string     { return f.value }
func (f *TextField) HasFocus() bool    { return f.focused }

// Focus gives the field input focus.
func (f *TextField) Focus() { f.focused = true }

// Input records a keystroke-level change made by the user.
func (f *TextField) Input(v string) { f.value = v }

// Blur drops focus and commits the value.
func (f *TextField) Blur() error {
	f.focused = false
	if f.onCommit == nil {
		return nil
	}
	return f.onCommit(f.value)
}
