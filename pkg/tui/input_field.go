package tui

// InputField is an immutable single-line editor. Cursor counts runes.
type InputField struct {
	Content string
	Cursor  int
	Width   int
}

func NewInputField(width int) InputField {
	return InputField{Width: width}
}

func (f InputField) WithWidth(width int) InputField {
	f.Width = width
	return f
}

func (f InputField) InsertRune(r rune) InputField {
	runes := []rune(f.Content)
	cursor := f.clamp(len(runes))

	out := make([]rune, 0, len(runes)+1)
	out = append(out, runes[:cursor]...)
	out = append(out, r)
	out = append(out, runes[cursor:]...)

	f.Content = string(out)
	f.Cursor = cursor + 1
	return f
}

func (f InputField) DeleteBackward() InputField {
	runes := []rune(f.Content)
	cursor := f.clamp(len(runes))
	if cursor == 0 {
		return f
	}

	f.Content = string(append(runes[:cursor-1:cursor-1], runes[cursor:]...))
	f.Cursor = cursor - 1
	return f
}

func (f InputField) MoveLeft() InputField {
	if f.Cursor > 0 {
		f.Cursor--
	}
	return f
}

func (f InputField) MoveRight() InputField {
	if f.Cursor < len([]rune(f.Content)) {
		f.Cursor++
	}
	return f
}

func (f InputField) Clear() InputField {
	return InputField{Width: f.Width}
}

// Visible returns the slice of content that fits the field and the cursor
// column within it.
func (f InputField) Visible() (string, int) {
	runes := []rune(f.Content)
	cursor := f.clamp(len(runes))
	if f.Width <= 0 || len(runes) < f.Width {
		return string(runes), cursor
	}

	start := 0
	if cursor >= f.Width {
		start = cursor - f.Width + 1
	}
	end := start + f.Width
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[start:end]), cursor - start
}

func (f InputField) clamp(n int) int {
	switch {
	case f.Cursor < 0:
		return 0
	case f.Cursor > n:
		return n
	default:
		return f.Cursor
	}
}
