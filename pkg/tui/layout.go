package tui

type Rect struct {
	X, Y, Width, Height int
}

func NewRect(x, y, width, height int) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

func (r Rect) Right() int {
	return r.X + r.Width
}

func (r Rect) Bottom() int {
	return r.Y + r.Height
}

func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Layout splits the screen into the transcript, a one-line alert row,
// the input box and the status bar, top to bottom.
type Layout struct {
	ScreenWidth  int
	ScreenHeight int
	InputHeight  int
	StatusHeight int
	AlertHeight  int
}

func NewLayout(width, height int) Layout {
	return Layout{
		ScreenWidth:  width,
		ScreenHeight: height,
		InputHeight:  3,
		StatusHeight: 1,
		AlertHeight:  1,
	}
}

func (l Layout) CalculateAreas() (messages, alert, input, status Rect) {
	status = NewRect(0, l.ScreenHeight-l.StatusHeight, l.ScreenWidth, l.StatusHeight)
	input = NewRect(0, status.Y-l.InputHeight, l.ScreenWidth, l.InputHeight)
	alert = NewRect(0, input.Y-l.AlertHeight, l.ScreenWidth, l.AlertHeight)

	messagesHeight := alert.Y
	if messagesHeight < 0 {
		messagesHeight = 0
	}
	messages = NewRect(0, 0, l.ScreenWidth, messagesHeight)
	return messages, alert, input, status
}

// WrapText breaks text into lines no wider than width runes, preferring
// to break on spaces. Embedded newlines always start a new line.
func WrapText(text string, width int) []string {
	if width <= 0 || text == "" {
		return []string{}
	}

	var lines []string
	for _, paragraph := range splitLines(text) {
		lines = append(lines, wrapParagraph(paragraph, width)...)
	}
	return lines
}

func splitLines(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r == '\n' {
			out = append(out, text[start:i])
			start = i + 1
		}
	}
	return append(out, text[start:])
}

func wrapParagraph(text string, width int) []string {
	runes := []rune(text)
	if len(runes) <= width {
		return []string{text}
	}

	var lines []string
	for len(runes) > 0 {
		if len(runes) <= width {
			lines = append(lines, string(runes))
			break
		}

		breakPos := width
		for i := width - 1; i > 0; i-- {
			if runes[i] == ' ' {
				breakPos = i
				break
			}
		}

		lines = append(lines, string(runes[:breakPos]))
		runes = runes[breakPos:]
		for len(runes) > 0 && runes[0] == ' ' {
			runes = runes[1:]
		}
	}
	return lines
}

// VisibleLines returns the window of lines that fits height when the view
// is scrolled up by scroll lines from the bottom.
func VisibleLines(lines []string, height, scroll int) []string {
	if height <= 0 || len(lines) == 0 {
		return []string{}
	}

	maxScroll := len(lines) - height
	if maxScroll < 0 {
		maxScroll = 0
	}
	if scroll > maxScroll {
		scroll = maxScroll
	}
	if scroll < 0 {
		scroll = 0
	}

	end := len(lines) - scroll
	start := end - height
	if start < 0 {
		start = 0
	}
	return lines[start:end]
}
