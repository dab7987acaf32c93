package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/killallgit/deckchat/pkg/chat"
	"github.com/killallgit/deckchat/pkg/controllers"
	"github.com/mattn/go-runewidth"
)

type styledLine struct {
	text  string
	style tcell.Style
}

// RenderMessages draws the transcript into area, anchored to the bottom and
// scrolled up by scroll lines.
func RenderMessages(screen tcell.Screen, messages []chat.Message, area Rect, scroll int) {
	if area.Width <= 0 || area.Height <= 0 {
		return
	}
	clearArea(screen, area)

	var lines []styledLine
	for i, msg := range messages {
		if i > 0 {
			lines = append(lines, styledLine{})
		}
		label, style := messageLabel(msg)
		for _, line := range WrapText(label+messageBody(msg), area.Width) {
			lines = append(lines, styledLine{text: line, style: style})
		}
	}

	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.text
	}
	visible := VisibleLines(texts, area.Height, scroll)
	offset := len(lines) - len(visible) - clampScroll(len(lines), area.Height, scroll)

	for row := range visible {
		l := lines[offset+row]
		renderText(screen, area.X, area.Y+row, area.Width, l.text, l.style)
	}
}

func clampScroll(total, height, scroll int) int {
	maxScroll := total - height
	if maxScroll < 0 {
		maxScroll = 0
	}
	if scroll > maxScroll {
		return maxScroll
	}
	if scroll < 0 {
		return 0
	}
	return scroll
}

func messageLabel(msg chat.Message) (string, tcell.Style) {
	switch {
	case msg.IsUser():
		return "You: ", StyleUserText
	case msg.HasToolCall():
		return "→ ", StyleToolText
	case msg.IsTool():
		return fmt.Sprintf("Tool(%s): ", msg.ToolCallID), StyleDimText
	default:
		return "Assistant: ", StyleAssistantText
	}
}

func messageBody(msg chat.Message) string {
	if !msg.HasToolCall() {
		return msg.Content
	}
	if len(msg.ToolCall.Arguments) == 0 {
		return msg.ToolCall.Name
	}

	keys := make([]string, 0, len(msg.ToolCall.Arguments))
	for k := range msg.ToolCall.Arguments {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, len(keys))
	for i, k := range keys {
		args[i] = fmt.Sprintf("%s=%v", k, msg.ToolCall.Arguments[k])
	}
	return msg.ToolCall.Name + " " + strings.Join(args, " ")
}

// RenderAlert draws the single alert row. Errors win over feedback, which
// wins over the loading text, which wins over local notices.
func RenderAlert(screen tcell.Screen, snap controllers.Snapshot, notice string, area Rect) {
	if area.Width <= 0 || area.Height <= 0 {
		return
	}
	clearArea(screen, area)

	text, style := alertLine(snap, notice)
	renderText(screen, area.X, area.Y, area.Width, text, style)
}

func alertLine(snap controllers.Snapshot, notice string) (string, tcell.Style) {
	switch {
	case snap.Error != "":
		return "✗ " + snap.Error, StyleStatusError
	case snap.Feedback != "":
		return "✓ " + snap.Feedback + "  (/dismiss)", StyleFeedback
	case snap.LoadingText != "":
		return "… " + snap.LoadingText, StyleStatusBusy
	default:
		return notice, StyleDimText
	}
}

// RenderInput draws the bordered input box and places the cursor.
func RenderInput(screen tcell.Screen, field InputField, area Rect, active bool) {
	if area.Width < 3 || area.Height < 3 {
		return
	}
	clearArea(screen, area)

	style := StyleBorder
	if active {
		style = StyleBorderActive
	}
	drawBox(screen, area, style)

	content, cursor := field.WithWidth(area.Width - 4).Visible()
	renderText(screen, area.X+2, area.Y+1, area.Width-4, content, tcell.StyleDefault)

	if active {
		screen.ShowCursor(area.X+2+runewidth.StringWidth(string([]rune(content)[:cursor])), area.Y+1)
	} else {
		screen.HideCursor()
	}
}

func drawBox(screen tcell.Screen, area Rect, style tcell.Style) {
	right, bottom := area.Right()-1, area.Bottom()-1
	for x := area.X + 1; x < right; x++ {
		screen.SetContent(x, area.Y, tcell.RuneHLine, nil, style)
		screen.SetContent(x, bottom, tcell.RuneHLine, nil, style)
	}
	for y := area.Y + 1; y < bottom; y++ {
		screen.SetContent(area.X, y, tcell.RuneVLine, nil, style)
		screen.SetContent(right, y, tcell.RuneVLine, nil, style)
	}
	screen.SetContent(area.X, area.Y, tcell.RuneULCorner, nil, style)
	screen.SetContent(right, area.Y, tcell.RuneURCorner, nil, style)
	screen.SetContent(area.X, bottom, tcell.RuneLLCorner, nil, style)
	screen.SetContent(right, bottom, tcell.RuneLRCorner, nil, style)
}

// RenderStatus draws the session, state, deck size and pinned slides.
func RenderStatus(screen tcell.Screen, snap controllers.Snapshot, slides int, area Rect) {
	if area.Width <= 0 || area.Height <= 0 {
		return
	}
	clearArea(screen, area)

	session := snap.SessionID
	if session == "" {
		session = "none"
	}

	style := StyleStatusReady
	switch snap.State {
	case controllers.StateSending:
		style = StyleStatusBusy
	case controllers.StateError:
		style = StyleStatusError
	}

	left := fmt.Sprintf("Session: %s | %s | Slides: %d", session, snap.State, slides)
	x := renderText(screen, area.X, area.Y, area.Width, left, style)

	if len(snap.Pinned) > 0 {
		pinned := " | Pinned: " + FormatSlideNumbers(snap.Pinned)
		renderText(screen, x, area.Y, area.Right()-x, pinned, StylePinned)
	}
}

// FormatSlideNumbers renders 0-based indices as 1-based slide numbers.
func FormatSlideNumbers(indices []int) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = fmt.Sprint(idx + 1)
	}
	return strings.Join(parts, ",")
}

func clearArea(screen tcell.Screen, area Rect) {
	for y := area.Y; y < area.Bottom(); y++ {
		for x := area.X; x < area.Right(); x++ {
			screen.SetContent(x, y, ' ', nil, tcell.StyleDefault)
		}
	}
}

// renderText draws text clipped to width and returns the next free column.
func renderText(screen tcell.Screen, x, y, width int, text string, style tcell.Style) int {
	col := x
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			w = 1
		}
		if col+w > x+width {
			break
		}
		screen.SetContent(col, y, r, nil, style)
		col += w
	}
	return col
}
