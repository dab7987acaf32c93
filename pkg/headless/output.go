package headless

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/killallgit/deckchat/pkg/chat"
	"github.com/killallgit/deckchat/pkg/logger"
)

// Output renders transcript entries and status lines for headless mode.
// Colors are dropped automatically when the writer is not a terminal.
type Output struct {
	mu sync.Mutex
	w  io.Writer

	userStyle      lipgloss.Style
	assistantStyle lipgloss.Style
	toolStyle      lipgloss.Style
	statusStyle    lipgloss.Style
	errorStyle     lipgloss.Style
	feedbackStyle  lipgloss.Style

	chromaFormatter chroma.Formatter
}

// NewOutput creates an output writing to w
func NewOutput(w io.Writer) *Output {
	renderer := lipgloss.NewRenderer(w)

	formatter := formatters.Get("terminal16m")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	return &Output{
		w:               w,
		chromaFormatter: formatter,

		userStyle:      renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFB000")),
		assistantStyle: renderer.NewStyle().Foreground(lipgloss.Color("#00FF87")),
		toolStyle:      renderer.NewStyle().Foreground(lipgloss.Color("#FF80FF")),
		statusStyle:    renderer.NewStyle().Foreground(lipgloss.Color("#A9A9A9")).Italic(true),
		errorStyle:     renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6347")),
		feedbackStyle: renderer.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#32CD32")).
			Padding(0, 1),
	}
}

// Message prints one transcript entry
func (o *Output) Message(msg chat.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case msg.ToolCall != nil:
		args := ""
		if len(msg.ToolCall.Arguments) > 0 {
			args = " " + formatArguments(msg.ToolCall.Arguments)
		}
		fmt.Fprintln(o.w, o.toolStyle.Render("-> "+msg.ToolCall.Name+args))
	case msg.IsTool():
		fmt.Fprintln(o.w, o.toolStyle.Render("<- "+msg.ToolCallID+": "+oneLine(msg.Content, 200)))
	case msg.IsUser():
		fmt.Fprintln(o.w, o.userStyle.Render("you>")+" "+msg.Content)
	default:
		fmt.Fprintln(o.w, o.assistantStyle.Render(msg.Content))
	}
}

// Status prints transient progress text
func (o *Output) Status(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.w, o.statusStyle.Render("... "+text))
}

// Error prints a failure and records it in the log
func (o *Output) Error(msg string) {
	logger.Error("%s", msg)

	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.w, o.errorStyle.Render("error: "+msg))
}

// Feedback prints the replacement summary in a box
func (o *Output) Feedback(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.w, o.feedbackStyle.Render(text))
}

// HTML prints a syntax highlighted document
func (o *Output) HTML(content string) {
	if content == "" {
		return
	}
	highlighted := o.highlight(content, "html")

	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.w, highlighted)
}

// Printf writes plain text
func (o *Output) Printf(format string, args ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.w, format, args...)
}

func (o *Output) highlight(content, language string) string {
	log := logger.WithComponent("headless_output")

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(content)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		log.Debug("Failed to tokenize, using plain text", "error", err)
		return content
	}

	var buf strings.Builder
	if err := o.chromaFormatter.Format(&buf, styles.Get("monokai"), iterator); err != nil {
		log.Debug("Failed to format, using plain text", "error", err)
		return content
	}
	return buf.String()
}

func formatArguments(args map[string]any) string {
	parts := make([]string, 0, len(args))
	for k, v := range args {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max-3]) + "..."
	}
	return s
}
