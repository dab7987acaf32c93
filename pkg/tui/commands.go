package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const helpText = "/pin N.. · /unpin [N..] · /dismiss · /session ID · /cancel · /quit"

type command struct {
	name string
	args []string
}

// parseCommand splits a slash command line. ok is false for plain messages.
func parseCommand(line string) (command, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{}, false
	}
	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return command{}, true
	}
	return command{name: strings.ToLower(fields[0]), args: fields[1:]}, true
}

// slideIndices converts 1-based slide numbers, separated by spaces or
// commas, to 0-based indices.
func slideIndices(args []string) ([]int, error) {
	var out []int
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("invalid slide number %q", part)
			}
			out = append(out, n-1)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no slide numbers given")
	}
	return out, nil
}

// runCommand executes cmd and returns the notice to show.
func (a *App) runCommand(ctx context.Context, cmd command) string {
	switch cmd.name {
	case "pin":
		indices, err := slideIndices(cmd.args)
		if err != nil {
			return err.Error()
		}
		for _, i := range indices {
			if _, ok := a.holder.SlideHTML(i); !ok {
				return fmt.Sprintf("slide %d is not in the deck", i+1)
			}
		}
		a.pins.Pin(indices...)
		return "Pinned slides " + FormatSlideNumbers(a.pins.Indices())

	case "unpin":
		if len(cmd.args) == 0 {
			a.pins.Clear()
			return "Cleared pinned slides"
		}
		indices, err := slideIndices(cmd.args)
		if err != nil {
			return err.Error()
		}
		a.pins.Unpin(indices...)
		if len(a.pins.Indices()) == 0 {
			return "Cleared pinned slides"
		}
		return "Pinned slides " + FormatSlideNumbers(a.pins.Indices())

	case "dismiss":
		a.controller.DismissReplacement()
		return ""

	case "session":
		if len(cmd.args) != 1 {
			return "usage: /session ID"
		}
		a.LoadSession(ctx, cmd.args[0])
		return "Loading session " + cmd.args[0] + "..."

	case "cancel":
		a.controller.Cancel()
		return ""

	case "quit", "exit":
		a.quit = true
		return ""

	case "help", "":
		return helpText

	default:
		return fmt.Sprintf("unknown command /%s (try /help)", cmd.name)
	}
}
