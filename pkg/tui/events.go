package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/killallgit/deckchat/pkg/controllers"
)

// SnapshotEvent carries controller state from OnChange into the event loop.
type SnapshotEvent struct {
	tcell.EventTime
	Snapshot controllers.Snapshot
}

func NewSnapshotEvent(s controllers.Snapshot) *SnapshotEvent {
	ev := &SnapshotEvent{Snapshot: s}
	ev.SetEventNow()
	return ev
}

// SessionLoadedEvent reports the end of a background session load.
type SessionLoadedEvent struct {
	tcell.EventTime
	SessionID string
	Err       error
}

func NewSessionLoadedEvent(id string, err error) *SessionLoadedEvent {
	ev := &SessionLoadedEvent{SessionID: id, Err: err}
	ev.SetEventNow()
	return ev
}

type quitEvent struct {
	tcell.EventTime
}

func newQuitEvent() *quitEvent {
	ev := &quitEvent{}
	ev.SetEventNow()
	return ev
}
