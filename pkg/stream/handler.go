package stream

// Handler receives the decoded events of one generation request.
// Calls for a request are made from a single goroutine, in emission order.
type Handler interface {
	// OnEvent is called once per decoded event
	OnEvent(event Event)

	// OnError is called when the request fails before a terminal event
	OnError(err error)
}

// HandlerFunc is a function adapter for Handler interface
type HandlerFunc struct {
	EventFunc func(event Event)
	ErrorFunc func(err error)
}

// OnEvent implements Handler
func (h HandlerFunc) OnEvent(event Event) {
	if h.EventFunc != nil {
		h.EventFunc(event)
	}
}

// OnError implements Handler
func (h HandlerFunc) OnError(err error) {
	if h.ErrorFunc != nil {
		h.ErrorFunc(err)
	}
}

// Ensure implementations satisfy the interface
var _ Handler = HandlerFunc{}
