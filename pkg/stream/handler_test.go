package stream

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerFunc(t *testing.T) {
	t.Run("forwards events and errors", func(t *testing.T) {
		var events []Event
		var captured error

		handler := HandlerFunc{
			EventFunc: func(e Event) { events = append(events, e) },
			ErrorFunc: func(err error) { captured = err },
		}

		handler.OnEvent(StartEvent{Message: "go"})
		handler.OnError(errors.New("boom"))

		assert.Equal(t, []Event{StartEvent{Message: "go"}}, events)
		assert.EqualError(t, captured, "boom")
	})

	t.Run("nil funcs are no-ops", func(t *testing.T) {
		assert.NotPanics(t, func() {
			HandlerFunc{}.OnEvent(ProgressEvent{})
			HandlerFunc{}.OnError(errors.New("ignored"))
		})
	})
}
