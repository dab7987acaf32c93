package selection

import "github.com/killallgit/deckchat/pkg/deck"

// Reader is the part of a selection store the bridge needs
type Reader interface {
	Read() Pinned
	Clear()
}

// Bridge turns the pinned selection into request context and clears it
// once a turn has succeeded
type Bridge struct {
	store Reader
}

func NewBridge(store Reader) *Bridge {
	return &Bridge{store: store}
}

// Capture reads the selection once. The result shares no memory with the
// store; nil means nothing is pinned.
func (b *Bridge) Capture() *deck.SlideContext {
	pinned := b.store.Read()
	if len(pinned.Indices) == 0 {
		return nil
	}

	ctx := &deck.SlideContext{
		Indices:    make([]int, len(pinned.Indices)),
		SlideHTMLs: make([]string, len(pinned.Slides)),
	}
	copy(ctx.Indices, pinned.Indices)
	copy(ctx.SlideHTMLs, pinned.Slides)
	return ctx
}

// Clear empties the selection
func (b *Bridge) Clear() {
	b.store.Clear()
}

// Pinned returns the currently pinned indices that resolve to slides
func (b *Bridge) Pinned() []int {
	return b.store.Read().Indices
}
