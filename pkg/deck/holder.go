package deck

import "sync"

// Sink receives decks produced by completed turns
type Sink interface {
	Apply(deck *SlideDeck, rawHTML *string)
}

// Holder keeps the current deck in memory and implements Sink
type Holder struct {
	mu      sync.RWMutex
	deck    *SlideDeck
	rawHTML string
	version int
	notify  []func(*SlideDeck)
}

// NewHolder creates an empty Holder
func NewHolder() *Holder {
	return &Holder{}
}

// Apply replaces the current deck. A nil rawHTML keeps the previous raw HTML.
func (h *Holder) Apply(deck *SlideDeck, rawHTML *string) {
	h.mu.Lock()
	h.deck = deck.Clone()
	if rawHTML != nil {
		h.rawHTML = *rawHTML
	}
	h.version++
	current := h.deck.Clone()
	listeners := append([]func(*SlideDeck){}, h.notify...)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(current)
	}
}

// Current returns a copy of the current deck, or nil before the first Apply
func (h *Holder) Current() *SlideDeck {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.deck.Clone()
}

// RawHTML returns the last raw HTML document received
func (h *Holder) RawHTML() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rawHTML
}

// Version increments on every Apply
func (h *Holder) Version() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.version
}

// SlideHTML returns the HTML of slide i
func (h *Holder) SlideHTML(i int) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.deck == nil || i < 0 || i >= len(h.deck.Slides) {
		return "", false
	}
	return h.deck.Slides[i].HTML, true
}

// OnApply registers fn to run after every Apply
func (h *Holder) OnApply(fn func(*SlideDeck)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notify = append(h.notify, fn)
}

var _ Sink = (*Holder)(nil)
