package deck

// Slide is one rendered slide as produced by the generation backend
type Slide struct {
	ID   string `json:"slide_id,omitempty"`
	HTML string `json:"html"`
}

// SlideDeck is the full deck returned by a completed turn
type SlideDeck struct {
	Title  string  `json:"title,omitempty"`
	CSS    string  `json:"css,omitempty"`
	Slides []Slide `json:"slides"`
}

// Len returns the number of slides, treating a nil deck as empty
func (d *SlideDeck) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Slides)
}

// Clone returns a deep copy of the deck
func (d *SlideDeck) Clone() *SlideDeck {
	if d == nil {
		return nil
	}
	out := *d
	out.Slides = append([]Slide(nil), d.Slides...)
	return &out
}

// SlideContext scopes a turn to the slides the user pinned.
// Indices and SlideHTMLs are parallel and 0-based into the current deck.
type SlideContext struct {
	Indices    []int    `json:"indices"`
	SlideHTMLs []string `json:"slide_htmls"`
}

// Empty reports whether the context pins nothing
func (c *SlideContext) Empty() bool {
	return c == nil || len(c.Indices) == 0
}

// Clone returns a deep copy so a captured context cannot change mid-turn
func (c *SlideContext) Clone() *SlideContext {
	if c == nil {
		return nil
	}
	return &SlideContext{
		Indices:    append([]int(nil), c.Indices...),
		SlideHTMLs: append([]string(nil), c.SlideHTMLs...),
	}
}

// ReplacementInfo describes how pinned slides were replaced by a turn
type ReplacementInfo struct {
	OriginalCount    int  `json:"original_count"`
	ReplacementCount int  `json:"replacement_count"`
	NetChange        *int `json:"net_change,omitempty"`
}

// Net returns net_change, defaulting to replacement_count - original_count
func (r ReplacementInfo) Net() int {
	if r.NetChange != nil {
		return *r.NetChange
	}
	return r.ReplacementCount - r.OriginalCount
}
