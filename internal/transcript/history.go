package transcript

import "sync"

// History is an ordered segment list keyed by segment ID.
type History struct {
	mu       sync.RWMutex
	segments []Segment
	ids      map[string]struct{}
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{ids: make(map[string]struct{})}
}

// Add appends seg unless a segment with the same ID is already present.
func (h *History) Add(seg Segment) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.ids[seg.ID]; exists {
		return false
	}
	h.ids[seg.ID] = struct{}{}
	h.segments = append(h.segments, seg)
	return true
}

// Segments returns a copy of the stored segments in insertion order.
func (h *History) Segments() []Segment {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Segment(nil), h.segments...)
}

// Len returns the number of stored segments.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.segments)
}

// Clear drops every stored segment.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.segments = nil
	h.ids = make(map[string]struct{})
}

// Text assembles the stored segment texts into one string.
func (h *History) Text() string {
	segments := h.Segments()
	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		texts = append(texts, seg.Text)
	}
	return Assemble(texts)
}
