package models

// Rect is an axis-aligned pixel rectangle. Depending on context its
// coordinates are either in display space (on-screen selection) or in a
// surface's backing pixel space.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Within reports whether r fits entirely inside a w x h area anchored at the
// origin.
func (r Rect) Within(w, h int) bool {
	return r.X >= 0 && r.Y >= 0 && r.X+r.Width <= w && r.Y+r.Height <= h
}
