package scene

import "iter"

// Filter decides which parts of a scene are visible.
type Filter struct {
	// Categories lists the visible categories. Empty means all.
	Categories map[Category]bool
	// MinStrength hides edges of a lower tier. Zero shows every edge.
	MinStrength Strength
}

// NewFilter returns a filter showing the given categories.
func NewFilter(cats ...Category) Filter {
	f := Filter{}
	if len(cats) > 0 {
		f.Categories = make(map[Category]bool, len(cats))
		for _, c := range cats {
			f.Categories[c] = true
		}
	}
	return f
}

// ShowsCategory reports whether nodes of category c are visible.
func (f Filter) ShowsCategory(c Category) bool {
	return len(f.Categories) == 0 || f.Categories[c]
}

// ShowsStrength reports whether edges of tier st pass the strength threshold.
func (f Filter) ShowsStrength(st Strength) bool {
	return st >= f.MinStrength
}

// VisibleNodes yields the nodes that pass f.
func (s *Scene) VisibleNodes(f Filter) iter.Seq[Node] {
	return s.NodesByCategory(f.Categories)
}

// IsVisible reports whether the node exists and passes f.
func (s *Scene) IsVisible(id NodeID, f Filter) bool {
	n, ok := s.Node(id)
	return ok && f.ShowsCategory(n.Category)
}

// VisibleEdges yields the edges whose endpoints are both visible and whose
// strength passes the threshold.
func (s *Scene) VisibleEdges(f Filter) iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		for e := range s.Edges() {
			if !f.ShowsStrength(e.Strength) {
				continue
			}
			if !s.IsVisible(e.Source, f) || !s.IsVisible(e.Target, f) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}
