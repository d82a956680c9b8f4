package interact

import (
	"maps"
	"slices"

	"github.com/recera/kgcanvas/pkg/geom"
	"github.com/recera/kgcanvas/pkg/scene"
)

// Session is the transient pointer state of one canvas.
type Session struct {
	Dragging    bool
	DragAnchor  geom.Point
	Selection   map[scene.NodeID]struct{}
	Highlighted map[scene.EdgeID]struct{}
	// Hover is the node under the pointer while no gesture is running.
	Hover scene.NodeID
}

func newSession() Session {
	return Session{
		Selection:   make(map[scene.NodeID]struct{}),
		Highlighted: make(map[scene.EdgeID]struct{}),
	}
}

// IsSelected reports whether id is in the active selection.
func (s Session) IsSelected(id scene.NodeID) bool {
	_, ok := s.Selection[id]
	return ok
}

// IsHighlighted reports whether the edge is highlighted.
func (s Session) IsHighlighted(id scene.EdgeID) bool {
	_, ok := s.Highlighted[id]
	return ok
}

// Selected returns the selected node ids, sorted.
func (s Session) Selected() []scene.NodeID {
	return slices.Sorted(maps.Keys(s.Selection))
}

// HighlightedEdges returns the highlighted edge ids, sorted.
func (s Session) HighlightedEdges() []scene.EdgeID {
	return slices.Sorted(maps.Keys(s.Highlighted))
}

func (s Session) clone() Session {
	c := s
	c.Selection = maps.Clone(s.Selection)
	c.Highlighted = maps.Clone(s.Highlighted)
	return c
}
