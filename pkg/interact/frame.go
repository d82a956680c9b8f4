package interact

import (
	"github.com/recera/kgcanvas/pkg/geom"
	"github.com/recera/kgcanvas/pkg/layout"
	"github.com/recera/kgcanvas/pkg/pick"
	"github.com/recera/kgcanvas/pkg/scene"
)

// NodeView is a visible node with its resolved style and screen geometry.
type NodeView struct {
	scene.Node
	Color        string     `json:"color"`
	Icon         string     `json:"icon"`
	Screen       geom.Point `json:"screen"`
	ScreenRadius float64    `json:"screenRadius"`
	Hovered      bool       `json:"hovered,omitempty"`
}

// EdgeView is a visible edge with both endpoint positions resolved.
type EdgeView struct {
	scene.Edge
	From        geom.Point `json:"from"`
	To          geom.Point `json:"to"`
	Width       float64    `json:"width"`
	Highlighted bool       `json:"highlighted,omitempty"`
}

// Frame is an immutable snapshot of everything a renderer draws. Positions in
// NodeView.Position and EdgeView.From/To are in scene space; draw them with
// Viewport.Matrix or use the Screen fields.
type Frame struct {
	Version  uint64         `json:"version"`
	State    State          `json:"state"`
	Viewport geom.Viewport  `json:"viewport"`
	Layout   layout.Mode    `json:"layout"`
	Nodes    []NodeView     `json:"nodes"`
	Edges    []EdgeView     `json:"edges"`
	Selected []scene.NodeID `json:"selected"`
	Menu     *Menu          `json:"menu,omitempty"`
	Dialog   *Dialog        `json:"dialog,omitempty"`
}

// Frame captures the current render state.
func (e *Engine) Frame() Frame {
	v := e.viewport
	f := Frame{
		Version:  e.scene.Version(),
		State:    e.state,
		Viewport: v,
		Layout:   e.mode,
		Nodes:    []NodeView{},
		Edges:    []EdgeView{},
		Selected: e.session.Selected(),
	}
	pos := make(map[scene.NodeID]geom.Point, e.scene.Len())
	for n := range e.scene.VisibleNodes(e.filter) {
		st := n.Category.Style()
		c := pick.ScreenCircle(n, v, 0)
		pos[n.ID] = n.Position
		f.Nodes = append(f.Nodes, NodeView{
			Node:         n,
			Color:        st.Color,
			Icon:         st.Icon,
			Screen:       c.Center,
			ScreenRadius: c.Radius,
			Hovered:      n.ID == e.session.Hover,
		})
	}
	for ed := range e.scene.VisibleEdges(e.filter) {
		f.Edges = append(f.Edges, EdgeView{
			Edge:        ed,
			From:        pos[ed.Source],
			To:          pos[ed.Target],
			Width:       ed.Strength.Width(),
			Highlighted: e.session.IsHighlighted(ed.ID),
		})
	}
	if e.menu != nil {
		m := *e.menu
		m.Options = append([]scene.Category(nil), m.Options...)
		f.Menu = &m
	}
	if e.dialog != nil {
		d := *e.dialog
		f.Dialog = &d
	}
	return f
}
