// Package pick locates the node or edge under a screen coordinate.
package pick

import (
	"iter"
	"math"

	"github.com/recera/kgcanvas/pkg/geom"
	"github.com/recera/kgcanvas/pkg/scene"
)

// DefaultTolerance is the slack, in screen pixels, added around every hit
// shape.
const DefaultTolerance = 5.0

// Circle is a node's hit area in screen space.
type Circle struct {
	Center geom.Point
	Radius float64
}

// Contains reports whether p lies inside or on the circle.
func (c Circle) Contains(p geom.Point) bool {
	dx := p.X - c.Center.X
	dy := p.Y - c.Center.Y
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// ScreenCircle returns n's circle on screen, inflated by tolerance.
func ScreenCircle(n scene.Node, v geom.Viewport, tolerance float64) Circle {
	return Circle{
		Center: geom.SceneToScreen(n.Position, v),
		Radius: n.Radius*v.Scale + sanitizeTolerance(tolerance),
	}
}

// Node returns the first node, in the order nodes yields them, whose screen
// circle contains point. There is no z-order, so insertion order decides
// between overlapping nodes.
func Node(nodes iter.Seq[scene.Node], v geom.Viewport, point geom.Point, tolerance float64) (scene.NodeID, bool) {
	if !point.Finite() {
		return "", false
	}
	v = v.Sanitize()
	for n := range nodes {
		if ScreenCircle(n, v, tolerance).Contains(point) {
			return n.ID, true
		}
	}
	return "", false
}

// Resolver looks up a node by id.
type Resolver func(scene.NodeID) (scene.Node, bool)

// Edge returns the edge closest to point whose rendered segment passes within
// tolerance plus half its stroke width. Ties keep the earlier edge.
func Edge(edges iter.Seq[scene.Edge], resolve Resolver, v geom.Viewport, point geom.Point, tolerance float64) (scene.EdgeID, bool) {
	if !point.Finite() {
		return "", false
	}
	v = v.Sanitize()
	tolerance = sanitizeTolerance(tolerance)

	var best scene.EdgeID
	bestDist := math.Inf(1)
	for e := range edges {
		a, ok1 := resolve(e.Source)
		b, ok2 := resolve(e.Target)
		if !ok1 || !ok2 {
			continue
		}
		d := geom.SegmentDistance(point,
			geom.SceneToScreen(a.Position, v),
			geom.SceneToScreen(b.Position, v))
		if d <= tolerance+e.Strength.Width()/2 && d < bestDist {
			best, bestDist = e.ID, d
		}
	}
	return best, best != ""
}

// IsEdgeIncident reports whether node is one of e's endpoints. Edges store
// node ids, so this is an exact comparison.
func IsEdgeIncident(e scene.Edge, node scene.NodeID) bool {
	return node != "" && (e.Source == node || e.Target == node)
}

func sanitizeTolerance(t float64) float64 {
	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		return 0
	}
	return t
}
