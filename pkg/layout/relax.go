package layout

import (
	"math"

	"github.com/recera/kgcanvas/pkg/geom"
	"github.com/recera/kgcanvas/pkg/scene"
)

// Physics configures Relax.
type Physics struct {
	Repulsion       float64 // default 2000
	SpringLength    float64 // default 120
	SpringStiffness float64 // default 0.05
	Damping         float64 // default 0.85
	Gravity         float64 // default 0.01, pulls toward Center
	Center          geom.Point
	Step            float64 // integration step, default 0.016
}

// DefaultPhysics returns the relaxation constants.
func DefaultPhysics() Physics {
	return Physics{
		Repulsion:       2000,
		SpringLength:    120,
		SpringStiffness: 0.05,
		Damping:         0.85,
		Gravity:         0.01,
		Center:          geom.Pt(400, 300),
		Step:            0.016,
	}
}

func (p Physics) withDefaults() Physics {
	d := DefaultPhysics()
	if p.Repulsion <= 0 {
		p.Repulsion = d.Repulsion
	}
	if p.SpringLength <= 0 {
		p.SpringLength = d.SpringLength
	}
	if p.SpringStiffness <= 0 {
		p.SpringStiffness = d.SpringStiffness
	}
	if p.Damping <= 0 || p.Damping >= 1 {
		p.Damping = d.Damping
	}
	if p.Gravity < 0 {
		p.Gravity = d.Gravity
	}
	if p.Center == (geom.Point{}) {
		p.Center = d.Center
	}
	if p.Step <= 0 {
		p.Step = d.Step
	}
	return p
}

// Relax runs iterations of spring/repulsion relaxation starting from start
// (nodes missing from start begin at their current position). It can be
// resumed by feeding its result back in as start.
func Relax(nodes []scene.Node, edges []scene.Edge, start map[scene.NodeID]geom.Point, iterations int, ph Physics) map[scene.NodeID]geom.Point {
	ph = ph.withDefaults()
	n := len(nodes)
	pos := make([]geom.Point, n)
	index := make(map[scene.NodeID]int, n)
	for i, nd := range nodes {
		index[nd.ID] = i
		pos[i] = nd.Position
		if p, ok := start[nd.ID]; ok {
			pos[i] = p
		}
	}
	vel := make([]geom.Point, n)

	for it := 0; it < iterations; it++ {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				d := pos[j].Sub(pos[i])
				dist2 := d.X*d.X + d.Y*d.Y + 0.01
				f := d.Mul(ph.Repulsion / dist2 / math.Sqrt(dist2))
				vel[i] = vel[i].Sub(f)
				vel[j] = vel[j].Add(f)
			}
		}
		for _, e := range edges {
			si, ok1 := index[e.Source]
			ti, ok2 := index[e.Target]
			if !ok1 || !ok2 || si == ti {
				continue
			}
			d := pos[ti].Sub(pos[si])
			dist := d.Len()
			if dist == 0 {
				continue
			}
			f := d.Mul(ph.SpringStiffness * (dist - ph.SpringLength) / dist)
			vel[si] = vel[si].Add(f)
			vel[ti] = vel[ti].Sub(f)
		}
		for i := range pos {
			if ph.Gravity > 0 {
				vel[i] = vel[i].Sub(pos[i].Sub(ph.Center).Mul(ph.Gravity))
			}
			vel[i] = vel[i].Mul(ph.Damping)
			next := pos[i].Add(vel[i].Mul(ph.Step))
			if next.Finite() {
				pos[i] = next
			} else {
				vel[i] = geom.Point{}
			}
		}
	}

	out := make(map[scene.NodeID]geom.Point, n)
	for i, nd := range nodes {
		out[nd.ID] = pos[i]
	}
	return out
}
