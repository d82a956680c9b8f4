// Package layout computes node placements for a graph canvas. Every strategy
// is a pure function from the current nodes to a new position per node id.
package layout

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/recera/kgcanvas/pkg/geom"
	"github.com/recera/kgcanvas/pkg/scene"
)

// Mode names a layout strategy.
type Mode string

const (
	Force     Mode = "force"
	Cluster   Mode = "cluster"
	Hierarchy Mode = "hierarchy"
)

// ErrUnknownMode is returned for a mode name that is not a strategy.
var ErrUnknownMode = errors.New("unknown layout mode")

// Modes lists the strategies in the order hosts offer them.
func Modes() []Mode { return []Mode{Force, Cluster, Hierarchy} }

// ParseMode parses a mode name. The empty string selects Force.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return Force, nil
	case Force, Cluster, Hierarchy:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Options tunes the strategies.
type Options struct {
	// Root is the central node of the hierarchy layout. When empty or
	// missing, the first node is used.
	Root scene.NodeID
	// Anchor is where the hierarchy layout places the central node.
	Anchor geom.Point
	// Columns, ColumnWidth and RowHeight shape the hierarchy grid.
	Columns     int
	ColumnWidth float64
	RowHeight   float64
	// RingRadius spreads nodes that share a category home in the force reset.
	RingRadius float64
	// Iterations of Relax run after the force reset. Zero keeps the reset static.
	Iterations int
	Physics    Physics
}

// DefaultOptions returns the placement constants of the dashboard canvas.
func DefaultOptions() Options {
	return Options{
		Anchor:      geom.Pt(400, 100),
		Columns:     4,
		ColumnWidth: 150,
		RowHeight:   100,
		RingRadius:  60,
		Physics:     DefaultPhysics(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Anchor == (geom.Point{}) || !o.Anchor.Finite() {
		o.Anchor = d.Anchor
	}
	if o.Columns <= 0 {
		o.Columns = d.Columns
	}
	if o.ColumnWidth <= 0 {
		o.ColumnWidth = d.ColumnWidth
	}
	if o.RowHeight <= 0 {
		o.RowHeight = d.RowHeight
	}
	if o.RingRadius <= 0 {
		o.RingRadius = d.RingRadius
	}
	if o.Iterations < 0 {
		o.Iterations = 0
	}
	o.Physics = o.Physics.withDefaults()
	return o
}

// Apply runs the strategy named by mode over nodes (in insertion order) and
// returns the new position of every node. edges are only used by Relax.
func Apply(mode Mode, nodes []scene.Node, edges []scene.Edge, opts Options) (map[scene.NodeID]geom.Point, error) {
	opts = opts.withDefaults()
	switch mode {
	case Force, "":
		pos := HomeReset(nodes, opts)
		if opts.Iterations > 0 {
			pos = Relax(nodes, edges, pos, opts.Iterations, opts.Physics)
		}
		return pos, nil
	case Cluster:
		return ClusterScale(nodes), nil
	case Hierarchy:
		return Grid(nodes, opts), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
}

// HomeReset puts every node back at the home position of its category.
// Nodes sharing a category are spread evenly on a ring around that home.
func HomeReset(nodes []scene.Node, opts Options) map[scene.NodeID]geom.Point {
	opts = opts.withDefaults()
	counts := make(map[scene.Category]int)
	for _, n := range nodes {
		counts[n.Category]++
	}
	seen := make(map[scene.Category]int)
	out := make(map[scene.NodeID]geom.Point, len(nodes))
	for _, n := range nodes {
		home := n.Category.Style().Home
		k, total := seen[n.Category], counts[n.Category]
		seen[n.Category]++
		if total == 1 {
			out[n.ID] = home
			continue
		}
		angle := 2 * math.Pi * float64(k) / float64(total)
		out[n.ID] = home.Add(geom.Pt(math.Cos(angle), math.Sin(angle)).Mul(opts.RingRadius))
	}
	return out
}

// ClusterScale pulls concept nodes toward the origin and squashes courseware
// nodes vertically. Other categories keep their positions.
func ClusterScale(nodes []scene.Node) map[scene.NodeID]geom.Point {
	out := make(map[scene.NodeID]geom.Point, len(nodes))
	for _, n := range nodes {
		p := n.Position
		switch n.Category {
		case scene.Concept:
			p = p.Mul(0.8)
		case scene.Courseware:
			p = geom.Pt(p.X*1.1, p.Y*0.7)
		}
		out[n.ID] = p
	}
	return out
}

// Grid places the central node at the anchor and the remaining nodes, in
// order, on a grid centred under it. The first row sits one row height below
// the anchor.
func Grid(nodes []scene.Node, opts Options) map[scene.NodeID]geom.Point {
	opts = opts.withDefaults()
	out := make(map[scene.NodeID]geom.Point, len(nodes))
	if len(nodes) == 0 {
		return out
	}
	root := nodes[0].ID
	for _, n := range nodes {
		if n.ID == opts.Root {
			root = n.ID
			break
		}
	}
	out[root] = opts.Anchor

	left := opts.Anchor.X - float64(opts.Columns-1)*opts.ColumnWidth/2
	top := opts.Anchor.Y + opts.RowHeight
	i := 0
	for _, n := range nodes {
		if n.ID == root {
			continue
		}
		col, row := i%opts.Columns, i/opts.Columns
		out[n.ID] = geom.Pt(left+float64(col)*opts.ColumnWidth, top+float64(row)*opts.RowHeight)
		i++
	}
	return out
}
