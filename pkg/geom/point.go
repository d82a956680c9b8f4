// Package geom holds the coordinate math shared by every canvas: points,
// rectangles and the scale+translate viewport that maps scene space onto
// screen space.
package geom

import "math"

// Point is a 2D coordinate. Whether it is in scene or screen space depends on
// the caller.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

func (p Point) Mul(k float64) Point { return Point{p.X * k, p.Y * k} }

// Len returns the euclidean length of p as a vector.
func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }

// Dist returns the distance between p and q.
func (p Point) Dist(q Point) float64 { return p.Sub(q).Len() }

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool { return finite(p.X) && finite(p.Y) }

// Rect is an axis-aligned rectangle given by its min and max corners.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// Width of r. Never negative.
func (r Rect) Width() float64 { return math.Max(0, r.Max.X-r.Min.X) }

// Height of r. Never negative.
func (r Rect) Height() float64 { return math.Max(0, r.Max.Y-r.Min.Y) }

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{(r.Min.X + r.Max.X) / 2, (r.Min.Y + r.Max.Y) / 2}
}

// Contains reports whether p lies inside r or on its border.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Expand grows r so that it also covers the circle at c with radius rad.
// The zero Rect is treated as empty only when empty is true.
func (r Rect) Expand(c Point, rad float64, empty bool) Rect {
	lo := Point{c.X - rad, c.Y - rad}
	hi := Point{c.X + rad, c.Y + rad}
	if empty {
		return Rect{Min: lo, Max: hi}
	}
	return Rect{
		Min: Point{math.Min(r.Min.X, lo.X), math.Min(r.Min.Y, lo.Y)},
		Max: Point{math.Max(r.Max.X, hi.X), math.Max(r.Max.Y, hi.Y)},
	}
}

// SegmentDistance returns the distance from p to the segment a-b.
func SegmentDistance(p, a, b Point) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / l2
	t = Clamp(t, 0, 1)
	return p.Dist(a.Add(ab.Mul(t)))
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
