package geom

import "math"

// Limits bounds the viewport scale.
type Limits struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

var (
	// GraphLimits are the scale bounds of the knowledge graph canvas.
	GraphLimits = Limits{Min: 0.5, Max: 2.0}
	// MindMapLimits are the scale bounds of the mind-map viewer.
	MindMapLimits = Limits{Min: 0.5, Max: 3.0}
)

// Valid reports whether l describes a usable, non-empty positive range.
func (l Limits) Valid() bool {
	return finite(l.Min) && finite(l.Max) && l.Min > 0 && l.Max >= l.Min
}

func (l Limits) clamp(s float64) float64 { return Clamp(s, l.Min, l.Max) }

// Viewport maps scene space to screen space: q = p*Scale + Translate.
type Viewport struct {
	Scale     float64 `json:"scale"`
	Translate Point   `json:"translate"`
	Limits    Limits  `json:"limits"`
}

// Identity returns the scale=1, translate=(0,0) viewport for the given
// limits. Invalid limits fall back to GraphLimits.
func Identity(l Limits) Viewport {
	if !l.Valid() {
		l = GraphLimits
	}
	return Viewport{Scale: l.clamp(1), Limits: l}
}

// Valid reports whether v can be used for coordinate conversion.
func (v Viewport) Valid() bool {
	return v.Limits.Valid() && finite(v.Scale) && v.Scale > 0 && v.Translate.Finite()
}

// Sanitize returns v when it is valid. A corrupted viewport becomes the
// identity for its limits, with the scale pulled back into range.
func (v Viewport) Sanitize() Viewport {
	if !v.Limits.Valid() {
		v.Limits = GraphLimits
	}
	if !finite(v.Scale) || v.Scale <= 0 || !v.Translate.Finite() {
		return Identity(v.Limits)
	}
	v.Scale = v.Limits.clamp(v.Scale)
	return v
}

// SceneToScreen maps a scene point onto the screen.
func SceneToScreen(p Point, v Viewport) Point {
	v = v.Sanitize()
	return Point{p.X*v.Scale + v.Translate.X, p.Y*v.Scale + v.Translate.Y}
}

// ScreenToScene is the inverse of SceneToScreen.
func ScreenToScene(q Point, v Viewport) Point {
	v = v.Sanitize()
	return Point{(q.X - v.Translate.X) / v.Scale, (q.Y - v.Translate.Y) / v.Scale}
}

// ZoomAtPoint changes the scale by delta while keeping the scene point under
// screen point s fixed on the screen. The new scale is clamped to the
// viewport limits; when clamping leaves it unchanged, v is returned as is.
// Non-finite input is ignored.
func ZoomAtPoint(v Viewport, s Point, delta float64) Viewport {
	v = v.Sanitize()
	if !finite(delta) || !s.Finite() {
		return v
	}
	newScale := v.Limits.clamp(v.Scale + delta)
	if newScale == v.Scale {
		return v
	}
	ratio := newScale / v.Scale
	v.Translate = Point{
		X: s.X - ratio*(s.X-v.Translate.X),
		Y: s.Y - ratio*(s.Y-v.Translate.Y),
	}
	v.Scale = newScale
	return v.Sanitize()
}

// PanBy shifts the translation by delta. The scale is never touched.
func PanBy(v Viewport, delta Point) Viewport {
	v = v.Sanitize()
	if !delta.Finite() {
		return v
	}
	t := v.Translate.Add(delta)
	if !t.Finite() {
		return v
	}
	v.Translate = t
	return v
}

// Fit returns a viewport that shows all of bounds inside a screen of the
// given size with padding on every side. The scale is clamped to the limits.
func Fit(v Viewport, bounds Rect, size Point, padding float64) Viewport {
	v = v.Sanitize()
	if !size.Finite() || !finite(padding) || size.X <= 0 || size.Y <= 0 {
		return v
	}
	gw, gh := bounds.Width(), bounds.Height()
	if gw <= 0 {
		gw = 1
	}
	if gh <= 0 {
		gh = 1
	}
	s := math.Min((size.X-2*padding)/gw, (size.Y-2*padding)/gh)
	if !finite(s) || s <= 0 {
		s = 1
	}
	s = v.Limits.clamp(s)
	c := bounds.Center()
	return Viewport{
		Scale:     s,
		Translate: Point{size.X*0.5 - c.X*s, size.Y*0.5 - c.Y*s},
		Limits:    v.Limits,
	}.Sanitize()
}

// FocusOn centres scene point p on a screen of the given size at scale s.
func FocusOn(v Viewport, p Point, size Point, s float64) Viewport {
	v = v.Sanitize()
	if !p.Finite() || !size.Finite() || !finite(s) || s <= 0 {
		return v
	}
	s = v.Limits.clamp(s)
	return Viewport{
		Scale:     s,
		Translate: Point{size.X*0.5 - p.X*s, size.Y*0.5 - p.Y*s},
		Limits:    v.Limits,
	}.Sanitize()
}

// Matrix returns v as a 2D affine matrix [a b c d e f] in the order used by
// canvas setTransform.
func (v Viewport) Matrix() [6]float64 {
	return [6]float64{v.Scale, 0, 0, v.Scale, v.Translate.X, v.Translate.Y}
}
