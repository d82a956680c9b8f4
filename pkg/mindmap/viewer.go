// Package mindmap is the pan and zoom controller of the mind-map viewer. It
// shares the viewport contract of the graph canvas but has no picking or
// selection: the map is a single picture.
package mindmap

import (
	"math"

	"github.com/recera/kgcanvas/pkg/geom"
)

// Options tunes a Viewer.
type Options struct {
	Limits geom.Limits
	// WheelStep is the scale change of one wheel notch.
	WheelStep float64
	// ButtonStep is the scale change of the zoom buttons.
	ButtonStep float64
	// Size is the canvas size in pixels. Button zoom is anchored at its centre.
	Size geom.Point
}

// DefaultOptions returns the settings of the mind-map page.
func DefaultOptions() Options {
	return Options{
		Limits:     geom.MindMapLimits,
		WheelStep:  0.1,
		ButtonStep: 0.2,
		Size:       geom.Pt(800, 600),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if !o.Limits.Valid() {
		o.Limits = d.Limits
	}
	if !(o.WheelStep > 0) || math.IsInf(o.WheelStep, 0) {
		o.WheelStep = d.WheelStep
	}
	if !(o.ButtonStep > 0) || math.IsInf(o.ButtonStep, 0) {
		o.ButtonStep = d.ButtonStep
	}
	if !o.Size.Finite() || o.Size.X <= 0 || o.Size.Y <= 0 {
		o.Size = d.Size
	}
	return o
}

// Viewer tracks the viewport of one mind-map canvas.
type Viewer struct {
	opts     Options
	viewport geom.Viewport
	dragging bool
	anchor   geom.Point
}

// New creates a viewer at the identity viewport.
func New(opts Options) *Viewer {
	opts = opts.withDefaults()
	return &Viewer{opts: opts, viewport: geom.Identity(opts.Limits)}
}

// Viewport returns the current viewport.
func (v *Viewer) Viewport() geom.Viewport { return v.viewport }

// Dragging reports whether a pan gesture is running.
func (v *Viewer) Dragging() bool { return v.dragging }

// SetSize updates the canvas size.
func (v *Viewer) SetSize(size geom.Point) {
	if size.Finite() && size.X > 0 && size.Y > 0 {
		v.opts.Size = size
	}
}

// Press starts panning at point.
func (v *Viewer) Press(point geom.Point) {
	if !point.Finite() {
		return
	}
	v.dragging = true
	v.anchor = point.Sub(v.viewport.Translate)
}

// Move pans while a gesture is running.
func (v *Viewer) Move(point geom.Point) {
	if !v.dragging || !point.Finite() {
		return
	}
	v.viewport = geom.PanBy(v.viewport, point.Sub(v.anchor).Sub(v.viewport.Translate))
}

// Release ends the pan gesture.
func (v *Viewer) Release() { v.dragging = false }

// Wheel zooms one notch about point. Negative deltaY zooms in.
func (v *Viewer) Wheel(point geom.Point, deltaY float64) {
	if deltaY == 0 || math.IsNaN(deltaY) {
		return
	}
	step := v.opts.WheelStep
	if deltaY > 0 {
		step = -step
	}
	v.viewport = geom.ZoomAtPoint(v.viewport, point, step)
}

// ZoomIn zooms about the canvas centre.
func (v *Viewer) ZoomIn() { v.zoomCentre(v.opts.ButtonStep) }

// ZoomOut zooms out about the canvas centre.
func (v *Viewer) ZoomOut() { v.zoomCentre(-v.opts.ButtonStep) }

func (v *Viewer) zoomCentre(delta float64) {
	v.viewport = geom.ZoomAtPoint(v.viewport, v.opts.Size.Mul(0.5), delta)
}

// Reset returns to the identity viewport and drops any gesture.
func (v *Viewer) Reset() {
	v.viewport = geom.Identity(v.opts.Limits)
	v.dragging = false
}
