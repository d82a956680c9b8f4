package interact

import (
	"github.com/recera/kgcanvas/pkg/geom"
	"github.com/recera/kgcanvas/pkg/layout"
	"github.com/recera/kgcanvas/pkg/scene"
)

// Event is an inbound canvas event. Hosts that decode events from a wire or a
// terminal pass them to Engine.Handle; in-process hosts may call the Engine
// methods directly.
type Event interface {
	Name() string
}

type (
	// PrimaryPress is a left click or tap at a screen point.
	PrimaryPress struct{ Point geom.Point }
	// SecondaryPress is a right click at a screen point.
	SecondaryPress struct{ Point geom.Point }
	// DragStart begins a pan gesture.
	DragStart struct{ Point geom.Point }
	// PointerMove reports the pointer position.
	PointerMove struct{ Point geom.Point }
	// DragEnd ends a pan gesture.
	DragEnd struct{}
	// Wheel is a scroll at a screen point. Negative DeltaY zooms in.
	Wheel struct {
		Point  geom.Point
		DeltaY float64
	}
	// DoubleActivate is a double click at a screen point.
	DoubleActivate struct{ Point geom.Point }

	ChooseCategory struct{ Category scene.Category }
	ConfirmNode    struct{ NameZh, NameEn string }
	CancelDialog   struct{}
	CloseMenu      struct{}

	SelectLayoutMode    struct{ Mode layout.Mode }
	ApplyCategoryFilter struct{ Categories []scene.Category }
	SetMinLinkStrength  struct{ Strength scene.Strength }

	ResetView      struct{}
	DeleteSelected struct{}
)

func (PrimaryPress) Name() string        { return "primaryPress" }
func (SecondaryPress) Name() string      { return "secondaryPress" }
func (DragStart) Name() string           { return "dragStart" }
func (PointerMove) Name() string         { return "pointerMove" }
func (DragEnd) Name() string             { return "dragEnd" }
func (Wheel) Name() string               { return "wheel" }
func (DoubleActivate) Name() string      { return "doubleActivate" }
func (ChooseCategory) Name() string      { return "chooseCategory" }
func (ConfirmNode) Name() string         { return "confirmNode" }
func (CancelDialog) Name() string        { return "cancelDialog" }
func (CloseMenu) Name() string           { return "closeMenu" }
func (SelectLayoutMode) Name() string    { return "selectLayoutMode" }
func (ApplyCategoryFilter) Name() string { return "applyCategoryFilter" }
func (SetMinLinkStrength) Name() string  { return "setMinLinkStrength" }
func (ResetView) Name() string           { return "resetView" }
func (DeleteSelected) Name() string      { return "deleteSelected" }
