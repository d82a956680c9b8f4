// Package interact is the interaction state machine of a graph canvas. An
// Engine owns one Viewport, one Scene and one Session and mutates them in
// response to pointer, keyboard and wheel events, strictly in arrival order.
//
// The engine is not safe for concurrent use. Hosts serialise events through
// a single loop.
package interact

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"go.uber.org/zap"

	"github.com/recera/kgcanvas/pkg/geom"
	"github.com/recera/kgcanvas/pkg/layout"
	"github.com/recera/kgcanvas/pkg/pick"
	"github.com/recera/kgcanvas/pkg/scene"
)

// Config holds the host-overridable constants.
type Config struct {
	Limits           geom.Limits
	WheelZoomStep    float64
	ChildDistanceMin float64
	ChildDistanceMax float64
	HitTolerance     float64
	Layout           layout.Options
}

// DefaultConfig returns the constants of the knowledge graph canvas.
func DefaultConfig() Config {
	return Config{
		Limits:           geom.GraphLimits,
		WheelZoomStep:    0.1,
		ChildDistanceMin: 100,
		ChildDistanceMax: 150,
		HitTolerance:     pick.DefaultTolerance,
		Layout:           layout.DefaultOptions(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if !c.Limits.Valid() {
		c.Limits = d.Limits
	}
	if c.WheelZoomStep <= 0 || math.IsNaN(c.WheelZoomStep) || math.IsInf(c.WheelZoomStep, 0) {
		c.WheelZoomStep = d.WheelZoomStep
	}
	if c.ChildDistanceMin <= 0 && c.ChildDistanceMax <= 0 {
		c.ChildDistanceMin, c.ChildDistanceMax = d.ChildDistanceMin, d.ChildDistanceMax
	}
	if c.ChildDistanceMax < c.ChildDistanceMin {
		c.ChildDistanceMax = c.ChildDistanceMin
	}
	if c.HitTolerance < 0 || math.IsNaN(c.HitTolerance) {
		c.HitTolerance = d.HitTolerance
	}
	return c
}

// Hooks are the outbound calls into the host. Nil hooks are skipped.
type Hooks struct {
	// OnStatus shows a transient message.
	OnStatus func(message string, kind StatusKind)
	// OnNodeActivated fires on a double activation of a node.
	OnNodeActivated func(id scene.NodeID)
	// RequestConfirm asks the user to confirm a destructive action and
	// reports the answer through decide. decide must be called on the
	// engine's event loop. Without this hook the action runs unconfirmed.
	RequestConfirm func(prompt string, decide func(ok bool))
}

// Option configures an Engine.
type Option func(*Engine)

// WithHooks sets the host hooks.
func WithHooks(h Hooks) Option { return func(e *Engine) { e.hooks = h } }

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithRand sets the random source used for child placement.
func WithRand(r *rand.Rand) Option { return func(e *Engine) { e.rng = r } }

// Menu is the open context menu.
type Menu struct {
	Parent  scene.NodeID     `json:"parent"`
	At      geom.Point       `json:"at"`
	Options []scene.Category `json:"options"`
}

// Engine is the interaction state machine of one canvas.
type Engine struct {
	cfg    Config
	hooks  Hooks
	log    *zap.Logger
	rng    *rand.Rand
	editor *Editor

	scene    *scene.Scene
	viewport geom.Viewport
	state    State
	session  Session
	filter   scene.Filter
	mode     layout.Mode
	menu     *Menu
	dialog   *Dialog
}

// New creates an engine over sc. A nil scene starts empty.
func New(sc *scene.Scene, cfg Config, opts ...Option) *Engine {
	if sc == nil {
		sc = scene.New()
	}
	cfg = cfg.withDefaults()
	e := &Engine{
		cfg:      cfg,
		log:      zap.NewNop(),
		scene:    sc,
		viewport: geom.Identity(cfg.Limits),
		session:  newSession(),
		mode:     layout.Force,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.editor = NewEditor(e.rng, cfg.ChildDistanceMin, cfg.ChildDistanceMax)
	e.syncSelection()
	return e
}

// State returns the current state.
func (e *Engine) State() State { return e.state }

// Viewport returns the current viewport.
func (e *Engine) Viewport() geom.Viewport { return e.viewport }

// Scene returns the scene. Callers must not mutate it outside the event loop.
func (e *Engine) Scene() *scene.Scene { return e.scene }

// Session returns a copy of the interaction session.
func (e *Engine) Session() Session { return e.session.clone() }

// Filter returns the visibility filter.
func (e *Engine) Filter() scene.Filter { return e.filter }

// LayoutMode returns the last applied layout mode.
func (e *Engine) LayoutMode() layout.Mode { return e.mode }

// Menu returns the open context menu.
func (e *Engine) Menu() (Menu, bool) {
	if e.menu == nil {
		return Menu{}, false
	}
	return *e.menu, true
}

// Dialog returns the pending node dialog.
func (e *Engine) Dialog() (Dialog, bool) {
	if e.dialog == nil {
		return Dialog{}, false
	}
	return *e.dialog, true
}

// Handle dispatches ev to the matching method.
func (e *Engine) Handle(ev Event) error {
	switch ev := ev.(type) {
	case PrimaryPress:
		return e.PrimaryPress(ev.Point)
	case SecondaryPress:
		return e.SecondaryPress(ev.Point)
	case DragStart:
		return e.DragStart(ev.Point)
	case PointerMove:
		e.PointerMove(ev.Point)
		return nil
	case DragEnd:
		e.DragEnd()
		return nil
	case Wheel:
		e.Wheel(ev.Point, ev.DeltaY)
		return nil
	case DoubleActivate:
		return e.DoubleActivate(ev.Point)
	case ChooseCategory:
		return e.ChooseCategory(ev.Category)
	case ConfirmNode:
		_, err := e.ConfirmNode(ev.NameZh, ev.NameEn)
		return err
	case CancelDialog:
		e.CancelDialog()
		return nil
	case CloseMenu:
		e.CloseMenu()
		return nil
	case SelectLayoutMode:
		return e.SelectLayoutMode(ev.Mode)
	case ApplyCategoryFilter:
		e.ApplyCategoryFilter(ev.Categories)
		return nil
	case SetMinLinkStrength:
		e.SetMinLinkStrength(ev.Strength)
		return nil
	case ResetView:
		e.ResetView()
		return nil
	case DeleteSelected:
		return e.DeleteSelected()
	case nil:
		return fmt.Errorf("handle: nil event")
	}
	return fmt.Errorf("handle: unsupported event %s", ev.Name())
}

// PrimaryPress toggles the selection of the node under point. A press on
// empty canvas clears the selection; a press while the menu is open only
// dismisses the menu.
func (e *Engine) PrimaryPress(point geom.Point) error {
	switch e.state {
	case MenuOpen:
		e.menu = nil
		e.setState(e.resting())
		return nil
	case Panning, NodeDialogOpen:
		return e.refuse("primaryPress")
	}
	id, hit := e.pickNode(point)
	if !hit {
		e.clearSelection()
		e.setState(Idle)
		return nil
	}
	wasSelected := e.session.IsSelected(id)
	e.clearSelection()
	if !wasSelected {
		e.selectNode(id)
	}
	e.setState(e.resting())
	return nil
}

// SecondaryPress opens the context menu on the node under point. Pressing
// empty canvas closes an open menu.
func (e *Engine) SecondaryPress(point geom.Point) error {
	switch e.state {
	case Panning, NodeDialogOpen:
		return e.refuse("secondaryPress")
	}
	id, hit := e.pickNode(point)
	if !hit {
		if e.state == MenuOpen {
			e.CloseMenu()
		}
		return nil
	}
	e.menu = &Menu{Parent: id, At: point, Options: scene.Categories()}
	e.setState(MenuOpen)
	return nil
}

// CloseMenu dismisses the context menu.
func (e *Engine) CloseMenu() {
	if e.state != MenuOpen {
		return
	}
	e.menu = nil
	e.setState(e.resting())
}

// ChooseCategory picks a category from the open menu and opens the node
// dialog with a provisional child position.
func (e *Engine) ChooseCategory(c scene.Category) error {
	if e.state != MenuOpen || e.menu == nil {
		return e.refuse("chooseCategory")
	}
	if !c.Known() {
		return fmt.Errorf("choose category %q: %w", c, ErrUnknownCategory)
	}
	parent, ok := e.scene.Node(e.menu.Parent)
	if !ok {
		id := e.menu.Parent
		e.CloseMenu()
		return fmt.Errorf("choose category: parent %s: %w", id, scene.ErrUnknownNode)
	}
	e.dialog = &Dialog{
		Parent:   parent.ID,
		Category: c,
		Position: e.editor.ChildPosition(parent.Position),
	}
	e.menu = nil
	e.setState(NodeDialogOpen)
	return nil
}

// ConfirmNode creates the node of the open dialog. Invalid names keep the
// dialog open; a vanished parent closes it.
func (e *Engine) ConfirmNode(nameZh, nameEn string) (scene.NodeID, error) {
	if e.state != NodeDialogOpen || e.dialog == nil {
		return "", e.refuse("confirmNode")
	}
	id, _, err := e.editor.Create(e.scene, *e.dialog, nameZh, nameEn)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			e.status(ve.Message, StatusError)
			return "", err
		}
		e.status("Could not add node", StatusError)
		e.log.Warn("node creation failed", zap.Error(err))
		e.dialog = nil
		e.setState(e.resting())
		return "", err
	}
	// The new edge is incident to the parent, which may be selected.
	e.recomputeHighlight()
	n, _ := e.scene.Node(id)
	e.log.Debug("node created",
		zap.String("id", string(id)),
		zap.String("category", string(n.Category)),
		zap.String("parent", string(e.dialog.Parent)))
	e.status(fmt.Sprintf("Added %s %q", n.Category.Style().Label, n.LabelPrimary), StatusSuccess)
	e.dialog = nil
	e.setState(e.resting())
	return id, nil
}

// CancelDialog discards the node dialog, or the menu when that is open.
func (e *Engine) CancelDialog() {
	switch e.state {
	case NodeDialogOpen:
		e.dialog = nil
		e.setState(e.resting())
	case MenuOpen:
		e.CloseMenu()
	}
}

// DragStart begins panning from point.
func (e *Engine) DragStart(point geom.Point) error {
	if e.state != Idle && e.state != NodeSelected {
		return e.refuse("dragStart")
	}
	if !point.Finite() {
		return nil
	}
	e.session.Dragging = true
	e.session.DragAnchor = point.Sub(e.viewport.Translate)
	e.session.Hover = ""
	e.setState(Panning)
	return nil
}

// PointerMove pans while Panning and tracks the hovered node otherwise.
func (e *Engine) PointerMove(point geom.Point) {
	if !point.Finite() {
		return
	}
	switch e.state {
	case Panning:
		delta := point.Sub(e.session.DragAnchor).Sub(e.viewport.Translate)
		e.viewport = geom.PanBy(e.viewport, delta)
	case Idle, NodeSelected:
		id, _ := e.pickNode(point)
		e.session.Hover = id
	}
}

// DragEnd finishes a pan gesture.
func (e *Engine) DragEnd() {
	if e.state != Panning {
		return
	}
	e.session.Dragging = false
	e.setState(e.resting())
}

// Wheel zooms one step about point. It works in every state.
func (e *Engine) Wheel(point geom.Point, deltaY float64) {
	if deltaY == 0 || math.IsNaN(deltaY) {
		return
	}
	step := e.cfg.WheelZoomStep
	if deltaY > 0 {
		step = -step
	}
	e.viewport = geom.ZoomAtPoint(e.viewport, point, step)
}

// Zoom changes the scale by delta about point. Hosts use it for zoom buttons.
func (e *Engine) Zoom(point geom.Point, delta float64) {
	e.viewport = geom.ZoomAtPoint(e.viewport, point, delta)
}

// ResetView restores the identity viewport.
func (e *Engine) ResetView() {
	e.viewport = geom.Identity(e.cfg.Limits)
}

// FitView shows every node on a screen of the given size.
func (e *Engine) FitView(size geom.Point, padding float64) {
	if b, ok := e.scene.Bounds(); ok {
		e.viewport = geom.Fit(e.viewport, b, size, padding)
	}
}

// DoubleActivate reports the node under point to the host.
func (e *Engine) DoubleActivate(point geom.Point) error {
	if e.state != Idle && e.state != NodeSelected {
		return e.refuse("doubleActivate")
	}
	id, hit := e.pickNode(point)
	if hit && e.hooks.OnNodeActivated != nil {
		e.hooks.OnNodeActivated(id)
	}
	return nil
}

// SelectLayoutMode repositions every node with the named strategy.
func (e *Engine) SelectLayoutMode(mode layout.Mode) error {
	if e.state == Panning {
		return e.refuse("selectLayoutMode")
	}
	opts := e.cfg.Layout
	opts.Root = e.scene.Root()
	pos, err := layout.Apply(mode, slices.Collect(e.scene.Nodes()), slices.Collect(e.scene.Edges()), opts)
	if err != nil {
		return err
	}
	for id, p := range pos {
		if err := e.scene.Move(id, p); err != nil {
			return err
		}
	}
	if mode == "" {
		mode = layout.Force
	}
	e.mode = mode
	e.status(fmt.Sprintf("Layout: %s", mode), StatusInfo)
	return nil
}

// ApplyCategoryFilter shows only the given categories. An empty list shows
// all of them. Hidden nodes drop out of the selection.
func (e *Engine) ApplyCategoryFilter(cats []scene.Category) {
	e.filter.Categories = nil
	if len(cats) > 0 {
		e.filter.Categories = make(map[scene.Category]bool, len(cats))
		for _, c := range cats {
			e.filter.Categories[c] = true
		}
	}
	e.syncSelection()
}

// SetMinLinkStrength hides edges below tier s.
func (e *Engine) SetMinLinkStrength(s scene.Strength) {
	e.filter.MinStrength = s
}

// DeleteSelected removes the selected nodes and their edges after the host
// confirms.
func (e *Engine) DeleteSelected() error {
	if e.state != NodeSelected {
		return e.refuse("deleteSelected")
	}
	ids := e.session.Selected()
	prompt := fmt.Sprintf("Delete %d nodes and their links?", len(ids))
	if len(ids) == 1 {
		n, _ := e.scene.Node(ids[0])
		prompt = fmt.Sprintf("Delete %q and its links?", n.LabelPrimary)
	}
	if e.hooks.RequestConfirm == nil {
		e.removeNodes(ids)
		return nil
	}
	e.hooks.RequestConfirm(prompt, func(ok bool) {
		if ok {
			e.removeNodes(ids)
		}
	})
	return nil
}

func (e *Engine) removeNodes(ids []scene.NodeID) {
	removed := 0
	for _, id := range ids {
		edges, err := e.scene.RemoveNode(id)
		if err != nil {
			continue
		}
		removed++
		e.log.Debug("node removed", zap.String("id", string(id)), zap.Int("edges", len(edges)))
	}
	e.syncSelection()
	if e.state == NodeSelected || e.state == Idle {
		e.setState(e.resting())
	}
	if removed > 0 {
		e.status(fmt.Sprintf("Deleted %d node(s)", removed), StatusSuccess)
	}
}

// ReplaceScene swaps in a new scene, as after a reload. The viewport is kept;
// the session, menu and dialog are reset.
func (e *Engine) ReplaceScene(sc *scene.Scene) {
	if sc == nil {
		sc = scene.New()
	}
	e.scene = sc
	e.session = newSession()
	e.menu = nil
	e.dialog = nil
	e.setState(Idle)
	e.syncSelection()
}

func (e *Engine) pickNode(point geom.Point) (scene.NodeID, bool) {
	return pick.Node(e.scene.VisibleNodes(e.filter), e.viewport, point, e.cfg.HitTolerance)
}

func (e *Engine) selectNode(id scene.NodeID) {
	e.session.Selection[id] = struct{}{}
	_ = e.scene.SetSelected(id, true)
	e.recomputeHighlight()
}

func (e *Engine) clearSelection() {
	for id := range e.session.Selection {
		_ = e.scene.SetSelected(id, false)
	}
	clear(e.session.Selection)
	clear(e.session.Highlighted)
}

// syncSelection drops selected nodes that are gone or hidden, mirrors the
// selection onto the scene flags and recomputes highlights.
func (e *Engine) syncSelection() {
	for id := range e.session.Selection {
		if !e.scene.IsVisible(id, e.filter) {
			_ = e.scene.SetSelected(id, false)
			delete(e.session.Selection, id)
		}
	}
	for n := range e.scene.Nodes() {
		if n.Selected && !e.session.IsSelected(n.ID) {
			_ = e.scene.SetSelected(n.ID, false)
		}
	}
	if e.session.Hover != "" && !e.scene.IsVisible(e.session.Hover, e.filter) {
		e.session.Hover = ""
	}
	if e.menu != nil && !e.scene.IsVisible(e.menu.Parent, e.filter) {
		e.menu = nil
		if e.state == MenuOpen {
			e.setState(e.resting())
		}
	}
	e.recomputeHighlight()
	if e.state == NodeSelected && len(e.session.Selection) == 0 {
		e.setState(Idle)
	}
}

func (e *Engine) recomputeHighlight() {
	clear(e.session.Highlighted)
	for id := range e.session.Selection {
		for edge := range e.scene.EdgesIncidentTo(id) {
			e.session.Highlighted[edge.ID] = struct{}{}
		}
	}
}

// resting is the state to return to once a gesture, menu or dialog ends.
func (e *Engine) resting() State {
	if len(e.session.Selection) > 0 {
		return NodeSelected
	}
	return Idle
}

func (e *Engine) setState(s State) {
	if s == e.state {
		return
	}
	e.log.Debug("transition", zap.Stringer("from", e.state), zap.Stringer("to", s))
	e.state = s
}

func (e *Engine) refuse(event string) error {
	return &TransitionError{Event: event, State: e.state}
}

func (e *Engine) status(msg string, kind StatusKind) {
	if e.hooks.OnStatus != nil {
		e.hooks.OnStatus(msg, kind)
	}
}
