package ui

import (
	"errors"
	"slices"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/recera/kgcanvas/pkg/geom"
	"github.com/recera/kgcanvas/pkg/interact"
	"github.com/recera/kgcanvas/pkg/layout"
	"github.com/recera/kgcanvas/pkg/scene"
)

// handleKey routes a key to the prompt, dialog or menu that owns the
// keyboard, falling back to the canvas shortcuts.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return nil
	}
	if m.view == ViewMindMap {
		m.handleMindMapKeys(msg)
		return nil
	}
	switch {
	case m.confirm != nil:
		m.handleConfirmKeys(msg)
		return nil
	case m.engine.State() == interact.NodeDialogOpen:
		return m.handleDialogKeys(msg)
	case m.engine.State() == interact.MenuOpen:
		m.handleMenuKeys(msg)
		return nil
	}
	m.handleCanvasKeys(msg)
	return nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Yes):
		m.answer(true)
	case key.Matches(msg, m.keys.No):
		m.answer(false)
	}
}

// handleDialogKeys handles keyboard input for the node dialog
func (m *Model) handleDialogKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.engine.CancelDialog()
		m.resetInputs()
		return nil

	case key.Matches(msg, m.keys.Tab):
		m.inputs[m.focus].Blur()
		m.focus = (m.focus + 1) % len(m.inputs)
		return m.inputs[m.focus].Focus()

	case key.Matches(msg, m.keys.Enter):
		_, err := m.engine.ConfirmNode(m.inputs[0].Value(), m.inputs[1].Value())
		var ve *interact.ValidationError
		if errors.As(err, &ve) {
			// The engine kept the dialog open and reported the problem.
			return nil
		}
		m.resetInputs()
		return nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return cmd
}

func (m *Model) resetInputs() {
	for i := range m.inputs {
		m.inputs[i].Reset()
		m.inputs[i].Blur()
	}
	m.focus = 0
}

// handleMenuKeys moves through the context menu and picks a category
func (m *Model) handleMenuKeys(msg tea.KeyMsg) {
	menu, ok := m.engine.Menu()
	if !ok {
		return
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case key.Matches(msg, m.keys.Down):
		if m.menuIndex < len(menu.Options)-1 {
			m.menuIndex++
		}
	case key.Matches(msg, m.keys.Enter):
		if m.menuIndex >= len(menu.Options) {
			return
		}
		if err := m.engine.ChooseCategory(menu.Options[m.menuIndex]); err != nil {
			m.log.Debug("choose category failed", zap.Error(err))
			return
		}
		m.resetInputs()
		m.inputs[0].Focus()
	case key.Matches(msg, m.keys.Back):
		m.engine.CloseMenu()
	}
}

// handleCanvasKeys handles the shortcuts of the graph canvas
func (m *Model) handleCanvasKeys(msg tea.KeyMsg) {
	e := m.engine
	centre := m.canvasSize().Mul(0.5)

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.ZoomIn):
		e.Wheel(centre, -1)
	case key.Matches(msg, m.keys.ZoomOut):
		e.Wheel(centre, 1)
	case key.Matches(msg, m.keys.Reset):
		e.ResetView()
	case key.Matches(msg, m.keys.Fit):
		e.FitView(m.canvasSize(), 2*m.opts.Cell.Y)
	case key.Matches(msg, m.keys.Menu):
		m.openMenuOnSelection()
	case key.Matches(msg, m.keys.Delete):
		m.logRefusal(e.DeleteSelected())
	case key.Matches(msg, m.keys.Layout):
		m.logRefusal(e.SelectLayoutMode(nextMode(e.LayoutMode())))
	case key.Matches(msg, m.keys.Filter):
		m.cycleFilter()
	case key.Matches(msg, m.keys.Links):
		m.cycleLinkStrength()
	case key.Matches(msg, m.keys.MindMap):
		m.showMindMap()
	}
}

// openMenuOnSelection opens the context menu on the selected node, the
// keyboard equivalent of a secondary press on it.
func (m *Model) openMenuOnSelection() {
	sel := m.engine.Session().Selected()
	if len(sel) == 0 {
		m.setStatus("Select a node first", interact.StatusWarning)
		return
	}
	n, ok := m.engine.Scene().Node(sel[0])
	if !ok {
		return
	}
	m.menuIndex = 0
	m.logRefusal(m.engine.SecondaryPress(geom.SceneToScreen(n.Position, m.engine.Viewport())))
}

// cycleFilter steps through all categories, then each category alone.
func (m *Model) cycleFilter() {
	cats := scene.Categories()
	f := m.engine.Filter()
	next := []scene.Category{cats[0]}
	if len(f.Categories) == 1 {
		i := slices.Index(cats, firstKey(f.Categories))
		if i+1 < len(cats) {
			next = []scene.Category{cats[i+1]}
		} else {
			next = nil
		}
	}
	m.engine.ApplyCategoryFilter(next)
	if next == nil {
		m.setStatus("Showing all categories", interact.StatusInfo)
	} else {
		m.setStatus("Showing "+next[0].Style().Label+" only", interact.StatusInfo)
	}
}

// cycleLinkStrength steps the edge threshold: all, medium, strong, all.
func (m *Model) cycleLinkStrength() {
	next := m.engine.Filter().MinStrength + 1
	if next <= scene.Weak {
		next = scene.Medium
	}
	if next > scene.Strong {
		next = 0
	}
	m.engine.SetMinLinkStrength(next)
	if next == 0 {
		m.setStatus("Showing all links", interact.StatusInfo)
	} else {
		m.setStatus("Links: "+next.String()+" and stronger", interact.StatusInfo)
	}
}

// handleMouse turns terminal mouse messages into engine gestures. A left
// press that moves before release is a pan; one that does not is a click.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.confirm != nil || m.engine.State() == interact.NodeDialogOpen {
		return
	}
	e := m.engine
	p := m.cellPoint(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			if e.State() == interact.MenuOpen {
				m.logRefusal(e.PrimaryPress(p))
				return
			}
			m.press = &press{at: p}
		case tea.MouseButtonRight:
			m.menuIndex = 0
			m.logRefusal(e.SecondaryPress(p))
		case tea.MouseButtonWheelUp:
			e.Wheel(p, -1)
		case tea.MouseButtonWheelDown:
			e.Wheel(p, 1)
		}

	case tea.MouseActionMotion:
		if m.press == nil {
			e.PointerMove(p)
			return
		}
		if !m.press.dragging {
			if p.Dist(m.press.at) < m.opts.Cell.X {
				return
			}
			if err := e.DragStart(m.press.at); err != nil {
				m.logRefusal(err)
				m.press = nil
				return
			}
			m.press.dragging = true
		}
		e.PointerMove(p)

	case tea.MouseActionRelease:
		pr := m.press
		m.press = nil
		if pr == nil {
			return
		}
		if pr.dragging {
			e.DragEnd()
			return
		}
		m.click(pr.at)
	}
}

// click is a primary press, or a double activation when it follows another
// click on the same cell quickly enough.
func (m *Model) click(p geom.Point) {
	now := m.opts.Now()
	if !m.lastClick.IsZero() && now.Sub(m.lastClick) <= doubleClickWindow && p == m.clickAt {
		m.lastClick = now.Add(-2 * doubleClickWindow)
		m.logRefusal(m.engine.DoubleActivate(p))
		return
	}
	m.lastClick = now
	m.clickAt = p
	m.logRefusal(m.engine.PrimaryPress(p))
}

func (m *Model) handleMindMapKeys(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
	case key.Matches(msg, m.keys.ZoomIn):
		m.viewer.ZoomIn()
	case key.Matches(msg, m.keys.ZoomOut):
		m.viewer.ZoomOut()
	case key.Matches(msg, m.keys.Reset):
		m.viewer.Reset()
	case key.Matches(msg, m.keys.MindMap), key.Matches(msg, m.keys.Back):
		m.view = ViewCanvas
	}
}

func (m *Model) handleMindMapMouse(msg tea.MouseMsg) {
	p := m.cellPoint(msg.X, msg.Y)
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.viewer.Press(p)
		case tea.MouseButtonWheelUp:
			m.viewer.Wheel(p, -1)
		case tea.MouseButtonWheelDown:
			m.viewer.Wheel(p, 1)
		}
	case tea.MouseActionMotion:
		m.viewer.Move(p)
	case tea.MouseActionRelease:
		m.viewer.Release()
	}
}

func (m *Model) logRefusal(err error) {
	if err != nil {
		m.log.Debug("event refused", zap.Error(err))
	}
}

func nextMode(cur layout.Mode) layout.Mode {
	modes := layout.Modes()
	i := slices.Index(modes, cur)
	return modes[(i+1)%len(modes)]
}

func firstKey[K comparable, V any](m map[K]V) K {
	var zero K
	for k := range m {
		return k
	}
	return zero
}
