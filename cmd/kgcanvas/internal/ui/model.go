// Package ui is the terminal host of the canvas. It turns bubbletea mouse
// and key messages into engine events and draws engine frames as text.
package ui

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/recera/kgcanvas/pkg/geom"
	"github.com/recera/kgcanvas/pkg/interact"
	"github.com/recera/kgcanvas/pkg/layout"
	"github.com/recera/kgcanvas/pkg/mindmap"
	"github.com/recera/kgcanvas/pkg/scene"
)

// View is the screen the host shows.
type View int

const (
	ViewCanvas View = iota
	ViewMindMap
)

const (
	// Clicks closer together than this on the same cell activate a node.
	doubleClickWindow = 400 * time.Millisecond
	statusTTL         = 4 * time.Second
)

// Options configures a Model.
type Options struct {
	Config  interact.Config
	MindMap mindmap.Options
	// Layout is applied once at start when it differs from the engine's.
	Layout layout.Mode
	Logger *zap.Logger
	Rand   *rand.Rand
	// Cell is the size in canvas pixels of one terminal cell.
	Cell geom.Point
	// Now is the clock used for double-click detection.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if !o.Cell.Finite() || o.Cell.X <= 0 || o.Cell.Y <= 0 {
		o.Cell = geom.Pt(8, 16)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type confirmPrompt struct {
	prompt string
	decide func(bool)
}

type press struct {
	at       geom.Point
	dragging bool
}

// statusExpiredMsg clears the status line unless a newer status replaced it.
type statusExpiredMsg struct{ seq int }

// Model represents the TUI application state
type Model struct {
	opts   Options
	log    *zap.Logger
	engine *interact.Engine
	viewer *mindmap.Viewer
	tree   map[scene.NodeID]geom.Point

	// Window dimensions
	width  int
	height int
	view   View

	keys KeyMap
	help help.Model

	// Status line
	status      string
	statusKind  interact.StatusKind
	statusSeq   int
	statusDirty bool

	confirm   *confirmPrompt
	activated scene.NodeID
	menuIndex int

	// Node dialog fields: Chinese name, English name
	inputs [2]textinput.Model
	focus  int

	press     *press
	lastClick time.Time
	clickAt   geom.Point

	quitting bool
}

// NewModel creates a model driving a fresh engine over sc.
func NewModel(sc *scene.Scene, opts Options) *Model {
	opts = opts.withDefaults()
	m := &Model{
		opts:   opts,
		log:    opts.Logger.Named("ui"),
		viewer: mindmap.New(opts.MindMap),
		keys:   DefaultKeyMap,
		help:   help.New(),
	}

	engineOpts := []interact.Option{
		interact.WithLogger(opts.Logger.Named("engine")),
		interact.WithHooks(interact.Hooks{
			OnStatus:        m.setStatus,
			OnNodeActivated: m.activate,
			RequestConfirm:  m.askConfirm,
		}),
	}
	if opts.Rand != nil {
		engineOpts = append(engineOpts, interact.WithRand(opts.Rand))
	}
	m.engine = interact.New(sc, opts.Config, engineOpts...)
	if opts.Layout != "" && opts.Layout != m.engine.LayoutMode() {
		if err := m.engine.SelectLayoutMode(opts.Layout); err != nil {
			m.log.Warn("failed to apply start layout", zap.Error(err))
		}
	}

	zh := textinput.New()
	zh.Placeholder = "中文名"
	zh.CharLimit = interact.MaxNameLength
	zh.Prompt = "中文    "
	en := textinput.New()
	en.Placeholder = "English name"
	en.CharLimit = interact.MaxNameLength
	en.Prompt = "English "
	m.inputs = [2]textinput.Model{zh, en}

	return m
}

// Engine returns the engine the model drives.
func (m *Model) Engine() *interact.Engine { return m.engine }

// CurrentView returns the screen being shown.
func (m *Model) CurrentView() View { return m.view }

// MindMap returns the mind-map viewer.
func (m *Model) MindMap() *mindmap.Viewer { return m.viewer }

// Status returns the current status line.
func (m *Model) Status() (string, interact.StatusKind) { return m.status, m.statusKind }

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.viewer.SetSize(m.canvasSize())

	case tea.KeyMsg:
		cmd = m.handleKey(msg)

	case tea.MouseMsg:
		if m.view == ViewMindMap {
			m.handleMindMapMouse(msg)
		} else {
			m.handleMouse(msg)
		}

	case statusExpiredMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}

	default:
		if m.engine.State() == interact.NodeDialogOpen {
			m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		}
	}

	if m.quitting {
		return m, tea.Quit
	}
	if m.statusDirty {
		m.statusDirty = false
		seq := m.statusSeq
		cmd = tea.Batch(cmd, tea.Tick(statusTTL, func(time.Time) tea.Msg { return statusExpiredMsg{seq: seq} }))
	}
	return m, cmd
}

func (m *Model) setStatus(message string, kind interact.StatusKind) {
	m.status = message
	m.statusKind = kind
	m.statusSeq++
	m.statusDirty = true
}

func (m *Model) activate(id scene.NodeID) {
	m.activated = id
	if n, ok := m.engine.Scene().Node(id); ok {
		m.setStatus("Opened "+n.LabelPrimary, interact.StatusInfo)
	}
}

// askConfirm parks decide until the user answers y or n. Update runs on the
// bubbletea loop, so decide is called on the engine's loop.
func (m *Model) askConfirm(prompt string, decide func(bool)) {
	m.confirm = &confirmPrompt{prompt: prompt, decide: decide}
}

func (m *Model) answer(ok bool) {
	c := m.confirm
	m.confirm = nil
	c.decide(ok)
}

// canvasSize is the drawing area in canvas pixels.
func (m *Model) canvasSize() geom.Point {
	cols, rows := m.width, m.canvasRows()
	return geom.Pt(float64(cols)*m.opts.Cell.X, float64(rows)*m.opts.Cell.Y)
}

// canvasRows is what is left after the status line and the help block.
func (m *Model) canvasRows() int {
	return max(0, m.height-1-lipgloss.Height(m.renderHelp()))
}

// cellPoint is the canvas pixel at the centre of a terminal cell.
func (m *Model) cellPoint(col, row int) geom.Point {
	return geom.Pt((float64(col)+0.5)*m.opts.Cell.X, (float64(row)+0.5)*m.opts.Cell.Y)
}

// showMindMap switches to the mind-map screen, laying the graph out as a
// hierarchy around its root.
func (m *Model) showMindMap() {
	sc := m.engine.Scene()
	nodes := slices.Collect(sc.Nodes())
	edges := slices.Collect(sc.Edges())
	opts := m.opts.Config.Layout
	opts.Root = sc.Root()
	tree, err := layout.Apply(layout.Hierarchy, nodes, edges, opts)
	if err != nil {
		m.log.Warn("failed to lay out mind map", zap.Error(err))
		return
	}
	m.tree = tree
	m.viewer.Reset()
	m.view = ViewMindMap
}
