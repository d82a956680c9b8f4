package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/recera/kgcanvas/pkg/geom"
	"github.com/recera/kgcanvas/pkg/interact"
	"github.com/recera/kgcanvas/pkg/scene"
)

// Style definitions
var (
	// Colors
	primaryColor = lipgloss.Color("#4f46e5")
	successColor = lipgloss.Color("#10b981")
	warningColor = lipgloss.Color("#f59e0b")
	errorColor   = lipgloss.Color("#ef4444")
	mutedColor   = lipgloss.Color("#94a3b8")
	edgeColor    = lipgloss.Color("#475569")
	accentColor  = lipgloss.Color("#f97316")

	plainStyle = lipgloss.NewStyle()

	edgeStyle = lipgloss.NewStyle().
			Foreground(edgeColor)

	highlightEdgeStyle = lipgloss.NewStyle().
				Foreground(accentColor).
				Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e2e8f0"))

	selectedLabelStyle = lipgloss.NewStyle().
				Foreground(accentColor).
				Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	menuStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e2e8f0")).
			Background(lipgloss.Color("#1e293b"))

	menuSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#ffffff")).
				Background(primaryColor).
				Bold(true)

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(primaryColor).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	statusStyles = map[interact.StatusKind]lipgloss.Style{
		interact.StatusInfo:    lipgloss.NewStyle().Foreground(mutedColor),
		interact.StatusSuccess: lipgloss.NewStyle().Foreground(successColor).Bold(true),
		interact.StatusWarning: lipgloss.NewStyle().Foreground(warningColor),
		interact.StatusError:   lipgloss.NewStyle().Foreground(errorColor).Bold(true),
	}
)

// View renders the model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var body string
	switch {
	case m.view == ViewMindMap:
		body = m.renderMindMap()
	case m.engine.State() == interact.NodeDialogOpen:
		body = m.renderDialog()
	default:
		body = m.renderCanvas()
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatusLine(), m.renderHelp())
}

// renderCanvas draws the current frame: edges first, then nodes and their
// labels, then the context menu.
func (m *Model) renderCanvas() string {
	f := m.engine.Frame()
	g := newGrid(m.width, m.canvasRows())
	v := f.Viewport

	for _, e := range f.Edges {
		r, st := edgeRune(e.Strength), edgeStyle
		if e.Highlighted {
			st = highlightEdgeStyle
		}
		g.line(m.toCell(geom.SceneToScreen(e.From, v)), m.toCell(geom.SceneToScreen(e.To, v)), r, st)
	}

	selected := make(map[scene.NodeID]bool, len(f.Selected))
	for _, id := range f.Selected {
		selected[id] = true
	}
	for _, n := range f.Nodes {
		m.drawNode(g, n.Node, n.Screen, selected[n.ID], n.Hovered)
	}

	if f.Menu != nil {
		m.drawMenu(g, *f.Menu)
	}
	return g.String()
}

func (m *Model) drawNode(g *grid, n scene.Node, screen geom.Point, selected, hovered bool) {
	c := m.toCell(screen)
	st := n.Category.Style()
	icon := lipgloss.NewStyle().Foreground(lipgloss.Color(st.Color)).Bold(true)
	label := labelStyle
	if selected {
		icon = icon.Reverse(true)
		label = selectedLabelStyle
	}
	if hovered {
		icon = icon.Underline(true)
		label = label.Underline(true)
	}
	g.text(c.x, c.y, st.Icon, icon)
	g.text(c.x+2, c.y, n.LabelPrimary, label)
}

func (m *Model) drawMenu(g *grid, menu interact.Menu) {
	lines := make([]string, len(menu.Options))
	width := 0
	for i, c := range menu.Options {
		st := c.Style()
		lines[i] = fmt.Sprintf(" %s New %s ", st.Icon, st.Label)
		width = max(width, lipgloss.Width(lines[i]))
	}
	at := m.toCell(menu.At)
	x := min(at.x+1, g.w-width)
	y := min(at.y+1, g.h-len(lines))
	for i, line := range lines {
		st := menuStyle
		if i == m.menuIndex {
			st = menuSelectedStyle
		}
		g.text(max(x, 0), max(y, 0)+i, line+strings.Repeat(" ", width-lipgloss.Width(line)), st)
	}
}

// renderDialog draws the node dialog centred over the canvas.
func (m *Model) renderDialog() string {
	d, ok := m.engine.Dialog()
	if !ok {
		return m.renderCanvas()
	}
	parent := string(d.Parent)
	if n, ok := m.engine.Scene().Node(d.Parent); ok {
		parent = n.LabelPrimary
	}
	st := d.Category.Style()

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s New %s", st.Icon, st.Label)))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("under " + parent))
	b.WriteString("\n\n")
	b.WriteString(m.inputs[0].View())
	b.WriteString("\n")
	b.WriteString(m.inputs[1].View())
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("Enter at least one name."))

	return lipgloss.Place(m.width, m.canvasRows(), lipgloss.Center, lipgloss.Center, boxStyle.Render(b.String()))
}

// renderMindMap draws the hierarchy picture through the mind-map viewport.
func (m *Model) renderMindMap() string {
	g := newGrid(m.width, m.canvasRows())
	v := m.viewer.Viewport()
	sc := m.engine.Scene()

	for e := range sc.Edges() {
		a, aok := m.tree[e.Source]
		b, bok := m.tree[e.Target]
		if aok && bok {
			g.line(m.toCell(geom.SceneToScreen(a, v)), m.toCell(geom.SceneToScreen(b, v)), edgeRune(e.Strength), edgeStyle)
		}
	}
	for n := range sc.Nodes() {
		p, ok := m.tree[n.ID]
		if !ok {
			continue
		}
		m.drawNode(g, n, geom.SceneToScreen(p, v), n.ID == sc.Root(), false)
	}
	return g.String()
}

func (m *Model) renderStatusLine() string {
	var left string
	if m.view == ViewMindMap {
		left = badgeStyle.Render("mind map") + " " +
			mutedStyle.Render(fmt.Sprintf("%.0f%%", m.viewer.Viewport().Scale*100))
	} else {
		e := m.engine
		left = badgeStyle.Render(e.State().String()) + " " + mutedStyle.Render(fmt.Sprintf("%.0f%%  %s  %s",
			e.Viewport().Scale*100, e.LayoutMode(), filterSummary(e.Filter())))
	}

	right := ""
	switch {
	case m.confirm != nil:
		right = statusStyles[interact.StatusWarning].Render(m.confirm.prompt + " [y/n]")
	case m.status != "":
		right = statusStyles[m.statusKind].Render(m.status)
	case m.activated != "":
		right = mutedStyle.Render(m.nodeSummary(m.activated))
	}

	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) renderHelp() string {
	var keys helpKeys
	switch {
	case m.view == ViewMindMap:
		keys = m.keys.mindMapHelp()
	case m.confirm != nil:
		keys = m.keys.confirmHelp()
	case m.engine.State() == interact.NodeDialogOpen:
		keys = m.keys.dialogHelp()
	case m.engine.State() == interact.MenuOpen:
		keys = m.keys.menuHelp()
	default:
		keys = m.keys.canvasHelp()
	}
	return m.help.View(keys)
}

func (m *Model) nodeSummary(id scene.NodeID) string {
	n, ok := m.engine.Scene().Node(id)
	if !ok {
		return ""
	}
	links := 0
	for range m.engine.Scene().EdgesIncidentTo(id) {
		links++
	}
	name := n.LabelPrimary
	if n.LabelSecondary != "" {
		name += " / " + n.LabelSecondary
	}
	return fmt.Sprintf("%s %s · %s · %d links", n.Category.Style().Icon, name, n.Category, links)
}

func filterSummary(f scene.Filter) string {
	cats := "all"
	if len(f.Categories) > 0 {
		names := make([]string, 0, len(f.Categories))
		for _, c := range scene.Categories() {
			if f.Categories[c] {
				names = append(names, string(c))
			}
		}
		cats = strings.Join(names, ",")
	}
	if f.MinStrength > scene.Weak {
		return cats + " ≥" + f.MinStrength.String()
	}
	return cats
}

func edgeRune(s scene.Strength) rune {
	switch s {
	case scene.Weak:
		return '·'
	case scene.Strong:
		return '█'
	default:
		return '•'
	}
}

type cellPos struct{ x, y int }

// toCell maps a screen pixel to the terminal cell containing it.
func (m *Model) toCell(p geom.Point) cellPos {
	x := math.Floor(p.X / m.opts.Cell.X)
	y := math.Floor(p.Y / m.opts.Cell.Y)
	// Clamp far off-screen points so line rasterisation stays bounded.
	const far = 1 << 16
	return cellPos{int(geom.Clamp(x, -far, far)), int(geom.Clamp(y, -far, far))}
}

// grid is a character canvas. Each cell refers to a style by index because
// lipgloss styles are not comparable.
type grid struct {
	w, h   int
	runes  []rune
	styles []uint8
	wide   []bool
	table  []lipgloss.Style
}

func newGrid(w, h int) *grid {
	g := &grid{
		w:     max(w, 0),
		h:     max(h, 0),
		table: []lipgloss.Style{plainStyle},
	}
	n := g.w * g.h
	g.runes = make([]rune, n)
	g.styles = make([]uint8, n)
	g.wide = make([]bool, n)
	for i := range g.runes {
		g.runes[i] = ' '
	}
	return g
}

func (g *grid) styleIndex(st lipgloss.Style) uint8 {
	if len(g.table) >= math.MaxUint8 {
		return 0
	}
	g.table = append(g.table, st)
	return uint8(len(g.table) - 1)
}

// set writes r at (x, y). Double-width runes take the next cell too; the
// covered cell is marked and skipped on output.
func (g *grid) set(x, y int, r rune, style uint8) int {
	width := max(lipgloss.Width(string(r)), 1)
	if y < 0 || y >= g.h || x < 0 || x+width > g.w {
		return width
	}
	i := y*g.w + x
	if x > 0 && g.wide[i-1] {
		g.wide[i-1] = false
		g.runes[i-1] = ' '
	}
	g.runes[i] = r
	g.styles[i] = style
	g.wide[i] = width == 2
	if width == 2 {
		g.runes[i+1] = 0
		g.styles[i+1] = style
		g.wide[i+1] = false
	}
	return width
}

func (g *grid) text(x, y int, s string, st lipgloss.Style) {
	idx := g.styleIndex(st)
	for _, r := range s {
		x += g.set(x, y, r, idx)
	}
}

// line draws a Bresenham line from a to b. Points outside the grid are
// clipped cell by cell.
func (g *grid) line(a, b cellPos, r rune, st lipgloss.Style) {
	idx := g.styleIndex(st)
	dx := abs(b.x - a.x)
	dy := -abs(b.y - a.y)
	sx, sy := sign(b.x-a.x), sign(b.y-a.y)
	err := dx + dy
	x, y := a.x, a.y
	for steps := 0; steps <= dx-dy; steps++ {
		if x >= 0 && x < g.w && y >= 0 && y < g.h {
			g.set(x, y, r, idx)
		}
		if x == b.x && y == b.y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func (g *grid) String() string {
	var b strings.Builder
	for y := 0; y < g.h; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		row := y * g.w
		var run strings.Builder
		cur := uint8(0)
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if cur == 0 {
				b.WriteString(run.String())
			} else {
				b.WriteString(g.table[cur].Render(run.String()))
			}
			run.Reset()
		}
		for x := 0; x < g.w; x++ {
			r := g.runes[row+x]
			if r == 0 {
				continue
			}
			if s := g.styles[row+x]; s != cur {
				flush()
				cur = s
			}
			run.WriteRune(r)
		}
		flush()
	}
	return b.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
