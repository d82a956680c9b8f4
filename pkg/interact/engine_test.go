package interact

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/kgcanvas/pkg/geom"
	"github.com/recera/kgcanvas/pkg/layout"
	"github.com/recera/kgcanvas/pkg/scene"
)

type status struct {
	msg  string
	kind StatusKind
}

type fixture struct {
	*Engine
	a, b, c  scene.NodeID
	ab, bc   scene.EdgeID
	statuses []status
}

// newFixture builds a three node chain a - b - c under the identity
// viewport, so screen and scene coordinates coincide.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	n := 0
	sc := scene.New(scene.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))
	f := &fixture{}
	f.a = sc.AddNode(scene.Concept, geom.Pt(100, 100), scene.Labels{Primary: "数据结构", Secondary: "Data Structures"})
	f.b = sc.AddNode(scene.Quiz, geom.Pt(300, 100), scene.Labels{Primary: "Quiz 1"})
	f.c = sc.AddNode(scene.Keyword, geom.Pt(300, 300), scene.Labels{Primary: "BFS"})
	var err error
	f.ab, err = sc.AddEdge(f.a, f.b, scene.Medium)
	require.NoError(t, err)
	f.bc, err = sc.AddEdge(f.b, f.c, scene.Weak)
	require.NoError(t, err)

	opts = append([]Option{
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithHooks(Hooks{OnStatus: func(msg string, kind StatusKind) {
			f.statuses = append(f.statuses, status{msg, kind})
		}}),
	}, opts...)
	f.Engine = New(sc, DefaultConfig(), opts...)
	return f
}

func TestEngine_WheelZoomAnchorsAtCursor(t *testing.T) {
	f := newFixture(t)
	cursor := geom.Pt(200, 100)
	before := geom.ScreenToScene(cursor, f.Viewport())

	f.Wheel(cursor, -120)

	v := f.Viewport()
	assert.InDelta(t, 1.1, v.Scale, 1e-9)
	after := geom.SceneToScreen(before, v)
	assert.InDelta(t, cursor.X, after.X, 1e-9)
	assert.InDelta(t, cursor.Y, after.Y, 1e-9)

	f.Wheel(cursor, 120)
	assert.InDelta(t, 1.0, f.Viewport().Scale, 1e-9)
}

func TestEngine_WheelIsNeverGated(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.SecondaryPress(geom.Pt(100, 100)))
	require.Equal(t, MenuOpen, f.State())

	f.Wheel(geom.Pt(0, 0), -1)
	assert.InDelta(t, 1.1, f.Viewport().Scale, 1e-9)
	assert.Equal(t, MenuOpen, f.State())

	require.NoError(t, f.ChooseCategory(scene.Quiz))
	f.Wheel(geom.Pt(0, 0), -1)
	assert.InDelta(t, 1.2, f.Viewport().Scale, 1e-9)
	assert.Equal(t, NodeDialogOpen, f.State())

	for i := 0; i < 40; i++ {
		f.Wheel(geom.Pt(50, 50), -1)
	}
	assert.Equal(t, geom.GraphLimits.Max, f.Viewport().Scale)

	f.Wheel(geom.Pt(50, 50), math.NaN())
	f.Wheel(geom.Pt(math.Inf(1), 50), -1)
	assert.True(t, f.Viewport().Valid())
}

func TestEngine_SelectionToggles(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.PrimaryPress(geom.Pt(302, 98)))
	assert.Equal(t, NodeSelected, f.State())
	s := f.Session()
	assert.Equal(t, []scene.NodeID{f.b}, s.Selected())
	assert.ElementsMatch(t, []scene.EdgeID{f.ab, f.bc}, s.HighlightedEdges())
	n, _ := f.Scene().Node(f.b)
	assert.True(t, n.Selected)

	require.NoError(t, f.PrimaryPress(geom.Pt(300, 100)))
	assert.Equal(t, Idle, f.State())
	s = f.Session()
	assert.Empty(t, s.Selection)
	assert.Empty(t, s.Highlighted)
	n, _ = f.Scene().Node(f.b)
	assert.False(t, n.Selected)
}

func TestEngine_SelectionMovesAndClears(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.PrimaryPress(geom.Pt(100, 100)))
	require.NoError(t, f.PrimaryPress(geom.Pt(300, 300)))
	s := f.Session()
	assert.Equal(t, []scene.NodeID{f.c}, s.Selected())
	assert.Equal(t, []scene.EdgeID{f.bc}, s.HighlightedEdges())
	n, _ := f.Scene().Node(f.a)
	assert.False(t, n.Selected)

	require.NoError(t, f.PrimaryPress(geom.Pt(700, 700)))
	assert.Equal(t, Idle, f.State())
	assert.Empty(t, f.Session().Selection)
	assert.Empty(t, f.Session().Highlighted)
}

func TestEngine_CreateQuizChild(t *testing.T) {
	f := newFixture(t)
	nodes, edges := f.Scene().Len(), f.Scene().EdgeLen()

	require.NoError(t, f.SecondaryPress(geom.Pt(100, 100)))
	require.Equal(t, MenuOpen, f.State())
	menu, ok := f.Menu()
	require.True(t, ok)
	assert.Equal(t, f.a, menu.Parent)
	assert.Len(t, menu.Options, 5)

	require.NoError(t, f.ChooseCategory(scene.Quiz))
	require.Equal(t, NodeDialogOpen, f.State())
	d, ok := f.Dialog()
	require.True(t, ok)
	dist := d.Position.Dist(geom.Pt(100, 100))
	assert.GreaterOrEqual(t, dist, 100.0)
	assert.LessOrEqual(t, dist, 150.0)

	id, err := f.ConfirmNode("小测", "Quiz")
	require.NoError(t, err)
	assert.Equal(t, Idle, f.State())

	assert.Equal(t, nodes+1, f.Scene().Len())
	assert.Equal(t, edges+1, f.Scene().EdgeLen())
	child, ok := f.Scene().Node(id)
	require.True(t, ok)
	assert.Equal(t, scene.Quiz, child.Category)
	assert.Equal(t, "小测", child.LabelPrimary)
	assert.Equal(t, "Quiz", child.LabelSecondary)
	assert.Equal(t, d.Position, child.Position)

	var links []scene.Edge
	for e := range f.Scene().EdgesIncidentTo(id) {
		links = append(links, e)
	}
	require.Len(t, links, 1)
	assert.Equal(t, scene.Medium, links[0].Strength)
	assert.Equal(t, f.a, links[0].Source)
	assert.Equal(t, id, links[0].Target)

	require.NotEmpty(t, f.statuses)
	assert.Equal(t, StatusSuccess, f.statuses[len(f.statuses)-1].kind)
}

func TestEngine_ChildOfSelectedParentIsHighlighted(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.PrimaryPress(geom.Pt(100, 100)))
	require.NoError(t, f.SecondaryPress(geom.Pt(100, 100)))
	require.NoError(t, f.ChooseCategory(scene.Quiz))
	id, err := f.ConfirmNode("小测", "Quiz")
	require.NoError(t, err)
	assert.Equal(t, NodeSelected, f.State())

	var incident []scene.EdgeID
	for e := range f.Scene().EdgesIncidentTo(f.a) {
		incident = append(incident, e.ID)
	}
	require.Len(t, incident, 2)
	s := f.Session()
	assert.Equal(t, []scene.NodeID{f.a}, s.Selected())
	assert.ElementsMatch(t, incident, s.HighlightedEdges())

	for _, e := range f.Frame().Edges {
		if e.Target == id {
			assert.True(t, e.Highlighted)
		}
	}
}

func TestEngine_ConfirmEmptyNameKeepsDialog(t *testing.T) {
	f := newFixture(t)
	nodes, edges := f.Scene().Len(), f.Scene().EdgeLen()

	require.NoError(t, f.SecondaryPress(geom.Pt(300, 300)))
	require.NoError(t, f.ChooseCategory(scene.Resource))

	_, err := f.ConfirmNode("", "")
	require.ErrorIs(t, err, ErrEmptyName)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)

	_, err = f.ConfirmNode("   ", "\t")
	require.ErrorIs(t, err, ErrEmptyName)

	assert.Equal(t, NodeDialogOpen, f.State())
	assert.Equal(t, nodes, f.Scene().Len())
	assert.Equal(t, edges, f.Scene().EdgeLen())
	assert.Equal(t, StatusError, f.statuses[len(f.statuses)-1].kind)

	// One name is enough.
	id, err := f.ConfirmNode("", "Lecture video")
	require.NoError(t, err)
	n, _ := f.Scene().Node(id)
	assert.Equal(t, "Lecture video", n.LabelPrimary)
	assert.Empty(t, n.LabelSecondary)
}

func TestEngine_ConfirmRejectsLongName(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.SecondaryPress(geom.Pt(300, 300)))
	require.NoError(t, f.ChooseCategory(scene.Keyword))

	_, err := f.ConfirmNode(strings.Repeat("图", MaxNameLength+1), "")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.NotErrorIs(t, err, ErrEmptyName)
	assert.Equal(t, NodeDialogOpen, f.State())

	_, err = f.ConfirmNode(strings.Repeat("图", MaxNameLength), "")
	assert.NoError(t, err)
}

func TestEngine_CancelDialog(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.PrimaryPress(geom.Pt(100, 100)))
	require.NoError(t, f.SecondaryPress(geom.Pt(300, 100)))
	require.NoError(t, f.ChooseCategory(scene.Courseware))

	f.CancelDialog()
	_, open := f.Dialog()
	assert.False(t, open)
	assert.Equal(t, 3, f.Scene().Len())
	// The selection made before the menu survives.
	assert.Equal(t, NodeSelected, f.State())
	assert.Equal(t, []scene.NodeID{f.a}, f.Session().Selected())
}

func TestEngine_MenuDismissal(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.SecondaryPress(geom.Pt(100, 100)))

	// Right click on another node retargets the menu.
	require.NoError(t, f.SecondaryPress(geom.Pt(300, 300)))
	m, _ := f.Menu()
	assert.Equal(t, f.c, m.Parent)

	// A primary press only dismisses it.
	require.NoError(t, f.PrimaryPress(geom.Pt(300, 300)))
	assert.Equal(t, Idle, f.State())
	assert.Empty(t, f.Session().Selection)

	require.NoError(t, f.SecondaryPress(geom.Pt(100, 100)))
	require.NoError(t, f.SecondaryPress(geom.Pt(600, 600)))
	assert.Equal(t, Idle, f.State())

	require.NoError(t, f.SecondaryPress(geom.Pt(600, 600)))
	assert.Equal(t, Idle, f.State())
}

func TestEngine_Panning(t *testing.T) {
	f := newFixture(t)
	f.Wheel(geom.Pt(0, 0), -1)

	require.NoError(t, f.DragStart(geom.Pt(100, 100)))
	assert.Equal(t, Panning, f.State())
	assert.True(t, f.Session().Dragging)

	f.PointerMove(geom.Pt(130, 90))
	v := f.Viewport()
	assert.InDelta(t, 1.1, v.Scale, 1e-9)
	assert.Equal(t, geom.Pt(30, -10), v.Translate)

	f.PointerMove(geom.Pt(90, 150))
	assert.Equal(t, geom.Pt(-10, 50), f.Viewport().Translate)

	f.PointerMove(geom.Pt(math.NaN(), 0))
	assert.Equal(t, geom.Pt(-10, 50), f.Viewport().Translate)

	// Presses during a pan are refused and change nothing.
	assert.ErrorIs(t, f.PrimaryPress(geom.Pt(100, 100)), ErrInvalidTransition)

	f.DragEnd()
	assert.Equal(t, Idle, f.State())
	assert.False(t, f.Session().Dragging)

	// A second pan starts from the current translation.
	require.NoError(t, f.DragStart(geom.Pt(0, 0)))
	f.PointerMove(geom.Pt(5, 5))
	f.DragEnd()
	assert.Equal(t, geom.Pt(-5, 55), f.Viewport().Translate)
}

func TestEngine_PanKeepsSelection(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.PrimaryPress(geom.Pt(100, 100)))
	require.NoError(t, f.DragStart(geom.Pt(500, 500)))
	f.PointerMove(geom.Pt(510, 500))
	f.DragEnd()

	assert.Equal(t, NodeSelected, f.State())
	assert.Equal(t, []scene.NodeID{f.a}, f.Session().Selected())
}

func TestEngine_InvalidTransitions(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.ChooseCategory(scene.Quiz), ErrInvalidTransition)
	_, err := f.ConfirmNode("a", "b")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, f.DeleteSelected(), ErrInvalidTransition)

	require.NoError(t, f.SecondaryPress(geom.Pt(100, 100)))
	assert.ErrorIs(t, f.ChooseCategory("planet"), ErrUnknownCategory)
	assert.Equal(t, MenuOpen, f.State())

	require.NoError(t, f.ChooseCategory(scene.Quiz))
	assert.ErrorIs(t, f.PrimaryPress(geom.Pt(100, 100)), ErrInvalidTransition)
	assert.ErrorIs(t, f.DragStart(geom.Pt(100, 100)), ErrInvalidTransition)

	var te *TransitionError
	require.ErrorAs(t, f.SecondaryPress(geom.Pt(1, 1)), &te)
	assert.Equal(t, NodeDialogOpen, te.State)
}

func TestEngine_DoubleActivate(t *testing.T) {
	var activated []scene.NodeID
	f := newFixture(t, WithHooks(Hooks{
		OnNodeActivated: func(id scene.NodeID) { activated = append(activated, id) },
	}))

	require.NoError(t, f.DoubleActivate(geom.Pt(300, 300)))
	require.NoError(t, f.DoubleActivate(geom.Pt(800, 800)))
	assert.Equal(t, []scene.NodeID{f.c}, activated)
}

func TestEngine_DeleteSelectedAsksFirst(t *testing.T) {
	var decide func(bool)
	var prompt string
	f := newFixture(t, WithHooks(Hooks{
		RequestConfirm: func(p string, d func(bool)) { prompt, decide = p, d },
	}))
	require.NoError(t, f.PrimaryPress(geom.Pt(300, 100)))
	require.NoError(t, f.DeleteSelected())
	require.NotNil(t, decide)
	assert.Contains(t, prompt, "Quiz 1")

	decide(false)
	assert.True(t, f.Scene().Has(f.b))
	assert.Equal(t, NodeSelected, f.State())

	require.NoError(t, f.DeleteSelected())
	decide(true)
	assert.False(t, f.Scene().Has(f.b))
	assert.Equal(t, 0, f.Scene().EdgeLen())
	assert.Equal(t, Idle, f.State())
	assert.Empty(t, f.Session().Highlighted)
}

func TestEngine_DeleteWithoutConfirmHook(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.PrimaryPress(geom.Pt(100, 100)))
	require.NoError(t, f.Handle(DeleteSelected{}))

	assert.False(t, f.Scene().Has(f.a))
	assert.Equal(t, 1, f.Scene().EdgeLen())
	assert.Equal(t, f.b, f.Scene().Root())
}

func TestEngine_CategoryFilter(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.PrimaryPress(geom.Pt(300, 100)))

	f.ApplyCategoryFilter([]scene.Category{scene.Concept, scene.Keyword})
	assert.Equal(t, Idle, f.State())
	assert.Empty(t, f.Session().Selection)

	// Hidden nodes cannot be picked.
	require.NoError(t, f.PrimaryPress(geom.Pt(300, 100)))
	assert.Equal(t, Idle, f.State())

	fr := f.Frame()
	assert.Len(t, fr.Nodes, 2)
	assert.Empty(t, fr.Edges)

	f.ApplyCategoryFilter(nil)
	fr = f.Frame()
	assert.Len(t, fr.Nodes, 3)
	assert.Len(t, fr.Edges, 2)

	f.SetMinLinkStrength(scene.Medium)
	fr = f.Frame()
	require.Len(t, fr.Edges, 1)
	assert.Equal(t, f.ab, fr.Edges[0].ID)
}

func TestEngine_SelectLayoutMode(t *testing.T) {
	sc, err := scene.DemoSeed().Build()
	require.NoError(t, err)
	e := New(sc, DefaultConfig())

	require.NoError(t, e.SelectLayoutMode(layout.Hierarchy))
	assert.Equal(t, layout.Hierarchy, e.LayoutMode())

	root, _ := sc.Node(sc.Root())
	assert.Equal(t, geom.Pt(400, 100), root.Position)
	rows := map[float64]int{}
	for n := range sc.Nodes() {
		if n.ID == sc.Root() {
			continue
		}
		rows[n.Position.Y]++
	}
	assert.Equal(t, map[float64]int{200: 4, 300: 4}, rows)

	assert.ErrorIs(t, e.SelectLayoutMode("spiral"), layout.ErrUnknownMode)
	assert.Equal(t, layout.Hierarchy, e.LayoutMode())

	require.NoError(t, e.SelectLayoutMode(layout.Force))
	quiz, _ := sc.Node("quiz1")
	assert.Equal(t, scene.Quiz.Style().Home, quiz.Position)
}

func TestEngine_HandleDispatch(t *testing.T) {
	f := newFixture(t)
	events := []Event{
		Wheel{Point: geom.Pt(10, 10), DeltaY: -3},
		PrimaryPress{Point: geom.Pt(100, 100)},
		SecondaryPress{Point: geom.Pt(100, 100)},
		ChooseCategory{Category: scene.Keyword},
		ConfirmNode{NameZh: "栈", NameEn: "Stack"},
		ResetView{},
	}
	for _, ev := range events {
		require.NoError(t, f.Handle(ev), ev.Name())
	}
	assert.Equal(t, 4, f.Scene().Len())
	assert.Equal(t, NodeSelected, f.State())
	assert.Equal(t, geom.Identity(geom.GraphLimits), f.Viewport())

	assert.Error(t, f.Handle(nil))
}

func TestEngine_HoverAndFrame(t *testing.T) {
	f := newFixture(t)
	f.PointerMove(geom.Pt(300, 300))
	assert.Equal(t, f.c, f.Session().Hover)

	require.NoError(t, f.PrimaryPress(geom.Pt(100, 100)))
	f.Wheel(geom.Pt(0, 0), -1)

	fr := f.Frame()
	assert.Equal(t, NodeSelected, fr.State)
	assert.Equal(t, []scene.NodeID{f.a}, fr.Selected)
	require.Len(t, fr.Nodes, 3)
	assert.True(t, fr.Nodes[0].Selected)
	assert.InDelta(t, 33.0, fr.Nodes[0].ScreenRadius, 1e-9)
	assert.Equal(t, geom.Pt(110, 110), fr.Nodes[0].Screen)
	assert.Equal(t, scene.Concept.Style().Color, fr.Nodes[0].Color)
	assert.True(t, fr.Nodes[2].Hovered)

	for _, ev := range fr.Edges {
		assert.Equal(t, ev.ID == f.ab, ev.Highlighted, string(ev.ID))
	}
	assert.Nil(t, fr.Menu)
}

func TestEngine_ReplaceScene(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.PrimaryPress(geom.Pt(100, 100)))
	f.Wheel(geom.Pt(0, 0), -1)

	f.ReplaceScene(scene.New())
	assert.Equal(t, Idle, f.State())
	assert.Empty(t, f.Session().Selection)
	assert.InDelta(t, 1.1, f.Viewport().Scale, 1e-9)
	assert.Empty(t, f.Frame().Nodes)
}

func TestConfig_Defaults(t *testing.T) {
	c := Config{Limits: geom.Limits{Min: 2, Max: 1}, WheelZoomStep: math.Inf(1)}.withDefaults()
	assert.Equal(t, geom.GraphLimits, c.Limits)
	assert.Equal(t, 0.1, c.WheelZoomStep)
	assert.Equal(t, 100.0, c.ChildDistanceMin)
	assert.Equal(t, 150.0, c.ChildDistanceMax)
}
