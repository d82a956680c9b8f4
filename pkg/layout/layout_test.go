package layout

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/kgcanvas/pkg/geom"
	"github.com/recera/kgcanvas/pkg/scene"
)

func demoNodes(t *testing.T) ([]scene.Node, []scene.Edge) {
	t.Helper()
	s, err := scene.DemoSeed().Build()
	require.NoError(t, err)
	var nodes []scene.Node
	for n := range s.Nodes() {
		nodes = append(nodes, n)
	}
	var edges []scene.Edge
	for e := range s.Edges() {
		edges = append(edges, e)
	}
	return nodes, edges
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"force", "Cluster", " hierarchy "} {
		_, err := ParseMode(s)
		assert.NoError(t, err, s)
	}
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, Force, m)

	_, err = ParseMode("radial")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestHierarchy_GridBelowCentralNode(t *testing.T) {
	nodes, edges := demoNodes(t)
	require.Len(t, nodes, 9)

	pos, err := Apply(Hierarchy, nodes, edges, Options{Root: "ds"})
	require.NoError(t, err)
	require.Len(t, pos, 9)

	assert.Equal(t, geom.Pt(400, 100), pos["ds"])

	var others []geom.Point
	for _, n := range nodes[1:] {
		others = append(others, pos[n.ID])
	}
	want := []geom.Point{
		{X: 175, Y: 200}, {X: 325, Y: 200}, {X: 475, Y: 200}, {X: 625, Y: 200},
		{X: 175, Y: 300}, {X: 325, Y: 300}, {X: 475, Y: 300}, {X: 625, Y: 300},
	}
	assert.Equal(t, want, others)
}

func TestHierarchy_RootNotFirst(t *testing.T) {
	nodes, _ := demoNodes(t)
	pos := Grid(nodes, Options{Root: "quiz1"})

	assert.Equal(t, geom.Pt(400, 100), pos["quiz1"])
	assert.Equal(t, geom.Pt(175, 200), pos["ds"])
}

func TestCluster_ScalesByCategory(t *testing.T) {
	nodes := []scene.Node{
		{ID: "c", Category: scene.Concept, Position: geom.Pt(100, 200)},
		{ID: "w", Category: scene.Courseware, Position: geom.Pt(100, 200)},
		{ID: "q", Category: scene.Quiz, Position: geom.Pt(100, 200)},
	}
	pos, err := Apply(Cluster, nodes, nil, Options{})
	require.NoError(t, err)

	assert.InDelta(t, 80, pos["c"].X, 1e-9)
	assert.InDelta(t, 160, pos["c"].Y, 1e-9)
	assert.InDelta(t, 110, pos["w"].X, 1e-9)
	assert.InDelta(t, 140, pos["w"].Y, 1e-9)
	assert.Equal(t, geom.Pt(100, 200), pos["q"])

	// The input is not modified.
	assert.Equal(t, geom.Pt(100, 200), nodes[0].Position)
}

func TestForce_ResetsToCategoryHome(t *testing.T) {
	nodes := []scene.Node{
		{ID: "only-quiz", Category: scene.Quiz, Position: geom.Pt(-999, 3)},
		{ID: "k1", Category: scene.Keyword},
		{ID: "k2", Category: scene.Keyword},
	}
	pos, err := Apply(Force, nodes, nil, Options{})
	require.NoError(t, err)

	assert.Equal(t, scene.Quiz.Style().Home, pos["only-quiz"])
	home := scene.Keyword.Style().Home
	assert.InDelta(t, 60, pos["k1"].Dist(home), 1e-9)
	assert.InDelta(t, 60, pos["k2"].Dist(home), 1e-9)
	assert.InDelta(t, 120, pos["k1"].Dist(pos["k2"]), 1e-9)

	again, _ := Apply(Force, nodes, nil, Options{})
	assert.Equal(t, pos, again, "static reset is deterministic")
}

func TestRelax_SeparatesAndResumes(t *testing.T) {
	nodes := []scene.Node{
		{ID: "a", Position: geom.Pt(400, 300)},
		{ID: "b", Position: geom.Pt(401, 300)},
	}
	out := Relax(nodes, nil, nil, 50, DefaultPhysics())
	assert.Greater(t, out["a"].Dist(out["b"]), 1.0)

	resumed := Relax(nodes, nil, out, 50, DefaultPhysics())
	for id, p := range resumed {
		assert.True(t, p.Finite(), fmt.Sprint(id))
	}
}

func TestApply_UnknownMode(t *testing.T) {
	_, err := Apply(Mode("spiral"), nil, nil, Options{})
	assert.ErrorIs(t, err, ErrUnknownMode)
}
