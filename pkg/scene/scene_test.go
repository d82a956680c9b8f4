package scene

import (
	"fmt"
	"iter"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/kgcanvas/pkg/geom"
)

func sequentialIDs() Option {
	n := 0
	return WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
}

func collect[T any](seq iter.Seq[T]) []T {
	var out []T
	for v := range seq {
		out = append(out, v)
	}
	return out
}

func TestScene_AddNodeUsesCategoryTable(t *testing.T) {
	s := New(sequentialIDs())

	concept := s.AddNode(Concept, geom.Pt(1, 2), Labels{Primary: "数据结构", Secondary: "Data Structures"})
	keyword := s.AddNode(Keyword, geom.Pt(3, 4), Labels{Primary: "BFS"})
	quiz := s.AddNode(Quiz, geom.Pt(5, 6), Labels{Primary: "Quiz"})
	other := s.AddNode(Category("mystery"), geom.Pt(0, 0), Labels{})

	n, ok := s.Node(concept)
	require.True(t, ok)
	assert.Equal(t, 30.0, n.Radius)
	assert.Equal(t, 1.0, n.ColorWeight)
	assert.Equal(t, "数据结构", n.LabelPrimary)
	assert.Equal(t, "Data Structures", n.LabelSecondary)

	n, _ = s.Node(keyword)
	assert.Equal(t, 20.0, n.Radius)
	n, _ = s.Node(quiz)
	assert.Equal(t, 25.0, n.Radius)
	n, _ = s.Node(other)
	assert.Equal(t, float64(DefaultRadius), n.Radius)

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, concept, s.Root())
}

func TestScene_AddEdgeUnknownNode(t *testing.T) {
	s := New(sequentialIDs())
	a := s.AddNode(Concept, geom.Pt(0, 0), Labels{Primary: "a"})
	before := s.EdgeLen()

	_, err := s.AddEdge(a, "ghost", Medium)
	require.ErrorIs(t, err, ErrUnknownNode)
	_, err = s.AddEdge("ghost", a, Medium)
	require.ErrorIs(t, err, ErrUnknownNode)

	assert.Equal(t, before, s.EdgeLen())
	assert.Empty(t, collect(s.EdgesIncidentTo(a)))
}

func TestScene_EdgesIncidentTo(t *testing.T) {
	s := New(sequentialIDs())
	a := s.AddNode(Concept, geom.Pt(0, 0), Labels{})
	b := s.AddNode(Quiz, geom.Pt(0, 0), Labels{}) // same coordinates on purpose
	c := s.AddNode(Keyword, geom.Pt(10, 0), Labels{})

	ab, err := s.AddEdge(a, b, Strong)
	require.NoError(t, err)
	bc, err := s.AddEdge(b, c, Weak)
	require.NoError(t, err)

	var ids []EdgeID
	for e := range s.EdgesIncidentTo(a) {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []EdgeID{ab}, ids)

	ids = nil
	for e := range s.EdgesIncidentTo(b) {
		ids = append(ids, e.ID)
	}
	assert.ElementsMatch(t, []EdgeID{ab, bc}, ids)

	e, _ := s.Edge(ab)
	assert.Equal(t, b, e.Other(a))
	assert.Equal(t, a, e.Other(b))
}

func TestScene_RemoveNodeCascades(t *testing.T) {
	s := New(sequentialIDs())
	a := s.AddNode(Concept, geom.Pt(0, 0), Labels{})
	b := s.AddNode(Quiz, geom.Pt(1, 0), Labels{})
	c := s.AddNode(Keyword, geom.Pt(2, 0), Labels{})
	ab, _ := s.AddEdge(a, b, Medium)
	bc, _ := s.AddEdge(b, c, Medium)
	ac, _ := s.AddEdge(a, c, Medium)

	removed, err := s.RemoveNode(b)
	require.NoError(t, err)
	assert.ElementsMatch(t, []EdgeID{ab, bc}, removed)

	assert.False(t, s.Has(b))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 1, s.EdgeLen())
	_, ok := s.Edge(ac)
	assert.True(t, ok)

	// Every remaining edge still has both endpoints.
	for e := range s.Edges() {
		assert.True(t, s.Has(e.Source))
		assert.True(t, s.Has(e.Target))
	}

	_, err = s.RemoveNode(b)
	assert.ErrorIs(t, err, ErrUnknownNode)

	// Removing the root promotes the next node.
	_, err = s.RemoveNode(a)
	require.NoError(t, err)
	assert.Equal(t, c, s.Root())
}

func TestScene_NodesByCategoryIsRestartable(t *testing.T) {
	s := New(sequentialIDs())
	s.AddNode(Concept, geom.Pt(0, 0), Labels{Primary: "c1"})
	s.AddNode(Quiz, geom.Pt(0, 0), Labels{Primary: "q1"})
	s.AddNode(Concept, geom.Pt(0, 0), Labels{Primary: "c2"})

	seq := s.NodesByCategory(map[Category]bool{Concept: true})

	labels := func() []string {
		var out []string
		for n := range seq {
			out = append(out, n.LabelPrimary)
		}
		return out
	}
	assert.Equal(t, []string{"c1", "c2"}, labels())

	s.AddNode(Concept, geom.Pt(0, 0), Labels{Primary: "c3"})
	assert.Equal(t, []string{"c1", "c2", "c3"}, labels())

	// Mutating while ranging does not disturb the running iteration.
	var seen []string
	for n := range seq {
		seen = append(seen, n.LabelPrimary)
		if n.LabelPrimary == "c1" {
			s.AddNode(Concept, geom.Pt(0, 0), Labels{Primary: "late"})
		}
	}
	assert.Equal(t, []string{"c1", "c2", "c3"}, seen)

	assert.Len(t, collect(s.NodesByCategory(nil)), 5)
}

func TestScene_VisibleEdges(t *testing.T) {
	s := New(sequentialIDs())
	a := s.AddNode(Concept, geom.Pt(0, 0), Labels{})
	b := s.AddNode(Quiz, geom.Pt(0, 0), Labels{})
	c := s.AddNode(Concept, geom.Pt(0, 0), Labels{})
	s.AddEdge(a, b, Strong)
	ac, _ := s.AddEdge(a, c, Weak)

	f := NewFilter(Concept)
	edges := collect(s.VisibleEdges(f))
	require.Len(t, edges, 1)
	assert.Equal(t, ac, edges[0].ID)

	f.MinStrength = Medium
	assert.Empty(t, collect(s.VisibleEdges(f)))

	assert.Len(t, collect(s.VisibleEdges(Filter{})), 2)
	assert.False(t, s.IsVisible(b, NewFilter(Concept)))
}

func TestScene_MoveAndSelect(t *testing.T) {
	s := New(sequentialIDs())
	a := s.AddNode(Resource, geom.Pt(0, 0), Labels{})
	v := s.Version()

	require.NoError(t, s.Move(a, geom.Pt(7, 8)))
	require.NoError(t, s.SetSelected(a, true))
	n, _ := s.Node(a)
	assert.Equal(t, geom.Pt(7, 8), n.Position)
	assert.True(t, n.Selected)
	assert.Greater(t, s.Version(), v)

	assert.ErrorIs(t, s.Move("nope", geom.Pt(1, 1)), ErrUnknownNode)
	assert.ErrorIs(t, s.SetSelected("nope", true), ErrUnknownNode)
}

func TestScene_Bounds(t *testing.T) {
	s := New(sequentialIDs())
	_, ok := s.Bounds()
	assert.False(t, ok)

	s.AddNode(Concept, geom.Pt(0, 0), Labels{})    // r=30
	s.AddNode(Keyword, geom.Pt(100, 50), Labels{}) // r=20
	r, ok := s.Bounds()
	require.True(t, ok)
	assert.Equal(t, geom.Pt(-30, -30), r.Min)
	assert.Equal(t, geom.Pt(120, 70), r.Max)
}

func TestDecodeSeed(t *testing.T) {
	doc := `
root: hub
nodes:
  - id: hub
    category: concept
    x: 400
    y: 100
    label: 数据结构
    secondary: Data Structures
  - id: q
    category: quiz
    x: 10
    y: 20
    label: 小测
edges:
  - source: hub
    target: q
    strength: strong
`
	s, err := DecodeSeed(strings.NewReader(doc), sequentialIDs())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, NodeID("hub"), s.Root())

	edges := collect(s.Edges())
	require.Len(t, edges, 1)
	assert.Equal(t, Strong, edges[0].Strength)

	_, err = DecodeSeed(strings.NewReader("nodes:\n  - id: x\n    category: planet\n"))
	assert.Error(t, err)

	_, err = DecodeSeed(strings.NewReader("nodes:\n  - id: x\n    category: quiz\nedges:\n  - source: x\n    target: y\n"))
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestDemoSeed(t *testing.T) {
	s, err := DemoSeed().Build()
	require.NoError(t, err)
	assert.Equal(t, 9, s.Len())
	assert.Equal(t, NodeID("ds"), s.Root())
}
