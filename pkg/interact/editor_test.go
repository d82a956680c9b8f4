package interact

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/kgcanvas/pkg/geom"
	"github.com/recera/kgcanvas/pkg/scene"
)

func TestEditor_ChildPositionStaysInRing(t *testing.T) {
	ed := NewEditor(rand.New(rand.NewPCG(7, 7)), 100, 150)
	parent := geom.Pt(-40, 250)
	for i := 0; i < 500; i++ {
		d := ed.ChildPosition(parent).Dist(parent)
		require.GreaterOrEqual(t, d, 100.0-1e-9)
		require.LessOrEqual(t, d, 150.0+1e-9)
	}
}

func TestEditor_Labels(t *testing.T) {
	ed := NewEditor(nil, 100, 150)

	l, err := ed.Labels(" 小测 ", "Quiz ")
	require.NoError(t, err)
	assert.Equal(t, scene.Labels{Primary: "小测", Secondary: "Quiz"}, l)

	l, err = ed.Labels("", "Quiz")
	require.NoError(t, err)
	assert.Equal(t, scene.Labels{Primary: "Quiz"}, l)

	_, err = ed.Labels("", " ")
	assert.True(t, errors.Is(err, ErrEmptyName))
}

func TestEditor_CreateUnknownParent(t *testing.T) {
	ed := NewEditor(nil, 100, 150)
	sc := scene.New()

	_, _, err := ed.Create(sc, Dialog{Parent: "ghost", Category: scene.Quiz}, "小测", "Quiz")
	require.ErrorIs(t, err, scene.ErrUnknownNode)
	assert.Equal(t, 0, sc.Len())
	assert.Equal(t, 0, sc.EdgeLen())
}

func TestEditor_CreateLinksToParent(t *testing.T) {
	ed := NewEditor(nil, 100, 150)
	sc := scene.New()
	parent := sc.AddNode(scene.Concept, geom.Pt(0, 0), scene.Labels{Primary: "root"})

	id, eid, err := ed.Create(sc, Dialog{Parent: parent, Category: scene.Keyword, Position: geom.Pt(120, 0)}, "", "DFS")
	require.NoError(t, err)
	n, _ := sc.Node(id)
	assert.Equal(t, 20.0, n.Radius)
	e, _ := sc.Edge(eid)
	assert.Equal(t, parent, e.Source)
	assert.Equal(t, id, e.Target)
	assert.Equal(t, scene.Medium, e.Strength)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "node-dialog-open", NodeDialogOpen.String())
	assert.Equal(t, "State(42)", State(42).String())
	b, _ := Panning.MarshalText()
	assert.Equal(t, "panning", string(b))
	assert.Equal(t, "warning", StatusWarning.String())
}
