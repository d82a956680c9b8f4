// Package scene is the node/edge model of a graph canvas. Nodes live in an
// insertion-ordered table; edges refer to nodes by id only and an incidence
// index keeps adjacency lookups independent of node coordinates.
package scene

import (
	"fmt"
	"iter"

	"github.com/google/uuid"

	"github.com/recera/kgcanvas/pkg/geom"
)

// NodeID identifies a node for its whole lifetime.
type NodeID string

// EdgeID identifies an edge.
type EdgeID string

// Labels are the two display names of a node.
type Labels struct {
	Primary   string `json:"primary" yaml:"primary"`
	Secondary string `json:"secondary,omitempty" yaml:"secondary,omitempty"`
}

// Node is a circle in scene space.
type Node struct {
	ID             NodeID     `json:"id"`
	Position       geom.Point `json:"position"`
	Radius         float64    `json:"radius"`
	Category       Category   `json:"category"`
	ColorWeight    float64    `json:"colorWeight"`
	LabelPrimary   string     `json:"labelPrimary"`
	LabelSecondary string     `json:"labelSecondary,omitempty"`
	Selected       bool       `json:"selected"`
}

// Edge connects two nodes.
type Edge struct {
	ID       EdgeID   `json:"id"`
	Source   NodeID   `json:"source"`
	Target   NodeID   `json:"target"`
	Strength Strength `json:"strength"`
}

// Other returns the endpoint of e that is not id.
func (e Edge) Other(id NodeID) NodeID {
	if e.Source == id {
		return e.Target
	}
	return e.Source
}

// Scene owns the nodes and edges of one canvas. It is not safe for
// concurrent use; a canvas mutates it from a single event loop.
type Scene struct {
	nodes     []*Node
	nodeIndex map[NodeID]int
	edges     []*Edge
	edgeIndex map[EdgeID]int
	incident  map[NodeID][]EdgeID
	root      NodeID
	newID     func() string
	version   uint64
}

// Option configures a Scene.
type Option func(*Scene)

// WithIDGenerator replaces the uuid-based id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Scene) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New creates an empty scene.
func New(opts ...Option) *Scene {
	s := &Scene{
		nodeIndex: make(map[NodeID]int),
		edgeIndex: make(map[EdgeID]int),
		incident:  make(map[NodeID][]EdgeID),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Version increases with every mutation.
func (s *Scene) Version() uint64 { return s.version }

// Len returns the number of nodes.
func (s *Scene) Len() int { return len(s.nodes) }

// EdgeLen returns the number of edges.
func (s *Scene) EdgeLen() int { return len(s.edges) }

// AddNode creates a node of the given category. Radius and color weight come
// from the category style table.
func (s *Scene) AddNode(c Category, pos geom.Point, labels Labels) NodeID {
	id := NodeID(s.newID())
	for s.Has(id) {
		id = NodeID(s.newID())
	}
	s.insert(newNode(id, c, pos, labels))
	return id
}

// Insert adds a node with a caller-chosen id, as seeds do. Radius and color
// weight are taken from the category table when n leaves them zero.
func (s *Scene) Insert(n Node) error {
	if n.ID == "" {
		return fmt.Errorf("insert node: empty id")
	}
	if s.Has(n.ID) {
		return fmt.Errorf("insert node %s: %w", n.ID, ErrDuplicateNode)
	}
	st := n.Category.Style()
	if n.Radius <= 0 {
		n.Radius = st.Radius
	}
	if n.ColorWeight <= 0 {
		n.ColorWeight = st.ColorWeight
	}
	if !n.Position.Finite() {
		n.Position = geom.Point{}
	}
	s.insert(&n)
	return nil
}

func newNode(id NodeID, c Category, pos geom.Point, labels Labels) *Node {
	st := c.Style()
	if !pos.Finite() {
		pos = geom.Point{}
	}
	return &Node{
		ID:             id,
		Position:       pos,
		Radius:         st.Radius,
		Category:       c,
		ColorWeight:    st.ColorWeight,
		LabelPrimary:   labels.Primary,
		LabelSecondary: labels.Secondary,
	}
}

func (s *Scene) insert(n *Node) {
	s.nodeIndex[n.ID] = len(s.nodes)
	s.nodes = append(s.nodes, n)
	if s.root == "" {
		s.root = n.ID
	}
	s.version++
}

// Has reports whether the node exists.
func (s *Scene) Has(id NodeID) bool {
	_, ok := s.nodeIndex[id]
	return ok
}

// Node returns a copy of the node.
func (s *Scene) Node(id NodeID) (Node, bool) {
	i, ok := s.nodeIndex[id]
	if !ok {
		return Node{}, false
	}
	return *s.nodes[i], true
}

// Edge returns a copy of the edge.
func (s *Scene) Edge(id EdgeID) (Edge, bool) {
	i, ok := s.edgeIndex[id]
	if !ok {
		return Edge{}, false
	}
	return *s.edges[i], true
}

// Root returns the central node: the one set with SetRoot, otherwise the
// first node inserted. It is empty for an empty scene.
func (s *Scene) Root() NodeID { return s.root }

// SetRoot marks id as the central node.
func (s *Scene) SetRoot(id NodeID) error {
	if !s.Has(id) {
		return fmt.Errorf("set root %s: %w", id, ErrUnknownNode)
	}
	s.root = id
	return nil
}

// Move sets the scene position of a node. Non-finite positions are ignored.
func (s *Scene) Move(id NodeID, pos geom.Point) error {
	i, ok := s.nodeIndex[id]
	if !ok {
		return fmt.Errorf("move %s: %w", id, ErrUnknownNode)
	}
	if !pos.Finite() {
		return nil
	}
	s.nodes[i].Position = pos
	s.version++
	return nil
}

// SetSelected sets the selected flag of a node.
func (s *Scene) SetSelected(id NodeID, selected bool) error {
	i, ok := s.nodeIndex[id]
	if !ok {
		return fmt.Errorf("select %s: %w", id, ErrUnknownNode)
	}
	if s.nodes[i].Selected != selected {
		s.nodes[i].Selected = selected
		s.version++
	}
	return nil
}

// AddEdge connects source to target. Both nodes must exist; otherwise the
// edge set is left unchanged and ErrUnknownNode is returned.
func (s *Scene) AddEdge(source, target NodeID, strength Strength) (EdgeID, error) {
	for _, id := range []NodeID{source, target} {
		if !s.Has(id) {
			return "", fmt.Errorf("add edge %s -> %s: node %s: %w", source, target, id, ErrUnknownNode)
		}
	}
	if strength < Weak || strength > Strong {
		strength = Medium
	}
	id := EdgeID(s.newID())
	for {
		if _, taken := s.edgeIndex[id]; !taken {
			break
		}
		id = EdgeID(s.newID())
	}
	s.insertEdge(&Edge{ID: id, Source: source, Target: target, Strength: strength})
	return id, nil
}

// InsertEdge adds an edge with a caller-chosen id.
func (s *Scene) InsertEdge(e Edge) error {
	if e.ID == "" {
		return fmt.Errorf("insert edge: empty id")
	}
	if _, taken := s.edgeIndex[e.ID]; taken {
		return fmt.Errorf("insert edge %s: %w", e.ID, ErrDuplicateEdge)
	}
	for _, id := range []NodeID{e.Source, e.Target} {
		if !s.Has(id) {
			return fmt.Errorf("insert edge %s: node %s: %w", e.ID, id, ErrUnknownNode)
		}
	}
	if e.Strength < Weak || e.Strength > Strong {
		e.Strength = Medium
	}
	s.insertEdge(&e)
	return nil
}

func (s *Scene) insertEdge(e *Edge) {
	s.edgeIndex[e.ID] = len(s.edges)
	s.edges = append(s.edges, e)
	s.incident[e.Source] = append(s.incident[e.Source], e.ID)
	if e.Target != e.Source {
		s.incident[e.Target] = append(s.incident[e.Target], e.ID)
	}
	s.version++
}

// RemoveEdge deletes an edge.
func (s *Scene) RemoveEdge(id EdgeID) error {
	i, ok := s.edgeIndex[id]
	if !ok {
		return fmt.Errorf("remove edge %s: %w", id, ErrUnknownEdge)
	}
	e := s.edges[i]
	s.edges = append(s.edges[:i], s.edges[i+1:]...)
	delete(s.edgeIndex, id)
	for j := i; j < len(s.edges); j++ {
		s.edgeIndex[s.edges[j].ID] = j
	}
	s.incident[e.Source] = without(s.incident[e.Source], id)
	s.incident[e.Target] = without(s.incident[e.Target], id)
	s.version++
	return nil
}

// RemoveNode deletes a node together with every edge incident to it.
// It returns the ids of the removed edges.
func (s *Scene) RemoveNode(id NodeID) ([]EdgeID, error) {
	i, ok := s.nodeIndex[id]
	if !ok {
		return nil, fmt.Errorf("remove node %s: %w", id, ErrUnknownNode)
	}
	removed := append([]EdgeID(nil), s.incident[id]...)
	for _, eid := range removed {
		if err := s.RemoveEdge(eid); err != nil {
			return nil, err
		}
	}
	delete(s.incident, id)

	s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
	delete(s.nodeIndex, id)
	for j := i; j < len(s.nodes); j++ {
		s.nodeIndex[s.nodes[j].ID] = j
	}
	if s.root == id {
		s.root = ""
		if len(s.nodes) > 0 {
			s.root = s.nodes[0].ID
		}
	}
	s.version++
	return removed, nil
}

func without(ids []EdgeID, id EdgeID) []EdgeID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// Nodes yields every node in insertion order.
func (s *Scene) Nodes() iter.Seq[Node] {
	return s.NodesByCategory(nil)
}

// NodesByCategory yields the nodes whose category is in filter, in insertion
// order. An empty filter yields every node. Each iteration works on the node
// table as it was when the iteration started, so the sequence can be ranged
// again later and may be ranged while the scene is mutated.
func (s *Scene) NodesByCategory(filter map[Category]bool) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		snapshot := make([]Node, len(s.nodes))
		for i, n := range s.nodes {
			snapshot[i] = *n
		}
		for _, n := range snapshot {
			if len(filter) > 0 && !filter[n.Category] {
				continue
			}
			if !yield(n) {
				return
			}
		}
	}
}

// Edges yields every edge in insertion order.
func (s *Scene) Edges() iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		snapshot := make([]Edge, len(s.edges))
		for i, e := range s.edges {
			snapshot[i] = *e
		}
		for _, e := range snapshot {
			if !yield(e) {
				return
			}
		}
	}
}

// EdgesIncidentTo yields the edges that have id as an endpoint. It reads the
// incidence index and never compares coordinates.
func (s *Scene) EdgesIncidentTo(id NodeID) iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		ids := append([]EdgeID(nil), s.incident[id]...)
		for _, eid := range ids {
			e, ok := s.Edge(eid)
			if !ok {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Bounds returns the scene-space rectangle covering every node circle.
// ok is false for an empty scene.
func (s *Scene) Bounds() (r geom.Rect, ok bool) {
	for i, n := range s.nodes {
		r = r.Expand(n.Position, n.Radius, i == 0)
	}
	return r, len(s.nodes) > 0
}
