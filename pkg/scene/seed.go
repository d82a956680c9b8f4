package scene

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/recera/kgcanvas/pkg/geom"
)

// Seed is the YAML document a canvas is initially loaded from. It is only
// ever read; the canvas never writes its graph back.
type Seed struct {
	Root  NodeID     `yaml:"root,omitempty"`
	Nodes []SeedNode `yaml:"nodes"`
	Edges []SeedEdge `yaml:"edges,omitempty"`
}

// SeedNode is one node entry of a seed.
type SeedNode struct {
	ID        NodeID   `yaml:"id"`
	Category  Category `yaml:"category"`
	X         float64  `yaml:"x"`
	Y         float64  `yaml:"y"`
	Label     string   `yaml:"label"`
	Secondary string   `yaml:"secondary,omitempty"`
}

// SeedEdge is one edge entry of a seed.
type SeedEdge struct {
	ID       EdgeID   `yaml:"id,omitempty"`
	Source   NodeID   `yaml:"source"`
	Target   NodeID   `yaml:"target"`
	Strength Strength `yaml:"strength,omitempty"`
}

// LoadSeed reads a seed file and builds a scene from it.
func LoadSeed(path string, opts ...Option) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed: %w", err)
	}
	defer f.Close()
	return DecodeSeed(f, opts...)
}

// DecodeSeed parses a YAML seed and builds a scene from it.
func DecodeSeed(r io.Reader, opts ...Option) (*Scene, error) {
	var seed Seed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	return seed.Build(opts...)
}

// Build creates a fresh scene holding the seed's nodes and edges.
func (sd Seed) Build(opts ...Option) (*Scene, error) {
	s := New(opts...)
	for _, n := range sd.Nodes {
		if !n.Category.Known() {
			return nil, fmt.Errorf("seed node %s: unknown category %q", n.ID, n.Category)
		}
		err := s.Insert(Node{
			ID:             n.ID,
			Position:       geom.Pt(n.X, n.Y),
			Category:       n.Category,
			LabelPrimary:   n.Label,
			LabelSecondary: n.Secondary,
		})
		if err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
	}
	for _, e := range sd.Edges {
		strength := e.Strength
		if strength == 0 {
			strength = Medium
		}
		var err error
		if e.ID == "" {
			_, err = s.AddEdge(e.Source, e.Target, strength)
		} else {
			err = s.InsertEdge(Edge{ID: e.ID, Source: e.Source, Target: e.Target, Strength: strength})
		}
		if err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
	}
	if sd.Root != "" {
		if err := s.SetRoot(sd.Root); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
	}
	return s, nil
}

// DemoSeed is the chapter graph shown when no seed file is configured: one
// central concept surrounded by eight related items.
func DemoSeed() Seed {
	return Seed{
		Root: "ds",
		Nodes: []SeedNode{
			{ID: "ds", Category: Concept, X: 400, Y: 300, Label: "数据结构", Secondary: "Data Structures"},
			{ID: "tree", Category: Concept, X: 560, Y: 260, Label: "树", Secondary: "Tree"},
			{ID: "graph", Category: Concept, X: 250, Y: 260, Label: "图", Secondary: "Graph"},
			{ID: "slides", Category: Courseware, X: 220, Y: 160, Label: "第三章课件", Secondary: "Chapter 3 Slides"},
			{ID: "lab", Category: Courseware, X: 580, Y: 150, Label: "实验指导", Secondary: "Lab Guide"},
			{ID: "quiz1", Category: Quiz, X: 620, Y: 380, Label: "随堂测验", Secondary: "Pop Quiz"},
			{ID: "video", Category: Resource, X: 200, Y: 420, Label: "讲解视频", Secondary: "Lecture Video"},
			{ID: "bfs", Category: Keyword, X: 330, Y: 450, Label: "广度优先", Secondary: "BFS"},
			{ID: "dfs", Category: Keyword, X: 470, Y: 450, Label: "深度优先", Secondary: "DFS"},
		},
		Edges: []SeedEdge{
			{Source: "ds", Target: "tree", Strength: Strong},
			{Source: "ds", Target: "graph", Strength: Strong},
			{Source: "ds", Target: "slides", Strength: Medium},
			{Source: "tree", Target: "lab", Strength: Medium},
			{Source: "tree", Target: "quiz1", Strength: Weak},
			{Source: "graph", Target: "video", Strength: Medium},
			{Source: "graph", Target: "bfs", Strength: Strong},
			{Source: "graph", Target: "dfs", Strength: Strong},
			{Source: "tree", Target: "dfs", Strength: Weak},
		},
	}
}
