package scene

import (
	"fmt"
	"strings"

	"github.com/recera/kgcanvas/pkg/geom"
)

// Category classifies a node. It selects the node's radius, color and icon.
type Category string

const (
	Concept    Category = "concept"
	Courseware Category = "courseware"
	Quiz       Category = "quiz"
	Resource   Category = "resource"
	Keyword    Category = "keyword"
)

// DefaultRadius is used for categories missing from the style table.
const DefaultRadius = 25

// Style is the fixed presentation of a category.
type Style struct {
	Radius      float64
	ColorWeight float64
	Color       string
	Icon        string
	Label       string
	// Home is where the force layout resets nodes of this category.
	Home geom.Point
}

// categories is ordered the way the context menu lists them.
var categories = []Category{Concept, Courseware, Quiz, Resource, Keyword}

var styles = map[Category]Style{
	Concept:    {Radius: 30, ColorWeight: 1.0, Color: "#4f46e5", Icon: "◆", Label: "Concept", Home: geom.Pt(400, 300)},
	Courseware: {Radius: 25, ColorWeight: 0.8, Color: "#0ea5e9", Icon: "▣", Label: "Courseware", Home: geom.Pt(200, 180)},
	Quiz:       {Radius: 25, ColorWeight: 0.7, Color: "#f59e0b", Icon: "?", Label: "Quiz", Home: geom.Pt(600, 180)},
	Resource:   {Radius: 25, ColorWeight: 0.6, Color: "#10b981", Icon: "●", Label: "Resource", Home: geom.Pt(200, 420)},
	Keyword:    {Radius: 20, ColorWeight: 0.5, Color: "#ec4899", Icon: "#", Label: "Keyword", Home: geom.Pt(600, 420)},
}

var fallbackStyle = Style{Radius: DefaultRadius, ColorWeight: 0.5, Color: "#94a3b8", Icon: "○", Label: "Node", Home: geom.Pt(400, 300)}

// Categories returns every known category in menu order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Known reports whether c is in the style table.
func (c Category) Known() bool {
	_, ok := styles[c]
	return ok
}

// Style returns the presentation of c.
func (c Category) Style() Style {
	if s, ok := styles[c]; ok {
		return s
	}
	return fallbackStyle
}

func (c Category) String() string { return string(c) }

// ParseCategory accepts a category name in any letter case.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Known() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Strength is the coarse weight tier of an edge. It only affects rendering.
type Strength int

const (
	Weak Strength = iota + 1
	Medium
	Strong
)

// Width is the rendered stroke width of the tier.
func (s Strength) Width() float64 {
	switch s {
	case Weak:
		return 1
	case Strong:
		return 3
	default:
		return 2
	}
}

func (s Strength) String() string {
	switch s {
	case Weak:
		return "weak"
	case Medium:
		return "medium"
	case Strong:
		return "strong"
	}
	return fmt.Sprintf("Strength(%d)", int(s))
}

// ParseStrength parses "weak", "medium" or "strong".
func ParseStrength(s string) (Strength, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weak":
		return Weak, nil
	case "medium", "":
		return Medium, nil
	case "strong":
		return Strong, nil
	}
	return 0, fmt.Errorf("unknown strength %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Strength) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strength) UnmarshalText(b []byte) error {
	v, err := ParseStrength(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
