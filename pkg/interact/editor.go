package interact

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/recera/kgcanvas/pkg/geom"
	"github.com/recera/kgcanvas/pkg/scene"
)

// MaxNameLength is the longest accepted node name, in runes.
const MaxNameLength = 64

// Draft is the user input of the node dialog.
type Draft struct {
	NameZh string `validate:"required_without=NameEn,max=64"`
	NameEn string `validate:"required_without=NameZh,max=64"`
}

// Dialog is the pending node creation shown while the engine is in
// NodeDialogOpen.
type Dialog struct {
	Parent   scene.NodeID   `json:"parent"`
	Category scene.Category `json:"category"`
	// Position is the provisional scene position of the new node.
	Position geom.Point `json:"position"`
}

// Editor turns dialog input into scene mutations.
type Editor struct {
	validate *validator.Validate
	rng      *rand.Rand
	min, max float64
}

// NewEditor creates an editor that places children between min and max
// scene units from their parent.
func NewEditor(rng *rand.Rand, min, max float64) *Editor {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if min < 0 || math.IsNaN(min) {
		min = 0
	}
	if max < min || math.IsNaN(max) {
		max = min
	}
	return &Editor{validate: validator.New(), rng: rng, min: min, max: max}
}

// ChildPosition returns a random point at a distance in [min, max] from
// parent.
func (ed *Editor) ChildPosition(parent geom.Point) geom.Point {
	angle := ed.rng.Float64() * 2 * math.Pi
	dist := ed.min + ed.rng.Float64()*(ed.max-ed.min)
	return parent.Add(geom.Pt(math.Cos(angle), math.Sin(angle)).Mul(dist))
}

// Labels validates the two names and returns the labels of the new node.
// The Chinese name is the primary label when present.
func (ed *Editor) Labels(nameZh, nameEn string) (scene.Labels, error) {
	d := Draft{NameZh: strings.TrimSpace(nameZh), NameEn: strings.TrimSpace(nameEn)}
	if err := ed.validate.Struct(d); err != nil {
		return scene.Labels{}, translate(err)
	}
	if d.NameZh == "" {
		return scene.Labels{Primary: d.NameEn}, nil
	}
	return scene.Labels{Primary: d.NameZh, Secondary: d.NameEn}, nil
}

func translate(err error) error {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return fmt.Errorf("failed to validate node name: %w", err)
	}
	f := fields[0]
	switch f.Tag() {
	case "required_without":
		return &ValidationError{Field: "name", Message: "enter a Chinese or English name", kind: ErrEmptyName}
	case "max":
		return &ValidationError{Field: f.Field(), Message: fmt.Sprintf("must be at most %d characters", MaxNameLength)}
	}
	return &ValidationError{Field: f.Field(), Message: f.Error()}
}

// Create adds the node described by d and the names, then links it to the
// parent with a medium edge. The scene is left unchanged on error.
func (ed *Editor) Create(sc *scene.Scene, d Dialog, nameZh, nameEn string) (scene.NodeID, scene.EdgeID, error) {
	labels, err := ed.Labels(nameZh, nameEn)
	if err != nil {
		return "", "", err
	}
	if !sc.Has(d.Parent) {
		return "", "", fmt.Errorf("failed to create child of %s: %w", d.Parent, scene.ErrUnknownNode)
	}
	id := sc.AddNode(d.Category, d.Position, labels)
	eid, err := sc.AddEdge(d.Parent, id, scene.Medium)
	if err != nil {
		if _, rmErr := sc.RemoveNode(id); rmErr != nil {
			err = errors.Join(err, rmErr)
		}
		return "", "", fmt.Errorf("failed to link new node: %w", err)
	}
	return id, eid, nil
}
