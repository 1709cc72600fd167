package curve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ecsim/ecsim/pkg/mod"
)

// Point is a point in some CoordinateModel, carrying one mod.Mod per
// coordinate variable. Ported from pyecsca's Point (pyecsca/ec/point.py).
type Point struct {
	Model  *CoordinateModel
	Coords map[string]mod.Mod
}

// NewPoint builds a point, requiring exactly the coordinate model's
// variables to be bound.
func NewPoint(model *CoordinateModel, coords map[string]mod.Mod) (*Point, error) {
	if len(coords) != len(model.Variables) {
		return nil, fmt.Errorf("curve: wrong number of coordinates for %s", model.Name)
	}
	for _, v := range model.Variables {
		if _, ok := coords[v]; !ok {
			return nil, fmt.Errorf("curve: missing coordinate %q for %s", v, model.Name)
		}
	}
	return &Point{Model: model, Coords: coords}, nil
}

// Equal reports whether p and other carry the same coordinate values in
// the same coordinate model.
func (p *Point) Equal(other *Point) bool {
	if p.Model != other.Model {
		return false
	}
	for k, v := range p.Coords {
		ov, ok := other.Coords[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

func (p *Point) String() string {
	keys := make([]string, 0, len(p.Coords))
	for k := range p.Coords {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, p.Coords[k]))
	}
	return fmt.Sprintf("Point([%s] in %s)", strings.Join(parts, ", "), p.Model.Name)
}
