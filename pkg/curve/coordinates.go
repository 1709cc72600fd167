package curve

// Formula is the subset of a formula's identity that the coordinate model
// needs to hold a registry of them, without pkg/curve importing pkg/formula
// (which itself needs CoordinateModel). Concrete formulas are built in
// pkg/formula and satisfy this interface structurally.
type Formula interface {
	Name() string
	Shortname() string
	NumInputs() int
	NumOutputs() int
}

// CoordinateModel is a coordinate system for a particular Model, e.g.
// Jacobian coordinates for short Weierstrass curves. Ported from
// pyecsca's CoordinateModel/EFDCoordinateModel (pyecsca/ec/coordinates.py).
type CoordinateModel struct {
	Name       string
	FullName   string
	Model      *Model
	Variables  []string // e.g. "X","Y","Z" for Jacobian
	Parameters []string // coordinate-system-local parameters, e.g. a derived "a = ..."
	Assumptions []string // raw "lhs = rhs" assumption strings
	Satisfying []string // relation to affine coordinates, informational
	Neutral    []string // coordinates of the neutral element, may reference Parameters
	Formulas   map[string]Formula
}

// NewCoordinateModel registers a coordinate system under model and returns
// it; the caller populates Formulas via RegisterFormula.
func NewCoordinateModel(model *Model, name, fullName string, variables []string) *CoordinateModel {
	cm := &CoordinateModel{
		Name:      name,
		FullName:  fullName,
		Model:     model,
		Variables: variables,
		Formulas:  map[string]Formula{},
	}
	model.Coordinates[name] = cm
	return cm
}

// RegisterFormula adds a formula to the coordinate model's registry under
// its own name, mirroring EFDCoordinateModel's "formulas[fname] = ..." load.
func (cm *CoordinateModel) RegisterFormula(f Formula) {
	cm.Formulas[f.Name()] = f
}

// Affine is the trivial (x,y) coordinate model every curve model carries,
// the analogue of pyecsca's AffineCoordinateModel: it has no formulas of
// its own, points in it are converted to/from a working coordinate system
// via that system's scaling formula. The first call for a model registers
// it under "affine" in model.Coordinates; later calls return that same
// instance, so points, formulas and curves built from separate calls share
// one coordinate model.
func Affine(model *Model) *CoordinateModel {
	if cm, ok := model.Coordinates["affine"]; ok {
		return cm
	}
	cm := &CoordinateModel{
		Name:      "affine",
		FullName:  "Affine coordinates",
		Model:     model,
		Variables: []string{"x", "y"},
		Formulas:  map[string]Formula{},
	}
	if model.Coordinates == nil {
		model.Coordinates = map[string]*CoordinateModel{}
	}
	model.Coordinates["affine"] = cm
	return cm
}
