// Package curve implements the curve/coordinate model hierarchy and the
// Point type that formulas operate on. Ported from pyecsca's ec.model and
// ec.coordinates modules, which load this structure from the Explicit
// Formulas Database (EFD) at import time; here the same shape is built in
// Go, with the curve models' base laws written out in this package, and
// curves are instantiated either by curvedb (from its embedded std-curves
// snapshot) or by a caller constructing them programmatically.
package curve

import "github.com/ecsim/ecsim/pkg/op"

// Model names the algebraic shape of a curve equation — the analogue of
// pyecsca's ShortWeierstrassModel/MontgomeryModel/EdwardsModel/
// TwistedEdwardsModel, which in the original are loaded per-instance from
// EFD's shortw/montgom/edwards/twisted directories. BaseAddition/
// BaseDoubling/BaseNegation are the model's affine-arithmetic formulas
// (EFD's "addition"/"doubling"/"negation" lines in the curve file), used
// to compute with points before any coordinate system has been chosen.
type Model struct {
	Name            string
	ParameterNames  []string
	CoordinateNames []string
	Equation        string
	Coordinates     map[string]*CoordinateModel
	BaseAddition    []*op.CodeOp
	BaseDoubling    []*op.CodeOp
	BaseNegation    []*op.CodeOp
}

// NewModel builds a named curve model. coordinateNames are the affine
// variable names used by the curve's equation (normally "x","y"),
// parameterNames the equation's free coefficients (e.g. "a","b" for short
// Weierstrass, "a","d" for twisted Edwards).
func NewModel(name string, parameterNames, coordinateNames []string, equation string) *Model {
	return &Model{
		Name:            name,
		ParameterNames:  parameterNames,
		CoordinateNames: coordinateNames,
		Equation:        equation,
		Coordinates:     map[string]*CoordinateModel{},
	}
}

func mustOps(lines ...string) []*op.CodeOp {
	ops := make([]*op.CodeOp, len(lines))
	for i, l := range lines {
		o, err := op.Parse(l)
		if err != nil {
			panic(err)
		}
		ops[i] = o
	}
	return ops
}

// ShortWeierstrass builds the y^2 = x^3 + a*x + b model, with the textbook
// affine addition/doubling law (the "standard" formulas found in any
// introductory treatment, e.g. Washington's Elliptic Curves).
func ShortWeierstrass() *Model {
	m := NewModel("shortw", []string{"a", "b"}, []string{"x", "y"}, "y^2 = x^3 + a*x + b")
	m.BaseAddition = mustOps(
		"s = (y2 - y1) / (x2 - x1)",
		"x3 = s^2 - x1 - x2",
		"y3 = s * (x1 - x3) - y1",
	)
	m.BaseDoubling = mustOps(
		"s = (3 * x1^2 + a) / (2 * y1)",
		"x3 = s^2 - 2 * x1",
		"y3 = s * (x1 - x3) - y1",
	)
	m.BaseNegation = mustOps(
		"x3 = x1",
		"y3 = -y1",
	)
	return m
}

// Montgomery builds the b*y^2 = x^3 + a*x^2 + x model.
func Montgomery() *Model {
	m := NewModel("montgom", []string{"a", "b"}, []string{"x", "y"}, "b*y^2 = x^3 + a*x^2 + x")
	m.BaseAddition = mustOps(
		"s = (y2 - y1) / (x2 - x1)",
		"x3 = b * s^2 - a - x1 - x2",
		"y3 = s * (x1 - x3) - y1",
	)
	m.BaseDoubling = mustOps(
		"s = (3 * x1^2 + 2 * a * x1 + 1) / (2 * b * y1)",
		"x3 = b * s^2 - a - 2 * x1",
		"y3 = s * (x1 - x3) - y1",
	)
	m.BaseNegation = mustOps("x3 = x1", "y3 = -y1")
	return m
}

// Edwards builds the x^2 + y^2 = c^2*(1 + d*x^2*y^2) model.
func Edwards() *Model {
	m := NewModel("edwards", []string{"c", "d"}, []string{"x", "y"}, "x^2 + y^2 = c^2*(1 + d*x^2*y^2)")
	m.BaseAddition = mustOps(
		"x3 = (x1*y2 + y1*x2) / (c * (1 + d*x1*x2*y1*y2))",
		"y3 = (y1*y2 - x1*x2) / (c * (1 - d*x1*x2*y1*y2))",
	)
	m.BaseDoubling = mustOps(
		"x3 = (x1*y1 + y1*x1) / (c * (1 + d*x1*x1*y1*y1))",
		"y3 = (y1*y1 - x1*x1) / (c * (1 - d*x1*x1*y1*y1))",
	)
	m.BaseNegation = mustOps("x3 = -x1", "y3 = y1")
	return m
}

// TwistedEdwards builds the a*x^2 + y^2 = 1 + d*x^2*y^2 model.
func TwistedEdwards() *Model {
	m := NewModel("twisted", []string{"a", "d"}, []string{"x", "y"}, "a*x^2 + y^2 = 1 + d*x^2*y^2")
	m.BaseAddition = mustOps(
		"x3 = (x1*y2 + y1*x2) / (1 + d*x1*x2*y1*y2)",
		"y3 = (y1*y2 - a*x1*x2) / (1 - d*x1*x2*y1*y2)",
	)
	m.BaseDoubling = mustOps(
		"x3 = (x1*y1 + y1*x1) / (1 + d*x1*x1*y1*y1)",
		"y3 = (y1*y1 - a*x1*x1) / (1 - d*x1*x1*y1*y1)",
	)
	m.BaseNegation = mustOps("x3 = -x1", "y3 = y1")
	return m
}
