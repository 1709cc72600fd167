package curve

import (
	"fmt"
	"math/big"

	"github.com/ecsim/ecsim/pkg/mod"
	"github.com/ecsim/ecsim/pkg/op"
)

// EllipticCurve pairs a curve Model with a chosen CoordinateModel, bound
// curve parameters, and the neutral element in that coordinate system.
// Ported from pyecsca's EllipticCurve (pyecsca/ec/curve.py).
type EllipticCurve struct {
	Model           *Model
	CoordinateModel *CoordinateModel
	Field           *big.Int
	Parameters      map[string]mod.Mod
	Neutral         *Point
}

// NewEllipticCurve validates that coords belongs to model (or is the
// affine model) and that parameters binds every name in
// model.ParameterNames; extra entries are not rejected.
func NewEllipticCurve(model *Model, coords *CoordinateModel, field *big.Int, parameters map[string]mod.Mod, neutral *Point) (*EllipticCurve, error) {
	if coords.Model != model {
		return nil, fmt.Errorf("curve: coordinate model %s does not belong to curve model %s", coords.Name, model.Name)
	}
	for _, p := range model.ParameterNames {
		if _, ok := parameters[p]; !ok {
			return nil, fmt.Errorf("curve: missing curve parameter %q", p)
		}
	}
	if neutral != nil && neutral.Model != coords {
		return nil, fmt.Errorf("curve: neutral point not in coordinate model %s", coords.Name)
	}
	return &EllipticCurve{Model: model, CoordinateModel: coords, Field: field, Parameters: parameters, Neutral: neutral}, nil
}

// affineEnv binds p1 (and p2, if present) plus the curve's parameters into
// an op evaluation environment keyed the way Model's base-arithmetic ops
// expect it (x1,y1[,x2,y2]).
func (c *EllipticCurve) affineEnv(p1, p2 *Point) map[string]mod.Mod {
	env := map[string]mod.Mod{}
	for k, v := range c.Parameters {
		env[k] = v
	}
	env["x1"] = p1.Coords["x"]
	env["y1"] = p1.Coords["y"]
	if p2 != nil {
		env["x2"] = p2.Coords["x"]
		env["y2"] = p2.Coords["y"]
	}
	return env
}

func (c *EllipticCurve) runBaseOps(env map[string]mod.Mod, ops []*op.CodeOp) (*Point, error) {
	for _, o := range ops {
		v, err := o.Call(env, c.Field)
		if err != nil {
			return nil, fmt.Errorf("curve: %s: %w", c.Model.Name, err)
		}
		env[o.Result] = v
	}
	affine := Affine(c.Model)
	return NewPoint(affine, map[string]mod.Mod{"x": env["x3"], "y": env["y3"]})
}

// AffineAdd computes p1+p2 using the curve model's base addition law.
// Both points must be in the affine coordinate model.
func (c *EllipticCurve) AffineAdd(p1, p2 *Point) (*Point, error) {
	return c.runBaseOps(c.affineEnv(p1, p2), c.Model.BaseAddition)
}

// AffineDouble computes 2*p using the curve model's base doubling law.
func (c *EllipticCurve) AffineDouble(p *Point) (*Point, error) {
	return c.runBaseOps(c.affineEnv(p, nil), c.Model.BaseDoubling)
}

// AffineNegate computes -p using the curve model's base negation law.
func (c *EllipticCurve) AffineNegate(p *Point) (*Point, error) {
	return c.runBaseOps(c.affineEnv(p, nil), c.Model.BaseNegation)
}

// DomainParameters is an elliptic curve plus a distinguished generator and
// the order/cofactor of the subgroup it generates. Ported from pyecsca's
// DomainParameters (pyecsca/ec/params.py).
type DomainParameters struct {
	Curve     *EllipticCurve
	Generator *Point
	Order     *big.Int
	Cofactor  *big.Int
	Name      string
	Category  string
}

func (d *DomainParameters) String() string {
	if d.Category != "" && d.Name != "" {
		return fmt.Sprintf("DomainParameters(%s/%s)", d.Category, d.Name)
	}
	if d.Name != "" {
		return fmt.Sprintf("DomainParameters(%s)", d.Name)
	}
	return fmt.Sprintf("DomainParameters(%s)", d.Curve.Model.Name)
}
