package formula

import "github.com/ecsim/ecsim/pkg/curve"

// StandardAffine builds the three base affine-coordinate formulas (add,
// dbl, neg) against affine, straight out of its model's
// BaseAddition/BaseDoubling/BaseNegation — the "textbook" law every curve
// form in pkg/curve already carries, with no coordinate-system-specific
// optimization. affine must be the same *curve.CoordinateModel instance
// the caller's points were built against (e.g. curvedb.DB.Get's
// params.Curve.CoordinateModel); curve.Affine returns that one instance
// for a given *curve.Model, but a different Model value (such as one from
// a separate curve.ShortWeierstrass() call) carries its own.
func StandardAffine(affine *curve.CoordinateModel) (add, dbl, neg *Formula) {
	model := affine.Model

	add = New(model.Name+"-affine-add", KindAddition, affine)
	add.Code = append(add.Code, model.BaseAddition...)

	dbl = New(model.Name+"-affine-dbl", KindDoubling, affine)
	dbl.Code = append(dbl.Code, model.BaseDoubling...)

	neg = New(model.Name+"-affine-neg", KindNegation, affine)
	neg.Code = append(neg.Code, model.BaseNegation...)

	affine.RegisterFormula(add)
	affine.RegisterFormula(dbl)
	affine.RegisterFormula(neg)
	return add, dbl, neg
}
