package mod

import (
	"fmt"
	"math/big"

	"github.com/ecsim/ecsim/pkg/ecerrors"
)

// exprKind tags the shape of a symbolicMod expression node.
type exprKind int

const (
	exprLiteral exprKind = iota
	exprVar
	exprUnary
	exprBinary
)

// symExpr is a symbolic expression tree over a named alphabet, the
// expression-valued analogue of rawMod's big.Int. Ported from pyecsca's
// SymbolicMod (pyecsca/ec/mod/symbolic.py), which backs Mod.x with a
// sympy expression; Go has no such CAS so this models just enough algebra
// (unevaluated +,-,*,/,neg,pow) to let a Formula execute symbolically and
// print a readable expression, per the spec's "executable symbolically or
// concretely" requirement.
type symExpr struct {
	kind  exprKind
	lit   *big.Int
	name  string
	op    byte // '+','-','*','/','n' (neg), '^'
	left  *symExpr
	right *symExpr
	exp   *big.Int
}

func (e *symExpr) String() string {
	switch e.kind {
	case exprLiteral:
		return e.lit.String()
	case exprVar:
		return e.name
	case exprUnary:
		return fmt.Sprintf("(-%s)", e.left)
	case exprBinary:
		return fmt.Sprintf("(%s %c %s)", e.left, e.op, e.right)
	}
	return "?"
}

// symbolicMod is the symbolic-backend Mod: same arithmetic contract as
// rawMod but x is a symExpr rather than a concrete integer, and sqrt/
// is_residue/cube_root are not implemented (they would require a real CAS
// to find roots of an unevaluated expression).
type symbolicMod struct {
	x *symExpr
	n *big.Int
}

func newSymbolicLiteral(x, n *big.Int) *symbolicMod {
	reduced := new(big.Int).Mod(x, n)
	return &symbolicMod{x: &symExpr{kind: exprLiteral, lit: reduced}, n: n}
}

// NewSymbolicVariable builds a symbolic Mod standing for a named free
// variable over Z/nZ, e.g. for use as a formula input during symbolic
// unrolling (graph round-trip / transform-preservation tests).
func NewSymbolicVariable(name string, n *big.Int) Mod {
	return &symbolicMod{x: &symExpr{kind: exprVar, name: name}, n: n}
}

func (m *symbolicMod) X() *big.Int { return nil }
func (m *symbolicMod) N() *big.Int { return m.n }

func (m *symbolicMod) asSymbolic(other Mod) (*symbolicMod, error) {
	if o, ok := other.(*symbolicMod); ok {
		if o.n.Cmp(m.n) != 0 {
			return nil, ecerrors.ModulusMismatch
		}
		return o, nil
	}
	if other.N().Cmp(m.n) != 0 {
		return nil, ecerrors.ModulusMismatch
	}
	return newSymbolicLiteral(other.X(), m.n), nil
}

func (m *symbolicMod) binop(other Mod, op byte) (Mod, error) {
	o, err := m.asSymbolic(other)
	if err != nil {
		return nil, err
	}
	return &symbolicMod{x: &symExpr{kind: exprBinary, op: op, left: m.x, right: o.x}, n: m.n}, nil
}

func (m *symbolicMod) Add(other Mod) (Mod, error) { return m.binop(other, '+') }
func (m *symbolicMod) Sub(other Mod) (Mod, error) { return m.binop(other, '-') }
func (m *symbolicMod) Mul(other Mod) (Mod, error) { return m.binop(other, '*') }
func (m *symbolicMod) Div(other Mod) (Mod, error) { return m.binop(other, '/') }

func (m *symbolicMod) Neg() Mod {
	return &symbolicMod{x: &symExpr{kind: exprUnary, left: m.x}, n: m.n}
}

func (m *symbolicMod) Inverse() (Mod, error) {
	return &symbolicMod{x: &symExpr{kind: exprBinary, op: '/', left: &symExpr{kind: exprLiteral, lit: big.NewInt(1)}, right: m.x}, n: m.n}, nil
}

func (m *symbolicMod) Pow(e *big.Int) (Mod, error) {
	return &symbolicMod{x: &symExpr{kind: exprBinary, op: '^', left: m.x, right: &symExpr{kind: exprLiteral, lit: e}, exp: e}, n: m.n}, nil
}

func (m *symbolicMod) Sqrt() (Mod, error) {
	return nil, fmt.Errorf("sqrt: %w", ecerrors.NotImplementedForComposite)
}

func (m *symbolicMod) IsResidue() (bool, error) {
	return false, fmt.Errorf("is_residue: %w", ecerrors.NotImplementedForComposite)
}

func (m *symbolicMod) CubeRoot() (Mod, error) {
	return nil, fmt.Errorf("cube_root: %w", ecerrors.NotImplementedForComposite)
}

func (m *symbolicMod) IsCubicResidue() (bool, error) {
	return false, fmt.Errorf("is_cubic_residue: %w", ecerrors.NotImplementedForComposite)
}

func (m *symbolicMod) BitLen() (int, error) {
	return 0, fmt.Errorf("bit_length: not defined for a symbolic element")
}

func (m *symbolicMod) Bytes() ([]byte, error) {
	return nil, fmt.Errorf("bytes: not defined for a symbolic element")
}

func (m *symbolicMod) Equal(other Mod) bool {
	o, ok := other.(*symbolicMod)
	if !ok {
		return false
	}
	return m.x.String() == o.x.String() && m.n.Cmp(o.n) == 0
}

func (m *symbolicMod) String() string {
	return m.x.String()
}
