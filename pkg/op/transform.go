package op

// This file gives pkg/formula/graph's structural transforms (Fliparoo,
// SwitchSign) enough access to a CodeOp's parsed right-hand side to
// rewrite it algebraically, without exposing the expr type itself.
// Ported from pyecsca's fliparoo.py (commutative-operand canonicalization)
// and switch_sign.py (negation folding), expressed against this package's
// own expr tree rather than copying their AST pattern-matching structure.

// IsNegation reports whether c's right-hand side is a single unary
// negation, e.g. "Z3 = -X1" — the shape SwitchSign looks for to fold a
// negation node into its consumers.
func (c *CodeOp) IsNegation() bool {
	return c.rhs.kind == exprNeg
}

// NegatedOperand returns the identifier being negated when IsNegation is
// true, and false otherwise (including when the negated operand is
// itself a compound expression rather than a bare identifier).
func (c *CodeOp) NegatedOperand() (string, bool) {
	if c.rhs.kind != exprNeg || c.rhs.left.kind != exprIdent {
		return "", false
	}
	return c.rhs.left.name, true
}

// Canonicalize returns c reparsed through its canonical serialization,
// with every commutative operand pair (+, *) at every level of its
// expression tree sorted into a fixed order — so that two ops differing only in
// commutative operand order ("X*Y" vs "Y*X") end up with textually
// identical right-hand sides, the precondition
// FormulaGraph.EliminateDuplicateOps needs to recognize them as the same
// computation. The op is always returned in its canonical form, even
// when ok is false; ok just reports whether any operand pair was
// actually reordered, for callers that want a change count.
func (c *CodeOp) Canonicalize() (*CodeOp, bool) {
	swapped := false
	canon := canonicalizeExpr(c.rhs, &swapped)
	parsed, err := Parse(c.Result + " = " + canon.String())
	if err != nil {
		return c, false
	}
	return parsed, swapped
}

func canonicalizeExpr(e *expr, swapped *bool) *expr {
	switch e.kind {
	case exprNumber, exprIdent:
		return e
	case exprNeg:
		return &expr{kind: exprNeg, left: canonicalizeExpr(e.left, swapped)}
	case exprBin:
		l := canonicalizeExpr(e.left, swapped)
		r := canonicalizeExpr(e.right, swapped)
		if (e.op == '+' || e.op == '*') && r.String() < l.String() {
			l, r = r, l
			*swapped = true
		}
		return &expr{kind: exprBin, op: e.op, left: l, right: r}
	default:
		return e
	}
}

// Inline returns a copy of c with every occurrence of name replaced by
// the negation replacement describes (so "Z3 = -X1" substitutes "-X1"
// for every "Z3"), algebraically folding the result: a resulting
// "+(-x)" becomes "-x", a resulting "-(-x)" becomes "+x", and a direct
// double negation cancels outright. ok is false when replacement isn't
// a pure negation, or the rewritten expression fails to re-parse.
func (c *CodeOp) Inline(name string, replacement *CodeOp) (*CodeOp, bool) {
	if !replacement.IsNegation() {
		return nil, false
	}
	substituted := substituteExpr(c.rhs, name, &expr{kind: exprNeg, left: replacement.rhs.left})
	simplified := simplifyNeg(substituted)
	parsed, err := Parse(c.Result + " = " + simplified.String())
	if err != nil {
		return nil, false
	}
	return parsed, true
}

func substituteExpr(e *expr, name string, replacement *expr) *expr {
	switch e.kind {
	case exprNumber:
		return e
	case exprIdent:
		if e.name == name {
			return replacement
		}
		return e
	case exprNeg:
		return &expr{kind: exprNeg, left: substituteExpr(e.left, name, replacement)}
	case exprBin:
		return &expr{
			kind:  exprBin,
			op:    e.op,
			left:  substituteExpr(e.left, name, replacement),
			right: substituteExpr(e.right, name, replacement),
		}
	default:
		return e
	}
}

// simplifyNeg folds double negations and negated right-hand operands of
// +/- into the opposite operator, bottom-up.
func simplifyNeg(e *expr) *expr {
	switch e.kind {
	case exprNumber, exprIdent:
		return e
	case exprNeg:
		inner := simplifyNeg(e.left)
		if inner.kind == exprNeg {
			return inner.left
		}
		return &expr{kind: exprNeg, left: inner}
	case exprBin:
		l := simplifyNeg(e.left)
		r := simplifyNeg(e.right)
		if e.op == '+' && r.kind == exprNeg {
			return &expr{kind: exprBin, op: '-', left: l, right: r.left}
		}
		if e.op == '-' && r.kind == exprNeg {
			return &expr{kind: exprBin, op: '+', left: l, right: r.left}
		}
		return &expr{kind: exprBin, op: e.op, left: l, right: r}
	default:
		return e
	}
}
