package op

import (
	"fmt"
	"math/big"
	"sort"
	"unicode"

	"github.com/ecsim/ecsim/pkg/ecerrors"
	"github.com/ecsim/ecsim/pkg/mod"
)

// CodeOp is one compiled assignment from an op3 listing, e.g. "Z3 = Z1*Z2".
// Result names the assigned coordinate. Parameters are the lowercase
// identifiers it reads (curve parameters such as a, b, d, bound once per
// curve). Variables are the uppercase identifiers it reads — other
// coordinates and intermediate results, rebound on every formula
// execution. Operator is the top-level binary operator of the right-hand
// side, when the RHS is a single binary operation, used by the graph
// transforms (fliparoo, sign-switch) to pattern-match operation shape.
type CodeOp struct {
	Source     string
	Result     string
	Parameters []string
	Variables  []string
	Operator   byte // 0 if the top-level RHS is not a single binary op
	rhs        *expr
}

// Parse compiles a single op3 line of the form "name = expr" into a CodeOp.
// '^' and the Python '**' spelling are both accepted as exponentiation.
func Parse(line string) (*CodeOp, error) {
	eq := -1
	for i, r := range line {
		if r == '=' {
			eq = i
			break
		}
	}
	if eq < 0 {
		return nil, fmt.Errorf("op: no assignment in %q", line)
	}
	result := trimSpaceASCII(line[:eq])
	if result == "" {
		return nil, fmt.Errorf("op: empty assignment target in %q", line)
	}
	toks, err := tokenize(line[eq+1:])
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("op: empty right-hand side in %q", line)
	}
	p := &parser{toks: toks}
	rhs, err := p.parseExpr()
	if err != nil {
		return nil, fmt.Errorf("op: parsing %q: %w", line, err)
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("op: trailing tokens in %q", line)
	}

	params := map[string]bool{}
	vars := map[string]bool{}
	rhs.walk(func(e *expr) {
		if e.kind != exprIdent {
			return
		}
		if isUpperIdent(e.name) {
			vars[e.name] = true
		} else {
			params[e.name] = true
		}
	})

	var operator byte
	if rhs.kind == exprBin {
		operator = rhs.op
	}

	return &CodeOp{
		Source:     line,
		Result:     result,
		Parameters: sortedKeys(params),
		Variables:  sortedKeys(vars),
		Operator:   operator,
		rhs:        rhs,
	}, nil
}

// Call evaluates the op against the given environment, which must bind
// every name in Parameters and Variables to a mod.Mod, plus the modulus in
// effect (needed to lift integer literals like the 2 in "2*X1" into Mod).
// It returns the value to be assigned to Result; the caller is responsible
// for storing it under that name in whatever environment it threads
// between ops.
func (c *CodeOp) Call(env map[string]mod.Mod, n *big.Int) (mod.Mod, error) {
	return evalExpr(c.rhs, env, n)
}

func evalExpr(e *expr, env map[string]mod.Mod, n *big.Int) (mod.Mod, error) {
	switch e.kind {
	case exprNumber:
		return mod.FromInt64(e.num.Int64(), n)
	case exprIdent:
		v, ok := env[e.name]
		if !ok {
			return nil, fmt.Errorf("op: %w: %s", ecerrors.InputMismatch, e.name)
		}
		return v, nil
	case exprNeg:
		v, err := evalExpr(e.left, env, n)
		if err != nil {
			return nil, err
		}
		return v.Neg(), nil
	case exprBin:
		left, err := evalExpr(e.left, env, n)
		if err != nil {
			return nil, err
		}
		switch e.op {
		case '+':
			right, err := evalExpr(e.right, env, n)
			if err != nil {
				return nil, err
			}
			return left.Add(right)
		case '-':
			right, err := evalExpr(e.right, env, n)
			if err != nil {
				return nil, err
			}
			return left.Sub(right)
		case '*':
			right, err := evalExpr(e.right, env, n)
			if err != nil {
				return nil, err
			}
			return left.Mul(right)
		case '/':
			right, err := evalExpr(e.right, env, n)
			if err != nil {
				return nil, err
			}
			return left.Div(right)
		case '^':
			if e.right.kind != exprNumber {
				return nil, fmt.Errorf("op: non-constant exponent in %q", e)
			}
			return left.Pow(e.right.num)
		}
	}
	return nil, fmt.Errorf("op: unhandled expression %q", e)
}

func isUpperIdent(name string) bool {
	for _, r := range name {
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func trimSpaceASCII(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}
	return s[start:end]
}
