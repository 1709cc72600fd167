// Package graph represents a Formula's CodeOps as a dataflow DAG, enabling
// the structural transforms and topology queries pyecsca's
// pyecsca/ec/formula/graph.py performs on formulas before re-linearizing
// them back into code. CodeOp here only exposes a sorted set of
// Parameters/Variables it reads (not left/right operand identity), so
// edges are built from dependency membership rather than AST operand
// position; this is coarser than the original's node-per-AST-leaf graph
// but preserves everything levels(), output reachability and
// re-linearization need.
package graph

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/ecsim/ecsim/pkg/formula"
	"github.com/ecsim/ecsim/pkg/op"
)

// Node is one vertex of a FormulaGraph: either a formula input (a point
// coordinate or bound curve parameter) or the result of one CodeOp.
type Node struct {
	// Result is the identifier this node produces ("X1", "a", "iv3", ...).
	Result string
	// Op is nil for input nodes.
	Op *op.CodeOp
	// Input is true for roots that are not produced by any op in the formula.
	Input bool
	// Output is true if Result is one of the formula's declared outputs.
	Output bool

	incoming []*Node
	outgoing []*Node
}

func (n *Node) Incoming() []*Node { return append([]*Node(nil), n.incoming...) }
func (n *Node) Outgoing() []*Node { return append([]*Node(nil), n.outgoing...) }

func (n *Node) String() string {
	if n.Op == nil {
		return fmt.Sprintf("Node(%s)", n.Result)
	}
	return fmt.Sprintf("Node(%s)", n.Op.Source)
}

// FormulaGraph is the dependency DAG of one Formula's Code, plus enough
// metadata (Kind, Coords, Parameters, Assumptions) to linearize a modified
// graph back into a Formula with ToFormula. Ported from pyecsca's
// FormulaGraph (pyecsca/ec/formula/graph.py), minus the matplotlib/
// networkx drawing support: this module has no idiomatic Go graph-drawing
// dependency in the example pack, so Draw/planar layout are dropped (see
// DESIGN.md) in favor of the structural queries (Levels, OutputNodes, Reorder)
// that the re-engineering transforms actually need.
type FormulaGraph struct {
	name   string
	kind   formula.Kind
	coords *formula.Formula // kept only for Coords/Parameters/Assumptions access on ToFormula

	Nodes map[string]*Node
	Order []string // insertion order, for deterministic iteration
	Roots []*Node
}

// Build walks f.Code once, wiring a Node per distinct result (input or
// computed) and an edge from every dependency to the op that consumes it.
func Build(f *formula.Formula) *FormulaGraph {
	g := &FormulaGraph{
		name:   f.FormulaName,
		kind:   f.Kind,
		coords: f,
		Nodes:  map[string]*Node{},
	}

	ensure := func(result string) *Node {
		if n, ok := g.Nodes[result]; ok {
			return n
		}
		n := &Node{Result: result, Input: true}
		g.Nodes[result] = n
		g.Order = append(g.Order, result)
		g.Roots = append(g.Roots, n)
		return n
	}

	outputs := map[string]bool{}
	for _, v := range f.Coords.Variables {
		for i := 0; i < f.NumOutputs(); i++ {
			outputs[fmt.Sprintf("%s%d", v, f.NumInputs()+1+i)] = true
		}
	}

	for _, o := range f.Code {
		node := &Node{Result: o.Result, Op: o}
		g.Nodes[o.Result] = node
		g.Order = append(g.Order, o.Result)

		deps := append(append([]string{}, o.Parameters...), o.Variables...)
		sort.Strings(deps)
		for _, dep := range deps {
			if dep == o.Result {
				continue
			}
			parent := ensure(dep)
			parent.outgoing = append(parent.outgoing, node)
			node.incoming = append(node.incoming, parent)
		}
		if outputs[o.Result] {
			node.Output = true
		}
	}
	return g
}

// Levels returns nodes grouped by topological distance from the roots,
// the same breadth-first layering pyecsca's levels() computes (there used
// only for planar drawing, here also for Reorder's re-linearization order).
func (g *FormulaGraph) Levels() [][]*Node {
	depth := map[*Node]int{}
	var level []*Node
	for _, r := range g.Roots {
		depth[r] = 0
		level = append(level, r)
	}
	var levels [][]*Node
	for len(level) > 0 {
		levels = append(levels, level)
		var next []*Node
		seen := map[*Node]bool{}
		for _, n := range level {
			for _, out := range n.outgoing {
				d := depth[n] + 1
				if cur, ok := depth[out]; !ok || d > cur {
					depth[out] = d
				}
			}
		}
		for n, d := range depth {
			if d == len(levels) && !seen[n] {
				next = append(next, n)
				seen[n] = true
			}
		}
		level = next
	}
	return levels
}

// Reorder rewrites g.Order into level order — every node dependency
// precedes its dependents — the precondition ToFormula relies on when
// replaying Nodes' Ops back into a Code slice.
func (g *FormulaGraph) Reorder() {
	var order []string
	for _, level := range g.Levels() {
		for _, n := range level {
			order = append(order, n.Result)
		}
	}
	g.Order = order
}

// OutputNodes returns the nodes flagged as formula outputs.
func (g *FormulaGraph) OutputNodes() []*Node {
	var out []*Node
	for _, name := range g.Order {
		if n := g.Nodes[name]; n.Output {
			out = append(out, n)
		}
	}
	return out
}

// ToFormula re-linearizes the graph's current Order (call Reorder first if
// the graph has been mutated) into a new Formula sharing this graph's
// kind/coordinate model/parameters/assumptions. Ported from pyecsca's
// FormulaGraph.to_formula.
func (g *FormulaGraph) ToFormula(name string) *formula.Formula {
	out := formula.New(name, g.kind, g.coords.Coords)
	out.Parameters = append([]string{}, g.coords.Parameters...)
	out.Assumptions = append([]*op.CodeOp{}, g.coords.Assumptions...)
	for _, result := range g.Order {
		n := g.Nodes[result]
		if n.Op == nil {
			continue
		}
		out.Code = append(out.Code, n.Op)
	}
	return out
}

// Fliparoo canonicalizes every op's commutative operand order (+, *) at
// every level of its expression, so two ops that differ only by operand order ("X1*Y1" vs
// "Y1*X1") end up with textually identical Source — the precondition
// EliminateDuplicateOps needs to recognize them as the same computation.
// Ported from pyecsca's fliparoo.py, expressed against
// op.CodeOp.Canonicalize rather than Python AST pattern matching. Returns
// the number of ops rewritten.
func (g *FormulaGraph) Fliparoo() int {
	changed := 0
	for _, name := range g.Order {
		n := g.Nodes[name]
		if n.Op == nil {
			continue
		}
		canon, swapped := n.Op.Canonicalize()
		n.Op = canon
		if swapped {
			changed++
		}
	}
	return changed
}

// SwitchSign finds pure-negation ops ("Z3 = -X1") and folds each into
// every consumer's expression (turning "Y3 = Y1 + Z3" into "Y3 = Y1 -
// X1"), dropping the negation node once every consumer has absorbed it
// and it isn't itself a formula output. Ported from pyecsca's
// switch_sign.py, expressed against op.CodeOp.Inline. Returns the number
// of consumer ops rewritten.
func (g *FormulaGraph) SwitchSign() int {
	changed := 0
	for _, name := range append([]string{}, g.Order...) {
		n, ok := g.Nodes[name]
		if !ok || n.Op == nil || !n.Op.IsNegation() {
			continue
		}
		operand, hasOperand := n.Op.NegatedOperand()
		src, hasSrc := g.Nodes[operand]

		fullyInlined := true
		for _, out := range append([]*Node(nil), n.outgoing...) {
			if out.Op == nil {
				fullyInlined = false
				continue
			}
			inlined, ok := out.Op.Inline(n.Result, n.Op)
			if !ok {
				fullyInlined = false
				continue
			}
			out.Op = inlined
			changed++
			removeEdge(out, n)
			if hasOperand && hasSrc {
				addEdge(out, src)
			}
		}
		if fullyInlined && !n.Output {
			g.drop(n)
		}
	}
	return changed
}

// removeEdge drops parent from child's incoming list and child from
// parent's outgoing list.
func removeEdge(child, parent *Node) {
	for i, in := range child.incoming {
		if in == parent {
			child.incoming = append(child.incoming[:i], child.incoming[i+1:]...)
			break
		}
	}
	for i, out := range parent.outgoing {
		if out == child {
			parent.outgoing = append(parent.outgoing[:i], parent.outgoing[i+1:]...)
			break
		}
	}
}

// addEdge wires parent -> child, unless that edge already exists.
func addEdge(child, parent *Node) {
	for _, in := range child.incoming {
		if in == parent {
			return
		}
	}
	child.incoming = append(child.incoming, parent)
	parent.outgoing = append(parent.outgoing, child)
}

// drop removes n from the graph entirely: unlinks it from its own
// dependencies and from Nodes/Order. Callers must have already removed
// every edge from n to its consumers.
func (g *FormulaGraph) drop(n *Node) {
	for _, in := range n.incoming {
		for i, out := range in.outgoing {
			if out == n {
				in.outgoing = append(in.outgoing[:i], in.outgoing[i+1:]...)
				break
			}
		}
	}
	delete(g.Nodes, n.Result)
	newOrder := make([]string, 0, len(g.Order))
	for _, name := range g.Order {
		if name != n.Result {
			newOrder = append(newOrder, name)
		}
	}
	g.Order = newOrder
}

// EliminateDuplicateOps merges CodeOp nodes that recompute an
// already-available value (identical right-hand side, after the
// dependency set has stabilized): every later op's Source is rewritten to
// reference the first occurrence's result instead, then re-parsed, and
// the duplicate node is dropped. Run Fliparoo first to canonicalize
// commutative operand order so operand-reordered duplicates are caught
// too.
func (g *FormulaGraph) EliminateDuplicateOps() int {
	rhsOf := func(src string) string {
		for i, r := range src {
			if r == '=' {
				return src[i+1:]
			}
		}
		return src
	}

	seen := map[string]string{} // rhs text -> canonical result name
	removed := 0
	var newOrder []string
	for _, name := range g.Order {
		n := g.Nodes[name]
		if n.Op == nil {
			newOrder = append(newOrder, name)
			continue
		}
		rhs := rhsOf(n.Op.Source)
		if canonical, dup := seen[rhs]; dup && canonical != name {
			canon := g.Nodes[canonical]
			for _, out := range n.outgoing {
				canon.outgoing = append(canon.outgoing, out)
				for i, in := range out.incoming {
					if in == n {
						out.incoming[i] = canon
					}
				}
				if out.Op != nil {
					rewritten, err := substituteIdentifier(out.Op.Source, name, canonical)
					if err == nil {
						if parsed, perr := op.Parse(rewritten); perr == nil {
							out.Op = parsed
						}
					}
				}
			}
			delete(g.Nodes, name)
			removed++
			continue
		}
		seen[rhs] = name
		newOrder = append(newOrder, name)
	}
	g.Order = newOrder
	return removed
}

var identifierBoundary = `\b`

// substituteIdentifier replaces whole-word occurrences of from on the
// right-hand side of src with to, leaving the assignment target untouched.
func substituteIdentifier(src, from, to string) (string, error) {
	eq := -1
	for i, r := range src {
		if r == '=' {
			eq = i
			break
		}
	}
	if eq < 0 {
		return "", fmt.Errorf("graph: no assignment in %q", src)
	}
	re, err := regexp.Compile(identifierBoundary + regexp.QuoteMeta(from) + identifierBoundary)
	if err != nil {
		return "", err
	}
	return src[:eq+1] + re.ReplaceAllString(src[eq+1:], to), nil
}
