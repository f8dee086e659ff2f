package equation

import (
	"fmt"
	"math"
	"sort"

	"github.com/sysdyn/sysdyn/sim/quantity"
	"github.com/sysdyn/sysdyn/sim/units"
)

// Scope maps a reserved or user-defined name to its current Quantity.
type Scope map[string]quantity.Quantity

// maxCallDepth bounds macro expansion recursion (spec.md §9).
const maxCallDepth = 64

// Options configures a single Evaluate call.
type Options struct {
	// DelayState holds persistent state for DELAY1/3 and SMOOTH/3 nodes.
	// If nil, a fresh (empty) store is used and discarded.
	DelayState *DelayStateStore
	// Commit, when true, writes updated delay-stage values back into
	// DelayState. RK4 sub-stages pass Commit=false against a cloned store.
	Commit bool
	// Macros maps macro name to its definition, gathered from the
	// equation's own FUNCTION defs.
	Macros map[string]FunctionDef
}

// evalCtx threads the immutable per-call configuration plus per-call
// mutable recursion bookkeeping through the recursive evaluator.
type evalCtx struct {
	src        string
	opts       Options
	callStack  []string
	delayStore *DelayStateStore
}

// Evaluate interprets expr against scope using opts.
func Evaluate(expr Node, scope Scope, src string, opts Options) (quantity.Quantity, error) {
	store := opts.DelayState
	if store == nil {
		store = NewDelayStateStore()
	}
	if !opts.Commit {
		store = store.Clone()
	}
	ctx := &evalCtx{src: src, opts: opts, delayStore: store}
	return ctx.eval(expr, scope)
}

func (c *evalCtx) errorf(code Code, msg string, span Span) *Diagnostic {
	return newDiagnostic(PhaseEvaluate, code, msg, c.src, span)
}

func (c *evalCtx) eval(node Node, scope Scope) (quantity.Quantity, error) {
	switch n := node.(type) {
	case *QuantityLiteral:
		return c.evalLiteral(n)
	case *BooleanLiteral:
		v := 0.0
		if n.Value {
			v = 1
		}
		return quantity.Unitless(v), nil
	case *Ref:
		q, ok := scope[n.Name]
		if !ok {
			return quantity.Quantity{}, c.errorf(CodeIdentifierNotFound, "identifier not found: "+n.Name, n.Span)
		}
		return q, nil
	case *TimeKeyword:
		q, ok := scope[n.Name]
		if !ok {
			return quantity.Quantity{}, c.errorf(CodeIdentifierNotFound, "reserved name not found in scope: "+n.Name, n.Span)
		}
		return q, nil
	case *Unary:
		return c.evalUnary(n, scope)
	case *Binary:
		return c.evalBinary(n, scope)
	case *IfChain:
		return c.evalIfChain(n, scope)
	case *Call:
		return c.evalCall(n, scope)
	case *Lookup1D:
		return c.evalLookup(n, scope)
	case *Delay:
		return c.evalDelay(n, scope)
	}
	return quantity.Quantity{}, fmt.Errorf("equation: unhandled AST node %T", node)
}

func (c *evalCtx) evalLiteral(n *QuantityLiteral) (quantity.Quantity, error) {
	if n.Unit == "" {
		return quantity.Unitless(n.Value), nil
	}
	u, err := units.Parse(n.Unit)
	if err != nil {
		return quantity.Quantity{}, c.errorf(CodeInvalidUnitExponent, err.Error(), n.Span)
	}
	return quantity.New(n.Value, u), nil
}

func (c *evalCtx) evalUnary(n *Unary, scope Scope) (quantity.Quantity, error) {
	v, err := c.eval(n.Operand, scope)
	if err != nil {
		return quantity.Quantity{}, err
	}
	switch n.Op {
	case UnaryPlus:
		return v, nil
	case UnaryNeg:
		return quantity.Neg(v), nil
	case UnaryNot:
		if !v.IsUnitless() {
			return quantity.Quantity{}, c.errorf(CodeUnitMismatch, "NOT requires a unitless operand", n.Span)
		}
		if v.Value != 0 {
			return quantity.Unitless(0), nil
		}
		return quantity.Unitless(1), nil
	}
	return quantity.Quantity{}, fmt.Errorf("equation: unknown unary operator %q", n.Op)
}

func (c *evalCtx) evalBinary(n *Binary, scope Scope) (quantity.Quantity, error) {
	left, err := c.eval(n.Left, scope)
	if err != nil {
		return quantity.Quantity{}, err
	}
	right, err := c.eval(n.Right, scope)
	if err != nil {
		return quantity.Quantity{}, err
	}
	switch n.Op {
	case OpAdd:
		q, err := quantity.Add(left, right)
		return q, c.wrapUnitErr(err, n.Span)
	case OpSub:
		q, err := quantity.Sub(left, right)
		return q, c.wrapUnitErr(err, n.Span)
	case OpMul:
		return quantity.Mul(left, right), nil
	case OpDiv:
		return quantity.Div(left, right), nil
	case OpMod:
		if !left.IsUnitless() || !right.IsUnitless() {
			return quantity.Quantity{}, c.errorf(CodeUnitMismatch, "%% requires unitless operands", n.Span)
		}
		return quantity.Unitless(math.Mod(left.Value, right.Value)), nil
	case OpPow:
		q, err := quantity.Pow(left, right.Value)
		if err != nil {
			if _, ok := err.(*quantity.NonIntegerExponentError); ok {
				return quantity.Quantity{}, c.errorf(CodeNonIntegerExponent, err.Error(), n.Span)
			}
			return quantity.Quantity{}, err
		}
		return q, nil
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte:
		return c.evalComparison(n, left, right)
	case OpAnd, OpOr, OpXor:
		return c.evalLogical(n, left, right)
	}
	return quantity.Quantity{}, fmt.Errorf("equation: unknown binary operator %q", n.Op)
}

func (c *evalCtx) wrapUnitErr(err error, span Span) error {
	if err == nil {
		return nil
	}
	return c.errorf(CodeUnitMismatch, err.Error(), span)
}

func (c *evalCtx) evalComparison(n *Binary, left, right quantity.Quantity) (quantity.Quantity, error) {
	if !quantity.UnitsEqual(left.Units, right.Units) {
		return quantity.Quantity{}, c.errorf(CodeUnitMismatch, fmt.Sprintf("comparison %s requires matching units", n.Op), n.Span)
	}
	var result bool
	switch n.Op {
	case OpEq:
		result = left.Value == right.Value
	case OpNeq:
		result = left.Value != right.Value
	case OpLt:
		result = left.Value < right.Value
	case OpLte:
		result = left.Value <= right.Value
	case OpGt:
		result = left.Value > right.Value
	case OpGte:
		result = left.Value >= right.Value
	}
	if result {
		return quantity.Unitless(1), nil
	}
	return quantity.Unitless(0), nil
}

func (c *evalCtx) evalLogical(n *Binary, left, right quantity.Quantity) (quantity.Quantity, error) {
	if !left.IsUnitless() || !right.IsUnitless() {
		return quantity.Quantity{}, c.errorf(CodeUnitMismatch, fmt.Sprintf("%s requires unitless operands", n.Op), n.Span)
	}
	lb, rb := left.Value != 0, right.Value != 0
	var result bool
	switch n.Op {
	case OpAnd:
		result = lb && rb
	case OpOr:
		result = lb || rb
	case OpXor:
		result = lb != rb
	}
	if result {
		return quantity.Unitless(1), nil
	}
	return quantity.Unitless(0), nil
}

func (c *evalCtx) evalIfChain(n *IfChain, scope Scope) (quantity.Quantity, error) {
	for _, branch := range n.Branches {
		cond, err := c.eval(branch.Cond, scope)
		if err != nil {
			return quantity.Quantity{}, err
		}
		if !cond.IsUnitless() {
			return quantity.Quantity{}, c.errorf(CodeUnitMismatch, "IF condition must be unitless", branch.Cond.span())
		}
		if cond.Value != 0 {
			return c.eval(branch.Then, scope)
		}
	}
	if n.Else != nil {
		return c.eval(n.Else, scope)
	}
	return quantity.Unitless(0), nil
}

// builtinUnary is the table of unitless single-argument math builtins
// available without an explicit FUNCTION macro declaration.
var builtinUnary = map[string]func(float64) float64{
	"ABS":  math.Abs,
	"EXP":  math.Exp,
	"LN":   math.Log,
	"LOG10": math.Log10,
	"SQRT": math.Sqrt,
	"SIN":  math.Sin,
	"COS":  math.Cos,
	"TAN":  math.Tan,
}

func (c *evalCtx) evalCall(n *Call, scope Scope) (quantity.Quantity, error) {
	if fn, ok := builtinUnary[n.Name]; ok {
		if len(n.Args) != 1 {
			return quantity.Quantity{}, c.errorf(CodeUnexpectedToken, n.Name+" requires exactly 1 argument", n.Span)
		}
		arg, err := c.eval(n.Args[0], scope)
		if err != nil {
			return quantity.Quantity{}, err
		}
		if !arg.IsUnitless() {
			return quantity.Quantity{}, c.errorf(CodeUnitMismatch, n.Name+" requires a unitless argument", n.Span)
		}
		return quantity.Unitless(fn(arg.Value)), nil
	}
	switch n.Name {
	case "MIN", "MAX":
		if len(n.Args) != 2 {
			return quantity.Quantity{}, c.errorf(CodeUnexpectedToken, n.Name+" requires exactly 2 arguments", n.Span)
		}
		a, err := c.eval(n.Args[0], scope)
		if err != nil {
			return quantity.Quantity{}, err
		}
		b, err := c.eval(n.Args[1], scope)
		if err != nil {
			return quantity.Quantity{}, err
		}
		if !quantity.UnitsEqual(a.Units, b.Units) {
			return quantity.Quantity{}, c.errorf(CodeUnitMismatch, n.Name+" requires matching units", n.Span)
		}
		if (n.Name == "MIN") == (a.Value <= b.Value) {
			return a, nil
		}
		return b, nil
	}

	def, ok := c.opts.Macros[n.Name]
	if !ok {
		return quantity.Quantity{}, c.errorf(CodeIdentifierNotFound, "unknown function or macro: "+n.Name, n.Span)
	}
	if len(n.Args) != len(def.Params) {
		return quantity.Quantity{}, c.errorf(CodeUnexpectedToken, fmt.Sprintf("macro %s expects %d arguments, got %d", n.Name, len(def.Params), len(n.Args)), n.Span)
	}
	for _, called := range c.callStack {
		if called == n.Name {
			return quantity.Quantity{}, c.errorf(CodeMacroRecursion, "macro recursion detected in "+n.Name, n.Span)
		}
	}
	if len(c.callStack) >= maxCallDepth {
		return quantity.Quantity{}, c.errorf(CodeMacroRecursion, "macro call depth exceeded", n.Span)
	}

	inner := Scope{}
	for k, v := range scope {
		inner[k] = v
	}
	for i, param := range def.Params {
		argVal, err := c.eval(n.Args[i], scope)
		if err != nil {
			return quantity.Quantity{}, err
		}
		inner[param] = argVal
	}

	c.callStack = append(c.callStack, n.Name)
	result, err := c.eval(def.Body, inner)
	c.callStack = c.callStack[:len(c.callStack)-1]
	return result, err
}

func (c *evalCtx) evalLookup(n *Lookup1D, scope Scope) (quantity.Quantity, error) {
	x, err := c.eval(n.X, scope)
	if err != nil {
		return quantity.Quantity{}, err
	}
	var xUnit, yUnit quantity.Units
	if n.XUnit != "" {
		xUnit, err = units.Parse(n.XUnit)
		if err != nil {
			return quantity.Quantity{}, c.errorf(CodeInvalidUnitExponent, err.Error(), n.Span)
		}
	} else {
		xUnit = quantity.Units{}
	}
	if n.YUnit != "" {
		yUnit, err = units.Parse(n.YUnit)
		if err != nil {
			return quantity.Quantity{}, c.errorf(CodeInvalidUnitExponent, err.Error(), n.Span)
		}
	} else {
		yUnit = quantity.Units{}
	}
	if !quantity.UnitsEqual(x.Units, xUnit) {
		return quantity.Quantity{}, c.errorf(CodeUnitMismatch, "LOOKUP argument units do not match declared xUnit", n.Span)
	}

	pts := n.Points
	xv := x.Value
	var y float64
	switch {
	case xv <= pts[0].X:
		y = pts[0].Y
	case xv >= pts[len(pts)-1].X:
		y = pts[len(pts)-1].Y
	default:
		// Binary search over the monotonically-increasing points for the
		// first point with X >= xv.
		i := sort.Search(len(pts), func(i int) bool { return pts[i].X >= xv })
		if pts[i].X == xv {
			y = pts[i].Y
		} else {
			lo, hi := pts[i-1], pts[i]
			t := (xv - lo.X) / (hi.X - lo.X)
			y = lo.Y + t*(hi.Y-lo.Y)
		}
	}
	return quantity.New(y, yUnit), nil
}

func (c *evalCtx) evalDelay(n *Delay, scope Scope) (quantity.Quantity, error) {
	input, err := c.eval(n.Input, scope)
	if err != nil {
		return quantity.Quantity{}, err
	}
	tau, err := c.eval(n.Time, scope)
	if err != nil {
		return quantity.Quantity{}, err
	}
	dtQ, ok := scope["TIME_STEP"]
	if !ok {
		return quantity.Quantity{}, c.errorf(CodeIdentifierNotFound, "TIME_STEP not found in scope", n.Span)
	}
	dt := dtQ.Value

	initVal := input.Value
	if n.Init != nil {
		initQ, err := c.eval(n.Init, scope)
		if err != nil {
			return quantity.Quantity{}, err
		}
		initVal = initQ.Value
	}

	numStages := 1
	if n.Kind == DelayDelay3 || n.Kind == DelaySmooth3 {
		numStages = 3
	}
	state := c.delayStore.get(n.NodeID, numStages, initVal, input.Units)

	old := make([]float64, numStages)
	copy(old, state.Stages)

	stageTau := tau.Value
	if numStages > 1 {
		stageTau = tau.Value / float64(numStages)
	}

	// output = the pre-update stage value (spec.md §4.4); stage' is the
	// value committed for the next step. Stages are updated from a
	// simultaneous read of the old cascade, not a sequential one, so
	// this step's output does not see this step's own update.
	updated := make([]float64, numStages)
	upstream := input.Value
	for i := 0; i < numStages; i++ {
		updated[i] = old[i] + dt*(upstream-old[i])/stageTau
		upstream = old[i]
	}

	if c.opts.Commit {
		state.Stages = updated
		state.Units = input.Units
	}

	output := old[numStages-1]
	return quantity.New(output, input.Units), nil
}
