package cosmoarray

import (
	"errors"
	"fmt"
	"math"

	"github.com/comova/comova/internal/cosmo"
	"github.com/comova/comova/internal/units"
)

// ErrDispatchUnsupported is returned when an elementwise operation has no
// cosmology rule, or when its rule is deliberately marked not-yet-derivable
// (sqrt, square, reciprocal, power propagation). It is always fatal: the
// dispatch never returns a silently mistagged result.
var ErrDispatchUnsupported = errors.New("cosmoarray: no derivable cosmology rule")

// Op identifies an elementwise operation in the fixed dispatch table.
type Op int

const (
	OpAdd Op = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpFloorDivide
	OpNegative
	OpPositive
	OpPower
	OpRemainder
	OpMod
	OpFmod
	OpAbsolute
	OpFabs
	OpRint
	OpSign
	OpConj
	OpExp
	OpExp2
	OpLog
	OpLog2
	OpLog10
	OpExpm1
	OpLog1p
	OpLogaddexp
	OpLogaddexp2
	OpSqrt
	OpSquare
	OpReciprocal
	OpSin
	OpCos
	OpTan
	OpArcsin
	OpArccos
	OpArctan
	OpArctan2
	OpSinh
	OpCosh
	OpTanh
	OpArcsinh
	OpArccosh
	OpArctanh
	OpHypot
	OpDeg2Rad
	OpRad2Deg
	OpGreater
	OpGreaterEqual
	OpLess
	OpLessEqual
	OpEqual
	OpNotEqual
	OpLogicalAnd
	OpLogicalOr
	OpLogicalXor
	OpLogicalNot
	OpMaximum
	OpMinimum
	OpFmax
	OpFmin
	OpIsFinite
	OpIsInf
	OpIsNaN
	OpSignBit
	OpCopySign
	OpNextAfter
	OpFloor
	OpCeil
	OpTrunc
	OpSpacing
	OpHeaviside
	OpMatMul

	opCount // sentinel, keep last
)

var opNames = map[Op]string{
	OpAdd: "add", OpSubtract: "subtract", OpMultiply: "multiply",
	OpDivide: "divide", OpFloorDivide: "floor_divide", OpNegative: "negative",
	OpPositive: "positive", OpPower: "power", OpRemainder: "remainder",
	OpMod: "mod", OpFmod: "fmod", OpAbsolute: "absolute", OpFabs: "fabs",
	OpRint: "rint", OpSign: "sign", OpConj: "conj", OpExp: "exp",
	OpExp2: "exp2", OpLog: "log", OpLog2: "log2", OpLog10: "log10",
	OpExpm1: "expm1", OpLog1p: "log1p", OpLogaddexp: "logaddexp",
	OpLogaddexp2: "logaddexp2", OpSqrt: "sqrt", OpSquare: "square",
	OpReciprocal: "reciprocal", OpSin: "sin", OpCos: "cos", OpTan: "tan",
	OpArcsin: "arcsin", OpArccos: "arccos", OpArctan: "arctan",
	OpArctan2: "arctan2", OpSinh: "sinh", OpCosh: "cosh", OpTanh: "tanh",
	OpArcsinh: "arcsinh", OpArccosh: "arccosh", OpArctanh: "arctanh",
	OpHypot: "hypot", OpDeg2Rad: "deg2rad", OpRad2Deg: "rad2deg",
	OpGreater: "greater", OpGreaterEqual: "greater_equal", OpLess: "less",
	OpLessEqual: "less_equal", OpEqual: "equal", OpNotEqual: "not_equal",
	OpLogicalAnd: "logical_and", OpLogicalOr: "logical_or",
	OpLogicalXor: "logical_xor", OpLogicalNot: "logical_not",
	OpMaximum: "maximum", OpMinimum: "minimum", OpFmax: "fmax",
	OpFmin: "fmin", OpIsFinite: "isfinite", OpIsInf: "isinf",
	OpIsNaN: "isnan", OpSignBit: "signbit", OpCopySign: "copysign",
	OpNextAfter: "nextafter", OpFloor: "floor", OpCeil: "ceil",
	OpTrunc: "trunc", OpSpacing: "spacing", OpHeaviside: "heaviside",
	OpMatMul: "matmul",
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// Rule describes how an operation derives the output's cosmology factor
// from the operands' factors.
type Rule int

const (
	// RulePreserve keeps the common factor; operands must pass the
	// additive-compatibility test.
	RulePreserve Rule = iota
	// RulePassthrough copies the sole operand's factor through unchanged.
	RulePassthrough
	// RuleMultiplyCombine adds the operands' exponents.
	RuleMultiplyCombine
	// RuleDivideCombine subtracts the operands' exponents.
	RuleDivideCombine
	// RulePower would scale the exponent by the power operand; the general
	// propagation is deliberately not derived and fails loudly.
	RulePower
	// RuleStrip discards the factor: the result carries no exponent.
	RuleStrip
	// RuleComparison yields a plain boolean result with no tag at all.
	RuleComparison
	// RuleUnsupported marks rules that are deliberately not derivable.
	RuleUnsupported
)

// RuleFor returns the dispatch rule for an operation. The mapping is the
// fixed table at the heart of the package; a miss reports ok == false and
// every caller treats that as fatal.
func RuleFor(op Op) (Rule, bool) {
	switch op {
	case OpAdd, OpSubtract, OpRemainder, OpMod, OpFmod, OpHypot,
		OpMaximum, OpMinimum, OpFmax, OpFmin, OpNextAfter, OpHeaviside:
		return RulePreserve, true
	case OpNegative, OpPositive, OpAbsolute, OpFabs, OpConj, OpCopySign,
		OpFloor, OpCeil, OpTrunc, OpSpacing:
		return RulePassthrough, true
	case OpMultiply, OpMatMul:
		return RuleMultiplyCombine, true
	case OpDivide, OpFloorDivide:
		return RuleDivideCombine, true
	case OpPower:
		return RulePower, true
	case OpSqrt, OpSquare, OpReciprocal:
		return RuleUnsupported, true
	case OpRint, OpSign, OpExp, OpExp2, OpLog, OpLog2, OpLog10, OpExpm1,
		OpLog1p, OpLogaddexp, OpLogaddexp2, OpSin, OpCos, OpTan, OpArcsin,
		OpArccos, OpArctan, OpArctan2, OpSinh, OpCosh, OpTanh, OpArcsinh,
		OpArccosh, OpArctanh, OpDeg2Rad, OpRad2Deg, OpLogicalNot,
		OpIsFinite, OpIsInf, OpIsNaN, OpSignBit:
		return RuleStrip, true
	case OpGreater, OpGreaterEqual, OpLess, OpLessEqual, OpEqual,
		OpNotEqual, OpLogicalAnd, OpLogicalOr, OpLogicalXor:
		return RuleComparison, true
	default:
		return 0, false
	}
}

// Ops returns every operation in the dispatch table, in declaration order.
func Ops() []Op {
	ops := make([]Op, 0, int(opCount))
	for op := Op(0); op < opCount; op++ {
		ops = append(ops, op)
	}
	return ops
}

// operand is a resolved input to a binary operation. Plain scalars and
// slices are frame- and exponent-neutral: they do not vote on the output's
// comoving flag, factor, or compression.
type operand struct {
	arr    *Array
	scalar float64
	values []float64 // non-nil for plain slices
}

func (o operand) tagged() bool { return o.arr != nil }

func (o operand) at(i int) float64 {
	switch {
	case o.arr != nil:
		return o.arr.q.At(i)
	case o.values != nil:
		return o.values[i]
	default:
		return o.scalar
	}
}

func (o operand) length() (int, bool) {
	switch {
	case o.arr != nil:
		return o.arr.Len(), true
	case o.values != nil:
		return len(o.values), true
	default:
		return 0, false // scalar broadcasts
	}
}

func toOperand(x any) (operand, error) {
	switch v := x.(type) {
	case *Array:
		if v == nil {
			return operand{}, fmt.Errorf("%w: nil array", ErrInvalidConstruction)
		}
		return operand{arr: v}, nil
	case float64:
		return operand{scalar: v}, nil
	case float32:
		return operand{scalar: float64(v)}, nil
	case int:
		return operand{scalar: float64(v)}, nil
	case []float64:
		return operand{values: v}, nil
	default:
		return operand{}, fmt.Errorf("%w: %T", ErrInvalidConstruction, x)
	}
}

// resolveFrame implements the mixed-frame merge. All-comoving or
// all-physical operands keep their frame. Mixed operands are merged toward
// comoving: every physical operand is replaced by a converted copy (the
// caller's array is never mutated) and the result is comoving. The bias
// toward comoving is part of the contract and is preserved exactly.
func resolveFrame(ops []operand) (bool, error) {
	var tagged []*Array
	for _, o := range ops {
		if o.tagged() {
			tagged = append(tagged, o.arr)
		}
	}
	if len(tagged) == 0 {
		return true, nil
	}
	allComoving, allPhysical := true, true
	for _, a := range tagged {
		if a.Comoving() {
			allPhysical = false
		} else {
			allComoving = false
		}
	}
	switch {
	case allComoving:
		return true, nil
	case allPhysical:
		return false, nil
	default:
		for i := range ops {
			if ops[i].tagged() && !ops[i].arr.Comoving() {
				c, err := ops[i].arr.ToComoving()
				if err != nil {
					return false, err
				}
				ops[i].arr = c
			}
		}
		return true, nil
	}
}

// resolveCompression inherits the label only when every tagged operand
// carries the identical one; mixed or unknown compression is never
// asserted on a result.
func resolveCompression(ops []operand) string {
	label := ""
	first := true
	for _, o := range ops {
		if !o.tagged() {
			continue
		}
		if first {
			label = o.arr.Compression()
			first = false
			continue
		}
		if o.arr.Compression() != label {
			return ""
		}
	}
	return label
}

// resolveFactor applies the dispatch rule to the operands' factors.
// Neutral (untagged or factorless) operands contribute no exponent.
func resolveFactor(op Op, rule Rule, ops []operand) (*cosmo.Factor, error) {
	var fs []*cosmo.Factor
	for _, o := range ops {
		if o.tagged() {
			fs = append(fs, o.arr.Factor())
		} else {
			fs = append(fs, nil)
		}
	}
	first, second := fs[0], (*cosmo.Factor)(nil)
	if len(fs) > 1 {
		second = fs[1]
	}

	switch rule {
	case RulePreserve:
		if first != nil && second != nil {
			combined, err := first.CombineAdditive(*second)
			if err != nil {
				return nil, err
			}
			return &combined, nil
		}
		if first != nil {
			return first, nil
		}
		return second, nil
	case RulePassthrough:
		return first, nil
	case RuleMultiplyCombine:
		if first != nil && second != nil {
			combined, err := first.CombineMultiplicative(*second)
			if err != nil {
				return nil, err
			}
			return &combined, nil
		}
		if first != nil {
			return first, nil
		}
		return second, nil
	case RuleDivideCombine:
		if first != nil && second != nil {
			combined, err := first.CombineDivide(*second)
			if err != nil {
				return nil, err
			}
			return &combined, nil
		}
		if first != nil {
			return first, nil
		}
		if second != nil {
			inv := second.Invert()
			return &inv, nil
		}
		return nil, nil
	case RuleStrip, RuleComparison:
		return nil, nil
	case RulePower, RuleUnsupported:
		return nil, fmt.Errorf("%w: %s", ErrDispatchUnsupported, op)
	default:
		return nil, fmt.Errorf("%w: %s", ErrDispatchUnsupported, op)
	}
}

// Unary applies a one-operand elementwise operation, deriving the output
// tag from the dispatch table.
func Unary(op Op, a *Array) (*Array, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil array", ErrInvalidConstruction)
	}
	rule, ok := RuleFor(op)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not in the dispatch table", ErrDispatchUnsupported, op)
	}
	if rule == RuleUnsupported || rule == RulePower {
		return nil, fmt.Errorf("%w: %s", ErrDispatchUnsupported, op)
	}
	kernel, ok := unaryKernels[op]
	if !ok {
		return nil, fmt.Errorf("cosmoarray: %s is not a unary operation", op)
	}

	// Strips drop the unit along with the exponent. Transcendental strips
	// additionally require dimensionless input; predicates, rounding, and
	// sign work on any unit.
	outUnit := a.Unit()
	if rule == RuleStrip {
		if transcendental(op) && !a.Unit().IsDimensionless() {
			return nil, &units.IncompatibleError{Op: op.String(), From: a.Unit().Dim, To: units.Dimensionless}
		}
		outUnit = units.Unit{Scale: 1}
	}

	ops := []operand{{arr: a}}
	factor, err := resolveFactor(op, rule, ops)
	if err != nil {
		return nil, err
	}

	in := a.Values()
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = kernel(v)
	}
	q := units.NewQuantity(out, outUnit)
	if shaped, err := q.Reshape(a.Shape()...); err == nil {
		q = shaped
	}
	res := &Array{q: q, comoving: a.Comoving(), factor: factor, compression: a.Compression()}
	return res, nil
}

// Binary applies a two-operand elementwise operation between tagged arrays
// or between a tagged array and a plain scalar or slice. At least one
// operand must be tagged. Comparison and logical operations yield a 0/1
// dimensionless array; callers wanting booleans use Compare.
func Binary(op Op, x, y any) (*Array, error) {
	a, err := toOperand(x)
	if err != nil {
		return nil, err
	}
	b, err := toOperand(y)
	if err != nil {
		return nil, err
	}
	if !a.tagged() && !b.tagged() {
		return nil, fmt.Errorf("%w: no tagged operand", ErrInvalidConstruction)
	}
	rule, ok := RuleFor(op)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not in the dispatch table", ErrDispatchUnsupported, op)
	}
	if op == OpMatMul {
		return matmul(a, b)
	}

	ops := []operand{a, b}
	comoving, err := resolveFrame(ops)
	if err != nil {
		return nil, err
	}
	compression := resolveCompression(ops)
	factor, err := resolveFactor(op, rule, ops)
	if err != nil {
		return nil, err
	}

	// Bring the right operand into the left's unit for unit-preserving
	// operations; derive the product/quotient unit otherwise.
	outUnit, converted, err := resolveUnits(op, rule, ops)
	if err != nil {
		return nil, err
	}

	n, shape, err := broadcastLength(ops)
	if err != nil {
		return nil, err
	}

	out := make([]float64, n)
	if rule == RuleComparison {
		kernel, ok := compareKernels[op]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrDispatchUnsupported, op)
		}
		for i := range out {
			if kernel(converted[0].at(i), converted[1].at(i)) {
				out[i] = 1
			}
		}
	} else {
		kernel, ok := binaryKernels[op]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrDispatchUnsupported, op)
		}
		for i := range out {
			out[i] = kernel(converted[0].at(i), converted[1].at(i))
		}
	}

	q := units.NewQuantity(out, outUnit)
	if len(shape) > 1 {
		if shaped, err := q.Reshape(shape...); err == nil {
			q = shaped
		}
	}
	return &Array{q: q, comoving: comoving, factor: factor, compression: compression}, nil
}

// Compare applies a comparison or logical operation and returns the plain
// boolean result. No unit, frame, or exponent is carried.
func Compare(op Op, x, y any) ([]bool, error) {
	rule, ok := RuleFor(op)
	if !ok || rule != RuleComparison {
		return nil, fmt.Errorf("%w: %s is not a comparison", ErrDispatchUnsupported, op)
	}
	res, err := Binary(op, x, y)
	if err != nil {
		return nil, err
	}
	vals := res.Values()
	out := make([]bool, len(vals))
	for i, v := range vals {
		out[i] = v != 0
	}
	return out, nil
}

// Reduce collapses an array to a scalar with the given operation. Only
// operations whose rule preserves the factor support reduction; anything
// else (notably multiply, whose exponent would compound per element) fails
// with ErrDispatchUnsupported.
func Reduce(op Op, a *Array) (*Array, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil array", ErrInvalidConstruction)
	}
	rule, ok := RuleFor(op)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not in the dispatch table", ErrDispatchUnsupported, op)
	}
	if rule != RulePreserve {
		return nil, fmt.Errorf("%w: reduce over %s", ErrDispatchUnsupported, op)
	}
	if a.Len() == 0 {
		return nil, fmt.Errorf("cosmoarray: reduce over empty array")
	}
	vals := a.q.Values()
	acc := vals[0]
	for _, v := range vals[1:] {
		switch op {
		case OpAdd:
			acc += v
		case OpSubtract:
			acc -= v
		case OpMaximum, OpFmax:
			acc = math.Max(acc, v)
		case OpMinimum, OpFmin:
			acc = math.Min(acc, v)
		default:
			return nil, fmt.Errorf("%w: reduce over %s", ErrDispatchUnsupported, op)
		}
	}
	q := units.NewQuantity([]float64{acc}, a.Unit())
	res := &Array{q: q}
	a.copyTagTo(res)
	return res, nil
}

// Dot computes the matrix/vector product of two operands under the
// multiply-combine rule.
func Dot(x, y any) (*Array, error) {
	return Binary(OpMatMul, x, y)
}

func matmul(a, b operand) (*Array, error) {
	ops := []operand{a, b}
	comoving, err := resolveFrame(ops)
	if err != nil {
		return nil, err
	}
	compression := resolveCompression(ops)
	factor, err := resolveFactor(OpMatMul, RuleMultiplyCombine, ops)
	if err != nil {
		return nil, err
	}
	if !ops[0].tagged() || !ops[1].tagged() {
		return nil, fmt.Errorf("%w: matmul requires two arrays", ErrInvalidConstruction)
	}
	lhs, rhs := ops[0].arr, ops[1].arr
	outUnit := lhs.Unit().Mul(rhs.Unit())

	ls, rs := lhs.Shape(), rhs.Shape()
	switch {
	case len(ls) == 1 && len(rs) == 1:
		if ls[0] != rs[0] {
			return nil, fmt.Errorf("cosmoarray: matmul: lengths %d and %d differ", ls[0], rs[0])
		}
		sum := 0.0
		for i := 0; i < ls[0]; i++ {
			sum += lhs.q.At(i) * rhs.q.At(i)
		}
		q := units.NewQuantity([]float64{sum}, outUnit)
		return &Array{q: q, comoving: comoving, factor: factor, compression: compression}, nil
	case len(ls) == 2 && len(rs) == 1:
		rows, cols := ls[0], ls[1]
		if cols != rs[0] {
			return nil, fmt.Errorf("cosmoarray: matmul: inner dimensions %d and %d differ", cols, rs[0])
		}
		out := make([]float64, rows)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				out[i] += lhs.q.At(i*cols+j) * rhs.q.At(j)
			}
		}
		q := units.NewQuantity(out, outUnit)
		return &Array{q: q, comoving: comoving, factor: factor, compression: compression}, nil
	default:
		return nil, fmt.Errorf("cosmoarray: matmul: unsupported shapes %v and %v", ls, rs)
	}
}

// resolveUnits derives the output unit and unit-normalized operands for a
// binary operation. Preserving and comparing operations convert the second
// tagged operand into the first's unit; plain scalars adopt the tagged
// operand's unit.
func resolveUnits(op Op, rule Rule, ops []operand) (units.Unit, []operand, error) {
	lhs, rhs := ops[0], ops[1]
	dimensionless := units.Unit{Scale: 1}

	unitOf := func(o operand) (units.Unit, bool) {
		if o.tagged() {
			return o.arr.Unit(), true
		}
		return dimensionless, false
	}
	lu, lTagged := unitOf(lhs)
	ru, rTagged := unitOf(rhs)

	switch rule {
	case RulePassthrough:
		if lTagged {
			return lu, []operand{lhs, rhs}, nil
		}
		return ru, []operand{lhs, rhs}, nil
	case RulePreserve, RuleComparison:
		anchor := lu
		if !lTagged {
			anchor = ru
		}
		if lTagged && rTagged && lu != ru {
			c, err := rhs.arr.InUnits(anchor)
			if err != nil {
				return units.Unit{}, nil, err
			}
			rhs = operand{arr: c}
		}
		outUnit := anchor
		if rule == RuleComparison {
			outUnit = dimensionless
		}
		return outUnit, []operand{lhs, rhs}, nil
	case RuleMultiplyCombine:
		return lu.Mul(ru), []operand{lhs, rhs}, nil
	case RuleDivideCombine:
		return lu.Div(ru), []operand{lhs, rhs}, nil
	case RuleStrip:
		// Arctan2 takes a ratio, so its operands only need to agree with
		// each other, not be dimensionless.
		if op == OpArctan2 && lTagged && rTagged && lu != ru {
			c, err := rhs.arr.InUnits(lu)
			if err != nil {
				return units.Unit{}, nil, err
			}
			rhs = operand{arr: c}
		}
		if transcendental(op) {
			for _, o := range []operand{lhs, rhs} {
				if o.tagged() && !o.arr.Unit().IsDimensionless() {
					return units.Unit{}, nil, &units.IncompatibleError{
						Op: op.String(), From: o.arr.Unit().Dim, To: units.Dimensionless,
					}
				}
			}
		}
		return dimensionless, []operand{lhs, rhs}, nil
	case RulePower, RuleUnsupported:
		return units.Unit{}, nil, fmt.Errorf("%w: %s", ErrDispatchUnsupported, op)
	default:
		return units.Unit{}, nil, fmt.Errorf("%w: %s", ErrDispatchUnsupported, op)
	}
}

// transcendental reports whether a strip operation composes only with
// dimensionless input (exponentials, logs, trigonometry). Arctan2 takes a
// ratio of like quantities, so it is exempt.
func transcendental(op Op) bool {
	switch op {
	case OpExp, OpExp2, OpLog, OpLog2, OpLog10, OpExpm1, OpLog1p,
		OpLogaddexp, OpLogaddexp2, OpSin, OpCos, OpTan, OpArcsin, OpArccos,
		OpArctan, OpSinh, OpCosh, OpTanh, OpArcsinh, OpArccosh, OpArctanh,
		OpDeg2Rad, OpRad2Deg:
		return true
	default:
		return false
	}
}

// broadcastLength checks that all non-scalar operands agree on length and
// returns the element count and, when unambiguous, the output shape.
func broadcastLength(ops []operand) (int, []int, error) {
	n := -1
	var shape []int
	for _, o := range ops {
		if l, ok := o.length(); ok {
			if n >= 0 && l != n {
				return 0, nil, fmt.Errorf("cosmoarray: operand lengths %d and %d differ", n, l)
			}
			n = l
			if o.tagged() {
				shape = o.arr.Shape()
			}
		}
	}
	if n < 0 {
		return 0, nil, fmt.Errorf("%w: no array operand", ErrInvalidConstruction)
	}
	return n, shape, nil
}
