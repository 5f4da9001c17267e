package cosmoarray

import "math"

// Elementwise value kernels. The dispatch layer owns tags and units; these
// own only the float math.

var unaryKernels = map[Op]func(float64) float64{
	OpNegative: func(x float64) float64 { return -x },
	OpPositive: func(x float64) float64 { return x },
	OpAbsolute: math.Abs,
	OpFabs:     math.Abs,
	OpConj:     func(x float64) float64 { return x },
	OpRint:     math.RoundToEven,
	OpSign:     sign,
	OpExp:      math.Exp,
	OpExp2:     math.Exp2,
	OpLog:      math.Log,
	OpLog2:     math.Log2,
	OpLog10:    math.Log10,
	OpExpm1:    math.Expm1,
	OpLog1p:    math.Log1p,
	OpSin:      math.Sin,
	OpCos:      math.Cos,
	OpTan:      math.Tan,
	OpArcsin:   math.Asin,
	OpArccos:   math.Acos,
	OpArctan:   math.Atan,
	OpSinh:     math.Sinh,
	OpCosh:     math.Cosh,
	OpTanh:     math.Tanh,
	OpArcsinh:  math.Asinh,
	OpArccosh:  math.Acosh,
	OpArctanh:  math.Atanh,
	OpDeg2Rad:  func(x float64) float64 { return x * math.Pi / 180 },
	OpRad2Deg:  func(x float64) float64 { return x * 180 / math.Pi },
	OpFloor:    math.Floor,
	OpCeil:     math.Ceil,
	OpTrunc:    math.Trunc,
	OpSpacing:  spacing,
	OpLogicalNot: func(x float64) float64 {
		if x == 0 {
			return 1
		}
		return 0
	},
	OpIsFinite: predicate(func(x float64) bool { return !math.IsInf(x, 0) && !math.IsNaN(x) }),
	OpIsInf:    predicate(func(x float64) bool { return math.IsInf(x, 0) }),
	OpIsNaN:    predicate(math.IsNaN),
	OpSignBit:  predicate(math.Signbit),
}

var binaryKernels = map[Op]func(x, y float64) float64{
	OpAdd:         func(x, y float64) float64 { return x + y },
	OpSubtract:    func(x, y float64) float64 { return x - y },
	OpMultiply:    func(x, y float64) float64 { return x * y },
	OpDivide:      func(x, y float64) float64 { return x / y },
	OpFloorDivide: func(x, y float64) float64 { return math.Floor(x / y) },
	OpRemainder:   remainder,
	OpMod:         remainder,
	OpFmod:        math.Mod,
	OpHypot:       math.Hypot,
	OpMaximum:     math.Max,
	OpMinimum:     math.Min,
	OpFmax:        math.Max,
	OpFmin:        math.Min,
	OpCopySign:    math.Copysign,
	OpNextAfter:   math.Nextafter,
	OpArctan2:     math.Atan2,
	OpHeaviside:   heaviside,
	OpLogaddexp:   logaddexp,
	OpLogaddexp2:  logaddexp2,
}

var compareKernels = map[Op]func(x, y float64) bool{
	OpGreater:      func(x, y float64) bool { return x > y },
	OpGreaterEqual: func(x, y float64) bool { return x >= y },
	OpLess:         func(x, y float64) bool { return x < y },
	OpLessEqual:    func(x, y float64) bool { return x <= y },
	OpEqual:        func(x, y float64) bool { return x == y },
	OpNotEqual:     func(x, y float64) bool { return x != y },
	OpLogicalAnd:   func(x, y float64) bool { return x != 0 && y != 0 },
	OpLogicalOr:    func(x, y float64) bool { return x != 0 || y != 0 },
	OpLogicalXor:   func(x, y float64) bool { return (x != 0) != (y != 0) },
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// remainder follows the divisor's sign, matching the remainder/mod
// convention rather than fmod's.
func remainder(x, y float64) float64 {
	r := math.Mod(x, y)
	if r != 0 && (r < 0) != (y < 0) {
		r += y
	}
	return r
}

func heaviside(x, y float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 0:
		return 1
	default:
		return y
	}
}

func logaddexp(x, y float64) float64 {
	if x == y {
		return x + math.Ln2
	}
	hi, lo := math.Max(x, y), math.Min(x, y)
	return hi + math.Log1p(math.Exp(lo-hi))
}

func logaddexp2(x, y float64) float64 {
	if x == y {
		return x + 1
	}
	hi, lo := math.Max(x, y), math.Min(x, y)
	return hi + math.Log2(1+math.Exp2(lo-hi))
}

// spacing returns the distance to the next representable float away from
// zero, NaN for NaN input.
func spacing(x float64) float64 {
	if math.IsNaN(x) {
		return math.NaN()
	}
	if x >= 0 {
		return math.Nextafter(x, math.Inf(1)) - x
	}
	return x - math.Nextafter(x, math.Inf(-1))
}

func predicate(f func(float64) bool) func(float64) float64 {
	return func(x float64) float64 {
		if f(x) {
			return 1
		}
		return 0
	}
}
