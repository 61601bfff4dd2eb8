package builtins

import (
	"ebscript/pkg/object"
	"math"
	"math/rand/v2"
)

// numericResult keeps the kind of v when it is integral, so that math.abs of an
// int stays an int.
func numericResult(v object.Object, f float64) object.Object {
	switch v.(type) {
	case *object.Byte, *object.Integer:
		return object.NewIntegral(int64(f))
	case *object.Long:
		return long(int64(f))
	}
	return double(f)
}

func mathCategory() *category {
	c := newCategory("math")

	c.def("abs", kAny, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return numericResult(a[0], math.Abs(float(a, 0))), nil
	}, num("value"))

	pick := func(less bool) handlerFunc {
		return func(_ *Context, a []object.Object) (object.Object, *object.Error) {
			c, err := object.Compare(a[0], a[1])
			if err != nil {
				return nil, err
			}
			if (c <= 0) == less {
				return a[0], nil
			}
			return a[1], nil
		}
	}
	c.def("min", kAny, pick(true), num("a"), num("b"))
	c.def("max", kAny, pick(false), num("a"), num("b"))

	c.def("sqrt", kDouble, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		f := float(a, 0)
		if f < 0 {
			return nil, object.Raise(object.MathError, "square root of negative number %s", object.FormatNumber(f))
		}
		return double(math.Sqrt(f)), nil
	}, req("value", kDouble))

	c.def("pow", kDouble, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return double(math.Pow(float(a, 0), float(a, 1))), nil
	}, req("base", kDouble), req("exponent", kDouble))

	c.def("round", kLong, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return long(int64(math.Round(float(a, 0)))), nil
	}, req("value", kDouble))

	c.def("floor", kLong, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return long(int64(math.Floor(float(a, 0)))), nil
	}, req("value", kDouble))

	c.def("ceil", kLong, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return long(int64(math.Ceil(float(a, 0)))), nil
	}, req("value", kDouble))

	// random() returns a double in [0, 1), random(n) an int in [0, n] and
	// random(lo, hi) an int in [lo, hi].
	c.def("random", kAny, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		if isNull(a[0]) {
			return double(rand.Float64()), nil
		}
		lo, hi := integer(a, 0), optInt(a, 1, integer(a, 0))
		if isNull(a[1]) {
			lo, hi = 0, lo
		}
		if hi < lo {
			return nil, object.Raise(object.MathError, "empty range [%d, %d]", lo, hi)
		}
		return object.NewIntegral(lo + rand.Int64N(hi-lo+1)), nil
	}, opt("min", kLong), opt("max", kLong))

	return c
}
