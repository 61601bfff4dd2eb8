package builtins

import (
	"ebscript/pkg/object"
	"ebscript/pkg/registry"
)

// Shorthands for signatures.
var (
	req = registry.Required
	opt = registry.Optional
	num = registry.Number
)

const (
	kAny    = object.KindAny
	kBool   = object.KindBool
	kInt    = object.KindInt
	kLong   = object.KindLong
	kDouble = object.KindDouble
	kString = object.KindString
	kDate   = object.KindDate
	kArray  = object.KindArray
	kJSON   = object.KindJSON
	kQueue  = object.KindQueue
	kImage  = object.KindImage
	kNone   = object.KindNull
)

// Arguments reaching a handler have been coerced by prepare, so the type
// assertions below hold for every present argument. Omitted optional
// arguments are null.

func isNull(o object.Object) bool { return o == nil || o == object.NULL }

func str(args []object.Object, i int) string {
	if s, ok := args[i].(*object.String); ok {
		return s.Value
	}
	if isNull(args[i]) {
		return ""
	}
	return args[i].Inspect()
}

func optStr(args []object.Object, i int, def string) string {
	if i >= len(args) || isNull(args[i]) {
		return def
	}
	return str(args, i)
}

func integer(args []object.Object, i int) int64 {
	if n, ok := object.ToInt64(args[i]); ok {
		return n
	}
	if f, ok := object.ToFloat(args[i]); ok {
		return int64(f)
	}
	return 0
}

func optInt(args []object.Object, i int, def int64) int64 {
	if i >= len(args) || isNull(args[i]) {
		return def
	}
	return integer(args, i)
}

func float(args []object.Object, i int) float64 {
	f, _ := object.ToFloat(args[i])
	return f
}

func boolean(args []object.Object, i int) bool {
	b, ok := args[i].(*object.Boolean)
	return ok && b.Value
}

func optBool(args []object.Object, i int, def bool) bool {
	if i >= len(args) || isNull(args[i]) {
		return def
	}
	return boolean(args, i)
}

func jsonArg(args []object.Object, i int) *object.JSON {
	if j, ok := args[i].(*object.JSON); ok {
		return j
	}
	return &object.JSON{Value: object.ToNative(args[i])}
}

func arrayArg(args []object.Object, i int) (*object.Array, *object.Error) {
	if a, ok := args[i].(*object.Array); ok {
		return a, nil
	}
	return nil, object.NewError(object.TypeError, "expected an array, got %s", args[i].Kind().Name())
}

func dateArg(args []object.Object, i int) (*object.Date, *object.Error) {
	if d, ok := args[i].(*object.Date); ok {
		return d, nil
	}
	return nil, object.NewError(object.TypeError, "expected a date, got %s", args[i].Kind().Name())
}

func strings2array(items []string) *object.Array {
	out := object.NewArray(object.KindString, 0, false)
	for _, s := range items {
		out.Append(&object.String{Value: s})
	}
	return out
}

func stringOf(s string) *object.String { return &object.String{Value: s} }

func long(n int64) *object.Long { return &object.Long{Value: n} }

func double(f float64) *object.Double { return &object.Double{Value: f} }
