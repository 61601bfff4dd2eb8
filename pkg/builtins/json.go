package builtins

import (
	"ebscript/pkg/object"
	"fmt"

	"github.com/goccy/go-yaml"
)

func jsonCategory() *category {
	c := newCategory("json")

	c.def("jsonfromstring", kJSON, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return object.ParseJSON(str(a, 0))
	}, req("text", kString))

	c.def("tostring", kString, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		j := jsonArg(a, 0)
		if optBool(a, 1, false) {
			return stringOf(j.Indent()), nil
		}
		return stringOf(j.Inspect()), nil
	}, req("value", kJSON), opt("pretty", kBool))

	c.def("get", kAny, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		v, ok := jsonArg(a, 0).Get(str(a, 1))
		if !ok {
			return a[2], nil
		}
		return object.FromNative(v), nil
	}, req("value", kJSON), req("path", kString), opt("default", kAny))

	typed := func(k object.Kind) handlerFunc {
		return func(_ *Context, a []object.Object) (object.Object, *object.Error) {
			v, ok := jsonArg(a, 0).Get(str(a, 1))
			if !ok || v == nil {
				if isNull(a[2]) {
					return object.Zero(k), nil
				}
				return object.Coerce(a[2], k)
			}
			val := object.FromNative(v)
			if k == object.KindInt {
				if l, isLong := val.(*object.Long); isLong {
					return nil, object.NewError(object.TypeError, "value %d at %q does not fit in int", l.Value, str(a, 1))
				}
			}
			if k == object.KindString {
				if s, isStr := val.(*object.String); isStr {
					return s, nil
				}
				return stringOf(val.Inspect()), nil
			}
			return object.Coerce(val, k)
		}
	}
	c.def("getstring", kString, typed(kString), req("value", kJSON), req("path", kString), opt("default", kString))
	c.def("getint", kInt, typed(kInt), req("value", kJSON), req("path", kString), opt("default", kInt))
	c.def("getlong", kLong, typed(kLong), req("value", kJSON), req("path", kString), opt("default", kLong))
	c.def("getdouble", kDouble, typed(kDouble), req("value", kJSON), req("path", kString), opt("default", kDouble))
	c.def("getbool", kBool, typed(kBool), req("value", kJSON), req("path", kString), opt("default", kBool))

	c.def("set", kJSON, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		j := jsonArg(a, 0)
		if err := j.Set(str(a, 1), object.ToNative(a[2])); err != nil {
			return nil, err
		}
		return j, nil
	}, req("value", kJSON), req("path", kString), opt("item", kAny))

	c.def("add", kJSON, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		j := jsonArg(a, 0)
		list, ok := j.Value.([]any)
		if !ok {
			if j.Value != nil {
				return nil, object.NewError(object.TypeError, "json.add needs a json list")
			}
		}
		j.Value = append(list, object.ToNative(a[1]))
		return j, nil
	}, req("value", kJSON), opt("item", kAny))

	c.def("remove", kBool, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return object.NativeBool(jsonArg(a, 0).Remove(str(a, 1))), nil
	}, req("value", kJSON), req("path", kString))

	c.def("isempty", kBool, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		if isNull(a[0]) {
			return object.TRUE, nil
		}
		return object.NativeBool(jsonArg(a, 0).Size() == 0), nil
	}, opt("value", kJSON))

	c.def("size", kInt, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return object.NewInteger(int32(jsonArg(a, 0).Size())), nil
	}, req("value", kJSON))

	c.def("keys", kArray, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return strings2array(jsonArg(a, 0).Keys()), nil
	}, req("value", kJSON))

	c.def("fromyaml", kJSON, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		var v any
		if err := yaml.Unmarshal([]byte(str(a, 0)), &v); err != nil {
			return nil, object.Raise(object.ParseErrorName, "invalid yaml: %s", err)
		}
		return &object.JSON{Value: object.Normalize(yamlToJSON(v))}, nil
	}, req("text", kString))

	c.def("toyaml", kString, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		out, err := yaml.Marshal(jsonArg(a, 0).Value)
		if err != nil {
			return nil, object.Raise(object.ValidationError, "cannot render yaml: %s", err)
		}
		return stringOf(string(out)), nil
	}, req("value", kJSON))

	return c
}

// yamlToJSON rewrites the decoder's map and number types into the shapes
// object.JSON holds.
func yamlToJSON(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, e := range v {
			v[k] = yamlToJSON(e)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[fmt.Sprint(k)] = yamlToJSON(e)
		}
		return out
	case []any:
		for i, e := range v {
			v[i] = yamlToJSON(e)
		}
		return v
	case int:
		return int64(v)
	case uint64:
		return int64(v)
	case int64, float64, string, bool, nil:
		return v
	default:
		return fmt.Sprint(v)
	}
}
