package builtins

import (
	"ebscript/pkg/object"
	"encoding/base64"
	"sort"
)

func arrayCategory() *category {
	c := newCategory("array")

	c.def("fill", kNone, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		arr, err := arrayArg(a, 0)
		if err != nil {
			return nil, err
		}
		n := int(integer(a, 1))
		if n < 0 {
			return nil, object.NewError(object.IndexError, "negative fill length %d", n)
		}
		if n > arr.Len() {
			arr.Resize(n)
		}
		v := a[2]
		if isNull(v) {
			v = object.Zero(object.DeclaredKind(arr.Elem.Name(), false))
		}
		for i := 0; i < n; i++ {
			if err := arr.Set(i, v); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}, req("array", kArray), req("length", kInt), opt("value", kAny))

	c.def("sort", kNone, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		arr, err := arrayArg(a, 0)
		if err != nil {
			return nil, err
		}
		asc := optBool(a, 1, true)
		elems := arr.Elements()
		var cmpErr *object.Error
		sort.SliceStable(elems, func(i, j int) bool {
			c, err := object.Compare(elems[i], elems[j])
			if err != nil && cmpErr == nil {
				cmpErr = err
			}
			if asc {
				return c < 0
			}
			return c > 0
		})
		if cmpErr != nil {
			return nil, cmpErr
		}
		for i, e := range elems {
			if err := arr.Set(i, e); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}, req("array", kArray), opt("ascending", kBool))

	c.def("expand", kNone, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		arr, err := arrayArg(a, 0)
		if err != nil {
			return nil, err
		}
		n := int(integer(a, 1))
		if n < arr.Len() {
			return nil, object.NewError(object.IndexError, "cannot shrink array of length %d to %d", arr.Len(), n)
		}
		arr.Resize(n)
		return nil, nil
	}, req("array", kArray), req("length", kInt))

	c.def("length", kInt, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		arr, err := arrayArg(a, 0)
		if err != nil {
			return nil, err
		}
		return object.NewInteger(int32(arr.Len())), nil
	}, req("array", kArray))

	c.def("push", kInt, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		arr, err := arrayArg(a, 0)
		if err != nil {
			return nil, err
		}
		if err := arr.Append(a[1]); err != nil {
			return nil, err
		}
		return object.NewInteger(int32(arr.Len())), nil
	}, req("array", kArray), opt("value", kAny))

	c.def("contains", kBool, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		arr, err := arrayArg(a, 0)
		if err != nil {
			return nil, err
		}
		for _, e := range arr.Elements() {
			if object.Equal(e, a[1]) {
				return object.TRUE, nil
			}
		}
		return object.FALSE, nil
	}, req("array", kArray), opt("value", kAny))

	c.def("base64encode", kString, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		arr, err := arrayArg(a, 0)
		if err != nil {
			return nil, err
		}
		b := toBytes(arr)
		return stringOf(base64.StdEncoding.EncodeToString(b)), nil
	}, req("bytes", kArray))

	c.def("base64decode", object.KindByteArray, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		b, err := base64.StdEncoding.DecodeString(str(a, 0))
		if err != nil {
			return nil, object.Raise(object.ParseErrorName, "invalid base64: %s", err)
		}
		return object.NewBytes(b), nil
	}, req("b64", kString))

	return c
}

func queueCategory() *category {
	c := newCategory("queue")

	queueArg := func(a []object.Object) (*object.Queue, *object.Error) {
		if q, ok := a[0].(*object.Queue); ok {
			return q, nil
		}
		return nil, object.NewError(object.TypeError, "expected a queue, got %s", a[0].Kind().Name())
	}

	c.def("enqueue", kInt, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		q, err := queueArg(a)
		if err != nil {
			return nil, err
		}
		q.Enqueue(a[1])
		return object.NewInteger(int32(len(q.Items))), nil
	}, req("queue", kQueue), opt("value", kAny))

	c.def("dequeue", kAny, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		q, err := queueArg(a)
		if err != nil {
			return nil, err
		}
		v, ok := q.Dequeue()
		if !ok {
			return object.NULL, nil
		}
		return v, nil
	}, req("queue", kQueue))

	c.def("peek", kAny, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		q, err := queueArg(a)
		if err != nil {
			return nil, err
		}
		if len(q.Items) == 0 {
			return object.NULL, nil
		}
		return q.Items[0], nil
	}, req("queue", kQueue))

	c.def("size", kInt, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		q, err := queueArg(a)
		if err != nil {
			return nil, err
		}
		return object.NewInteger(int32(len(q.Items))), nil
	}, req("queue", kQueue))

	c.def("isempty", kBool, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		q, err := queueArg(a)
		if err != nil {
			return nil, err
		}
		return object.NativeBool(len(q.Items) == 0), nil
	}, req("queue", kQueue))

	c.def("clear", kNone, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		q, err := queueArg(a)
		if err != nil {
			return nil, err
		}
		clear(q.Items)
		q.Items = q.Items[:0]
		return nil, nil
	}, req("queue", kQueue))

	return c
}
