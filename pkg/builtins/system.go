package builtins

import (
	"ebscript/pkg/object"
	"os"

	"github.com/joho/godotenv"
)

func systemCategory() *category {
	c := newCategory("system")

	c.def("getenv", kString, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		v, ok := os.LookupEnv(str(a, 0))
		if !ok {
			if isNull(a[1]) {
				return object.NULL, nil
			}
			return a[1], nil
		}
		return stringOf(v), nil
	}, req("name", kString), opt("default", kString))

	c.def("setenv", kBool, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		if err := os.Setenv(str(a, 0), str(a, 1)); err != nil {
			return nil, object.Raise(object.ValidationError, "setenv %s: %s", str(a, 0), err)
		}
		return object.TRUE, nil
	}, req("name", kString), opt("value", kString))

	// loadenv reads a dotenv file into the process environment without
	// overriding variables that are already set.
	c.def("loadenv", kBool, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		path := optStr(a, 0, ".env")
		if err := godotenv.Load(path); err != nil {
			return nil, ioError("loadenv", path, err)
		}
		ctx.Logger.Debug("environment loaded", "path", path)
		return object.TRUE, nil
	}, opt("path", kString))

	c.def("time", kLong, func(ctx *Context, _ []object.Object) (object.Object, *object.Error) {
		return long(ctx.Now().UnixMilli()), nil
	})

	return c
}
