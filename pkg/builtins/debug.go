package builtins

import (
	"context"
	"ebscript/pkg/log"
	"ebscript/pkg/object"
	"log/slog"
	"runtime"
	"strings"
)

func debugCategory() *category {
	c := newCategory("debug")

	c.def("vars", kJSON, func(ctx *Context, _ []object.Object) (object.Object, *object.Error) {
		return &object.JSON{Value: object.Normalize(ctx.Vars())}, nil
	})

	c.def("stack", kJSON, func(ctx *Context, _ []object.Object) (object.Object, *object.Error) {
		frames := []any{}
		for _, e := range ctx.Stack() {
			frames = append(frames, map[string]any{
				"kind": e.Kind,
				"name": e.Name,
				"line": int64(e.Line),
			})
		}
		return &object.JSON{Value: frames}, nil
	})

	c.def("log", kBool, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		level := slog.Level(log.ParseLevel(optStr(a, 0, "info")))
		ctx.Logger.Log(context.Background(), level, str(a, 1))
		return object.NativeBool(ctx.Logger.Enabled(context.Background(), level)), nil
	}, opt("level", kString), req("message", kString))

	c.def("assert", kBool, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		ok := boolean(a, 0)
		if !ok {
			ctx.Logger.Warn(optStr(a, 1, "assertion failed"))
		}
		return object.NativeBool(ok), nil
	}, opt("condition", kBool), opt("message", kString))

	c.def("assertequals", kBool, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		ok := object.Equal(a[0], a[1])
		if !ok {
			ctx.Logger.Warn(optStr(a, 2, "assertion failed: expected != actual"),
				"expected", a[0].Inspect(), "actual", a[1].Inspect())
		}
		return object.NativeBool(ok), nil
	}, opt("expected", kAny), opt("actual", kAny), opt("message", kString))

	c.def("memusage", kJSON, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		unit := strings.ToUpper(optStr(a, 0, "MB"))
		div := float64(1 << 20)
		switch unit {
		case "KB":
			div = 1 << 10
		case "B":
			div = 1
		default:
			unit = "MB"
		}
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return &object.JSON{Value: map[string]any{
			"max":   float64(m.Sys) / div,
			"total": float64(m.HeapSys) / div,
			"free":  float64(m.HeapIdle) / div,
			"used":  float64(m.HeapAlloc) / div,
			"unit":  unit,
		}}, nil
	}, opt("unit", kString))

	return c
}
