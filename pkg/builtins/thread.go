package builtins

import (
	"ebscript/pkg/object"
	"ebscript/pkg/timer"
	"strings"
	"time"
)

func timerName(a []object.Object) (string, *object.Error) {
	name := strings.TrimSpace(str(a, 0))
	if name == "" {
		return "", object.Raise(object.ValidationError, "timer name cannot be blank")
	}
	return name, nil
}

func callbackName(cb object.Object) string {
	if s, ok := cb.(*object.String); ok {
		return s.Value
	}
	if cb == nil {
		return ""
	}
	return cb.Inspect()
}

func timerJSON(info timer.Info, now time.Time) map[string]any {
	return map[string]any{
		"name":      info.Name,
		"period":    info.Period.Milliseconds(),
		"callback":  callbackName(info.Callback),
		"source":    info.Owner,
		"paused":    info.Paused,
		"fireCount": info.Fires,
		"createdAt": info.Created.UnixMilli(),
		"uptime":    now.Sub(info.Created).Milliseconds(),
	}
}

// byName adapts a scheduler query keyed by the timer name.
func byName[T any](fn func(c *Context, name string) T, wrap func(T) object.Object) handlerFunc {
	return func(c *Context, a []object.Object) (object.Object, *object.Error) {
		name, err := timerName(a)
		if err != nil {
			return nil, err
		}
		return wrap(fn(c, name)), nil
	}
}

func boolObj(b bool) object.Object { return object.NativeBool(b) }

func longObj(n int64) object.Object { return long(n) }

func threadCategory() *category {
	c := newCategory("thread")

	c.def("timerstart", kString, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		name, err := timerName(a)
		if err != nil {
			return nil, err
		}
		cb := a[2]
		switch cb.Kind() {
		case object.KindString:
			if strings.TrimSpace(str(a, 2)) == "" {
				return nil, object.Raise(object.ValidationError, "timer callback cannot be blank")
			}
		case object.KindFunction:
		default:
			return nil, object.NewError(object.TypeError, "timer callback must be a function or its name, got %s", cb.Kind().Name())
		}
		period := integer(a, 1)
		if period <= 0 {
			return nil, object.Raise(object.ValidationError, "period must be positive (got %d)", period)
		}
		owner := optStr(a, 3, ctx.Source)
		if serr := ctx.Timers.Start(name, time.Duration(period)*time.Millisecond, cb, owner); serr != nil {
			return nil, object.Wrap(object.ValidationError, serr)
		}
		ctx.Logger.Debug("timer started", "timer", name, "period", period, "owner", owner)
		return stringOf(name), nil
	}, req("name", kString), req("period", kLong), req("callback", kAny), opt("owner", kString))

	c.def("timerstop", kBool, byName(func(c *Context, n string) bool { return c.Timers.Stop(n) }, boolObj),
		req("name", kString))
	c.def("timerpause", kBool, byName(func(c *Context, n string) bool { return c.Timers.Pause(n) }, boolObj),
		req("name", kString))
	c.def("timerresume", kBool, byName(func(c *Context, n string) bool { return c.Timers.Resume(n) }, boolObj),
		req("name", kString))
	c.def("timerisrunning", kBool, byName(func(c *Context, n string) bool { return c.Timers.IsRunning(n) }, boolObj),
		req("name", kString))
	c.def("timerispaused", kBool, byName(func(c *Context, n string) bool { return c.Timers.IsPaused(n) }, boolObj),
		req("name", kString))

	c.def("timergetperiod", kLong, byName(func(c *Context, n string) int64 {
		if info, ok := c.Timers.Info(n); ok {
			return info.Period.Milliseconds()
		}
		return -1
	}, longObj), req("name", kString))

	c.def("timergetfirecount", kLong, byName(func(c *Context, n string) int64 {
		if info, ok := c.Timers.Info(n); ok {
			return info.Fires
		}
		return -1
	}, longObj), req("name", kString))

	c.def("timergetinfo", kJSON, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		name, err := timerName(a)
		if err != nil {
			return nil, err
		}
		info, ok := ctx.Timers.Info(name)
		if !ok {
			return object.NULL, nil
		}
		return &object.JSON{Value: object.Normalize(timerJSON(info, ctx.Now()))}, nil
	}, req("name", kString))

	c.def("timerlist", kJSON, func(ctx *Context, _ []object.Object) (object.Object, *object.Error) {
		now := ctx.Now()
		list := []any{}
		for _, info := range ctx.Timers.List() {
			list = append(list, timerJSON(info, now))
		}
		return &object.JSON{Value: object.Normalize(list)}, nil
	})

	c.def("timerstopowner", kInt, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		return object.NewInteger(int32(ctx.Timers.StopOwner(optStr(a, 0, ctx.Source)))), nil
	}, opt("owner", kString))

	c.def("getcount", kLong, func(ctx *Context, _ []object.Object) (object.Object, *object.Error) {
		return long(int64(ctx.Timers.Count())), nil
	})

	c.def("sleep", kNone, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		ms := integer(a, 0)
		if ms < 0 {
			return nil, object.Raise(object.ValidationError, "sleep duration must not be negative (got %d)", ms)
		}
		if err := ctx.Sleep(time.Duration(ms) * time.Millisecond); err != nil {
			return nil, object.Wrap(object.AnyError, err)
		}
		return nil, nil
	}, req("millis", kLong))

	return c
}
