package builtins

import (
	"ebscript/pkg/object"
	"time"

	"gitlab.com/variadico/lctime"
)

// referenceDate is Go's layout reference time. Rendering a strftime format
// against it yields the equivalent Go layout.
var referenceDate = time.Date(2006, time.January, 2, 15, 4, 5, 0, time.FixedZone("MST", -7*60*60))

func dateCategory() *category {
	c := newCategory("date")

	c.def("now", kDate, func(ctx *Context, _ []object.Object) (object.Object, *object.Error) {
		return &object.Date{Value: ctx.Now()}, nil
	})

	c.def("format", kString, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		d, err := dateArg(a, 0)
		if err != nil {
			return nil, err
		}
		return stringOf(lctime.Strftime(optStr(a, 1, "%Y-%m-%d %H:%M:%S"), d.Value)), nil
	}, req("date", kDate), opt("format", kString))

	c.def("parse", kDate, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		text := str(a, 0)
		if isNull(a[1]) {
			t, err := object.ParseDate(text)
			if err != nil {
				return nil, object.Raise(object.ParseErrorName, "invalid date %q", text)
			}
			return &object.Date{Value: t}, nil
		}
		layout := lctime.Strftime(str(a, 1), referenceDate)
		t, err := time.ParseInLocation(layout, text, time.Local)
		if err != nil {
			return nil, object.Raise(object.ParseErrorName, "date %q does not match %q", text, str(a, 1))
		}
		return &object.Date{Value: t}, nil
	}, req("text", kString), opt("format", kString))

	c.def("adddays", kDate, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		d, err := dateArg(a, 0)
		if err != nil {
			return nil, err
		}
		return &object.Date{Value: d.Value.AddDate(0, 0, int(integer(a, 1)))}, nil
	}, req("date", kDate), req("days", kInt))

	c.def("diffdays", kLong, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		from, err := dateArg(a, 0)
		if err != nil {
			return nil, err
		}
		to, err := dateArg(a, 1)
		if err != nil {
			return nil, err
		}
		return long(int64(to.Value.Sub(from.Value) / (24 * time.Hour))), nil
	}, req("from", kDate), req("to", kDate))

	c.def("tomillis", kLong, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		d, err := dateArg(a, 0)
		if err != nil {
			return nil, err
		}
		return long(d.Value.UnixMilli()), nil
	}, req("date", kDate))

	return c
}
