package object

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Zero is the default value for a declared kind. Kinds without a natural
// zero default to null.
func Zero(k Kind) Object {
	switch k {
	case KindBool:
		return FALSE
	case KindByte:
		return &Byte{}
	case KindInt:
		return NewInteger(0)
	case KindLong:
		return &Long{}
	case KindDouble:
		return &Double{}
	case KindString:
		return &String{}
	default:
		return NULL
	}
}

// Assignable reports whether a statically known kind may be passed where
// `to` is declared. Null is assignable everywhere and is filled with the
// declared kind's default.
func Assignable(from, to Kind) bool {
	if from == to || to == KindAny || from == KindNull || from == KindAny {
		return true
	}
	switch to {
	case KindLong, KindDouble:
		return from.IsNumeric() && numericRank(from) <= numericRank(to)
	case KindInt:
		return from == KindByte
	case KindString:
		return from != KindFunction
	case KindJSON:
		return from == KindString || from.IsNumeric() || from == KindBool || from.IsArray()
	case KindArray:
		return from.IsArray() || from == KindJSON
	case KindDate:
		return from == KindString
	case KindBitmap, KindIntMap:
		return from.IsArray()
	}
	return false
}

// Coerce converts v to kind `to`. Widening conversions succeed, narrowing
// fails with TypeError, and null becomes the declared kind's default.
func Coerce(v Object, to Kind) (Object, *Error) {
	if v == nil {
		return Zero(to), nil
	}
	from := v.Kind()
	if from == to || to == KindAny || to == KindInvalid {
		return v, nil
	}
	if from == KindNull {
		return Zero(to), nil
	}
	switch to {
	case KindInt:
		if b, ok := v.(*Byte); ok {
			return NewInteger(int32(b.Value)), nil
		}
	case KindLong:
		switch v := v.(type) {
		case *Byte:
			return &Long{Value: int64(v.Value)}, nil
		case *Integer:
			return &Long{Value: int64(v.Value)}, nil
		}
	case KindDouble:
		switch v := v.(type) {
		case *Byte:
			return &Double{Value: float64(v.Value)}, nil
		case *Integer:
			return &Double{Value: float64(v.Value)}, nil
		case *Long:
			return &Double{Value: float64(v.Value)}, nil
		}
	case KindString:
		if from != KindFunction {
			return &String{Value: v.Inspect()}, nil
		}
	case KindDate:
		if s, ok := v.(*String); ok {
			if t, err := ParseDate(s.Value); err == nil {
				return &Date{Value: t}, nil
			}
		}
	case KindJSON:
		switch v := v.(type) {
		case *String:
			trimmed := strings.TrimSpace(v.Value)
			if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
				j, err := ParseJSON(trimmed)
				if err != nil {
					return nil, err
				}
				return j, nil
			}
			return &JSON{Value: v.Value}, nil
		case *Array, *Boolean, *Byte, *Integer, *Long, *Double:
			return &JSON{Value: normalize(ToNative(v))}, nil
		}
	case KindArray:
		if from.IsArray() {
			return v, nil
		}
		if j, ok := v.(*JSON); ok {
			if list, ok := j.Value.([]any); ok {
				elems := make([]Object, len(list))
				for i, e := range list {
					elems[i] = FromNative(e)
				}
				return NewArrayOf(elems), nil
			}
		}
	case KindBitmap, KindIntMap:
		if a, ok := v.(*Array); ok {
			out := NewArray(to, a.Len(), a.Fixed)
			for i, e := range a.Elements() {
				if err := out.Set(i, e); err != nil {
					return nil, err
				}
			}
			return out, nil
		}
	}
	return nil, NewError(TypeError, "cannot convert %s to %s", from, to)
}

// DateLayouts are the accepted textual date forms, most specific first.
var DateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	time.RFC3339,
}

// ParseDate parses a date in any of DateLayouts, in local time.
func ParseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range DateLayouts {
		var t time.Time
		t, err = time.ParseInLocation(layout, s, time.Local)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// ToFloat returns the numeric value of a numeric object.
func ToFloat(o Object) (float64, bool) {
	switch o := o.(type) {
	case *Byte:
		return float64(o.Value), true
	case *Integer:
		return float64(o.Value), true
	case *Long:
		return float64(o.Value), true
	case *Double:
		return o.Value, true
	}
	return 0, false
}

// ToInt64 returns the integral value of a non-double numeric object.
func ToInt64(o Object) (int64, bool) {
	switch o := o.(type) {
	case *Byte:
		return int64(o.Value), true
	case *Integer:
		return int64(o.Value), true
	case *Long:
		return o.Value, true
	}
	return 0, false
}

// Compare orders a and b, returning -1, 0 or 1. Mixed numeric kinds compare
// at the widest kind present; strings compare by code point.
func Compare(a, b Object) (int, *Error) {
	ak, bk := a.Kind(), b.Kind()
	switch {
	case ak.IsNumeric() && bk.IsNumeric():
		if Widest(ak, bk) != KindDouble {
			x, _ := ToInt64(a)
			y, _ := ToInt64(b)
			return cmpOrdered(x, y), nil
		}
		x, _ := ToFloat(a)
		y, _ := ToFloat(b)
		return cmpOrdered(x, y), nil
	case ak == KindString && bk == KindString:
		return strings.Compare(a.(*String).Value, b.(*String).Value), nil
	case ak == KindDate && bk == KindDate:
		return a.(*Date).Value.Compare(b.(*Date).Value), nil
	case ak == KindBool && bk == KindBool:
		x, y := a.(*Boolean).Value, b.(*Boolean).Value
		switch {
		case x == y:
			return 0, nil
		case !x:
			return -1, nil
		default:
			return 1, nil
		}
	}
	return 0, NewError(TypeError, "cannot compare %s with %s", ak, bk)
}

func cmpOrdered[T int64 | float64](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// Equal reports value equality. Numbers compare across kinds, JSON compares
// structurally, arrays element-wise, and handles by identity.
func Equal(a, b Object) bool {
	ak, bk := a.Kind(), b.Kind()
	if ak.IsNumeric() && bk.IsNumeric() {
		c, _ := Compare(a, b)
		return c == 0
	}
	if ak != bk {
		if ak == KindJSON || bk == KindJSON {
			return jsonEqual(ToNative(a), ToNative(b))
		}
		return false
	}
	switch a := a.(type) {
	case *Null:
		return true
	case *Boolean:
		return a.Value == b.(*Boolean).Value
	case *String:
		return a.Value == b.(*String).Value
	case *Date:
		return a.Value.Equal(b.(*Date).Value)
	case *JSON:
		return jsonEqual(a.Value, b.(*JSON).Value)
	case *Array:
		o := b.(*Array)
		if a.Len() != o.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			x, _ := a.Get(i)
			y, _ := o.Get(i)
			if !Equal(x, y) {
				return false
			}
		}
		return true
	case *Queue:
		o := b.(*Queue)
		if len(a.Items) != len(o.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], o.Items[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}

// FormatNumber renders a float without a trailing ".0" when integral.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
