package builtins

import (
	"ebscript/pkg/object"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/language"
)

var (
	upper = cases.Upper(language.Und)
	lower = cases.Lower(language.Und)
	fold  = cases.Fold()
)

var charsets = map[string]encoding.Encoding{
	"utf-8":        unicode.UTF8,
	"utf8":         unicode.UTF8,
	"utf-16":       unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
	"utf-16le":     unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"utf-16be":     unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"cp437":        charmap.CodePage437,
}

func lookupCharset(name string) (encoding.Encoding, *object.Error) {
	if name == "" {
		return unicode.UTF8, nil
	}
	enc, ok := charsets[strings.ToLower(name)]
	if !ok {
		return nil, object.Raise(object.ValidationError, "unsupported charset %q", name)
	}
	return enc, nil
}

// runeRange validates [start, end) against a string of n runes.
func runeRange(start, end int64, n int) *object.Error {
	if start < 0 || end > int64(n) || start > end {
		return object.NewError(object.IndexError, "range [%d, %d) out of bounds for length %d", start, end, n)
	}
	return nil
}

func stringCategory() *category {
	c := newCategory("str")

	c.def("toupper", kString, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return stringOf(upper.String(str(a, 0))), nil
	}, req("value", kString))

	c.def("tolower", kString, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return stringOf(lower.String(str(a, 0))), nil
	}, req("value", kString))

	c.def("trim", kString, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return stringOf(strings.TrimSpace(str(a, 0))), nil
	}, req("value", kString))

	c.def("length", kInt, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return object.NewInteger(int32(utf8.RuneCountInString(str(a, 0)))), nil
	}, req("value", kString))

	c.def("substring", kString, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		runes := []rune(str(a, 0))
		start := integer(a, 1)
		end := optInt(a, 2, int64(len(runes)))
		if err := runeRange(start, end, len(runes)); err != nil {
			return nil, err
		}
		return stringOf(string(runes[start:end])), nil
	}, req("value", kString), req("start", kInt), opt("end", kInt))

	c.def("indexof", kInt, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		s, find := str(a, 0), str(a, 1)
		from := optInt(a, 2, 0)
		runes := []rune(s)
		if from < 0 || from > int64(len(runes)) {
			return object.NewInteger(-1), nil
		}
		i := strings.Index(string(runes[from:]), find)
		if i < 0 {
			return object.NewInteger(-1), nil
		}
		return object.NewInteger(int32(from) + int32(utf8.RuneCountInString(string(runes[from:])[:i]))), nil
	}, req("value", kString), req("find", kString), opt("from", kInt))

	c.def("lastindexof", kInt, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		s := str(a, 0)
		i := strings.LastIndex(s, str(a, 1))
		if i < 0 {
			return object.NewInteger(-1), nil
		}
		return object.NewInteger(int32(utf8.RuneCountInString(s[:i]))), nil
	}, req("value", kString), req("find", kString))

	c.def("contains", kBool, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return object.NativeBool(strings.Contains(str(a, 0), str(a, 1))), nil
	}, req("value", kString), req("find", kString))

	c.def("startswith", kBool, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return object.NativeBool(strings.HasPrefix(str(a, 0), str(a, 1))), nil
	}, req("value", kString), req("prefix", kString))

	c.def("endswith", kBool, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return object.NativeBool(strings.HasSuffix(str(a, 0), str(a, 1))), nil
	}, req("value", kString), req("suffix", kString))

	c.def("replace", kString, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return stringOf(strings.ReplaceAll(str(a, 0), str(a, 1), str(a, 2))), nil
	}, req("value", kString), req("find", kString), req("with", kString))

	c.def("replaceall", kString, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		re, err := regexp.Compile(str(a, 1))
		if err != nil {
			return nil, object.Raise(object.ValidationError, "invalid pattern: %s", err)
		}
		return stringOf(re.ReplaceAllString(str(a, 0), str(a, 2))), nil
	}, req("value", kString), req("pattern", kString), req("with", kString))

	c.def("split", kArray, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		s, sep := str(a, 0), optStr(a, 1, ",")
		if s == "" {
			return object.NewArray(object.KindString, 0, false), nil
		}
		return strings2array(strings.Split(s, sep)), nil
	}, req("value", kString), opt("separator", kString))

	c.def("join", kString, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		arr, err := arrayArg(a, 0)
		if err != nil {
			return nil, err
		}
		parts := make([]string, 0, arr.Len())
		for _, e := range arr.Elements() {
			parts = append(parts, e.Inspect())
		}
		return stringOf(strings.Join(parts, optStr(a, 1, ","))), nil
	}, req("items", kArray), opt("separator", kString))

	pad := func(left bool) handlerFunc {
		return func(_ *Context, a []object.Object) (object.Object, *object.Error) {
			s, n, p := str(a, 0), int(integer(a, 1)), optStr(a, 2, " ")
			if p == "" {
				return nil, object.Raise(object.ValidationError, "pad string must not be empty")
			}
			missing := n - utf8.RuneCountInString(s)
			if missing <= 0 {
				return stringOf(s), nil
			}
			fill := []rune(strings.Repeat(p, missing))[:missing]
			if left {
				return stringOf(string(fill) + s), nil
			}
			return stringOf(s + string(fill)), nil
		}
	}
	c.def("lpad", kString, pad(true), req("value", kString), req("length", kInt), opt("pad", kString))
	c.def("rpad", kString, pad(false), req("value", kString), req("length", kInt), opt("pad", kString))

	c.def("charat", kString, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		runes := []rune(str(a, 0))
		i := integer(a, 1)
		if i < 0 || i >= int64(len(runes)) {
			return nil, object.NewError(object.IndexError, "index %d out of bounds for length %d", i, len(runes))
		}
		return stringOf(string(runes[i])), nil
	}, req("value", kString), req("index", kInt))

	c.def("isempty", kBool, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return object.NativeBool(optStr(a, 0, "") == ""), nil
	}, opt("value", kString))

	c.def("isblank", kBool, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return object.NativeBool(strings.TrimSpace(optStr(a, 0, "")) == ""), nil
	}, opt("value", kString))

	c.def("equals", kBool, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return object.NativeBool(optStr(a, 0, "") == optStr(a, 1, "")), nil
	}, opt("a", kString), opt("b", kString))

	c.def("equalsignorecase", kBool, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return object.NativeBool(fold.String(optStr(a, 0, "")) == fold.String(optStr(a, 1, ""))), nil
	}, opt("a", kString), opt("b", kString))

	c.def("tostring", kString, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return stringOf(a[0].Inspect()), nil
	}, opt("value", kAny))

	c.def("encode", object.KindByteArray, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		enc, err := lookupCharset(optStr(a, 1, ""))
		if err != nil {
			return nil, err
		}
		b, eerr := enc.NewEncoder().Bytes([]byte(str(a, 0)))
		if eerr != nil {
			return nil, object.Raise(object.ValidationError, "cannot encode: %s", eerr)
		}
		return object.NewBytes(b), nil
	}, req("value", kString), opt("charset", kString))

	c.def("decode", kString, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		arr, err := arrayArg(a, 0)
		if err != nil {
			return nil, err
		}
		enc, err := lookupCharset(optStr(a, 1, ""))
		if err != nil {
			return nil, err
		}
		out, derr := enc.NewDecoder().Bytes(toBytes(arr))
		if derr != nil {
			return nil, object.Raise(object.ValidationError, "cannot decode: %s", derr)
		}
		return stringOf(string(out)), nil
	}, req("bytes", kArray), opt("charset", kString))

	return c
}

// toBytes flattens any array into bytes, truncating each element.
func toBytes(a *object.Array) []byte {
	if b := a.Bytes(); b != nil {
		return b
	}
	out := make([]byte, 0, a.Len())
	for _, e := range a.Elements() {
		n, _ := object.ToInt64(e)
		out = append(out, byte(n))
	}
	return out
}
