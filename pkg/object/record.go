package object

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Shape constrains the structure of a declared value beyond its kind.
// Conform returns the value converted to the shape or a failure.
type Shape interface {
	Conform(v Object) (Object, *Error)
	String() string
}

// MapShape requires a json object. Map keys always iterate in sorted order,
// so a sorted map differs from a map only in its declared name.
type MapShape struct {
	Sorted bool
}

func (m MapShape) String() string {
	if m.Sorted {
		return "sorted map"
	}
	return "map"
}

func (m MapShape) Conform(v Object) (Object, *Error) {
	if v == nil || v == NULL {
		return &JSON{Value: map[string]any{}}, nil
	}
	j, ok := v.(*JSON)
	if !ok {
		return nil, NewError(TypeError, "%s value must be a json object, got %s", m, v.Kind().Name())
	}
	if _, ok := j.Value.(map[string]any); !ok {
		return nil, NewError(TypeError, "%s value must be a json object, got %s", m, describeNative(j.Value))
	}
	return j, nil
}

// RecordField is one declared field of a record.
type RecordField struct {
	Name      string
	Kind      Kind
	Shape     Shape // nested record or map, nil otherwise
	Mandatory bool
	MaxLength int
	Default   Object // nil when the field has no default
}

// RecordType is a json object with a fixed set of typed fields. Field names
// match case-insensitively.
type RecordType struct {
	Fields []RecordField
}

func (r *RecordType) String() string {
	parts := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		t := f.Kind.Name()
		if f.Shape != nil {
			t = f.Shape.String()
		}
		parts[i] = f.Name + ": " + t
	}
	return "record {" + strings.Join(parts, ", ") + "}"
}

func (r *RecordType) field(name string) (RecordField, bool) {
	for _, f := range r.Fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return RecordField{}, false
}

// Conform checks a json object against the record and returns a copy with
// every field converted to its declared kind and defaults filled in. Null
// conforms as null.
func (r *RecordType) Conform(v Object) (Object, *Error) {
	if v == nil || v == NULL {
		return NULL, nil
	}
	j, ok := v.(*JSON)
	if !ok {
		return nil, NewError(TypeError, "record value must be a json object, got %s", v.Kind().Name())
	}
	m, ok := j.Value.(map[string]any)
	if !ok {
		return nil, NewError(TypeError, "record value must be a json object, got %s", describeNative(j.Value))
	}

	out := make(map[string]any, len(r.Fields))
	for key, raw := range m {
		f, declared := r.field(key)
		if !declared {
			return nil, NewError(TypeError, "field '%s' is not declared in %s", key, r)
		}
		cv, err := f.conform(FromNative(raw))
		if err != nil {
			return nil, err
		}
		out[key] = ToNative(cv)
	}
	for _, f := range r.Fields {
		if _, present := LookupKey(out, f.Name); present {
			continue
		}
		switch {
		case f.Default != nil:
			cv, err := f.conform(f.Default)
			if err != nil {
				return nil, err
			}
			out[f.Name] = CloneNative(ToNative(cv))
		case f.Mandatory:
			return nil, Raise(ValidationError, "mandatory field '%s' is missing", f.Name)
		}
	}
	return &JSON{Value: out}, nil
}

func (f RecordField) conform(v Object) (Object, *Error) {
	if v == NULL {
		if f.Mandatory {
			return nil, Raise(ValidationError, "field '%s' is mandatory and cannot be null", f.Name)
		}
		return NULL, nil
	}
	if f.Shape != nil {
		return f.Shape.Conform(v)
	}
	cv, err := Coerce(v, f.Kind)
	if err != nil {
		return nil, NewError(TypeError, "field '%s': cannot convert %s to %s", f.Name, v.Kind().Name(), f.Kind.Name())
	}
	if s, ok := cv.(*String); ok && f.MaxLength > 0 {
		if n := utf8.RuneCountInString(s.Value); n > f.MaxLength {
			return nil, Raise(ValidationError, "field '%s' exceeds max length %d (actual: %d)", f.Name, f.MaxLength, n)
		}
	}
	return cv, nil
}

// ArrayShape applies an element shape to every element of an array.
type ArrayShape struct {
	Elem Shape
}

func (a ArrayShape) String() string { return "array." + a.Elem.String() }

func (a ArrayShape) Conform(v Object) (Object, *Error) {
	arr, ok := v.(*Array)
	if !ok {
		return v, nil
	}
	for i, e := range arr.Elements() {
		cv, err := a.Elem.Conform(e)
		if err != nil {
			wrapped := *err
			wrapped.Message = fmt.Sprintf("element %d: %s", i, err.Message)
			return nil, &wrapped
		}
		if err := arr.Set(i, cv); err != nil {
			return nil, err
		}
	}
	return arr, nil
}

// LookupKey finds name in m, falling back to a case-insensitive match, and
// returns the key actually stored.
func LookupKey(m map[string]any, name string) (string, bool) {
	if _, ok := m[name]; ok {
		return name, true
	}
	for k := range m {
		if strings.EqualFold(k, name) {
			return k, true
		}
	}
	return name, false
}

// CloneNative deep-copies a native json tree.
func CloneNative(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = CloneNative(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = CloneNative(e)
		}
		return out
	}
	return v
}

func describeNative(v any) string {
	switch v.(type) {
	case []any:
		return "json list"
	case nil:
		return "null"
	}
	return fmt.Sprintf("json %T", v)
}
