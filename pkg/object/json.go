package object

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// JSON is a structured value: a map[string]any, []any, string, int64,
// float64, bool or nil tree. Maps and lists are mutated in place.
type JSON struct {
	Value any
}

func (j *JSON) Kind() Kind { return KindJSON }
func (j *JSON) Inspect() string {
	b, err := json.Marshal(j.Value)
	if err != nil {
		return fmt.Sprintf("%v", j.Value)
	}
	return string(b)
}

// ParseJSON decodes text, keeping integers exact.
func ParseJSON(text string) (*JSON, *Error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, Raise(ParseErrorName, "invalid json: %s", err)
	}
	if dec.More() {
		return nil, Raise(ParseErrorName, "invalid json: trailing data")
	}
	return &JSON{Value: normalize(v)}, nil
}

// Indent renders the value with two-space indentation.
func (j *JSON) Indent() string {
	var buf bytes.Buffer
	b, _ := json.Marshal(j.Value)
	if err := json.Indent(&buf, b, "", "  "); err != nil {
		return string(b)
	}
	return buf.String()
}

func normalize(v any) any {
	switch v := v.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		f, _ := v.Float64()
		return f
	case map[string]any:
		for k, e := range v {
			v[k] = normalize(e)
		}
		return v
	case []any:
		for i, e := range v {
			v[i] = normalize(e)
		}
		return v
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return int64(v)
		}
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	default:
		return v
	}
}

// Normalize converts a decoded native tree to the JSON value representation.
func Normalize(v any) any { return normalize(v) }

// ToNative converts a script value to a native Go tree for marshaling.
func ToNative(obj Object) any {
	switch obj := obj.(type) {
	case nil:
		return nil
	case *Null:
		return nil
	case *Boolean:
		return obj.Value
	case *Byte:
		return int64(obj.Value)
	case *Integer:
		return int64(obj.Value)
	case *Long:
		return obj.Value
	case *Double:
		return obj.Value
	case *String:
		return obj.Value
	case *Date:
		return obj.Value.Format(time.RFC3339)
	case *Array:
		result := make([]any, 0, obj.Len())
		for _, elem := range obj.Elements() {
			result = append(result, ToNative(elem))
		}
		return result
	case *Queue:
		result := make([]any, 0, len(obj.Items))
		for _, elem := range obj.Items {
			result = append(result, ToNative(elem))
		}
		return result
	case *JSON:
		return obj.Value
	default:
		return obj.Inspect()
	}
}

// FromNative converts a native tree back to script values. Maps and lists
// stay JSON so that they keep their structural identity.
func FromNative(val any) Object {
	switch v := normalize(val).(type) {
	case nil:
		return NULL
	case bool:
		return NativeBool(v)
	case int64:
		return NewIntegral(v)
	case float64:
		return &Double{Value: v}
	case string:
		return &String{Value: v}
	case map[string]any, []any:
		return &JSON{Value: v}
	default:
		return &String{Value: fmt.Sprintf("%v", v)}
	}
}

type pathStep struct {
	key   string
	index int
	isIdx bool
}

// parsePath splits `a.b[2].c` into steps.
func parsePath(path string) ([]pathStep, *Error) {
	var steps []pathStep
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			continue
		}
		name := part
		rest := ""
		if i := strings.IndexByte(part, '['); i >= 0 {
			name, rest = part[:i], part[i:]
		}
		if name != "" {
			steps = append(steps, pathStep{key: name})
		}
		for rest != "" {
			end := strings.IndexByte(rest, ']')
			if rest[0] != '[' || end < 0 {
				return nil, Raise(ValidationError, "invalid json path %q", path)
			}
			n, err := strconv.Atoi(rest[1:end])
			if err != nil {
				return nil, Raise(ValidationError, "invalid json path index in %q", path)
			}
			steps = append(steps, pathStep{index: n, isIdx: true})
			rest = rest[end+1:]
		}
	}
	return steps, nil
}

// Get resolves a dotted path. An empty path yields the root.
func (j *JSON) Get(path string) (any, bool) {
	steps, err := parsePath(path)
	if err != nil {
		return nil, false
	}
	cur := j.Value
	for _, s := range steps {
		switch node := cur.(type) {
		case map[string]any:
			if s.isIdx {
				return nil, false
			}
			v, ok := node[s.key]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			if !s.isIdx || s.index < 0 || s.index >= len(node) {
				return nil, false
			}
			cur = node[s.index]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Set stores v at path, creating intermediate maps as needed. A list index
// equal to the list length appends.
func (j *JSON) Set(path string, v any) *Error {
	steps, err := parsePath(path)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		j.Value = v
		return nil
	}
	updated, err := setPath(j.Value, steps, v)
	if err != nil {
		return err
	}
	j.Value = updated
	return nil
}

func setPath(node any, steps []pathStep, v any) (any, *Error) {
	if len(steps) == 0 {
		return v, nil
	}
	s := steps[0]
	if s.isIdx {
		list, ok := node.([]any)
		if !ok {
			if node != nil {
				return nil, NewError(TypeError, "json path index applied to non-list")
			}
			list = []any{}
		}
		if s.index < 0 || s.index > len(list) {
			return nil, NewError(IndexError, "json index %d out of bounds for length %d", s.index, len(list))
		}
		if s.index == len(list) {
			list = append(list, nil)
		}
		child, err := setPath(list[s.index], steps[1:], v)
		if err != nil {
			return nil, err
		}
		list[s.index] = child
		return list, nil
	}
	m, ok := node.(map[string]any)
	if !ok {
		if node != nil {
			return nil, NewError(TypeError, "json path key %q applied to non-object", s.key)
		}
		m = map[string]any{}
	}
	child, err := setPath(m[s.key], steps[1:], v)
	if err != nil {
		return nil, err
	}
	m[s.key] = child
	return m, nil
}

// Remove deletes the value at path and reports whether it existed.
func (j *JSON) Remove(path string) bool {
	steps, err := parsePath(path)
	if err != nil || len(steps) == 0 {
		return false
	}
	parentPath := steps[:len(steps)-1]
	last := steps[len(steps)-1]
	parent := j.Value
	for _, s := range parentPath {
		switch node := parent.(type) {
		case map[string]any:
			parent = node[s.key]
		case []any:
			if s.index < 0 || s.index >= len(node) {
				return false
			}
			parent = node[s.index]
		default:
			return false
		}
	}
	switch node := parent.(type) {
	case map[string]any:
		if _, ok := node[last.key]; !ok {
			return false
		}
		delete(node, last.key)
		return true
	case []any:
		if !last.isIdx || last.index < 0 || last.index >= len(node) {
			return false
		}
		shrunk := append(node[:last.index], node[last.index+1:]...)
		if len(parentPath) == 0 {
			j.Value = shrunk
			return true
		}
		// rewrite the shortened list into its parent
		return j.Set(pathString(parentPath), shrunk) == nil
	}
	return false
}

func pathString(steps []pathStep) string {
	var b strings.Builder
	for _, s := range steps {
		if s.isIdx {
			fmt.Fprintf(&b, "[%d]", s.index)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.key)
	}
	return b.String()
}

// Size is the number of entries in a map or list, zero for scalars.
func (j *JSON) Size() int {
	switch v := j.Value.(type) {
	case map[string]any:
		return len(v)
	case []any:
		return len(v)
	}
	return 0
}

// Keys returns the map keys in sorted order.
func (j *JSON) Keys() []string {
	m, ok := j.Value.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// jsonEqual is structural: lists are order-sensitive, maps compare key sets
// and per-key values.
func jsonEqual(a, b any) bool {
	a, b = normalize(a), normalize(b)
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !jsonEqual(v, w) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !jsonEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case int64:
		switch bv := b.(type) {
		case int64:
			return av == bv
		case float64:
			return float64(av) == bv
		}
		return false
	case float64:
		switch bv := b.(type) {
		case int64:
			return av == float64(bv)
		case float64:
			return av == bv
		}
		return false
	default:
		return a == b
	}
}
