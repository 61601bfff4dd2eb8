package object

import (
	"fmt"
	"strings"
)

// store is the element storage behind an Array. Packed stores keep their
// elements in native slices.
type store interface {
	length() int
	get(i int) Object
	set(i int, v Object) *Error
	grow(n int)
}

// Array is a fixed or dynamic container. Byte, bitmap and int element types
// use packed storage and report their own kind.
type Array struct {
	Elem  Kind // declared element kind, KindAny when untyped
	Fixed bool
	data  store
}

// NewArray creates an array of n zero-valued elements of kind elem.
func NewArray(elem Kind, n int, fixed bool) *Array {
	a := &Array{Elem: elem, Fixed: fixed}
	switch elem {
	case KindByte:
		a.data = &byteStore{}
	case KindBitmap:
		a.data = &bitStore{}
	case KindIntMap:
		a.data = &intStore{}
	default:
		a.data = &objectStore{elem: elem}
	}
	a.data.grow(n)
	return a
}

// NewArrayOf wraps existing elements in a dynamic untyped array.
func NewArrayOf(elements []Object) *Array {
	return &Array{Elem: KindAny, data: &objectStore{elem: KindAny, items: elements}}
}

// NewBytes wraps b in a dynamic byte array.
func NewBytes(b []byte) *Array {
	return &Array{Elem: KindByte, data: &byteStore{items: b}}
}

func (a *Array) Kind() Kind {
	switch a.data.(type) {
	case *byteStore:
		return KindByteArray
	case *bitStore:
		return KindBitmap
	case *intStore:
		return KindIntMap
	default:
		return KindArray
	}
}

func (a *Array) Inspect() string {
	var out []string
	for i := 0; i < a.Len(); i++ {
		out = append(out, a.data.get(i).Inspect())
	}
	return "[" + strings.Join(out, ", ") + "]"
}

func (a *Array) Len() int { return a.data.length() }

// Get returns the element at i, failing with IndexError when out of bounds.
func (a *Array) Get(i int) (Object, *Error) {
	if i < 0 || i >= a.Len() {
		return nil, NewError(IndexError, "index %d out of bounds for length %d", i, a.Len())
	}
	return a.data.get(i), nil
}

// Set stores v at i. A dynamic array grows when i equals its length.
func (a *Array) Set(i int, v Object) *Error {
	if i == a.Len() && !a.Fixed {
		a.data.grow(1)
	}
	if i < 0 || i >= a.Len() {
		return NewError(IndexError, "index %d out of bounds for length %d", i, a.Len())
	}
	return a.data.set(i, v)
}

// Append adds v to the end of a dynamic array.
func (a *Array) Append(v Object) *Error {
	if a.Fixed {
		return NewError(IndexError, "cannot append to fixed array of length %d", a.Len())
	}
	return a.Set(a.Len(), v)
}

// Resize changes the length of the array, zero-filling new elements. It is
// the only way a fixed array changes size.
func (a *Array) Resize(n int) {
	if n > a.Len() {
		a.data.grow(n - a.Len())
		return
	}
	switch s := a.data.(type) {
	case *objectStore:
		s.items = s.items[:n]
	case *byteStore:
		s.items = s.items[:n]
	case *intStore:
		s.items = s.items[:n]
	case *bitStore:
		s.n = n
	}
}

// Elements returns a copy of the elements as boxed values.
func (a *Array) Elements() []Object {
	out := make([]Object, a.Len())
	for i := range out {
		out[i] = a.data.get(i)
	}
	return out
}

// Bytes returns the packed bytes of a byte array, nil for other kinds.
func (a *Array) Bytes() []byte {
	if s, ok := a.data.(*byteStore); ok {
		return s.items
	}
	return nil
}

type objectStore struct {
	elem  Kind
	items []Object
}

func (s *objectStore) length() int      { return len(s.items) }
func (s *objectStore) get(i int) Object { return s.items[i] }
func (s *objectStore) set(i int, v Object) *Error {
	if s.elem != KindAny && s.elem != KindArray {
		c, err := Coerce(v, s.elem)
		if err != nil {
			return err
		}
		v = c
	}
	s.items[i] = v
	return nil
}
func (s *objectStore) grow(n int) {
	for i := 0; i < n; i++ {
		s.items = append(s.items, Zero(s.elem))
	}
}

type byteStore struct {
	items []byte
}

func (s *byteStore) length() int      { return len(s.items) }
func (s *byteStore) get(i int) Object { return &Byte{Value: s.items[i]} }
func (s *byteStore) set(i int, v Object) *Error {
	n, err := packedInt(v, 0, 255)
	if err != nil {
		return err
	}
	s.items[i] = byte(n)
	return nil
}
func (s *byteStore) grow(n int) { s.items = append(s.items, make([]byte, n)...) }

// bitStore packs boolean elements eight to a byte.
type bitStore struct {
	bits []byte
	n    int
}

func (s *bitStore) length() int { return s.n }
func (s *bitStore) get(i int) Object {
	return NativeBool(s.bits[i/8]&(1<<(uint(i)%8)) != 0)
}
func (s *bitStore) set(i int, v Object) *Error {
	var on bool
	switch v := v.(type) {
	case *Boolean:
		on = v.Value
	case *Null:
	default:
		n, err := packedInt(v, 0, 1)
		if err != nil {
			return err
		}
		on = n == 1
	}
	if on {
		s.bits[i/8] |= 1 << (uint(i) % 8)
	} else {
		s.bits[i/8] &^= 1 << (uint(i) % 8)
	}
	return nil
}
func (s *bitStore) grow(n int) {
	s.n += n
	for len(s.bits)*8 < s.n {
		s.bits = append(s.bits, 0)
	}
}

type intStore struct {
	items []int32
}

func (s *intStore) length() int      { return len(s.items) }
func (s *intStore) get(i int) Object { return NewInteger(s.items[i]) }
func (s *intStore) set(i int, v Object) *Error {
	n, err := packedInt(v, -1<<31, 1<<31-1)
	if err != nil {
		return err
	}
	s.items[i] = int32(n)
	return nil
}
func (s *intStore) grow(n int) { s.items = append(s.items, make([]int32, n)...) }

func packedInt(v Object, lo, hi int64) (int64, *Error) {
	var n int64
	switch v := v.(type) {
	case *Null:
		return 0, nil
	case *Byte:
		n = int64(v.Value)
	case *Integer:
		n = int64(v.Value)
	case *Long:
		n = v.Value
	default:
		return 0, NewError(TypeError, "cannot store %s in packed array", v.Kind())
	}
	if n < lo || n > hi {
		return 0, NewError(TypeError, "value %d out of range [%d, %d]", n, lo, hi)
	}
	return n, nil
}

// String returns a debug description including the element kind.
func (a *Array) String() string {
	mode := "dynamic"
	if a.Fixed {
		mode = "fixed"
	}
	return fmt.Sprintf("%s[%d] %s", a.Elem.Name(), a.Len(), mode)
}
