package object

import (
	"fmt"
	"image"
	"strconv"
	"strings"
	"time"
)

// Object is the interface that all script values implement.
type Object interface {
	Kind() Kind
	Inspect() string
}

// DateLayout is the canonical textual form of a date value.
const DateLayout = "2006-01-02 15:04:05"

type Null struct{}

func (n *Null) Kind() Kind      { return KindNull }
func (n *Null) Inspect() string { return "null" }

type Boolean struct {
	Value bool
}

func (b *Boolean) Kind() Kind      { return KindBool }
func (b *Boolean) Inspect() string { return strconv.FormatBool(b.Value) }

type Byte struct {
	Value byte
}

func (b *Byte) Kind() Kind      { return KindByte }
func (b *Byte) Inspect() string { return strconv.Itoa(int(b.Value)) }

type Integer struct {
	Value int32
}

func (i *Integer) Kind() Kind      { return KindInt }
func (i *Integer) Inspect() string { return strconv.FormatInt(int64(i.Value), 10) }

type Long struct {
	Value int64
}

func (l *Long) Kind() Kind      { return KindLong }
func (l *Long) Inspect() string { return strconv.FormatInt(l.Value, 10) }

type Double struct {
	Value float64
}

func (d *Double) Kind() Kind { return KindDouble }
func (d *Double) Inspect() string {
	s := strconv.FormatFloat(d.Value, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

type String struct {
	Value string
}

func (s *String) Kind() Kind      { return KindString }
func (s *String) Inspect() string { return s.Value }

type Date struct {
	Value time.Time
}

func (d *Date) Kind() Kind      { return KindDate }
func (d *Date) Inspect() string { return d.Value.Format(DateLayout) }

// Queue is a FIFO container, mutated in place.
type Queue struct {
	Items []Object
}

func (q *Queue) Kind() Kind { return KindQueue }
func (q *Queue) Inspect() string {
	var out []string
	for _, e := range q.Items {
		out = append(out, e.Inspect())
	}
	return "queue[" + strings.Join(out, ", ") + "]"
}

func (q *Queue) Enqueue(v Object) { q.Items = append(q.Items, v) }

func (q *Queue) Dequeue() (Object, bool) {
	if len(q.Items) == 0 {
		return NULL, false
	}
	v := q.Items[0]
	q.Items[0] = nil
	q.Items = q.Items[1:]
	return v, true
}

// Image is an opaque raster handle.
type Image struct {
	Value *image.RGBA
}

func (i *Image) Kind() Kind { return KindImage }
func (i *Image) Inspect() string {
	b := i.Value.Bounds()
	return fmt.Sprintf("image(%dx%d)", b.Dx(), b.Dy())
}

// VectorImage is an opaque handle over SVG markup.
type VectorImage struct {
	SVG string
}

func (v *VectorImage) Kind() Kind      { return KindVectorImage }
func (v *VectorImage) Inspect() string { return fmt.Sprintf("vectorimage(%d bytes)", len(v.SVG)) }

// Canvas is a drawing surface backed by a raster image.
type Canvas struct {
	Name  string
	Image *image.RGBA
}

func (c *Canvas) Kind() Kind { return KindCanvas }
func (c *Canvas) Inspect() string {
	b := c.Image.Bounds()
	return fmt.Sprintf("canvas(%s %dx%d)", c.Name, b.Dx(), b.Dy())
}

type ReturnValue struct {
	Value Object
}

func (rv *ReturnValue) Kind() Kind      { return KindReturnValue }
func (rv *ReturnValue) Inspect() string { return rv.Value.Inspect() }

// BreakSignal and ContinueSignal unwind to the nearest enclosing loop.
type BreakSignal struct{}

func (b *BreakSignal) Kind() Kind      { return KindBreak }
func (b *BreakSignal) Inspect() string { return "break" }

type ContinueSignal struct{}

func (c *ContinueSignal) Kind() Kind      { return KindContinue }
func (c *ContinueSignal) Inspect() string { return "continue" }

// Integer cache for small integers (-128 to 1023)
const (
	minCachedInt = -128
	maxCachedInt = 1023
	intCacheSize = maxCachedInt - minCachedInt + 1
)

var (
	intCache [intCacheSize]*Integer

	NULL     *Null
	TRUE     *Boolean
	FALSE    *Boolean
	BREAK    *BreakSignal
	CONTINUE *ContinueSignal
)

// Initialize the integer cache and common singletons
func init() {
	for i := 0; i < intCacheSize; i++ {
		intCache[i] = &Integer{Value: int32(i + minCachedInt)}
	}

	NULL = &Null{}
	TRUE = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
	BREAK = &BreakSignal{}
	CONTINUE = &ContinueSignal{}
}

// NewInteger returns a cached integer for small values or allocates a new one.
func NewInteger(value int32) *Integer {
	if value >= minCachedInt && value <= maxCachedInt {
		return intCache[value-minCachedInt]
	}
	return &Integer{Value: value}
}

// NewIntegral returns an Integer when v fits in 32 bits and a Long otherwise.
func NewIntegral(v int64) Object {
	if v >= -1<<31 && v <= 1<<31-1 {
		return NewInteger(int32(v))
	}
	return &Long{Value: v}
}

func NativeBool(input bool) *Boolean {
	if input {
		return TRUE
	}
	return FALSE
}

// IsSignal reports whether obj is a control-flow signal rather than a value.
func IsSignal(obj Object) bool {
	if obj == nil {
		return false
	}
	switch obj.Kind() {
	case KindReturnValue, KindBreak, KindContinue, KindError:
		return true
	}
	return false
}
