// Package env implements the scope stack used for variable storage.
package env

import (
	"ebscript/pkg/object"
	"sort"
)

// Frame is one scope level. Closures keep a pointer to the frame they were
// declared in, which keeps it alive after it is popped.
type Frame struct {
	store  map[string]object.Object
	consts map[string]bool
	kinds  map[string]object.Kind
	shapes map[string]object.Shape
	outer  *Frame
}

func NewFrame(outer *Frame) *Frame {
	return &Frame{store: make(map[string]object.Object), outer: outer}
}

// Outer returns the lexically enclosing frame.
func (f *Frame) Outer() *Frame { return f.outer }

func (f *Frame) lookup(name string) (*Frame, object.Object, bool) {
	for fr := f; fr != nil; fr = fr.outer {
		if v, ok := fr.store[name]; ok {
			return fr, v, true
		}
	}
	return nil, nil, false
}

// Environment is the stack of active frames. The bottom frame is the global
// frame and is never popped.
type Environment struct {
	stack []*Frame
}

func New() *Environment {
	return &Environment{stack: []*Frame{NewFrame(nil)}}
}

// Detach returns an environment that shares e's global frame but none of its
// nested frames. Imports and timer callbacks run against it.
func (e *Environment) Detach() *Environment {
	return &Environment{stack: []*Frame{e.Global()}}
}

// Top returns the innermost frame.
func (e *Environment) Top() *Frame { return e.stack[len(e.stack)-1] }

// Global returns the bottom frame.
func (e *Environment) Global() *Frame { return e.stack[0] }

// Depth is the number of frames on the stack.
func (e *Environment) Depth() int { return len(e.stack) }

// Push opens a frame nested in the current top frame.
func (e *Environment) Push() *Frame {
	f := NewFrame(e.Top())
	e.stack = append(e.stack, f)
	return f
}

// PushFrom opens a frame whose lexical parent is outer rather than the
// current top. Function calls use it to resolve names through the frame the
// function was declared in.
func (e *Environment) PushFrom(outer *Frame) *Frame {
	f := NewFrame(outer)
	e.stack = append(e.stack, f)
	return f
}

// Pop removes the top frame. Popping the global frame is a contract
// violation.
func (e *Environment) Pop() *object.Error {
	if len(e.stack) <= 1 {
		return object.NewError(object.InternalError, "cannot pop the global frame")
	}
	e.stack[len(e.stack)-1] = nil
	e.stack = e.stack[:len(e.stack)-1]
	return nil
}

// Define binds name in the top frame, shadowing outer bindings.
func (e *Environment) Define(name string, val object.Object) {
	top := e.Top()
	top.store[name] = val
	delete(top.consts, name)
	delete(top.kinds, name)
	delete(top.shapes, name)
}

// DefineTyped binds name in the top frame with a declared kind. The value and
// every later assignment are coerced to that kind.
func (e *Environment) DefineTyped(name string, kind object.Kind, val object.Object) *object.Error {
	cv, err := object.Coerce(val, kind)
	if err != nil {
		return err
	}
	e.Define(name, cv)
	top := e.Top()
	if top.kinds == nil {
		top.kinds = make(map[string]object.Kind)
	}
	top.kinds[name] = kind
	return nil
}

// DefineShaped is DefineTyped for a value that must also conform to shape,
// such as a record or map. Later assignments are checked the same way.
func (e *Environment) DefineShaped(name string, kind object.Kind, shape object.Shape, val object.Object) *object.Error {
	cv, err := object.Coerce(val, kind)
	if err != nil {
		return err
	}
	if cv, err = shape.Conform(cv); err != nil {
		return err
	}
	if err := e.DefineTyped(name, kind, cv); err != nil {
		return err
	}
	top := e.Top()
	if top.shapes == nil {
		top.shapes = make(map[string]object.Shape)
	}
	top.shapes[name] = shape
	return nil
}

// ShapeOf returns the shape of the visible binding of name, or nil.
func (e *Environment) ShapeOf(name string) object.Shape {
	fr, _, ok := e.Top().lookup(name)
	if !ok {
		return nil
	}
	return fr.shapes[name]
}

// DeclaredKind returns the declared kind of the visible binding of name, or
// KindAny when it was defined without one.
func (e *Environment) DeclaredKind(name string) object.Kind {
	fr, _, ok := e.Top().lookup(name)
	if !ok {
		return object.KindAny
	}
	if k, typed := fr.kinds[name]; typed {
		return k
	}
	return object.KindAny
}

// DefineConst binds name in the top frame and forbids later assignment.
func (e *Environment) DefineConst(name string, val object.Object) {
	top := e.Top()
	top.store[name] = val
	if top.consts == nil {
		top.consts = make(map[string]bool)
	}
	top.consts[name] = true
}

// DefineGlobal binds name in the global frame.
func (e *Environment) DefineGlobal(name string, val object.Object) {
	e.Global().store[name] = val
}

// Get resolves name from the top frame outward.
func (e *Environment) Get(name string) (object.Object, *object.Error) {
	if _, v, ok := e.Top().lookup(name); ok {
		return v, nil
	}
	return nil, object.NewError(object.NameError, "undefined variable '%s'", name)
}

// Has reports whether name is visible.
func (e *Environment) Has(name string) bool {
	_, _, ok := e.Top().lookup(name)
	return ok
}

// IsConst reports whether the visible binding of name is constant.
func (e *Environment) IsConst(name string) bool {
	fr, _, ok := e.Top().lookup(name)
	return ok && fr.consts[name]
}

// Set mutates the nearest binding of name.
func (e *Environment) Set(name string, val object.Object) *object.Error {
	fr, _, ok := e.Top().lookup(name)
	if !ok {
		return object.NewError(object.NameError, "undefined variable '%s'", name)
	}
	if fr.consts[name] {
		return object.NewError(object.TypeError, "Cannot reassign constant '%s'", name)
	}
	if k, typed := fr.kinds[name]; typed {
		cv, err := object.Coerce(val, k)
		if err != nil {
			return object.NewError(object.TypeError, "cannot assign %s to %s variable '%s'", val.Kind().Name(), k.Name(), name)
		}
		val = cv
	}
	if shape, ok := fr.shapes[name]; ok {
		cv, err := shape.Conform(val)
		if err != nil {
			return err
		}
		val = cv
	}
	fr.store[name] = val
	return nil
}

// Snapshot returns the visible bindings, innermost first wins.
func (e *Environment) Snapshot() map[string]object.Object {
	out := make(map[string]object.Object)
	for fr := e.Top(); fr != nil; fr = fr.outer {
		for k, v := range fr.store {
			if _, seen := out[k]; !seen {
				out[k] = v
			}
		}
	}
	return out
}

// Names returns the visible names in sorted order.
func (e *Environment) Names() []string {
	snap := e.Snapshot()
	names := make([]string, 0, len(snap))
	for k := range snap {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Mark records the current depth; Unwind pops back to it. Callers that catch
// an error mid-body use the pair to restore the stack.
func (e *Environment) Mark() int { return len(e.stack) }

func (e *Environment) Unwind(mark int) {
	for len(e.stack) > mark && len(e.stack) > 1 {
		e.stack[len(e.stack)-1] = nil
		e.stack = e.stack[:len(e.stack)-1]
	}
}
