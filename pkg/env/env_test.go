package env

import (
	"ebscript/pkg/object"
	"testing"
)

func TestShadowing(t *testing.T) {
	e := New()
	e.Define("x", object.NewInteger(1))

	e.Push()
	e.Define("x", &object.String{Value: "inner"})
	v, err := e.Get("x")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.Inspect() != "inner" {
		t.Fatalf("inner binding not visible. got=%s", v.Inspect())
	}
	if perr := e.Pop(); perr != nil {
		t.Fatalf("Pop: %v", perr)
	}

	v, err = e.Get("x")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.Inspect() != "1" {
		t.Fatalf("outer binding not restored. got=%s", v.Inspect())
	}
}

func TestGetUndefined(t *testing.T) {
	e := New()
	_, err := e.Get("missing")
	if err == nil || err.Type != object.NameError {
		t.Fatalf("expected NameError, got=%v", err)
	}
	if err.Message != "undefined variable 'missing'" {
		t.Fatalf("message wrong. got=%q", err.Message)
	}
}

func TestSetMutatesNearestFrame(t *testing.T) {
	e := New()
	e.Define("n", object.NewInteger(1))
	e.Push()
	if err := e.Set("n", object.NewInteger(2)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	e.Pop()
	v, _ := e.Get("n")
	if v.Inspect() != "2" {
		t.Fatalf("outer frame not mutated. got=%s", v.Inspect())
	}
	if err := e.Set("nope", object.NULL); err == nil || err.Type != object.NameError {
		t.Fatalf("expected NameError for undefined set, got=%v", err)
	}
}

func TestConstants(t *testing.T) {
	e := New()
	e.DefineConst("pi", &object.Double{Value: 3.14})
	err := e.Set("pi", &object.Double{Value: 3})
	if err == nil || err.Type != object.TypeError {
		t.Fatalf("expected TypeError, got=%v", err)
	}
	if !e.IsConst("pi") {
		t.Fatalf("expected pi to be constant")
	}
}

func TestPopGlobalFails(t *testing.T) {
	e := New()
	err := e.Pop()
	if err == nil || err.Type != object.InternalError {
		t.Fatalf("expected InternalError, got=%v", err)
	}
	if e.Depth() != 1 {
		t.Fatalf("depth changed. got=%d", e.Depth())
	}
}

func TestPushFromResolvesLexically(t *testing.T) {
	e := New()
	e.Define("x", &object.String{Value: "global"})

	decl := e.Push()
	e.Define("x", &object.String{Value: "declared"})
	e.Pop()

	e.Push()
	e.Define("x", &object.String{Value: "caller"})
	e.PushFrom(decl)
	v, _ := e.Get("x")
	if v.Inspect() != "declared" {
		t.Fatalf("closure frame not used. got=%s", v.Inspect())
	}
	e.Pop()
	v, _ = e.Get("x")
	if v.Inspect() != "caller" {
		t.Fatalf("caller frame not restored. got=%s", v.Inspect())
	}
}

func TestUnwindRestoresDepth(t *testing.T) {
	e := New()
	mark := e.Mark()
	e.Push()
	e.Push()
	e.Push()
	e.Unwind(mark)
	if e.Depth() != mark {
		t.Fatalf("depth wrong. expected=%d, got=%d", mark, e.Depth())
	}
}

func TestSnapshot(t *testing.T) {
	e := New()
	e.Define("a", object.NewInteger(1))
	e.Push()
	e.Define("a", object.NewInteger(2))
	e.Define("b", object.TRUE)
	snap := e.Snapshot()
	if len(snap) != 2 || snap["a"].Inspect() != "2" {
		t.Fatalf("snapshot wrong. got=%v", snap)
	}
	if names := e.Names(); len(names) != 2 || names[0] != "a" {
		t.Fatalf("names wrong. got=%v", names)
	}
}

func TestTypedBindingCoercesAssignments(t *testing.T) {
	e := New()
	if err := e.DefineTyped("n", object.KindLong, object.NewInteger(1)); err != nil {
		t.Fatalf("DefineTyped: %v", err)
	}
	if err := e.Set("n", object.NewInteger(7)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, _ := e.Get("n")
	if _, ok := v.(*object.Long); !ok {
		t.Fatalf("typed binding lost its kind. got=%T", v)
	}
	if e.DeclaredKind("n") != object.KindLong {
		t.Fatalf("DeclaredKind wrong. got=%s", e.DeclaredKind("n"))
	}

	err := e.Set("n", &object.Double{Value: 1.5})
	if err == nil || err.Type != object.TypeError {
		t.Fatalf("expected TypeError on narrowing, got=%v", err)
	}

	e.Define("n", &object.Double{Value: 1.5})
	if e.DeclaredKind("n") != object.KindAny {
		t.Fatalf("redefinition should drop the declared kind")
	}
}

func TestDetachSharesGlobals(t *testing.T) {
	e := New()
	e.Push()
	e.Define("local", object.TRUE)

	d := e.Detach()
	if d.Depth() != 1 {
		t.Fatalf("detached depth wrong. got=%d", d.Depth())
	}
	if d.Has("local") {
		t.Fatalf("nested frame leaked into detached environment")
	}
	d.Define("shared", object.NewInteger(3))
	if v, err := e.Get("shared"); err != nil || v.Inspect() != "3" {
		t.Fatalf("global definition not shared. got=%v err=%v", v, err)
	}
}

func TestShapedBindingChecksAssignments(t *testing.T) {
	e := New()
	shape := object.MapShape{}
	if err := e.DefineShaped("m", object.KindJSON, shape, object.NULL); err != nil {
		t.Fatalf("DefineShaped: %v", err)
	}
	v, _ := e.Get("m")
	if v.Inspect() != "{}" {
		t.Fatalf("null map should start empty. got=%s", v.Inspect())
	}
	if e.ShapeOf("m") == nil {
		t.Fatalf("shape not recorded")
	}

	e.Push()
	if e.ShapeOf("m") == nil {
		t.Fatalf("shape not visible from an inner frame")
	}
	err := e.Set("m", &object.JSON{Value: []any{int64(1)}})
	if err == nil || err.Type != object.TypeError {
		t.Fatalf("expected TypeError for a list, got=%v", err)
	}
	e.Pop()

	e.Define("m", object.NewInteger(1))
	if e.ShapeOf("m") != nil {
		t.Fatalf("redefinition should drop the shape")
	}
}
