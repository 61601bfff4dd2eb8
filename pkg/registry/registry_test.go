package registry

import (
	"ebscript/pkg/object"
	"testing"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Build(
		New("str.toUpper", object.KindString, Required("s", object.KindString)),
		New("str.substring", object.KindString,
			Required("s", object.KindString), Required("start", object.KindInt), Optional("end", object.KindInt)),
		New("math.sqrt", object.KindDouble, Required("x", object.KindDouble)),
	)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return r
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	r := testRegistry(t)
	info, ok := r.Lookup("STR.TOUPPER")
	if !ok {
		t.Fatalf("expected str.toupper to be registered")
	}
	if info.Name != "str.toupper" {
		t.Fatalf("name not normalized. got=%q", info.Name)
	}
	if _, ok := r.Lookup("foo.bar"); ok {
		t.Fatalf("unexpected foo.bar")
	}
	if got := r.Names(); len(got) != 3 || got[0] != "math.sqrt" {
		t.Fatalf("Names wrong. got=%v", got)
	}
}

func TestBuildRejectsDuplicates(t *testing.T) {
	_, err := Build(New("a.b", object.KindNull), New("A.B", object.KindNull))
	if err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestCheckArity(t *testing.T) {
	r := testRegistry(t)
	info, _ := r.Lookup("str.substring")
	tests := []struct {
		n       int
		wantErr bool
	}{
		{0, true},
		{1, true},
		{2, false},
		{3, false},
		{4, true},
	}
	for i, tt := range tests {
		err := CheckArity(info, tt.n)
		if (err != nil) != tt.wantErr {
			t.Fatalf("tests[%d] - CheckArity(%d) wrong. wantErr=%t, got=%v", i, tt.n, tt.wantErr, err)
		}
		if err != nil && err.Detail != object.ArityMismatch {
			t.Fatalf("tests[%d] - detail wrong. got=%q", i, err.Detail)
		}
	}
}

func TestCheckKinds(t *testing.T) {
	r := testRegistry(t)
	sqrt, _ := r.Lookup("math.sqrt")
	if err := CheckKinds(sqrt, []object.Kind{object.KindInt}); err != nil {
		t.Fatalf("int should widen to double: %v", err)
	}
	if err := CheckKinds(sqrt, []object.Kind{object.KindInvalid}); err != nil {
		t.Fatalf("unknown kinds are not checked: %v", err)
	}
	sub, _ := r.Lookup("str.substring")
	err := CheckKinds(sub, []object.Kind{object.KindString, object.KindDouble})
	if err == nil || err.Detail != object.TypeMismatch {
		t.Fatalf("expected TypeMismatch, got=%v", err)
	}
}

func TestPlugins(t *testing.T) {
	p := NewPlugins()
	echo := func(args []object.Object) (object.Object, error) { return args[0], nil }
	if err := p.Register(New("echo", object.KindAny, Required("v", object.KindAny)), echo); err == nil {
		t.Fatalf("expected prefix error")
	}
	if err := p.Register(New("custom.Echo", object.KindAny, Required("v", object.KindAny)), echo); err != nil {
		t.Fatalf("Register: %v", err)
	}
	info, fn, ok := p.Lookup("CUSTOM.ECHO")
	if !ok || fn == nil {
		t.Fatalf("plugin not found")
	}
	if info.MandatoryCount() != 1 {
		t.Fatalf("mandatory count wrong. got=%d", info.MandatoryCount())
	}
	if !IsPluginName("Custom.anything") {
		t.Fatalf("expected plugin namespace match")
	}
}
