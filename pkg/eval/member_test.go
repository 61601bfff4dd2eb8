package eval

import (
	"context"
	"ebscript/pkg/object"
	"strings"
	"testing"
)

func TestMemberAccess(t *testing.T) {
	runEvalTests(t, []evalTestCase{
		{`var j = {"a": 1}; j.a;`, "1"},
		{`var j = {"Name": {"First": "Ann"}}; j.name.first;`, "Ann"},
		{`var j = {"a": 1}; j.missing;`, "null"},
		{`var j = {"a": null}; j.a.b;`, "null"},
		{`var j = {"a": 1}; j.a = 2; j;`, `{"a":2}`},
		{`var j = {}; j.b.c = 3; j;`, `{"b":{"c":3}}`},
		{`var j = {"Name": "x"}; j.name = "y"; j;`, `{"Name":"y"}`},
		{`var j = {"n": 1}; j.n += 4; j.n++; j.n;`, "6"},
		{`var j = {"n": 1}; j.n++;`, "1"},
		{`var j = {"items": [1, 2, 3]}; j.items.length;`, "3"},
		{`var j = {"a": 1}; var k = j; k.a = 9; j.a;`, "9"},
	})
}

func TestMemberAssignmentDoesNotBindDottedName(t *testing.T) {
	result := testEval(t, `var j = {"a": 1}; j.a = 2; #debug.vars();`)
	got := result.Inspect()
	if strings.Contains(got, `"j.a"`) {
		t.Fatalf("dotted name bound as a variable. got=%s", got)
	}
	if !strings.Contains(got, `"j":{"a":2}`) {
		t.Fatalf("j not updated. got=%s", got)
	}
}

func TestMemberErrors(t *testing.T) {
	tests := []struct {
		input string
		typ   object.ErrorType
	}{
		{`var n = 5; n.a;`, object.TypeError},
		{`var n = 5; n.a = 1;`, object.TypeError},
		{`var j = {"a": 5}; j.a.b;`, object.TypeError},
		{`var j = {"a": 5}; j.a.b = 1;`, object.TypeError},
		{`var j = [1]; j.a = 1;`, object.TypeError},
		{`nowhere.a = 1;`, object.NameError},
		{`nowhere.a;`, object.NameError},
	}
	for i, tt := range tests {
		err := testError(t, tt.input)
		if err.Type != tt.typ {
			t.Errorf("tests[%d] %q - expected %s, got=%s", i, tt.input, tt.typ, err)
		}
	}
}

func TestRecords(t *testing.T) {
	runEvalTests(t, []evalTestCase{
		{`var r: record {id: int mandatory, name: string maxlength 5 default "anon"} = {"id": 1}; r;`,
			`{"id":1,"name":"anon"}`},
		{`var r: record {id: int, name: string} = {"ID": 7}; r.id;`, "7"},
		{`var r: record {id: int}; r;`, "null"},
		{`var r: record {inner: record {v: double default 1.5}} = {"inner": {}}; r.inner.v;`, "1.5"},
		{`var r: record {name: string} = {"name": "a"}; r = {"name": "b"}; r.name;`, "b"},
		{`var r: record {n: int} = {"n": 1}; r.n += 2; r.n;`, "3"},
		{`const c: record {id: int default 4} = {}; c.id;`, "4"},
	})

	tests := []struct {
		input    string
		typ      object.ErrorType
		category string
	}{
		{`var r: record {id: int mandatory} = {};`, object.InterpreterError, object.ValidationError},
		{`var r: record {id: int mandatory} = {"id": null};`, object.InterpreterError, object.ValidationError},
		{`var r: record {name: string maxlength 3} = {"name": "long"};`, object.InterpreterError, object.ValidationError},
		{`var r: record {id: int} = {"id": 1, "extra": 2};`, object.TypeError, ""},
		{`var r: record {id: int} = {"id": "abc"};`, object.TypeError, ""},
		{`var r: record {id: int} = [1];`, object.TypeError, ""},
		{`var r: record {id: int} = {"id": 1}; r.nope = 2;`, object.TypeError, ""},
		{`var r: record {id: int} = {"id": 1}; r = {"x": 1};`, object.TypeError, ""},
	}
	for i, tt := range tests {
		err := testError(t, tt.input)
		if err.Type != tt.typ || (tt.category != "" && err.Category != tt.category) {
			t.Errorf("tests[%d] %q - expected %s %s, got=%s", i, tt.input, tt.typ, tt.category, err)
		}
	}
}

func TestRejectedMemberAssignmentLeavesRecordUnchanged(t *testing.T) {
	in, buf := newTestInterpreter(t)
	src := `var r: record {name: string maxlength 3} = {"name": "abc"};
try { r.name = "toolong"; } exceptions { when validation_error { print "rejected"; } }
print r.name;`
	if _, err := in.RunSource(context.Background(), src, "test"); err != nil {
		t.Fatalf("RunSource: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "rejected\nabc" {
		t.Fatalf("expected rollback. got=%q", got)
	}
}

func TestMapTypes(t *testing.T) {
	runEvalTests(t, []evalTestCase{
		{`var m: map; m;`, "{}"},
		{`var m: map; m.key = 1; m;`, `{"key":1}`},
		{`var m: sorted map = {"b": 1, "a": 2}; m;`, `{"a":2,"b":1}`},
		{`var m: map = {"a": 1}; m = null; m;`, "{}"},
	})

	for i, input := range []string{
		`var m: map = [1, 2];`,
		`var m: map = "text";`,
		`var m: map; m = [1];`,
	} {
		if err := testError(t, input); err.Type != object.TypeError {
			t.Errorf("tests[%d] %q - expected TypeError, got=%s", i, input, err)
		}
	}
}

func TestTypedefAndRecordArrays(t *testing.T) {
	runEvalTests(t, []evalTestCase{
		{`person typeof record {name: string mandatory, age: int default 0};
		  var p: person = {"name": "x"}; p;`, `{"age":0,"name":"x"}`},
		{`var rs: array.record {id: int, ok: bool default true} = [{"id": 1}, {"id": 2}]; rs[1];`,
			`{"id":2,"ok":true}`},
		{`function f(p: record {id: int mandatory}) { return p.id; } f({"id": 4});`, "4"},
	})

	err := testError(t, `person typeof record {name: string mandatory}; var p: person = {};`)
	if err.Category != object.ValidationError {
		t.Fatalf("typedef constraints not applied. got=%s", err)
	}

	err = testError(t, `var rs: array.record {id: int} = [{"id": 1}, {"nope": 2}];`)
	if err.Type != object.TypeError || !strings.Contains(err.Message, "element 1") {
		t.Fatalf("expected an element TypeError. got=%s", err)
	}

	err = testError(t, `function f(p: record {id: int mandatory}) { return p.id; } f({});`)
	if err.Category != object.ValidationError {
		t.Fatalf("parameter record not checked. got=%s", err)
	}
}

func TestLongOverflow(t *testing.T) {
	for _, input := range []string{
		`9223372036854775807L + 1;`,
		`var x = 3037000500L; x * x;`,
		`-9223372036854775807L - 2;`,
		`var x = -9223372036854775807L - 1; x / -1;`,
	} {
		err := testError(t, input)
		if err.Category != object.MathError {
			t.Errorf("%q - expected MATH_ERROR, got=%s", input, err)
		}
	}

	runEvalTests(t, []evalTestCase{
		{`9223372036854775806L + 1;`, "9223372036854775807"},
		{`-9223372036854775807L - 1;`, "-9223372036854775808"},
		{`3037000499L * 3037000499L;`, "9223372030926249001"},
	})
}
