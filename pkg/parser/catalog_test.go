package parser

import (
	"ebscript/pkg/builtins"
	"ebscript/pkg/lexer"
	"ebscript/pkg/object"
	"strings"
	"testing"
)

// callSource builds a call to name with n null arguments.
func callSource(name string, n int) string {
	return "#" + name + "(" + strings.TrimSuffix(strings.Repeat("null, ", n), ", ") + ");"
}

func TestEveryBuiltinIsCallable(t *testing.T) {
	reg := builtins.Registry()
	for _, name := range reg.Names() {
		info, _ := reg.Lookup(name)
		mandatory := 0
		for i, p := range info.Params {
			if p.Mandatory {
				mandatory = i + 1
			}
		}

		src := callSource(name, mandatory)
		p := New(lexer.New(src), WithRegistry(reg))
		p.ParseProgram()
		if diags := p.Diagnostics(); len(diags) > 0 {
			t.Errorf("%s: %q does not parse: %s", name, src, diags[0])
			continue
		}

		if mandatory == 0 {
			continue
		}
		src = callSource(name, mandatory-1)
		p = New(lexer.New(src), WithRegistry(reg))
		p.ParseProgram()
		diags := p.Diagnostics()
		if len(diags) == 0 || diags[0].Detail != object.ArityMismatch {
			t.Errorf("%s: %q should fail with ArityMismatch, got=%v", name, src, p.Errors())
		}
	}
}

func TestKeywordSegmentBuiltins(t *testing.T) {
	reg := builtins.Registry()
	for _, src := range []string{
		`var n = #str.length("abc");`,
		`var q: queue; var n = #queue.size(q);`,
		`var j = {}; var n = #json.size(j);`,
		`var a = [1, 2]; var n = #array.length(a);`,
	} {
		p := New(lexer.New(src), WithRegistry(reg))
		p.ParseProgram()
		if diags := p.Diagnostics(); len(diags) > 0 {
			t.Errorf("%q: %s", src, diags[0])
		}
	}
}

func TestNumericBuiltinArguments(t *testing.T) {
	reg := builtins.Registry()
	tests := []struct {
		input string
		ok    bool
	}{
		{`#math.abs("x")`, false},
		{`#math.min(1, "y")`, false},
		{`#math.max(true, 2)`, false},
		{`#math.abs(-3)`, true},
		{`#math.min(1, 2.5)`, true},
		{`#math.max(3L, 2)`, true},
	}
	for i, tt := range tests {
		p := New(lexer.New(tt.input), WithRegistry(reg))
		p.ParseProgram()
		diags := p.Diagnostics()
		if tt.ok {
			if len(diags) > 0 {
				t.Errorf("tests[%d] - unexpected error: %s", i, diags[0])
			}
			continue
		}
		if len(diags) == 0 || diags[0].Detail != object.TypeMismatch {
			t.Errorf("tests[%d] - expected TypeMismatch for %q, got=%v", i, tt.input, p.Errors())
		}
	}
}
