package parser

import (
	"ebscript/pkg/ast"
	"ebscript/pkg/lexer"
	"ebscript/pkg/object"
	"ebscript/pkg/registry"
	"strings"
	"testing"
)

var testRegistry = registry.MustBuild(
	registry.New("str.toupper", object.KindString, registry.Required("value", object.KindString)),
	registry.New("str.substring", object.KindString,
		registry.Required("value", object.KindString),
		registry.Required("start", object.KindInt),
		registry.Optional("end", object.KindInt)),
	registry.New("math.sqrt", object.KindDouble, registry.Required("value", object.KindDouble)),
	registry.New("thread.timerstart", object.KindNull,
		registry.Required("name", object.KindString),
		registry.Required("period", object.KindLong),
		registry.Required("callback", object.KindAny)),
)

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := New(lexer.New(input), WithRegistry(testRegistry))
	program := p.ParseProgram()
	checkParserErrors(t, p)
	return program
}

func parseFailure(t *testing.T, input string) *object.Error {
	t.Helper()
	p := New(lexer.New(input), WithRegistry(testRegistry))
	p.ParseProgram()
	diags := p.Diagnostics()
	if len(diags) == 0 {
		t.Fatalf("expected a parse error for %q", input)
	}
	return diags[0]
}

func TestVarStatements(t *testing.T) {
	tests := []struct {
		input        string
		expectedName string
		expectedType string
		expectedVal  string
		isConst      bool
	}{
		{"var x = 5;", "x", "", "5", false},
		{"var y: int = 10", "y", "int", "10", false},
		{"const pi: double = 3.14;", "pi", "double", "3.14", true},
		{"var names: string[5];", "names", "string[5]", "", false},
		{"var buf: array.byte[*]", "buf", "byte[*]", "", false},
		{"var grid: array.int[3, 4];", "grid", "int[3, 4]", "", false},
		{"var anything: array[*];", "anything", "any[*]", "", false},
		{"var flags: Boolean = TRUE;", "flags", "bool", "true", false},
	}

	for i, tt := range tests {
		program := parse(t, tt.input)
		if len(program.Statements) != 1 {
			t.Fatalf("tests[%d] - program.Statements does not contain 1 statement. got=%d",
				i, len(program.Statements))
		}
		stmt, ok := program.Statements[0].(*ast.VarStatement)
		if !ok {
			t.Fatalf("tests[%d] - stmt not *ast.VarStatement. got=%T", i, program.Statements[0])
		}
		if stmt.Name.Value != tt.expectedName {
			t.Fatalf("tests[%d] - name wrong. expected=%q, got=%q", i, tt.expectedName, stmt.Name.Value)
		}
		if got := stmt.Type.String(); got != tt.expectedType {
			t.Fatalf("tests[%d] - type wrong. expected=%q, got=%q", i, tt.expectedType, got)
		}
		val := ""
		if stmt.Value != nil {
			val = stmt.Value.String()
		}
		if val != tt.expectedVal {
			t.Fatalf("tests[%d] - value wrong. expected=%q, got=%q", i, tt.expectedVal, val)
		}
		if stmt.Const != tt.isConst {
			t.Fatalf("tests[%d] - const wrong. expected=%t, got=%t", i, tt.isConst, stmt.Const)
		}
	}
}

func TestReturnStatements(t *testing.T) {
	input := `
function f() {
return 5;
return;
return x + 1
}
`
	program := parse(t, input)
	fn := program.Statements[0].(*ast.FunctionStatement)
	if len(fn.Body.Statements) != 3 {
		t.Fatalf("body does not contain 3 statements. got=%d", len(fn.Body.Statements))
	}
	for _, stmt := range fn.Body.Statements {
		returnStmt, ok := stmt.(*ast.ReturnStatement)
		if !ok {
			t.Errorf("stmt not *ast.ReturnStatement. got=%T", stmt)
			continue
		}
		if returnStmt.TokenLiteral() != "return" {
			t.Errorf("returnStmt.TokenLiteral not 'return', got %q", returnStmt.TokenLiteral())
		}
	}
	if fn.Body.Statements[1].(*ast.ReturnStatement).ReturnValue != nil {
		t.Errorf("bare return should have no value")
	}
}

func TestFunctionStatement(t *testing.T) {
	input := `function add(x: int, y: int = 2) return int {
return x + y
}
`
	program := parse(t, input)

	if len(program.Statements) != 1 {
		t.Fatalf("program.Statements does not contain 1 statements. got=%d",
			len(program.Statements))
	}

	stmt, ok := program.Statements[0].(*ast.FunctionStatement)
	if !ok {
		t.Fatalf("program.Statements[0] is not ast.FunctionStatement. got=%T",
			program.Statements[0])
	}

	if stmt.Name.Value != "add" {
		t.Fatalf("function name not 'add'. got=%q", stmt.Name.Value)
	}
	if len(stmt.Parameters) != 2 {
		t.Fatalf("function has wrong parameters count. got=%d", len(stmt.Parameters))
	}
	if stmt.Parameters[0].Name.Value != "x" || stmt.Parameters[0].Type.Name != "int" {
		t.Fatalf("parameter 0 wrong. got=%s", stmt.Parameters[0])
	}
	if stmt.Parameters[1].Default == nil || stmt.Parameters[1].Default.String() != "2" {
		t.Fatalf("parameter 1 default wrong. got=%s", stmt.Parameters[1])
	}
	if stmt.ReturnType == nil || stmt.ReturnType.Name != "int" {
		t.Fatalf("return type wrong. got=%v", stmt.ReturnType)
	}
	if len(stmt.Body.Statements) != 1 {
		t.Fatalf("function body has wrong statements count. got=%d",
			len(stmt.Body.Statements))
	}
}

func TestOperatorPrecedenceParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"-a * b", "((-a) * b)"},
		{"!-a", "(!(-a))"},
		{"a + b + c", "((a + b) + c)"},
		{"a + b * c", "(a + (b * c))"},
		{"a * b % c", "((a * b) % c)"},
		{"a + b * c + d / e - f", "(((a + (b * c)) + (d / e)) - f)"},
		{"5 > 4 == 3 < 4", "((5 > 4) == (3 < 4))"},
		{"3 + 4 * 5 == 3 * 1 + 4 * 5", "((3 + (4 * 5)) == ((3 * 1) + (4 * 5)))"},
		{"a < b and c > d or e", "(((a < b) and (c > d)) or e)"},
		{"a || b && c", "(a or (b and c))"},
		{"a =< b", "(a <= b)"},
		{"a <> b", "(a != b)"},
		{"1 + (2 + 3) + 4", "((1 + (2 + 3)) + 4)"},
		{"-(5 + 5)", "(-(5 + 5))"},
		{"2 ^ 3 ^ 2", "(2 ^ (3 ^ 2))"},
		{"-2 ^ 2", "(-(2 ^ 2))"},
		{"a * [1, 2, 3, 4][b * c] * d", "((a * ([1, 2, 3, 4][(b * c)])) * d)"},
		{"x = y = 3", "x = y = 3"},
		{"x += 1 + 2", "x += (1 + 2)"},
		{"a[0] = 1", "(a[0]) = 1"},
		{"i++", "(i++)"},
		{"s.length + 1", "(s.length + 1)"},
		{"typeof x == \"int\"", "(typeof x == \"int\")"},
		{"add(a, b * c)", "add(a, (b * c))"},
	}

	for i, tt := range tests {
		program := parse(t, tt.input)
		actual := strings.TrimSuffix(program.String(), ";\n")
		if actual != tt.expected {
			t.Errorf("tests[%d] - expected=%q, got=%q", i, tt.expected, actual)
		}
	}
}

func TestLiterals(t *testing.T) {
	program := parse(t, `[1, 2L, 3.5, "s", '2024-01-02', true, null, {"a": 1, b: [2]}]`)
	arr := program.Statements[0].(*ast.ExpressionStatement).Expression.(*ast.ArrayLiteral)
	expected := []string{"*ast.IntegerLiteral", "*ast.LongLiteral", "*ast.DoubleLiteral",
		"*ast.StringLiteral", "*ast.DateLiteral", "*ast.BooleanLiteral", "*ast.NullLiteral", "*ast.JSONLiteral"}
	if len(arr.Elements) != len(expected) {
		t.Fatalf("wrong element count. got=%d", len(arr.Elements))
	}
	for i, el := range arr.Elements {
		if got := typeName(el); got != expected[i] {
			t.Errorf("tests[%d] - element type wrong. expected=%s, got=%s", i, expected[i], got)
		}
	}
	obj := arr.Elements[7].(*ast.JSONLiteral)
	if len(obj.Pairs) != 2 || obj.Pairs[0].Key != "a" || obj.Pairs[1].Key != "b" {
		t.Fatalf("json pairs wrong. got=%s", obj.String())
	}
}

func typeName(e ast.Expression) string {
	switch e.(type) {
	case *ast.IntegerLiteral:
		return "*ast.IntegerLiteral"
	case *ast.LongLiteral:
		return "*ast.LongLiteral"
	case *ast.DoubleLiteral:
		return "*ast.DoubleLiteral"
	case *ast.StringLiteral:
		return "*ast.StringLiteral"
	case *ast.DateLiteral:
		return "*ast.DateLiteral"
	case *ast.BooleanLiteral:
		return "*ast.BooleanLiteral"
	case *ast.NullLiteral:
		return "*ast.NullLiteral"
	case *ast.JSONLiteral:
		return "*ast.JSONLiteral"
	}
	return "other"
}

func TestControlFlowStatements(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"if (x > 1) { print x; }", "if ((x > 1)) { print x; }"},
		{"if x then print 1; else print 2;", "if (x) print 1; else print 2;"},
		{"if (a) { b; } else if (c) { d; } else { e; }", "if (a) { b; } else if (c) { d; } else { e; }"},
		{"while (i < 3) { i++; }", "while ((i < 3)) { (i++); }"},
		{"do { i++; } while (i < 3);", "do { (i++); } while ((i < 3));"},
		{"for (var i = 0; i < 3; i++) { print i; }", "for (var i = 0; (i < 3); (i++)) { print i; }"},
		{"for (;;) { break; }", "for (; ; ) { break; }"},
		{"foreach item in items { continue; }", "foreach item in items { continue; }"},
		{"foreach (c in \"abc\") { print c; }", "foreach c in \"abc\" { print c; }"},
		{"call f(1);", "call f(1);"},
		{"import \"lib.ebs\";", "import \"lib.ebs\";"},
		{"{ var a = 1; }", "{ var a = 1; }"},
	}

	for i, tt := range tests {
		program := parse(t, tt.input)
		if len(program.Statements) != 1 {
			t.Fatalf("tests[%d] - expected 1 statement, got=%d", i, len(program.Statements))
		}
		if got := program.Statements[0].String(); got != tt.expected {
			t.Errorf("tests[%d] - expected=%q, got=%q", i, tt.expected, got)
		}
	}
}

func TestTryStatement(t *testing.T) {
	input := `
try {
	raise exception validation_error("bad", 3);
} exceptions {
	when VALIDATION_ERROR(e) { print e; }
	when any_error { print "other"; }
}`
	program := parse(t, input)
	stmt, ok := program.Statements[0].(*ast.TryStatement)
	if !ok {
		t.Fatalf("stmt not *ast.TryStatement. got=%T", program.Statements[0])
	}
	if len(stmt.Handlers) != 2 {
		t.Fatalf("wrong handler count. got=%d", len(stmt.Handlers))
	}
	if stmt.Handlers[0].ErrorType != "VALIDATION_ERROR" || stmt.Handlers[0].Variable.Value != "e" {
		t.Fatalf("handler 0 wrong. got=%s", stmt.Handlers[0])
	}
	if stmt.Handlers[1].ErrorType != "ANY_ERROR" || stmt.Handlers[1].Variable != nil {
		t.Fatalf("handler 1 wrong. got=%s", stmt.Handlers[1])
	}
	raise := stmt.Body.Statements[0].(*ast.RaiseStatement)
	if raise.ErrorType != "VALIDATION_ERROR" || len(raise.Arguments) != 2 {
		t.Fatalf("raise wrong. got=%s", raise)
	}
}

func TestBuiltinCallResolution(t *testing.T) {
	program := parse(t, `var s = #str.toUpper("abc");`)
	call := program.Statements[0].(*ast.VarStatement).Value.(*ast.CallExpression)
	if !call.Builtin {
		t.Fatalf("call not marked builtin")
	}
	if call.Function.Value != "str.toupper" {
		t.Fatalf("name not normalized. got=%q", call.Function.Value)
	}
	if call.ReturnType != "string" {
		t.Fatalf("return type wrong. got=%q", call.ReturnType)
	}

	program = parse(t, `call thread.timerStart("t", 100, "cb");`)
	stmt := program.Statements[0].(*ast.CallStatement)
	if stmt.Call.ReturnType != "" {
		t.Fatalf("void builtin should have no return type. got=%q", stmt.Call.ReturnType)
	}
}

func TestBuiltinArity(t *testing.T) {
	tests := []struct {
		input  string
		detail string
	}{
		{`#str.substring("abc")`, object.ArityMismatch},
		{`#str.substring("abc", 1, 2, 3)`, object.ArityMismatch},
		{`#str.toUpper()`, object.ArityMismatch},
		{`#str.substring(value = "abc")`, object.ArityMismatch},
		{`#str.substring(value = "abc", nope = 1)`, object.ArityMismatch},
	}
	for i, tt := range tests {
		err := parseFailure(t, tt.input)
		if err.Type != object.ParseError || err.Detail != tt.detail {
			t.Errorf("tests[%d] - expected ParseError(%s), got=%s", i, tt.detail, err)
		}
	}

	// mandatory parameters alone, then with the optional one
	parse(t, `#str.substring("abc", 1)`)
	parse(t, `#str.substring("abc", 1, 2)`)
}

func TestBuiltinTypeMismatch(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{`#math.sqrt("four")`, false},
		{`#math.sqrt(4)`, true},
		{`#math.sqrt(4L)`, true},
		{`#str.substring("abc", 1.5)`, false},
		{`#str.substring("abc", 2L)`, false},
		{`var n: int = 4; #math.sqrt(n)`, true},
		{`var b: bool = true; #math.sqrt(b)`, false},
		{`#str.toUpper(42)`, true},
		{`#math.sqrt(#str.toUpper("x"))`, false},
		{`#math.sqrt(null)`, true},
		{`#math.sqrt(x)`, true},
	}
	for i, tt := range tests {
		p := New(lexer.New(tt.input), WithRegistry(testRegistry))
		p.ParseProgram()
		diags := p.Diagnostics()
		if tt.ok && len(diags) > 0 {
			t.Errorf("tests[%d] - unexpected error: %s", i, diags[0])
			continue
		}
		if !tt.ok {
			if len(diags) == 0 {
				t.Errorf("tests[%d] - expected TypeMismatch for %q", i, tt.input)
				continue
			}
			if diags[0].Detail != object.TypeMismatch {
				t.Errorf("tests[%d] - expected TypeMismatch, got=%s", i, diags[0])
			}
		}
	}
}

func TestUnknownBuiltin(t *testing.T) {
	err := parseFailure(t, `#foo.bar()`)
	if err.Detail != object.UnknownBuiltin {
		t.Fatalf("expected UnknownBuiltin, got=%s", err)
	}
	if !strings.Contains(err.Message, "foo.bar") {
		t.Fatalf("message should name the builtin. got=%q", err.Message)
	}

	err = parseFailure(t, `#str.toUppr("x")`)
	if !strings.Contains(err.Message, "str.toupper") {
		t.Fatalf("expected a suggestion. got=%q", err.Message)
	}

	// plugin namespace is accepted when nothing is registered under it
	parse(t, `#custom.anything(1, 2)`)
}

func TestPluginValidation(t *testing.T) {
	plugins := registry.NewPlugins()
	err := plugins.Register(registry.New("custom.greet", object.KindString,
		registry.Required("name", object.KindString)),
		func(args []object.Object) (object.Object, error) { return args[0], nil })
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	p := New(lexer.New(`#custom.greet()`), WithRegistry(testRegistry), WithPlugins(plugins))
	p.ParseProgram()
	if len(p.Diagnostics()) == 0 || p.Diagnostics()[0].Detail != object.ArityMismatch {
		t.Fatalf("expected ArityMismatch for plugin call, got=%v", p.Errors())
	}
}

func TestNamedArguments(t *testing.T) {
	program := parse(t, `#str.substring(start = 1, value = "abc")`)
	call := program.Statements[0].(*ast.ExpressionStatement).Expression.(*ast.CallExpression)
	if call.Names != nil {
		t.Fatalf("builtin named args should be reordered. got names=%v", call.Names)
	}
	if call.String() != `str.substring("abc", 1)` {
		t.Fatalf("arguments not reordered. got=%s", call.String())
	}

	program = parse(t, `greet(name = "x", greeting = "hi")`)
	call = program.Statements[0].(*ast.ExpressionStatement).Expression.(*ast.CallExpression)
	if len(call.Names) != 2 || call.Names[1] != "greeting" {
		t.Fatalf("script call names wrong. got=%v", call.Names)
	}

	err := parseFailure(t, `greet("x", greeting = "hi")`)
	if err.Message != "Cannot mix named and sequence parameters." {
		t.Fatalf("wrong message. got=%q", err.Message)
	}
	err = parseFailure(t, `greet(name = "x", "hi")`)
	if err.Detail != object.SyntaxError {
		t.Fatalf("expected SyntaxError, got=%s", err)
	}
}

func TestMalformedStatementIsDropped(t *testing.T) {
	p := New(lexer.New("var a = 1;\nvar b = #str.toUpper();\nvar c = 3;"), WithRegistry(testRegistry))
	program := p.ParseProgram()
	if len(p.Diagnostics()) != 1 {
		t.Fatalf("expected 1 diagnostic, got=%v", p.Errors())
	}
	if p.Diagnostics()[0].Line != 2 {
		t.Fatalf("wrong line. got=%d", p.Diagnostics()[0].Line)
	}
	for _, s := range program.Statements {
		if vs, ok := s.(*ast.VarStatement); ok && vs.Name.Value == "b" {
			t.Fatalf("malformed statement reached the tree")
		}
	}
	if len(program.Statements) != 2 {
		t.Fatalf("expected 2 statements, got=%d", len(program.Statements))
	}
}

func TestLoopControlOutsideLoop(t *testing.T) {
	err := parseFailure(t, "break;")
	if err.Detail != object.SyntaxError {
		t.Fatalf("expected SyntaxError, got=%s", err)
	}
	err = parseFailure(t, "while (true) { function f() { continue; } }")
	if err.Detail != object.SyntaxError {
		t.Fatalf("expected SyntaxError, got=%s", err)
	}
}

func TestStaticAssignmentCheck(t *testing.T) {
	err := parseFailure(t, `var n: int = "five";`)
	if err.Detail != object.TypeMismatch {
		t.Fatalf("expected TypeMismatch, got=%s", err)
	}
	err = parseFailure(t, `var n: int; n = 2.5;`)
	if err.Detail != object.TypeMismatch {
		t.Fatalf("expected TypeMismatch, got=%s", err)
	}
	parse(t, `var d: double = 1; var s: string = 5;`)
}

func TestInvalidAssignmentTarget(t *testing.T) {
	err := parseFailure(t, "1 = 2;")
	if err.Detail != object.SyntaxError {
		t.Fatalf("expected SyntaxError, got=%s", err)
	}
}

func TestLexErrorsComeFirst(t *testing.T) {
	p := New(lexer.New("var s = \"open\nvar x = @;"), WithRegistry(testRegistry))
	p.ParseProgram()
	diags := p.Diagnostics()
	if len(diags) == 0 {
		t.Fatalf("expected diagnostics")
	}
	if diags[0].Type != object.LexError {
		t.Fatalf("first diagnostic should be a LexError. got=%s", diags[0])
	}
}

func TestParseHelper(t *testing.T) {
	program, diags := Parse("print 1 + 2;", WithRegistry(testRegistry))
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if program.String() != "print (1 + 2);\n" {
		t.Fatalf("wrong program. got=%q", program.String())
	}
}

func checkParserErrors(t *testing.T, p *Parser) {
	t.Helper()
	errors := p.Errors()
	if len(errors) == 0 {
		return
	}

	t.Errorf("parser has %d errors", len(errors))
	for _, msg := range errors {
		t.Errorf("parser error: %q", msg)
	}
	t.FailNow()
}

func TestMemberExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`j.name;`, "j.name"},
		{`j.Name.First;`, "j.name.first"},
		{`j.a = 2;`, "j.a = 2"},
		{`j.count += 1;`, "j.count += 1"},
		{`j.count++;`, "(j.count++)"},
	}
	for i, tt := range tests {
		program := parse(t, tt.input)
		stmt := program.Statements[0].(*ast.ExpressionStatement)
		if got := stmt.Expression.String(); got != tt.expected {
			t.Errorf("tests[%d] - expected=%q, got=%q", i, tt.expected, got)
		}
	}

	program := parse(t, `j.name.first;`)
	me, ok := program.Statements[0].(*ast.ExpressionStatement).Expression.(*ast.MemberExpression)
	if !ok {
		t.Fatalf("not a member expression. got=%T", program.Statements[0].(*ast.ExpressionStatement).Expression)
	}
	if me.Object.Value != "j" || strings.Join(me.Path, "/") != "name/first" {
		t.Fatalf("member split wrong. object=%q path=%v", me.Object.Value, me.Path)
	}
}

func TestDottedNamesCannotBeDeclared(t *testing.T) {
	for i, input := range []string{
		`var j.a = 1;`,
		`const a.b = 2;`,
		`function f.g() { }`,
		`function f(a.b) { }`,
		`foreach x.y in [1] { }`,
	} {
		err := parseFailure(t, input)
		if err.Detail != object.SyntaxError {
			t.Errorf("tests[%d] - expected SyntaxError for %q, got=%s", i, input, err)
		}
	}
}

func TestRecordAndMapTypes(t *testing.T) {
	tests := []struct {
		input        string
		expectedType string
	}{
		{`var m: map;`, "map"},
		{`var m: sorted map = {"b": 1};`, "sorted map"},
		{`var r: record {id: int mandatory, name: string maxlength 10 default "x"};`,
			`record {id: int mandatory, name: string maxlength 10 default "x"}`},
		{`var rs: array.record {id: int};`, "array.record {id: int}"},
		{`var r: record {inner: record {v: double}, tags: map};`,
			"record {inner: record {v: double}, tags: map}"},
	}
	for i, tt := range tests {
		program := parse(t, tt.input)
		stmt, ok := program.Statements[0].(*ast.VarStatement)
		if !ok {
			t.Fatalf("tests[%d] - not a var statement. got=%T", i, program.Statements[0])
		}
		if got := stmt.Type.String(); got != tt.expectedType {
			t.Errorf("tests[%d] - type wrong. expected=%q, got=%q", i, tt.expectedType, got)
		}
	}

	for i, input := range []string{
		`var r: record {id: int, id: string};`,
		`var r: record {id: int unique};`,
		`var r: record {name: string maxlength 0};`,
		`var m: sorted int;`,
	} {
		if err := parseFailure(t, input); err.Detail != object.SyntaxError {
			t.Errorf("bad[%d] - expected SyntaxError for %q, got=%s", i, input, err)
		}
	}
}

func TestTypedef(t *testing.T) {
	program := parse(t, `person typeof record {name: string mandatory, age: int};
var p: person;
var ps: array.record {id: int};
people typeof array.record {id: int};
var crowd: people;`)
	if len(program.Statements) != 5 {
		t.Fatalf("expected 5 statements. got=%d", len(program.Statements))
	}
	def, ok := program.Statements[0].(*ast.TypedefStatement)
	if !ok {
		t.Fatalf("not a typedef. got=%T", program.Statements[0])
	}
	if def.Name.Value != "person" {
		t.Fatalf("typedef name wrong. got=%q", def.Name.Value)
	}
	p := program.Statements[1].(*ast.VarStatement)
	if p.Type.Name != "record" || len(p.Type.Fields) != 2 || !p.Type.Fields[0].Mandatory {
		t.Fatalf("alias not resolved. got=%s", p.Type)
	}
	crowd := program.Statements[4].(*ast.VarStatement)
	if !crowd.Type.Array || crowd.Type.Name != "record" {
		t.Fatalf("array alias not resolved. got=%s", crowd.Type)
	}

	err := parseFailure(t, `var p: person;`)
	if err.Detail != object.SyntaxError {
		t.Fatalf("unknown alias should fail with SyntaxError. got=%s", err)
	}
}
