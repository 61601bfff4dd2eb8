package eval

import (
	"ebscript/pkg/ast"
	"ebscript/pkg/object"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Eval evaluates a single node against the current scope stack. Control flow
// travels through the returned value: errors, return values and loop
// signals propagate up until a construct consumes them.
func (in *Interpreter) Eval(node ast.Node) object.Object {
	switch node := node.(type) {
	// Expressions
	case *ast.Identifier:
		return in.evalIdentifier(node)

	case *ast.IntegerLiteral:
		return object.NewInteger(node.Value)

	case *ast.LongLiteral:
		return &object.Long{Value: node.Value}

	case *ast.DoubleLiteral:
		return &object.Double{Value: node.Value}

	case *ast.StringLiteral:
		return &object.String{Value: node.Value}

	case *ast.DateLiteral:
		return &object.Date{Value: node.Value}

	case *ast.BooleanLiteral:
		return object.NativeBool(node.Value)

	case *ast.NullLiteral:
		return object.NULL

	case *ast.InfixExpression:
		if node.Operator == "and" || node.Operator == "or" {
			return in.evalLogicalExpression(node)
		}
		left := in.Eval(node.Left)
		if isError(left) {
			return left
		}
		right := in.Eval(node.Right)
		if isError(right) {
			return right
		}
		return evalInfixExpression(node.Operator, left, right)

	case *ast.PrefixExpression:
		right := in.Eval(node.Right)
		if isError(right) {
			return right
		}
		return evalPrefixExpression(node.Operator, right)

	case *ast.AssignExpression:
		return in.evalAssignExpression(node)

	case *ast.PostfixExpression:
		return in.evalPostfixExpression(node)

	case *ast.IndexExpression:
		left := in.Eval(node.Left)
		if isError(left) {
			return left
		}
		index := in.Eval(node.Index)
		if isError(index) {
			return index
		}
		return evalIndexExpression(left, index)

	case *ast.MemberExpression:
		return in.evalMemberExpression(node)

	case *ast.PropertyExpression:
		left := in.Eval(node.Left)
		if isError(left) {
			return left
		}
		return evalPropertyExpression(node.Property, left)

	case *ast.CallExpression:
		return in.evalCallExpression(node)

	case *ast.TypeofExpression:
		val := in.Eval(node.Value)
		if isError(val) {
			return val
		}
		return &object.String{Value: val.Kind().Name()}

	case *ast.ArrayLiteral:
		elements := in.evalExpressions(node.Elements)
		if len(elements) == 1 && isError(elements[0]) {
			return elements[0]
		}
		return object.NewArrayOf(elements)

	case *ast.JSONLiteral:
		return in.evalJSONLiteral(node)

	// Statements
	case *ast.Program:
		return in.evalProgram(node)

	case *ast.ExpressionStatement:
		return in.Eval(node.Expression)

	case *ast.BlockStatement:
		defer in.enter("block", "", node.Line())()
		return in.evalBlockStatement(node)

	case *ast.VarStatement:
		return in.evalVarStatement(node)

	case *ast.TypedefStatement:
		return object.NULL

	case *ast.ReturnStatement:
		if node.ReturnValue == nil {
			return &object.ReturnValue{Value: object.NULL}
		}
		val := in.Eval(node.ReturnValue)
		if isError(val) {
			return val
		}
		return &object.ReturnValue{Value: val}

	case *ast.FunctionStatement:
		in.env.Define(node.Name.Value, in.newFunction(node))
		return object.NULL

	case *ast.IfStatement:
		cond, err := in.evalCondition(node.Condition)
		if err != nil {
			return err
		}
		if cond {
			return in.Eval(node.Consequence)
		}
		if node.Alternative != nil {
			return in.Eval(node.Alternative)
		}
		return object.NULL

	case *ast.WhileStatement:
		return in.evalWhileStatement(node)

	case *ast.DoWhileStatement:
		return in.evalDoWhileStatement(node)

	case *ast.ForStatement:
		return in.evalForStatement(node)

	case *ast.ForEachStatement:
		return in.evalForEachStatement(node)

	case *ast.BreakStatement:
		return object.BREAK

	case *ast.ContinueStatement:
		return object.CONTINUE

	case *ast.PrintStatement:
		val := in.Eval(node.Value)
		if isError(val) {
			return val
		}
		fmt.Fprintln(in.out, val.Inspect())
		return object.NULL

	case *ast.CallStatement:
		result := in.Eval(node.Call)
		if isError(result) {
			return result
		}
		return object.NULL

	case *ast.TryStatement:
		return in.evalTryStatement(node)

	case *ast.RaiseStatement:
		return in.evalRaiseStatement(node)

	case *ast.ImportStatement:
		return in.evalImportStatement(node)
	}
	return object.NewError(object.InternalError, "cannot evaluate %T", node)
}

// evalProgram runs the top-level statements. Functions declared at top level
// are bound before the first statement runs, so they may be called before
// their declaration.
func (in *Interpreter) evalProgram(program *ast.Program) object.Object {
	for _, s := range program.Statements {
		if fs, ok := s.(*ast.FunctionStatement); ok {
			in.env.Define(fs.Name.Value, in.newFunction(fs))
		}
	}

	var result object.Object = object.NULL
	for _, statement := range program.Statements {
		result = in.Eval(statement)
		switch r := result.(type) {
		case *object.ReturnValue:
			return r.Value
		case *object.Error:
			return r.AtLine(statement.Line())
		}
	}
	return result
}

// evalBlockStatement runs block in its own frame.
func (in *Interpreter) evalBlockStatement(block *ast.BlockStatement) object.Object {
	in.env.Push()
	defer in.env.Pop()
	return in.evalStatements(block.Statements)
}

// evalStatements runs statements in the current frame and stops at the
// first signal.
func (in *Interpreter) evalStatements(statements []ast.Statement) object.Object {
	var result object.Object = object.NULL
	for _, statement := range statements {
		result = in.Eval(statement)
		if object.IsSignal(result) {
			if err, ok := result.(*object.Error); ok {
				err.AtLine(statement.Line())
			}
			return result
		}
	}
	return result
}

func (in *Interpreter) evalIdentifier(node *ast.Identifier) object.Object {
	val, err := in.env.Get(node.Value)
	if err != nil {
		return err.AtLine(node.Line())
	}
	return val
}

func (in *Interpreter) evalExpressions(exps []ast.Expression) []object.Object {
	result := make([]object.Object, 0, len(exps))
	for _, e := range exps {
		evaluated := in.Eval(e)
		if isError(evaluated) {
			return []object.Object{evaluated}
		}
		result = append(result, evaluated)
	}
	return result
}

func (in *Interpreter) evalJSONLiteral(node *ast.JSONLiteral) object.Object {
	pairs := make(map[string]any, len(node.Pairs))
	for _, pair := range node.Pairs {
		val := in.Eval(pair.Value)
		if isError(val) {
			return val
		}
		pairs[pair.Key] = object.ToNative(val)
	}
	return &object.JSON{Value: object.Normalize(pairs)}
}

// evalCondition evaluates a branch or loop condition, which must be a bool.
func (in *Interpreter) evalCondition(exp ast.Expression) (bool, *object.Error) {
	val := in.Eval(exp)
	if err, ok := val.(*object.Error); ok {
		return false, err
	}
	b, ok := val.(*object.Boolean)
	if !ok {
		return false, newTypeError(exp.Line(), "condition must be bool, got %s", val.Kind().Name())
	}
	return b.Value, nil
}

func (in *Interpreter) evalVarStatement(node *ast.VarStatement) object.Object {
	name := node.Name.Value
	var val object.Object = object.NULL
	if node.Value != nil {
		val = in.Eval(node.Value)
		if isError(val) {
			return val
		}
	}

	shape, err := in.shapeOf(node.Type)
	if err != nil {
		return err.AtLine(node.Line())
	}

	kind := object.KindAny
	switch {
	case node.Type == nil:
	case node.Type.Array:
		arr, err := in.declareArray(node.Type, val)
		if err != nil {
			return err
		}
		val, kind = arr, arr.Kind()
	default:
		kind = object.DeclaredKind(node.Type.Name, false)
		if kind == object.KindQueue && val == object.NULL {
			val = &object.Queue{}
		}
	}

	if err := in.declareShaped(name, kind, shape, val, node.Const); err != nil {
		return err.AtLine(node.Line())
	}
	return object.NULL
}

// declareShaped is declare for map and record types. The value is checked
// against shape at declaration and on every later assignment.
func (in *Interpreter) declareShaped(name string, kind object.Kind, shape object.Shape, val object.Object, constant bool) *object.Error {
	if shape == nil {
		return in.declare(name, kind, val, constant)
	}
	cv, err := object.Coerce(val, kind)
	if err != nil {
		return assignError(err, val, kind, name)
	}
	if constant {
		if cv, err = shape.Conform(cv); err != nil {
			return err
		}
		in.env.DefineConst(name, cv)
		return nil
	}
	return in.env.DefineShaped(name, kind, shape, cv)
}

// shapeOf builds the structural constraint of a map or record type, or of an
// array of them. Other types have no shape and yield nil. Field defaults are
// evaluated once, here.
func (in *Interpreter) shapeOf(ts *ast.TypeSpec) (object.Shape, *object.Error) {
	if ts == nil {
		return nil, nil
	}
	var shape object.Shape
	switch ts.Name {
	case "map":
		shape = object.MapShape{Sorted: ts.Sorted}
	case "record":
		rt := &object.RecordType{}
		for _, f := range ts.Fields {
			rf := object.RecordField{
				Name:      f.Name,
				Kind:      object.DeclaredKind(f.Type.Name, f.Type.Array),
				Mandatory: f.Mandatory,
				MaxLength: f.MaxLength,
			}
			sub, err := in.shapeOf(f.Type)
			if err != nil {
				return nil, err
			}
			rf.Shape = sub
			if f.Default != nil {
				d := in.Eval(f.Default)
				if e, ok := d.(*object.Error); ok {
					return nil, e
				}
				rf.Default = d
			}
			rt.Fields = append(rt.Fields, rf)
		}
		shape = rt
	default:
		return nil, nil
	}
	if ts.Array {
		return object.ArrayShape{Elem: shape}, nil
	}
	return shape, nil
}

// declare binds name in the current frame with an optional declared kind.
func (in *Interpreter) declare(name string, kind object.Kind, val object.Object, constant bool) *object.Error {
	if constant {
		cv, err := object.Coerce(val, kind)
		if err != nil {
			return assignError(err, val, kind, name)
		}
		in.env.DefineConst(name, cv)
		return nil
	}
	if kind == object.KindAny {
		in.env.Define(name, val)
		return nil
	}
	if err := in.env.DefineTyped(name, kind, val); err != nil {
		return assignError(err, val, kind, name)
	}
	return nil
}

func assignError(err *object.Error, val object.Object, kind object.Kind, name string) *object.Error {
	if err.Type != object.TypeError {
		return err
	}
	return object.NewError(object.TypeError, "cannot assign %s to %s variable '%s'", val.Kind().Name(), kind.Name(), name)
}

// declareArray builds the value of an array declaration. Sized dimensions
// make fixed arrays, `*` dimensions dynamic ones. An initial value is copied
// into an array of the declared element kind.
func (in *Interpreter) declareArray(ts *ast.TypeSpec, val object.Object) (*object.Array, *object.Error) {
	dims := make([]int, len(ts.Dims))
	for i, d := range ts.Dims {
		if d == nil {
			dims[i] = -1
			continue
		}
		n := in.Eval(d)
		if err, ok := n.(*object.Error); ok {
			return nil, err
		}
		size, ok := object.ToInt64(n)
		if !ok {
			return nil, object.NewError(object.TypeError, "array dimension must be an integer, got %s", n.Kind().Name())
		}
		if size < 0 {
			return nil, object.NewError(object.IndexError, "negative array dimension %d", size)
		}
		dims[i] = int(size)
	}

	elem := object.ElemKind(ts.Name)
	if val == object.NULL {
		return buildArray(elem, dims), nil
	}

	src, err := object.Coerce(val, object.KindArray)
	if err != nil {
		return nil, object.NewError(object.TypeError, "cannot initialize %s array from %s", ts.Name, val.Kind().Name())
	}
	from := src.(*object.Array)
	n, fixed := from.Len(), false
	if len(dims) > 0 && dims[0] >= 0 {
		if n > dims[0] {
			return nil, object.NewError(object.IndexError, "%d elements do not fit in array of length %d", n, dims[0])
		}
		n, fixed = dims[0], true
	}
	if len(dims) > 1 {
		elem = object.KindAny
	}
	out := object.NewArray(elem, n, fixed)
	for i, e := range from.Elements() {
		if err := out.Set(i, e); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func buildArray(elem object.Kind, dims []int) *object.Array {
	if len(dims) == 0 {
		return object.NewArray(elem, 0, false)
	}
	n, fixed := dims[0], dims[0] >= 0
	if !fixed {
		n = 0
	}
	if len(dims) == 1 {
		return object.NewArray(elem, n, fixed)
	}
	outer := object.NewArray(object.KindAny, n, fixed)
	for i := 0; i < n; i++ {
		outer.Set(i, buildArray(elem, dims[1:]))
	}
	return outer
}

func (in *Interpreter) evalTryStatement(node *ast.TryStatement) object.Object {
	defer in.enter("try", "", node.Line())()

	mark := in.env.Mark()
	result := in.evalBlockStatement(node.Body)
	err, ok := result.(*object.Error)
	if !ok {
		return result
	}
	in.env.Unwind(mark)
	if !err.Catchable() {
		return err
	}

	handler := matchHandler(node.Handlers, err)
	if handler == nil {
		return err
	}

	in.env.Push()
	defer in.env.Pop()
	if handler.Variable != nil {
		in.env.Define(handler.Variable.Value, &object.String{Value: err.Message})
	}
	return in.evalStatements(handler.Body.Statements)
}

func matchHandler(handlers []*ast.ExceptionHandler, err *object.Error) *ast.ExceptionHandler {
	for _, h := range handlers {
		if h.ErrorType == object.AnyError || h.ErrorType == err.Category {
			return h
		}
	}
	return nil
}

// evalRaiseStatement raises a standard category with a single message, or a
// custom exception whose message lists every argument.
func (in *Interpreter) evalRaiseStatement(node *ast.RaiseStatement) object.Object {
	args := in.evalExpressions(node.Arguments)
	if len(args) == 1 && isError(args[0]) {
		return args[0]
	}
	name := strings.ToUpper(node.ErrorType)

	var message string
	if object.IsStandardCategory(name) {
		if len(args) > 0 && args[0] != object.NULL {
			message = args[0].Inspect()
		} else {
			message = name + " raised with no message"
		}
	} else {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.Inspect()
		}
		message = name + ": " + strings.Join(parts, ", ")
	}
	return object.Raise(name, "%s", message).AtLine(node.Line())
}

// evalImportStatement runs another source file in the global frame. Each
// path runs at most once.
func (in *Interpreter) evalImportStatement(node *ast.ImportStatement) object.Object {
	path := node.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(in.importDir, path)
	}
	key, err := filepath.Abs(path)
	if err != nil {
		key = path
	}
	if in.imported[key] {
		return object.NULL
	}

	content, err := os.ReadFile(path)
	if err != nil {
		category := object.IOError
		if errors.Is(err, fs.ErrNotExist) {
			category = object.NotFoundError
		}
		return object.Raise(category, "cannot import %s: %s", node.Path, err).AtLine(node.Line())
	}
	if !utf8.Valid(content) {
		return object.Raise(object.ParseErrorName, "cannot import %s: not valid UTF-8", node.Path).AtLine(node.Line())
	}

	program, diags := in.parse(string(content), path)
	if len(diags) > 0 {
		d := diags[0]
		return &object.Error{
			Type:     d.Type,
			Detail:   d.Detail,
			Category: d.Category,
			Message:  fmt.Sprintf("%s (in %s line %d)", d.Message, node.Path, d.Line),
			Line:     node.Line(),
		}
	}
	in.imported[key] = true
	in.logger.Debug("import", slog.String("path", path))

	saved := in.env
	in.env = saved.Detach()
	defer func() { in.env = saved }()

	result := in.evalProgram(program)
	if isError(result) {
		return result
	}
	return object.NULL
}

func isError(obj object.Object) bool {
	if obj != nil {
		return obj.Kind() == object.KindError
	}
	return false
}

func newTypeError(line int, format string, a ...interface{}) *object.Error {
	return object.NewError(object.TypeError, format, a...).AtLine(line)
}
