package eval

import (
	"ebscript/pkg/ast"
	"ebscript/pkg/env"
	"ebscript/pkg/object"
	"ebscript/pkg/registry"
	"log/slog"
)

func (in *Interpreter) newFunction(node *ast.FunctionStatement) *Function {
	return &Function{
		Name:       node.Name.Value,
		Parameters: node.Parameters,
		ReturnType: node.ReturnType,
		Body:       node.Body,
		Env:        in.env.Top(),
	}
}

func (in *Interpreter) evalCallExpression(node *ast.CallExpression) object.Object {
	if node.Builtin {
		return in.callBuiltin(node)
	}

	name := node.Function.Value
	val, err := in.env.Get(name)
	if err != nil {
		return object.NewError(object.NameError, "undefined function '%s'", name).AtLine(node.Line())
	}
	fn, ok := val.(*Function)
	if !ok {
		return newTypeError(node.Line(), "'%s' is not a function, got %s", name, val.Kind().Name())
	}

	args := in.evalExpressions(node.Arguments)
	if len(args) == 1 && isError(args[0]) {
		return args[0]
	}
	return in.applyFunction(fn, fn.Env, args, node.Names, node.Line())
}

// callBuiltin evaluates the arguments and routes the call through the
// dispatcher. The result is checked against the registered return type.
func (in *Interpreter) callBuiltin(node *ast.CallExpression) object.Object {
	name := node.Function.Value
	args := in.evalExpressions(node.Arguments)
	if len(args) == 1 && isError(args[0]) {
		return args[0]
	}

	result, err := in.dispatcher.Call(name, args)
	if err != nil {
		if err.Type == object.InternalError && registry.IsPluginName(name) {
			in.logger.Warn("unknown plugin", slog.String("name", name), slog.Int("line", node.Line()))
		}
		return err.AtLine(node.Line())
	}

	if node.ReturnType != "" && result != object.NULL {
		if want, ok := object.KindOf(node.ReturnType); ok && !object.Assignable(result.Kind(), want) {
			return object.NewError(object.InternalError, "builtin %s returned %s, declared %s",
				name, result.Kind().Name(), node.ReturnType).AtLine(node.Line())
		}
	}
	return result
}

// applyFunction calls fn in a frame whose lexical parent is outer. Omitted
// parameters take their default, and a parameter without a default must be
// supplied.
func (in *Interpreter) applyFunction(fn *Function, outer *env.Frame, args []object.Object, names []string, line int) object.Object {
	if in.depth >= in.maxDepth {
		return object.Raise(object.AnyError, "maximum call depth %d exceeded calling %s", in.maxDepth, fn.Name).AtLine(line)
	}
	bound, err := bindArguments(fn, args, names)
	if err != nil {
		return err.AtLine(line)
	}

	in.depth++
	defer func() { in.depth-- }()
	defer in.enter("call", fn.Name, line)()

	in.env.PushFrom(outer)
	defer in.env.Pop()

	if err := in.extendFunctionEnv(fn, bound); err != nil {
		return err.AtLine(line)
	}

	evaluated := in.evalStatements(fn.Body.Statements)
	if isError(evaluated) {
		return evaluated
	}
	result := unwrapReturnValue(evaluated)

	if fn.ReturnType != nil {
		want := object.DeclaredKind(fn.ReturnType.Name, fn.ReturnType.Array)
		cv, err := object.Coerce(result, want)
		if err != nil {
			return newTypeError(line, "function %s must return %s, got %s", fn.Name, want.Name(), result.Kind().Name())
		}
		result = cv
	}
	return result
}

// bindArguments places positional or named arguments by parameter index.
// Slots left nil were omitted by the caller.
func bindArguments(fn *Function, args []object.Object, names []string) ([]object.Object, *object.Error) {
	if len(args) > len(fn.Parameters) {
		return nil, arityError("%s takes at most %d arguments, got %d", fn.Name, len(fn.Parameters), len(args))
	}
	bound := make([]object.Object, len(fn.Parameters))
	if names == nil {
		copy(bound, args)
		return bound, nil
	}
	for i, name := range names {
		idx := fn.paramIndex(name)
		if idx < 0 {
			return nil, arityError("%s has no parameter %q", fn.Name, name)
		}
		if bound[idx] != nil {
			return nil, arityError("%s parameter %q given twice", fn.Name, name)
		}
		bound[idx] = args[i]
	}
	return bound, nil
}

// extendFunctionEnv defines the parameters in the function's fresh frame.
// Defaults are evaluated in that frame, so they may refer to earlier
// parameters.
func (in *Interpreter) extendFunctionEnv(fn *Function, bound []object.Object) *object.Error {
	for i, param := range fn.Parameters {
		val := bound[i]
		if val == nil {
			if param.Default == nil {
				return arityError("%s missing mandatory parameter %q", fn.Name, param.Name.Value)
			}
			val = in.Eval(param.Default)
			if err, ok := val.(*object.Error); ok {
				return err
			}
		}

		kind := object.KindAny
		if param.Type != nil {
			kind = object.DeclaredKind(param.Type.Name, param.Type.Array)
		}
		shape, err := in.shapeOf(param.Type)
		if err != nil {
			return err
		}
		if err := in.declareShaped(param.Name.Value, kind, shape, val, false); err != nil {
			if err.Type != object.TypeError {
				return err
			}
			return object.NewError(object.TypeError, "%s parameter %q: %s", fn.Name, param.Name.Value, err.Message)
		}
	}
	return nil
}

func unwrapReturnValue(obj object.Object) object.Object {
	switch obj := obj.(type) {
	case *object.ReturnValue:
		return obj.Value
	default:
		return object.NULL
	}
}

func arityError(format string, a ...interface{}) *object.Error {
	e := object.Raise(object.ValidationError, format, a...)
	e.Detail = object.ArityMismatch
	return e
}
