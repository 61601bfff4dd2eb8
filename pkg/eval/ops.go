package eval

import (
	"ebscript/pkg/ast"
	"ebscript/pkg/object"
	"math"
	"unicode/utf8"
)

func evalPrefixExpression(operator string, right object.Object) object.Object {
	switch operator {
	case "!":
		b, ok := right.(*object.Boolean)
		if !ok {
			return object.NewError(object.TypeError, "operator ! needs bool, got %s", right.Kind().Name())
		}
		return object.NativeBool(!b.Value)
	case "-":
		switch v := right.(type) {
		case *object.Byte:
			return object.NewInteger(-int32(v.Value))
		case *object.Integer:
			return object.NewIntegral(-int64(v.Value))
		case *object.Long:
			return &object.Long{Value: -v.Value}
		case *object.Double:
			return &object.Double{Value: -v.Value}
		}
	case "+":
		if right.Kind().IsNumeric() {
			return right
		}
	}
	return object.NewError(object.TypeError, "unknown operator: %s%s", operator, right.Kind().Name())
}

func (in *Interpreter) evalLogicalExpression(node *ast.InfixExpression) object.Object {
	left, err := in.boolOperand(node.Operator, node.Left)
	if err != nil {
		return err
	}
	if node.Operator == "and" && !left {
		return object.FALSE
	}
	if node.Operator == "or" && left {
		return object.TRUE
	}
	right, err := in.boolOperand(node.Operator, node.Right)
	if err != nil {
		return err
	}
	return object.NativeBool(right)
}

func (in *Interpreter) boolOperand(op string, exp ast.Expression) (bool, *object.Error) {
	val := in.Eval(exp)
	if err, ok := val.(*object.Error); ok {
		return false, err
	}
	b, ok := val.(*object.Boolean)
	if !ok {
		return false, newTypeError(exp.Line(), "operator %s needs bool operands, got %s", op, val.Kind().Name())
	}
	return b.Value, nil
}

func evalInfixExpression(operator string, left, right object.Object) object.Object {
	switch operator {
	case "==":
		return object.NativeBool(object.Equal(left, right))
	case "!=":
		return object.NativeBool(!object.Equal(left, right))
	}

	// a null operand takes the other operand's zero value
	if left == object.NULL && right != object.NULL {
		left = object.Zero(right.Kind())
	} else if right == object.NULL && left != object.NULL {
		right = object.Zero(left.Kind())
	}
	lk, rk := left.Kind(), right.Kind()

	switch {
	case operator == "+" && (lk == object.KindString || rk == object.KindString):
		return &object.String{Value: left.Inspect() + right.Inspect()}
	case isComparison(operator):
		c, err := object.Compare(left, right)
		if err != nil {
			return err
		}
		return object.NativeBool(compareResult(operator, c))
	case lk.IsNumeric() && rk.IsNumeric():
		return evalNumericInfixExpression(operator, left, right)
	}
	return object.NewError(object.TypeError, "unsupported operand types: %s %s %s", lk.Name(), operator, rk.Name())
}

// overflows reports whether r = x op y wrapped around the 64-bit range.
func overflows(op string, x, y, r int64) bool {
	switch op {
	case "+":
		return (y > 0 && r < x) || (y < 0 && r > x)
	case "-":
		return (y < 0 && r < x) || (y > 0 && r > x)
	case "*":
		return x != 0 && (r/x != y || (x == -1 && y == math.MinInt64))
	case "/":
		return x == math.MinInt64 && y == -1
	}
	return false
}

func isComparison(op string) bool {
	return op == "<" || op == ">" || op == "<=" || op == ">="
}

func compareResult(op string, c int) bool {
	switch op {
	case "<":
		return c < 0
	case ">":
		return c > 0
	case "<=":
		return c <= 0
	default:
		return c >= 0
	}
}

// evalNumericInfixExpression applies op at the widest kind present. Byte and
// int results that leave the int32 range widen to long; `^` always yields a
// double.
func evalNumericInfixExpression(op string, left, right object.Object) object.Object {
	if op == "^" {
		x, _ := object.ToFloat(left)
		y, _ := object.ToFloat(right)
		return &object.Double{Value: math.Pow(x, y)}
	}

	kind := object.Widest(left.Kind(), right.Kind())
	if kind == object.KindDouble {
		x, _ := object.ToFloat(left)
		y, _ := object.ToFloat(right)
		switch op {
		case "+":
			return &object.Double{Value: x + y}
		case "-":
			return &object.Double{Value: x - y}
		case "*":
			return &object.Double{Value: x * y}
		case "/":
			return &object.Double{Value: x / y}
		case "%":
			return &object.Double{Value: math.Mod(x, y)}
		}
		return object.NewError(object.TypeError, "unknown operator: double %s double", op)
	}

	x, _ := object.ToInt64(left)
	y, _ := object.ToInt64(right)
	var r int64
	switch op {
	case "+":
		r = x + y
	case "-":
		r = x - y
	case "*":
		r = x * y
	case "/":
		if y == 0 {
			return object.Raise(object.MathError, "Division by zero")
		}
		r = x / y
	case "%":
		if y == 0 {
			return object.Raise(object.MathError, "Modulo by zero")
		}
		r = x % y
	default:
		return object.NewError(object.TypeError, "unknown operator: %s %s %s", kind.Name(), op, kind.Name())
	}
	if overflows(op, x, y, r) {
		return object.Raise(object.MathError, "long overflow: %d %s %d", x, op, y)
	}
	if kind == object.KindLong {
		return &object.Long{Value: r}
	}
	return object.NewIntegral(r)
}

func (in *Interpreter) evalAssignExpression(node *ast.AssignExpression) object.Object {
	op := ""
	if node.Operator != "=" {
		op = node.Operator[:1]
	}

	switch target := node.Target.(type) {
	case *ast.Identifier:
		var current object.Object
		if op != "" {
			current = in.evalIdentifier(target)
			if isError(current) {
				return current
			}
		}
		val := in.Eval(node.Value)
		if isError(val) {
			return val
		}
		if op != "" {
			val = evalInfixExpression(op, current, val)
			if isError(val) {
				return val
			}
		}
		return in.assign(target.Value, val)

	case *ast.IndexExpression:
		container := in.Eval(target.Left)
		if isError(container) {
			return container
		}
		index := in.Eval(target.Index)
		if isError(index) {
			return index
		}
		var current object.Object
		if op != "" {
			current = evalIndexExpression(container, index)
			if isError(current) {
				return current
			}
		}
		val := in.Eval(node.Value)
		if isError(val) {
			return val
		}
		if op != "" {
			val = evalInfixExpression(op, current, val)
			if isError(val) {
				return val
			}
		}
		if err := setIndex(container, index, val); err != nil {
			return err
		}
		return val

	case *ast.MemberExpression:
		var current object.Object
		if op != "" {
			current = in.evalMemberExpression(target)
			if isError(current) {
				return current
			}
		}
		val := in.Eval(node.Value)
		if isError(val) {
			return val
		}
		if op != "" {
			val = evalInfixExpression(op, current, val)
			if isError(val) {
				return val
			}
		}
		if err := in.setMember(target, val); err != nil {
			return err
		}
		return in.evalMemberExpression(target)
	}
	return object.NewError(object.TypeError, "cannot assign to %s", node.Target.String())
}

// assign mutates the nearest binding of name. A name that is not defined
// anywhere is created in the global frame.
func (in *Interpreter) assign(name string, val object.Object) object.Object {
	if !in.env.Has(name) {
		in.env.DefineGlobal(name, val)
		return val
	}
	if err := in.env.Set(name, val); err != nil {
		return err
	}
	stored, _ := in.env.Get(name)
	return stored
}

// evalPostfixExpression applies ++ or -- and yields the value held before.
func (in *Interpreter) evalPostfixExpression(node *ast.PostfixExpression) object.Object {
	op := node.Operator[:1]
	one := object.NewInteger(1)

	switch target := node.Target.(type) {
	case *ast.Identifier:
		current := in.evalIdentifier(target)
		if isError(current) {
			return current
		}
		next := evalInfixExpression(op, current, one)
		if isError(next) {
			return next
		}
		if res := in.assign(target.Value, next); isError(res) {
			return res
		}
		return current

	case *ast.IndexExpression:
		container := in.Eval(target.Left)
		if isError(container) {
			return container
		}
		index := in.Eval(target.Index)
		if isError(index) {
			return index
		}
		current := evalIndexExpression(container, index)
		if isError(current) {
			return current
		}
		next := evalInfixExpression(op, current, one)
		if isError(next) {
			return next
		}
		if err := setIndex(container, index, next); err != nil {
			return err
		}
		return current

	case *ast.MemberExpression:
		current := in.evalMemberExpression(target)
		if isError(current) {
			return current
		}
		next := evalInfixExpression(op, current, one)
		if isError(next) {
			return next
		}
		if err := in.setMember(target, next); err != nil {
			return err
		}
		return current
	}
	return object.NewError(object.TypeError, "cannot apply %s to %s", node.Operator, node.Target.String())
}

func evalIndexExpression(left, index object.Object) object.Object {
	switch left := left.(type) {
	case *object.Array:
		i, err := intIndex(index)
		if err != nil {
			return err
		}
		v, err := left.Get(i)
		if err != nil {
			return err
		}
		return v
	case *object.String:
		i, err := intIndex(index)
		if err != nil {
			return err
		}
		n := utf8.RuneCountInString(left.Value)
		if i < 0 || i >= n {
			return object.NewError(object.IndexError, "index %d out of bounds for length %d", i, n)
		}
		return &object.String{Value: string([]rune(left.Value)[i])}
	case *object.JSON:
		return evalJSONIndex(left, index)
	}
	return object.NewError(object.TypeError, "index operator not supported: %s", left.Kind().Name())
}

func evalJSONIndex(j *object.JSON, index object.Object) object.Object {
	switch node := j.Value.(type) {
	case map[string]any:
		key, ok := index.(*object.String)
		if !ok {
			return object.NewError(object.TypeError, "json object key must be string, got %s", index.Kind().Name())
		}
		v, found := node[key.Value]
		if !found {
			return object.NULL
		}
		return object.FromNative(v)
	case []any:
		i, err := intIndex(index)
		if err != nil {
			return err
		}
		if i < 0 || i >= len(node) {
			return object.NewError(object.IndexError, "index %d out of bounds for length %d", i, len(node))
		}
		return object.FromNative(node[i])
	}
	return object.NewError(object.TypeError, "json scalar cannot be indexed")
}

func setIndex(container, index, val object.Object) *object.Error {
	switch c := container.(type) {
	case *object.Array:
		i, err := intIndex(index)
		if err != nil {
			return err
		}
		return c.Set(i, val)
	case *object.JSON:
		switch node := c.Value.(type) {
		case map[string]any:
			key, ok := index.(*object.String)
			if !ok {
				return object.NewError(object.TypeError, "json object key must be string, got %s", index.Kind().Name())
			}
			node[key.Value] = object.ToNative(val)
			return nil
		case []any:
			i, err := intIndex(index)
			if err != nil {
				return err
			}
			switch {
			case i == len(node):
				c.Value = append(node, object.ToNative(val))
			case i >= 0 && i < len(node):
				node[i] = object.ToNative(val)
			default:
				return object.NewError(object.IndexError, "index %d out of bounds for length %d", i, len(node))
			}
			return nil
		}
	}
	return object.NewError(object.TypeError, "index assignment not supported: %s", container.Kind().Name())
}

func intIndex(index object.Object) (int, *object.Error) {
	n, ok := object.ToInt64(index)
	if !ok {
		return 0, object.NewError(object.TypeError, "index must be an integer, got %s", index.Kind().Name())
	}
	return int(n), nil
}

// evalPropertyExpression implements the `.length` and `.size` postfix.
func evalPropertyExpression(property string, left object.Object) object.Object {
	switch left := left.(type) {
	case *object.String:
		return object.NewInteger(int32(utf8.RuneCountInString(left.Value)))
	case *object.Array:
		return object.NewInteger(int32(left.Len()))
	case *object.Queue:
		return object.NewInteger(int32(len(left.Items)))
	case *object.JSON:
		return object.NewInteger(int32(left.Size()))
	case *object.Null:
		return object.NewInteger(0)
	}
	return object.NewError(object.TypeError, "%s has no property %s", left.Kind().Name(), property)
}
