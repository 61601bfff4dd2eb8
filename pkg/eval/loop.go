package eval

import (
	"ebscript/pkg/ast"
	"ebscript/pkg/object"
	"sort"
)

// loopControl interprets the result of one loop body run. done reports that
// the loop must stop and hand result to its caller.
func loopControl(result object.Object) (out object.Object, brk, done bool) {
	switch result.Kind() {
	case object.KindBreak:
		return nil, true, false
	case object.KindReturnValue, object.KindError:
		return result, false, true
	}
	return nil, false, false
}

func (in *Interpreter) evalWhileStatement(ws *ast.WhileStatement) object.Object {
	defer in.enter("loop", "while", ws.Line())()
	for {
		if err := in.interrupted(); err != nil {
			return err
		}
		cond, err := in.evalCondition(ws.Condition)
		if err != nil {
			return err
		}
		if !cond {
			return object.NULL
		}
		out, brk, done := loopControl(in.evalBlockStatement(ws.Body))
		if done {
			return out
		}
		if brk {
			return object.NULL
		}
	}
}

func (in *Interpreter) evalDoWhileStatement(ds *ast.DoWhileStatement) object.Object {
	defer in.enter("loop", "do", ds.Line())()
	for {
		if err := in.interrupted(); err != nil {
			return err
		}
		out, brk, done := loopControl(in.evalBlockStatement(ds.Body))
		if done {
			return out
		}
		if brk {
			return object.NULL
		}
		cond, err := in.evalCondition(ds.Condition)
		if err != nil {
			return err
		}
		if !cond {
			return object.NULL
		}
	}
}

// evalForStatement runs a C-style loop. The init clause lives in a frame of
// its own that encloses every iteration.
func (in *Interpreter) evalForStatement(fs *ast.ForStatement) object.Object {
	defer in.enter("loop", "for", fs.Line())()
	in.env.Push()
	defer in.env.Pop()

	if fs.Init != nil {
		if init := in.Eval(fs.Init); isError(init) {
			return init
		}
	}
	for {
		if err := in.interrupted(); err != nil {
			return err
		}
		if fs.Condition != nil {
			cond, err := in.evalCondition(fs.Condition)
			if err != nil {
				return err
			}
			if !cond {
				return object.NULL
			}
		}
		out, brk, done := loopControl(in.evalBlockStatement(fs.Body))
		if done {
			return out
		}
		if brk {
			return object.NULL
		}
		if fs.Update != nil {
			if upd := in.Eval(fs.Update); isError(upd) {
				return upd
			}
		}
	}
}

// evalForEachStatement iterates arrays, JSON lists and maps (by sorted key),
// queues and the characters of a string. The sequence is captured before the
// first iteration.
func (in *Interpreter) evalForEachStatement(fs *ast.ForEachStatement) object.Object {
	defer in.enter("loop", "foreach", fs.Line())()

	iterable := in.Eval(fs.Iterable)
	if isError(iterable) {
		return iterable
	}
	items, err := iterate(iterable)
	if err != nil {
		return err.AtLine(fs.Line())
	}

	for _, item := range items {
		if err := in.interrupted(); err != nil {
			return err
		}
		result := in.evalIteration(fs, item)
		out, brk, done := loopControl(result)
		if done {
			return out
		}
		if brk {
			break
		}
	}
	return object.NULL
}

func (in *Interpreter) evalIteration(fs *ast.ForEachStatement, item object.Object) object.Object {
	in.env.Push()
	defer in.env.Pop()
	in.env.Define(fs.Variable.Value, item)
	return in.evalStatements(fs.Body.Statements)
}

func iterate(v object.Object) ([]object.Object, *object.Error) {
	switch v := v.(type) {
	case *object.Array:
		return v.Elements(), nil
	case *object.Queue:
		return append([]object.Object(nil), v.Items...), nil
	case *object.String:
		var out []object.Object
		for _, r := range v.Value {
			out = append(out, &object.String{Value: string(r)})
		}
		return out, nil
	case *object.JSON:
		switch node := v.Value.(type) {
		case []any:
			out := make([]object.Object, len(node))
			for i, e := range node {
				out[i] = object.FromNative(e)
			}
			return out, nil
		case map[string]any:
			keys := make([]string, 0, len(node))
			for k := range node {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			out := make([]object.Object, len(keys))
			for i, k := range keys {
				out[i] = &object.String{Value: k}
			}
			return out, nil
		}
	case *object.Null:
		return nil, nil
	}
	return nil, object.NewError(object.TypeError, "cannot iterate over %s", v.Kind().Name())
}
