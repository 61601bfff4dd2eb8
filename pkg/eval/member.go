package eval

import (
	"ebscript/pkg/ast"
	"ebscript/pkg/object"
)

// Member access reads and writes fields of a json variable by a dotted path.
// Identifiers are lowercased by the lexer, so path segments match stored
// keys case-insensitively. A key that does not exist yet is created in
// lower case.

func (in *Interpreter) memberBase(node *ast.MemberExpression) (*object.JSON, *object.Error) {
	val, err := in.env.Get(node.Object.Value)
	if err != nil {
		return nil, err.AtLine(node.Line())
	}
	j, ok := val.(*object.JSON)
	if !ok {
		return nil, newTypeError(node.Line(), "%s is %s and has no field '%s'",
			node.Object.Value, val.Kind().Name(), node.Path[0])
	}
	return j, nil
}

func (in *Interpreter) evalMemberExpression(node *ast.MemberExpression) object.Object {
	j, err := in.memberBase(node)
	if err != nil {
		return err
	}
	cur := j.Value
	for i, name := range node.Path {
		if cur == nil {
			return object.NULL
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return newTypeError(node.Line(), "%s is not a json object", memberPrefix(node, i))
		}
		key, found := object.LookupKey(m, name)
		if !found {
			return object.NULL
		}
		cur = m[key]
	}
	return object.FromNative(cur)
}

// setMember stores val at the member path. When the variable carries a
// record or map shape the update is applied to a copy, checked, and only
// then made visible, so a rejected assignment leaves the value unchanged.
func (in *Interpreter) setMember(node *ast.MemberExpression, val object.Object) *object.Error {
	j, err := in.memberBase(node)
	if err != nil {
		return err
	}
	shape := in.env.ShapeOf(node.Object.Value)
	root := j.Value
	if shape != nil {
		root = object.CloneNative(root)
	}
	if err := setPath(root, node, object.ToNative(val)); err != nil {
		return err
	}
	if shape == nil {
		return nil
	}
	cv, err := shape.Conform(&object.JSON{Value: root})
	if err != nil {
		return err.AtLine(node.Line())
	}
	j.Value = object.ToNative(cv)
	return nil
}

func setPath(root any, node *ast.MemberExpression, v any) *object.Error {
	m, ok := root.(map[string]any)
	if !ok {
		return newTypeError(node.Line(), "%s is not a json object", node.Object.Value)
	}
	last := len(node.Path) - 1
	for i, name := range node.Path[:last] {
		key, _ := object.LookupKey(m, name)
		next, ok := m[key].(map[string]any)
		if !ok {
			if m[key] != nil {
				return newTypeError(node.Line(), "%s is not a json object", memberPrefix(node, i+1))
			}
			next = map[string]any{}
			m[key] = next
		}
		m = next
	}
	key, _ := object.LookupKey(m, node.Path[last])
	m[key] = v
	return nil
}

// memberPrefix renders the first n path segments of node.
func memberPrefix(node *ast.MemberExpression, n int) string {
	s := node.Object.Value
	for _, p := range node.Path[:n] {
		s += "." + p
	}
	return s
}
