package ast

import (
	"bytes"
	"ebscript/pkg/token"
	"fmt"
	"strings"
	"time"
)

type Node interface {
	TokenLiteral() string
	String() string
	Line() int
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

type Program struct {
	Statements []Statement
	// Source names the unit the program was parsed from, empty for inline code.
	Source string
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) Line() int {
	if len(p.Statements) > 0 {
		return p.Statements[0].Line()
	}
	return 0
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// TypeSpec is a declared type such as `int`, `string[5]`, `double[*]`,
// `array.int[3, 4]`, `sorted map` or `record {id: int}`.
type TypeSpec struct {
	Token  token.Token
	Name   string // canonical element type name
	Array  bool
	Dims   []Expression // one entry per dimension, nil for a dynamic one
	Sorted bool         // `sorted map`
	Fields []*FieldSpec // record fields, in declaration order
}

// FieldSpec is one record field with its constraints.
type FieldSpec struct {
	Name      string
	Type      *TypeSpec
	Mandatory bool
	MaxLength int        // zero when unlimited
	Default   Expression // nil when none
}

func (fs *FieldSpec) String() string {
	var out strings.Builder
	out.WriteString(fs.Name + ": " + fs.Type.String())
	if fs.Mandatory {
		out.WriteString(" mandatory")
	}
	if fs.MaxLength > 0 {
		fmt.Fprintf(&out, " maxlength %d", fs.MaxLength)
	}
	if fs.Default != nil {
		out.WriteString(" default " + fs.Default.String())
	}
	return out.String()
}

func (ts *TypeSpec) String() string {
	if ts == nil {
		return ""
	}
	name := ts.Name
	switch {
	case ts.Name == "record":
		fields := make([]string, len(ts.Fields))
		for i, f := range ts.Fields {
			fields[i] = f.String()
		}
		name = "record {" + strings.Join(fields, ", ") + "}"
	case ts.Sorted:
		name = "sorted " + name
	}
	if !ts.Array {
		return name
	}
	if ts.Name == "record" && ts.Dims == nil {
		return "array." + name
	}
	dims := []string{}
	for _, d := range ts.Dims {
		if d == nil {
			dims = append(dims, "*")
			continue
		}
		dims = append(dims, d.String())
	}
	return name + "[" + strings.Join(dims, ", ") + "]"
}

// Statements

type VarStatement struct {
	Token token.Token // 'var' or 'const'
	Name  *Identifier
	Type  *TypeSpec // nil when untyped
	Value Expression
	Const bool
}

func (vs *VarStatement) statementNode()       {}
func (vs *VarStatement) TokenLiteral() string { return vs.Token.Literal }
func (vs *VarStatement) Line() int            { return vs.Token.Line }
func (vs *VarStatement) String() string {
	var out bytes.Buffer
	if vs.Const {
		out.WriteString("const ")
	} else {
		out.WriteString("var ")
	}
	out.WriteString(vs.Name.String())
	if vs.Type != nil {
		out.WriteString(": " + vs.Type.String())
	}
	if vs.Value != nil {
		out.WriteString(" = " + vs.Value.String())
	}
	out.WriteString(";")
	return out.String()
}

// TypedefStatement names a type: `person typeof record {id: int}`.
type TypedefStatement struct {
	Token token.Token // the alias name
	Name  *Identifier
	Type  *TypeSpec
}

func (ts *TypedefStatement) statementNode()       {}
func (ts *TypedefStatement) TokenLiteral() string { return ts.Token.Literal }
func (ts *TypedefStatement) Line() int            { return ts.Token.Line }
func (ts *TypedefStatement) String() string {
	return ts.Name.String() + " typeof " + ts.Type.String() + ";"
}

type ReturnStatement struct {
	Token       token.Token // the 'return' token
	ReturnValue Expression
}

func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *ReturnStatement) Line() int            { return rs.Token.Line }
func (rs *ReturnStatement) String() string {
	var out bytes.Buffer
	out.WriteString(rs.TokenLiteral())
	if rs.ReturnValue != nil {
		out.WriteString(" " + rs.ReturnValue.String())
	}
	out.WriteString(";")
	return out.String()
}

type ExpressionStatement struct {
	Token      token.Token // the first token of the expression
	Expression Expression
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpressionStatement) Line() int            { return es.Token.Line }
func (es *ExpressionStatement) String() string {
	if es.Expression != nil {
		return es.Expression.String() + ";"
	}
	return ""
}

type Parameter struct {
	Name    *Identifier
	Type    *TypeSpec
	Default Expression
}

func (p *Parameter) String() string {
	s := p.Name.String()
	if p.Type != nil {
		s += ": " + p.Type.String()
	}
	if p.Default != nil {
		s += " = " + p.Default.String()
	}
	return s
}

type FunctionStatement struct {
	Token      token.Token // 'function'
	Name       *Identifier
	Parameters []*Parameter
	ReturnType *TypeSpec
	Body       *BlockStatement
}

func (fs *FunctionStatement) statementNode()       {}
func (fs *FunctionStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *FunctionStatement) Line() int            { return fs.Token.Line }
func (fs *FunctionStatement) String() string {
	var out bytes.Buffer
	out.WriteString("function ")
	out.WriteString(fs.Name.String())
	out.WriteString("(")
	params := []string{}
	for _, p := range fs.Parameters {
		params = append(params, p.String())
	}
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(")")
	if fs.ReturnType != nil {
		out.WriteString(" return " + fs.ReturnType.String())
	}
	out.WriteString(" ")
	out.WriteString(fs.Body.String())
	return out.String()
}

type BlockStatement struct {
	Token      token.Token // '{'
	Statements []Statement
}

func (bs *BlockStatement) statementNode()       {}
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BlockStatement) Line() int            { return bs.Token.Line }
func (bs *BlockStatement) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, s := range bs.Statements {
		out.WriteString(s.String() + " ")
	}
	out.WriteString("}")
	return out.String()
}

type IfStatement struct {
	Token       token.Token // 'if'
	Condition   Expression
	Consequence Statement
	Alternative Statement // nil, a block, or a nested if
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) Line() int            { return is.Token.Line }
func (is *IfStatement) String() string {
	var out bytes.Buffer
	out.WriteString("if (" + is.Condition.String() + ") ")
	out.WriteString(is.Consequence.String())
	if is.Alternative != nil {
		out.WriteString(" else " + is.Alternative.String())
	}
	return out.String()
}

type WhileStatement struct {
	Token     token.Token // 'while'
	Condition Expression
	Body      *BlockStatement
}

func (ws *WhileStatement) statementNode()       {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Literal }
func (ws *WhileStatement) Line() int            { return ws.Token.Line }
func (ws *WhileStatement) String() string {
	return "while (" + ws.Condition.String() + ") " + ws.Body.String()
}

type DoWhileStatement struct {
	Token     token.Token // 'do'
	Body      *BlockStatement
	Condition Expression
}

func (ds *DoWhileStatement) statementNode()       {}
func (ds *DoWhileStatement) TokenLiteral() string { return ds.Token.Literal }
func (ds *DoWhileStatement) Line() int            { return ds.Token.Line }
func (ds *DoWhileStatement) String() string {
	return "do " + ds.Body.String() + " while (" + ds.Condition.String() + ");"
}

type ForStatement struct {
	Token     token.Token // 'for'
	Init      Statement   // may be nil
	Condition Expression  // may be nil
	Update    Expression  // may be nil
	Body      *BlockStatement
}

func (fs *ForStatement) statementNode()       {}
func (fs *ForStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForStatement) Line() int            { return fs.Token.Line }
func (fs *ForStatement) String() string {
	var out bytes.Buffer
	out.WriteString("for (")
	if fs.Init != nil {
		out.WriteString(strings.TrimSuffix(fs.Init.String(), ";"))
	}
	out.WriteString("; ")
	if fs.Condition != nil {
		out.WriteString(fs.Condition.String())
	}
	out.WriteString("; ")
	if fs.Update != nil {
		out.WriteString(fs.Update.String())
	}
	out.WriteString(") ")
	out.WriteString(fs.Body.String())
	return out.String()
}

type ForEachStatement struct {
	Token    token.Token // 'foreach'
	Variable *Identifier
	Iterable Expression
	Body     *BlockStatement
}

func (fs *ForEachStatement) statementNode()       {}
func (fs *ForEachStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForEachStatement) Line() int            { return fs.Token.Line }
func (fs *ForEachStatement) String() string {
	return "foreach " + fs.Variable.String() + " in " + fs.Iterable.String() + " " + fs.Body.String()
}

type BreakStatement struct {
	Token token.Token
}

func (bs *BreakStatement) statementNode()       {}
func (bs *BreakStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BreakStatement) Line() int            { return bs.Token.Line }
func (bs *BreakStatement) String() string       { return "break;" }

type ContinueStatement struct {
	Token token.Token
}

func (cs *ContinueStatement) statementNode()       {}
func (cs *ContinueStatement) TokenLiteral() string { return cs.Token.Literal }
func (cs *ContinueStatement) Line() int            { return cs.Token.Line }
func (cs *ContinueStatement) String() string       { return "continue;" }

type PrintStatement struct {
	Token token.Token // 'print'
	Value Expression
}

func (ps *PrintStatement) statementNode()       {}
func (ps *PrintStatement) TokenLiteral() string { return ps.Token.Literal }
func (ps *PrintStatement) Line() int            { return ps.Token.Line }
func (ps *PrintStatement) String() string {
	return "print " + ps.Value.String() + ";"
}

// CallStatement is `call name(args);`, a call whose result is discarded.
type CallStatement struct {
	Token token.Token // 'call'
	Call  *CallExpression
}

func (cs *CallStatement) statementNode()       {}
func (cs *CallStatement) TokenLiteral() string { return cs.Token.Literal }
func (cs *CallStatement) Line() int            { return cs.Token.Line }
func (cs *CallStatement) String() string {
	return "call " + cs.Call.String() + ";"
}

type ExceptionHandler struct {
	Token     token.Token // 'when'
	ErrorType string      // upper-cased category, e.g. TYPE_ERROR
	Variable  *Identifier // may be nil
	Body      *BlockStatement
}

func (h *ExceptionHandler) String() string {
	s := "when " + h.ErrorType
	if h.Variable != nil {
		s += "(" + h.Variable.String() + ")"
	}
	return s + " " + h.Body.String()
}

type TryStatement struct {
	Token    token.Token // 'try'
	Body     *BlockStatement
	Handlers []*ExceptionHandler
}

func (ts *TryStatement) statementNode()       {}
func (ts *TryStatement) TokenLiteral() string { return ts.Token.Literal }
func (ts *TryStatement) Line() int            { return ts.Token.Line }
func (ts *TryStatement) String() string {
	var out bytes.Buffer
	out.WriteString("try " + ts.Body.String() + " exceptions { ")
	for _, h := range ts.Handlers {
		out.WriteString(h.String() + " ")
	}
	out.WriteString("}")
	return out.String()
}

type RaiseStatement struct {
	Token     token.Token // 'raise'
	ErrorType string
	Arguments []Expression
}

func (rs *RaiseStatement) statementNode()       {}
func (rs *RaiseStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *RaiseStatement) Line() int            { return rs.Token.Line }
func (rs *RaiseStatement) String() string {
	args := []string{}
	for _, a := range rs.Arguments {
		args = append(args, a.String())
	}
	return "raise exception " + rs.ErrorType + "(" + strings.Join(args, ", ") + ");"
}

type ImportStatement struct {
	Token token.Token // 'import'
	Path  string
}

func (is *ImportStatement) statementNode()       {}
func (is *ImportStatement) TokenLiteral() string { return is.Token.Literal }
func (is *ImportStatement) Line() int            { return is.Token.Line }
func (is *ImportStatement) String() string       { return fmt.Sprintf("import %q;", is.Path) }

// Expressions

type Identifier struct {
	Token token.Token // the token.IDENT token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) Line() int            { return i.Token.Line }
func (i *Identifier) String() string       { return i.Value }

type IntegerLiteral struct {
	Token token.Token
	Value int32
}

func (il *IntegerLiteral) expressionNode()      {}
func (il *IntegerLiteral) TokenLiteral() string { return il.Token.Literal }
func (il *IntegerLiteral) Line() int            { return il.Token.Line }
func (il *IntegerLiteral) String() string       { return il.Token.Literal }

type LongLiteral struct {
	Token token.Token
	Value int64
}

func (ll *LongLiteral) expressionNode()      {}
func (ll *LongLiteral) TokenLiteral() string { return ll.Token.Literal }
func (ll *LongLiteral) Line() int            { return ll.Token.Line }
func (ll *LongLiteral) String() string       { return ll.Token.Literal + "L" }

type DoubleLiteral struct {
	Token token.Token
	Value float64
}

func (dl *DoubleLiteral) expressionNode()      {}
func (dl *DoubleLiteral) TokenLiteral() string { return dl.Token.Literal }
func (dl *DoubleLiteral) Line() int            { return dl.Token.Line }
func (dl *DoubleLiteral) String() string       { return dl.Token.Literal }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) Line() int            { return sl.Token.Line }
func (sl *StringLiteral) String() string       { return fmt.Sprintf("%q", sl.Value) }

type DateLiteral struct {
	Token token.Token
	Value time.Time
}

func (dl *DateLiteral) expressionNode()      {}
func (dl *DateLiteral) TokenLiteral() string { return dl.Token.Literal }
func (dl *DateLiteral) Line() int            { return dl.Token.Line }
func (dl *DateLiteral) String() string       { return fmt.Sprintf("%q", dl.Token.Literal) }

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (b *BooleanLiteral) expressionNode()      {}
func (b *BooleanLiteral) TokenLiteral() string { return b.Token.Literal }
func (b *BooleanLiteral) Line() int            { return b.Token.Line }
func (b *BooleanLiteral) String() string       { return fmt.Sprintf("%t", b.Value) }

type NullLiteral struct {
	Token token.Token
}

func (n *NullLiteral) expressionNode()      {}
func (n *NullLiteral) TokenLiteral() string { return n.Token.Literal }
func (n *NullLiteral) Line() int            { return n.Token.Line }
func (n *NullLiteral) String() string       { return "null" }

type ArrayLiteral struct {
	Token    token.Token // '['
	Elements []Expression
}

func (al *ArrayLiteral) expressionNode()      {}
func (al *ArrayLiteral) TokenLiteral() string { return al.Token.Literal }
func (al *ArrayLiteral) Line() int            { return al.Token.Line }
func (al *ArrayLiteral) String() string {
	elements := []string{}
	for _, el := range al.Elements {
		elements = append(elements, el.String())
	}
	return "[" + strings.Join(elements, ", ") + "]"
}

type JSONPair struct {
	Key   string
	Value Expression
}

// JSONLiteral is a `{"key": value}` object literal. Pairs keep source order.
type JSONLiteral struct {
	Token token.Token // '{'
	Pairs []JSONPair
}

func (jl *JSONLiteral) expressionNode()      {}
func (jl *JSONLiteral) TokenLiteral() string { return jl.Token.Literal }
func (jl *JSONLiteral) Line() int            { return jl.Token.Line }
func (jl *JSONLiteral) String() string {
	pairs := []string{}
	for _, p := range jl.Pairs {
		pairs = append(pairs, fmt.Sprintf("%q: %s", p.Key, p.Value.String()))
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

type PrefixExpression struct {
	Token    token.Token // The prefix token, e.g. ! or -
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PrefixExpression) Line() int            { return pe.Token.Line }
func (pe *PrefixExpression) String() string {
	return "(" + pe.Operator + pe.Right.String() + ")"
}

type InfixExpression struct {
	Token    token.Token // The operator token, e.g. +
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) Line() int            { return ie.Token.Line }
func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Operator + " " + ie.Right.String() + ")"
}

// AssignExpression covers `=` and the compound forms `+= -= *= /=`. The
// target is an Identifier or an IndexExpression.
type AssignExpression struct {
	Token    token.Token
	Target   Expression
	Operator string
	Value    Expression
}

func (ae *AssignExpression) expressionNode()      {}
func (ae *AssignExpression) TokenLiteral() string { return ae.Token.Literal }
func (ae *AssignExpression) Line() int            { return ae.Token.Line }
func (ae *AssignExpression) String() string {
	return ae.Target.String() + " " + ae.Operator + " " + ae.Value.String()
}

type PostfixExpression struct {
	Token    token.Token // ++ or --
	Target   Expression
	Operator string
}

func (pe *PostfixExpression) expressionNode()      {}
func (pe *PostfixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PostfixExpression) Line() int            { return pe.Token.Line }
func (pe *PostfixExpression) String() string {
	return "(" + pe.Target.String() + pe.Operator + ")"
}

type IndexExpression struct {
	Token token.Token // '['
	Left  Expression
	Index Expression
}

func (ie *IndexExpression) expressionNode()      {}
func (ie *IndexExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *IndexExpression) Line() int            { return ie.Token.Line }
func (ie *IndexExpression) String() string {
	return "(" + ie.Left.String() + "[" + ie.Index.String() + "])"
}

// PropertyExpression is the `.length` / `.size` postfix.
type PropertyExpression struct {
	Token    token.Token // '.'
	Left     Expression
	Property string
}

func (pe *PropertyExpression) expressionNode()      {}
func (pe *PropertyExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PropertyExpression) Line() int            { return pe.Token.Line }
func (pe *PropertyExpression) String() string {
	return pe.Left.String() + "." + pe.Property
}

// MemberExpression reads a field of a json value: `j.name.first`.
type MemberExpression struct {
	Token  token.Token // the dotted identifier
	Object *Identifier
	Path   []string
}

func (me *MemberExpression) expressionNode()      {}
func (me *MemberExpression) TokenLiteral() string { return me.Token.Literal }
func (me *MemberExpression) Line() int            { return me.Token.Line }
func (me *MemberExpression) String() string {
	return me.Object.String() + "." + strings.Join(me.Path, ".")
}

type CallExpression struct {
	Token     token.Token // '(' token
	Function  *Identifier
	Arguments []Expression
	// Names holds the parameter name for each argument of a named call and
	// is nil for positional calls.
	Names []string
	// Builtin is set when the parser resolved Function against the builtin
	// registry. ReturnType is the registered return type name, empty for
	// builtins that return nothing.
	Builtin    bool
	ReturnType string
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpression) Line() int            { return ce.Token.Line }
func (ce *CallExpression) String() string {
	var out bytes.Buffer
	args := []string{}
	for i, a := range ce.Arguments {
		if ce.Names != nil {
			args = append(args, ce.Names[i]+" = "+a.String())
			continue
		}
		args = append(args, a.String())
	}
	out.WriteString(ce.Function.String())
	out.WriteString("(")
	out.WriteString(strings.Join(args, ", "))
	out.WriteString(")")
	return out.String()
}

type TypeofExpression struct {
	Token token.Token // 'typeof'
	Value Expression
}

func (te *TypeofExpression) expressionNode()      {}
func (te *TypeofExpression) TokenLiteral() string { return te.Token.Literal }
func (te *TypeofExpression) Line() int            { return te.Token.Line }
func (te *TypeofExpression) String() string       { return "typeof " + te.Value.String() }

// Walk calls fn for node and every node below it in source order. Walking
// stops descending into a subtree when fn returns false.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	switch n := node.(type) {
	case *Program:
		for _, s := range n.Statements {
			Walk(s, fn)
		}
	case *BlockStatement:
		for _, s := range n.Statements {
			Walk(s, fn)
		}
	case *VarStatement:
		walkExpr(n.Value, fn)
	case *FunctionStatement:
		for _, p := range n.Parameters {
			walkExpr(p.Default, fn)
		}
		Walk(n.Body, fn)
	case *IfStatement:
		walkExpr(n.Condition, fn)
		Walk(n.Consequence, fn)
		if n.Alternative != nil {
			Walk(n.Alternative, fn)
		}
	case *WhileStatement:
		walkExpr(n.Condition, fn)
		Walk(n.Body, fn)
	case *DoWhileStatement:
		Walk(n.Body, fn)
		walkExpr(n.Condition, fn)
	case *ForStatement:
		if n.Init != nil {
			Walk(n.Init, fn)
		}
		walkExpr(n.Condition, fn)
		walkExpr(n.Update, fn)
		Walk(n.Body, fn)
	case *ForEachStatement:
		walkExpr(n.Iterable, fn)
		Walk(n.Body, fn)
	case *ReturnStatement:
		walkExpr(n.ReturnValue, fn)
	case *PrintStatement:
		walkExpr(n.Value, fn)
	case *CallStatement:
		Walk(n.Call, fn)
	case *TryStatement:
		Walk(n.Body, fn)
		for _, h := range n.Handlers {
			Walk(h.Body, fn)
		}
	case *RaiseStatement:
		for _, a := range n.Arguments {
			walkExpr(a, fn)
		}
	case *ExpressionStatement:
		walkExpr(n.Expression, fn)
	case *ArrayLiteral:
		for _, e := range n.Elements {
			walkExpr(e, fn)
		}
	case *JSONLiteral:
		for _, p := range n.Pairs {
			walkExpr(p.Value, fn)
		}
	case *PrefixExpression:
		walkExpr(n.Right, fn)
	case *InfixExpression:
		walkExpr(n.Left, fn)
		walkExpr(n.Right, fn)
	case *AssignExpression:
		walkExpr(n.Target, fn)
		walkExpr(n.Value, fn)
	case *PostfixExpression:
		walkExpr(n.Target, fn)
	case *IndexExpression:
		walkExpr(n.Left, fn)
		walkExpr(n.Index, fn)
	case *PropertyExpression:
		walkExpr(n.Left, fn)
	case *MemberExpression:
		walkExpr(n.Object, fn)
	case *CallExpression:
		for _, a := range n.Arguments {
			walkExpr(a, fn)
		}
	case *TypeofExpression:
		walkExpr(n.Value, fn)
	}
}

func walkExpr(e Expression, fn func(Node) bool) {
	if e != nil {
		Walk(e, fn)
	}
}
