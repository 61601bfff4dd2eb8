package main

import (
	"ebscript/pkg/ast"
	"fmt"
	"io"
	"sort"
	"strings"
)

type ProgramInsights struct {
	Functions []FunctionInfo
	Builtins  []BuiltinInfo
}

type FunctionInfo struct {
	Name       string
	Parameters []string
	ReturnType string
	Line       int
}

type BuiltinInfo struct {
	Name  string
	Calls int
	Lines []int
}

func analyzeProgram(program *ast.Program) ProgramInsights {
	insights := ProgramInsights{}
	calls := map[string]*BuiltinInfo{}
	walk(program, func(node ast.Node) {
		switch n := node.(type) {
		case *ast.FunctionStatement:
			params := make([]string, 0, len(n.Parameters))
			for _, p := range n.Parameters {
				params = append(params, p.String())
			}
			info := FunctionInfo{Name: n.Name.Value, Parameters: params, Line: n.Line()}
			if n.ReturnType != nil {
				info.ReturnType = n.ReturnType.String()
			}
			insights.Functions = append(insights.Functions, info)
		case *ast.CallExpression:
			if !n.Builtin {
				return
			}
			b, ok := calls[n.Function.Value]
			if !ok {
				b = &BuiltinInfo{Name: n.Function.Value}
				calls[n.Function.Value] = b
			}
			b.Calls++
			b.Lines = append(b.Lines, n.Line())
		}
	})
	for _, b := range calls {
		insights.Builtins = append(insights.Builtins, *b)
	}
	sort.Slice(insights.Builtins, func(i, j int) bool {
		return insights.Builtins[i].Name < insights.Builtins[j].Name
	})
	return insights
}

func walk(node ast.Node, visitor func(ast.Node)) {
	if node == nil {
		return
	}

	visitor(node)

	switch n := node.(type) {
	case *ast.Program:
		for _, stmt := range n.Statements {
			walk(stmt, visitor)
		}
	case *ast.BlockStatement:
		for _, stmt := range n.Statements {
			walk(stmt, visitor)
		}
	case *ast.ExpressionStatement:
		walkExpr(n.Expression, visitor)
	case *ast.ReturnStatement:
		walkExpr(n.ReturnValue, visitor)
	case *ast.VarStatement:
		walkExpr(n.Value, visitor)
	case *ast.FunctionStatement:
		for _, p := range n.Parameters {
			walkExpr(p.Default, visitor)
		}
		walk(n.Body, visitor)
	case *ast.PrintStatement:
		walkExpr(n.Value, visitor)
	case *ast.CallStatement:
		walk(n.Call, visitor)
	case *ast.IfStatement:
		walkExpr(n.Condition, visitor)
		walk(n.Consequence, visitor)
		if n.Alternative != nil {
			walk(n.Alternative, visitor)
		}
	case *ast.WhileStatement:
		walkExpr(n.Condition, visitor)
		walk(n.Body, visitor)
	case *ast.DoWhileStatement:
		walk(n.Body, visitor)
		walkExpr(n.Condition, visitor)
	case *ast.ForStatement:
		if n.Init != nil {
			walk(n.Init, visitor)
		}
		walkExpr(n.Condition, visitor)
		walkExpr(n.Update, visitor)
		walk(n.Body, visitor)
	case *ast.ForEachStatement:
		walkExpr(n.Iterable, visitor)
		walk(n.Body, visitor)
	case *ast.TryStatement:
		walk(n.Body, visitor)
		for _, h := range n.Handlers {
			walk(h.Body, visitor)
		}
	case *ast.RaiseStatement:
		for _, arg := range n.Arguments {
			walkExpr(arg, visitor)
		}
	case *ast.PrefixExpression:
		walkExpr(n.Right, visitor)
	case *ast.InfixExpression:
		walkExpr(n.Left, visitor)
		walkExpr(n.Right, visitor)
	case *ast.AssignExpression:
		walkExpr(n.Target, visitor)
		walkExpr(n.Value, visitor)
	case *ast.PostfixExpression:
		walkExpr(n.Target, visitor)
	case *ast.IndexExpression:
		walkExpr(n.Left, visitor)
		walkExpr(n.Index, visitor)
	case *ast.PropertyExpression:
		walkExpr(n.Left, visitor)
	case *ast.TypeofExpression:
		walkExpr(n.Value, visitor)
	case *ast.CallExpression:
		for _, arg := range n.Arguments {
			walkExpr(arg, visitor)
		}
	case *ast.ArrayLiteral:
		for _, e := range n.Elements {
			walkExpr(e, visitor)
		}
	case *ast.JSONLiteral:
		for _, p := range n.Pairs {
			walkExpr(p.Value, visitor)
		}
	}
}

// walkExpr skips nil expressions, which would otherwise reach walk as a
// non-nil interface holding a nil pointer.
func walkExpr(e ast.Expression, visitor func(ast.Node)) {
	if e != nil {
		walk(e, visitor)
	}
}

func printFunctionInsights(w io.Writer, functions []FunctionInfo) {
	fmt.Fprintf(w, "Functions (%d)\n", len(functions))
	if len(functions) == 0 {
		fmt.Fprintln(w, "  · No function definitions found.")
		return
	}

	for _, fn := range functions {
		sig := fmt.Sprintf("%s(%s)", fn.Name, strings.Join(fn.Parameters, ", "))
		if fn.ReturnType != "" {
			sig += " return " + fn.ReturnType
		}
		fmt.Fprintf(w, "  · line %d: %s\n", fn.Line, sig)
	}
}

func printBuiltinInsights(w io.Writer, calls []BuiltinInfo) {
	fmt.Fprintf(w, "Builtin calls (%d)\n", len(calls))
	if len(calls) == 0 {
		fmt.Fprintln(w, "  · No builtin calls found.")
		return
	}

	for _, b := range calls {
		lines := make([]string, len(b.Lines))
		for i, l := range b.Lines {
			lines[i] = fmt.Sprint(l)
		}
		fmt.Fprintf(w, "  · %s ×%d (lines %s)\n", b.Name, b.Calls, strings.Join(lines, ", "))
	}
}
