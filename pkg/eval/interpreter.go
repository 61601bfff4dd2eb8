// Package eval runs parsed programs against a scoped environment. Builtin
// calls go through a builtins.Dispatcher, and timer callbacks run on the
// goroutine that owns the Interpreter.
package eval

import (
	"context"
	"ebscript/pkg/ast"
	"ebscript/pkg/builtins"
	"ebscript/pkg/env"
	"ebscript/pkg/object"
	"ebscript/pkg/parser"
	"ebscript/pkg/timer"
	"errors"
	"io"
	"log/slog"
	"strings"
)

const DefaultMaxDepth = 512

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithOutput sets the writer used by print.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) { in.out = w }
}

func WithLogger(l *slog.Logger) Option {
	return func(in *Interpreter) { in.logger = l }
}

// WithDispatcher sets the builtin dispatcher. Its context is rewired to the
// interpreter's output, diagnostics and sleep hook.
func WithDispatcher(d *builtins.Dispatcher) Option {
	return func(in *Interpreter) { in.dispatcher = d }
}

// WithScheduler sets the timer scheduler whose ticks the interpreter drains.
func WithScheduler(s *timer.Scheduler) Option {
	return func(in *Interpreter) { in.timers = s }
}

// WithImportDir sets the directory relative imports resolve against.
func WithImportDir(dir string) Option {
	return func(in *Interpreter) { in.importDir = dir }
}

// WithMaxDepth caps nested script function calls.
func WithMaxDepth(n int) Option {
	return func(in *Interpreter) {
		if n > 0 {
			in.maxDepth = n
		}
	}
}

// WithSource names the running script. Timers started without an explicit
// owner are tagged with it.
func WithSource(name string) Option {
	return func(in *Interpreter) { in.source = name }
}

type Interpreter struct {
	env        *env.Environment
	dispatcher *builtins.Dispatcher
	timers     *timer.Scheduler
	out        io.Writer
	logger     *slog.Logger
	importDir  string
	maxDepth   int
	source     string

	ctx      context.Context
	depth    int
	stack    []builtins.StackEntry
	imported map[string]bool
	owners   map[string]map[string]object.Object
}

func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		env:      env.New(),
		maxDepth: DefaultMaxDepth,
		ctx:      context.Background(),
		imported: make(map[string]bool),
		owners:   make(map[string]map[string]object.Object),
	}
	for _, opt := range opts {
		opt(in)
	}

	if in.dispatcher == nil {
		in.dispatcher = builtins.NewDispatcher(builtins.NewContext())
	}
	ctx := in.dispatcher.Context()
	if in.timers != nil {
		ctx.Timers = in.timers
	} else {
		in.timers = ctx.Timers
	}
	if in.out != nil {
		ctx.Out = in.out
	} else {
		in.out = ctx.Out
	}
	if in.logger != nil {
		ctx.Logger = in.logger
	} else {
		in.logger = ctx.Logger
	}
	if in.source != "" {
		ctx.Source = in.source
	}
	ctx.Vars = in.vars
	ctx.Stack = in.callStack
	ctx.Sleep = in.sleep
	return in
}

// Env returns the interpreter's scope stack.
func (in *Interpreter) Env() *env.Environment { return in.env }

func (in *Interpreter) Dispatcher() *builtins.Dispatcher { return in.dispatcher }

func (in *Interpreter) Scheduler() *timer.Scheduler { return in.timers }

// Parse parses src with the builtin registry and the dispatcher's plugin
// table. All diagnostics are joined into the returned error; errors.As
// recovers the first *object.Error.
func (in *Interpreter) Parse(src, source string) (*ast.Program, error) {
	program, diags := in.parse(src, source)
	if len(diags) > 0 {
		errs := make([]error, len(diags))
		for i, d := range diags {
			errs[i] = d
		}
		return nil, errors.Join(errs...)
	}
	return program, nil
}

func (in *Interpreter) parse(src, source string) (*ast.Program, []*object.Error) {
	program, diags := parser.Parse(src,
		parser.WithRegistry(builtins.Registry()),
		parser.WithPlugins(in.dispatcher.Context().Plugins))
	if len(diags) > 0 {
		return nil, diags
	}
	program.Source = source
	return program, nil
}

// Run executes program to completion. An uncaught script error is returned
// as an *object.Error carrying its source line.
func (in *Interpreter) Run(ctx context.Context, program *ast.Program) (object.Object, error) {
	defer in.withContext(ctx)()

	if program.Source != "" {
		dctx := in.dispatcher.Context()
		prev := dctx.Source
		dctx.Source = program.Source
		defer func() { dctx.Source = prev }()
	}

	result := in.Eval(program)
	if err, ok := result.(*object.Error); ok {
		return nil, err
	}
	return result, nil
}

// RunSource parses and runs src in one step.
func (in *Interpreter) RunSource(ctx context.Context, src, source string) (object.Object, error) {
	program, err := in.Parse(src, source)
	if err != nil {
		return nil, err
	}
	return in.Run(ctx, program)
}

func (in *Interpreter) withContext(ctx context.Context) func() {
	prev := in.ctx
	in.ctx = ctx
	return func() { in.ctx = prev }
}

// SetOwnerVars seeds the frame pushed for callbacks of timers tagged with
// owner.
func (in *Interpreter) SetOwnerVars(owner string, vars map[string]object.Object) {
	if vars == nil {
		delete(in.owners, owner)
		return
	}
	in.owners[owner] = vars
}

// Close stops every timer and releases builtin handles.
func (in *Interpreter) Close() {
	in.timers.Close()
	in.dispatcher.Context().Close()
}

// vars backs debug.vars.
func (in *Interpreter) vars() map[string]any {
	snap := in.env.Snapshot()
	out := make(map[string]any, len(snap))
	for name, v := range snap {
		if _, isFn := v.(*Function); isFn {
			continue
		}
		out[name] = object.ToNative(v)
	}
	return out
}

// callStack backs debug.stack, outermost entry first.
func (in *Interpreter) callStack() []builtins.StackEntry {
	return append([]builtins.StackEntry(nil), in.stack...)
}

// enter records a call stack entry and returns the func that removes it.
func (in *Interpreter) enter(kind, name string, line int) func() {
	in.stack = append(in.stack, builtins.StackEntry{Kind: kind, Name: name, Line: line})
	n := len(in.stack)
	return func() { in.stack = in.stack[:n-1] }
}

// interrupted converts a context error into an error no script handler can
// catch.
func (in *Interpreter) interrupted() *object.Error {
	if err := in.ctx.Err(); err != nil {
		return object.NewError(object.InternalError, "execution interrupted: %s", err)
	}
	return nil
}

// Function is a script function closed over the frame it was declared in.
type Function struct {
	Name       string
	Parameters []*ast.Parameter
	ReturnType *ast.TypeSpec
	Body       *ast.BlockStatement
	Env        *env.Frame
}

func (f *Function) Kind() object.Kind { return object.KindFunction }
func (f *Function) Inspect() string {
	params := make([]string, 0, len(f.Parameters))
	for _, p := range f.Parameters {
		params = append(params, p.String())
	}
	return "function " + f.Name + "(" + strings.Join(params, ", ") + ")"
}

func (f *Function) paramIndex(name string) int {
	for i, p := range f.Parameters {
		if p.Name.Value == name {
			return i
		}
	}
	return -1
}
