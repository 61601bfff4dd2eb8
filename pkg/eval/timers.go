package eval

import (
	"context"
	"ebscript/pkg/object"
	"ebscript/pkg/timer"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// idlePoll bounds how long RunLoop waits before rechecking whether any timer
// is still running.
const idlePoll = 100 * time.Millisecond

// Pump runs the ticks already queued when it is called and returns how many
// ran. It never blocks.
func (in *Interpreter) Pump() int {
	ticks := in.timers.Ticks()
	n := 0
	for pending := len(ticks); pending > 0; pending-- {
		select {
		case t := <-ticks:
			in.runTick(t)
			n++
		default:
			return n
		}
	}
	return n
}

// RunLoop drains timer ticks until ctx is done or no running timer remains.
// Ticks posted before the last timer stopped still run.
func (in *Interpreter) RunLoop(ctx context.Context) error {
	defer in.withContext(ctx)()

	ticks := in.timers.Ticks()
	idle := time.NewTicker(idlePoll)
	defer idle.Stop()
	for {
		if in.timers.Running() == 0 {
			in.Pump()
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-ticks:
			in.runTick(t)
		case <-idle.C:
		}
	}
}

// sleep backs thread.sleep. It keeps running callbacks while it waits.
func (in *Interpreter) sleep(d time.Duration) error {
	wait := time.NewTimer(d)
	defer wait.Stop()

	ticks := in.timers.Ticks()
	for {
		select {
		case <-wait.C:
			return nil
		case <-in.ctx.Done():
			return in.interrupted()
		case t := <-ticks:
			in.runTick(t)
		}
	}
}

func (in *Interpreter) runTick(t timer.Tick) {
	err := in.execTick(t)
	if err == nil {
		return
	}
	in.logger.Error(
		fmt.Sprintf("Error executing timer callback '%s' for timer '%s': %s", callbackName(t.Callback), t.Name, err.Message),
		slog.String("timer", t.Name),
		slog.Int64("fire", t.Fire),
		slog.String("owner", t.Owner),
		slog.Int("line", err.Line),
	)
}

// execTick runs one callback against the global frame. The owner's variables
// are seeded into a frame between the callback's closure and its locals.
func (in *Interpreter) execTick(t timer.Tick) *object.Error {
	saved := in.env
	in.env = saved.Detach()
	defer func() { in.env = saved }()

	fn, err := in.resolveCallback(t.Callback)
	if err != nil {
		return err
	}

	seed := in.env.PushFrom(fn.Env)
	defer in.env.Pop()
	for name, v := range in.owners[t.Owner] {
		in.env.Define(name, v)
	}

	var args []object.Object
	if len(fn.Parameters) > 0 {
		args = []object.Object{&object.String{Value: t.Name}}
	}
	result := in.applyFunction(fn, seed, args, nil, 0)
	if e, ok := result.(*object.Error); ok {
		return e
	}
	return nil
}

// resolveCallback accepts a function value or the name of a global function.
func (in *Interpreter) resolveCallback(cb object.Object) (*Function, *object.Error) {
	switch cb := cb.(type) {
	case *Function:
		return cb, nil
	case *object.String:
		name := strings.ToLower(strings.TrimSpace(cb.Value))
		val, err := in.env.Get(name)
		if err != nil {
			return nil, object.NewError(object.NameError, "undefined function '%s'", name)
		}
		if fn, ok := val.(*Function); ok {
			return fn, nil
		}
		return nil, object.NewError(object.TypeError, "'%s' is not a function, got %s", cb.Value, val.Kind().Name())
	}
	return nil, object.NewError(object.TypeError, "timer callback must be a function, got %s", cb.Kind().Name())
}

func callbackName(cb object.Object) string {
	if fn, ok := cb.(*Function); ok {
		return fn.Name
	}
	return cb.Inspect()
}
