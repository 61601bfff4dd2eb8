package builtins

import (
	"ebscript/pkg/object"
	"ebscript/pkg/registry"
	"strings"
	"sync"
)

type handlerFunc func(c *Context, args []object.Object) (object.Object, *object.Error)

type builtin struct {
	info registry.Info
	fn   handlerFunc
}

// category groups the builtins sharing a name prefix.
type category struct {
	prefix   string
	builtins map[string]builtin
}

func newCategory(prefix string) *category {
	return &category{prefix: prefix, builtins: make(map[string]builtin)}
}

// def registers prefix.op with its signature and handler.
func (c *category) def(op string, ret object.Kind, fn handlerFunc, params ...registry.Param) {
	info := registry.New(c.prefix+"."+op, ret, params...)
	c.builtins[info.Name] = builtin{info: info, fn: fn}
}

var categories = sync.OnceValue(func() []*category {
	return []*category{
		stringCategory(),
		jsonCategory(),
		arrayCategory(),
		queueCategory(),
		dateCategory(),
		mathCategory(),
		debugCategory(),
		threadCategory(),
		cryptoCategory(),
		mailCategory(),
		wsCategory(),
		fileCategory(),
		httpCategory(),
		imageCategory(),
		systemCategory(),
	}
})

// Registry returns the immutable builtin catalog. It is built on first use
// and shared by every parser and dispatcher.
var Registry = sync.OnceValue(func() *registry.Registry {
	var infos []registry.Info
	for _, c := range categories() {
		for _, b := range c.builtins {
			infos = append(infos, b.info)
		}
	}
	return registry.MustBuild(infos...)
})

// Dispatcher routes builtin calls to their category handlers.
type Dispatcher struct {
	ctx    *Context
	routes map[string]*category
}

func NewDispatcher(ctx *Context) *Dispatcher {
	if ctx == nil {
		ctx = NewContext()
	}
	d := &Dispatcher{ctx: ctx, routes: make(map[string]*category)}
	for _, c := range categories() {
		d.routes[c.prefix] = c
	}
	return d
}

// Context returns the context handed to every handler.
func (d *Dispatcher) Context() *Context { return d.ctx }

// Lookup returns the signature of a static builtin or registered plugin.
func (d *Dispatcher) Lookup(name string) (registry.Info, bool) {
	name = strings.ToLower(name)
	if registry.IsPluginName(name) {
		info, _, ok := d.ctx.Plugins.Lookup(name)
		return info, ok
	}
	return Registry().Lookup(name)
}

// Call invokes the builtin name with already evaluated arguments.
func (d *Dispatcher) Call(name string, args []object.Object) (object.Object, *object.Error) {
	name = strings.ToLower(name)

	if registry.IsPluginName(name) {
		info, fn, ok := d.ctx.Plugins.Lookup(name)
		if !ok {
			return nil, object.NewError(object.InternalError, "Unknown builtin '%s'", name)
		}
		prepared, err := prepare(info, args)
		if err != nil {
			return nil, err
		}
		result, ferr := fn(prepared)
		if ferr != nil {
			return nil, object.Wrap(object.AnyError, ferr)
		}
		return orNull(result), nil
	}

	prefix, _, _ := strings.Cut(name, ".")
	route, ok := d.routes[prefix]
	if !ok {
		return nil, object.NewError(object.InternalError, "Unknown builtin '%s'", name)
	}
	b, ok := route.builtins[name]
	if !ok {
		return nil, object.NewError(object.InternalError, "Unknown builtin '%s'", name)
	}

	prepared, err := prepare(b.info, args)
	if err != nil {
		return nil, err
	}
	result, err := b.fn(d.ctx, prepared)
	if err != nil {
		return nil, err
	}
	return orNull(result), nil
}

// prepare re-checks arity, fills omitted optional parameters with null and
// coerces the rest to their declared kinds. A null passed for a mandatory
// parameter counts as missing.
func prepare(info registry.Info, args []object.Object) ([]object.Object, *object.Error) {
	if len(args) > len(info.Params) {
		e := object.Raise(object.ValidationError, "%s takes at most %d arguments, got %d",
			info.Name, len(info.Params), len(args))
		e.Detail = object.ArityMismatch
		return nil, e
	}
	out := make([]object.Object, len(info.Params))
	for i, p := range info.Params {
		var v object.Object = object.NULL
		if i < len(args) && args[i] != nil {
			v = args[i]
		}
		if v == object.NULL {
			if p.Mandatory {
				e := object.Raise(object.ValidationError, "%s missing mandatory parameter %q", info.Name, p.Name)
				e.Detail = object.ArityMismatch
				return nil, e
			}
			out[i] = object.NULL
			continue
		}
		if p.Keep && object.Assignable(v.Kind(), p.Kind) {
			out[i] = v
			continue
		}
		cv, err := object.Coerce(v, p.Kind)
		if err != nil {
			return nil, object.NewError(object.TypeError, "%s parameter %q: %s", info.Name, p.Name, err.Message)
		}
		out[i] = cv
	}
	return out, nil
}

func orNull(o object.Object) object.Object {
	if o == nil {
		return object.NULL
	}
	return o
}
