// Package registry holds the builtin catalog consulted by the parser for
// static call validation and by the dispatcher for runtime checks.
package registry

import (
	"ebscript/pkg/object"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Param describes one builtin parameter.
type Param struct {
	Name      string
	Kind      object.Kind
	Mandatory bool
	// Keep passes an assignable argument through without converting it, so
	// the handler sees the caller's kind.
	Keep bool
}

// Info is the declared contract of a builtin. Return is KindNull for
// builtins that return nothing.
type Info struct {
	Name   string
	Return object.Kind
	Params []Param
}

// Required returns a mandatory parameter.
func Required(name string, kind object.Kind) Param {
	return Param{Name: strings.ToLower(name), Kind: kind, Mandatory: true}
}

// Number returns a mandatory double parameter that keeps the caller's
// numeric kind.
func Number(name string) Param {
	p := Required(name, object.KindDouble)
	p.Keep = true
	return p
}

// Optional returns a parameter filled with its kind's default when omitted.
func Optional(name string, kind object.Kind) Param {
	return Param{Name: strings.ToLower(name), Kind: kind}
}

// New returns an Info with a normalized name.
func New(name string, ret object.Kind, params ...Param) Info {
	return Info{Name: strings.ToLower(name), Return: ret, Params: params}
}

// MandatoryCount is the number of leading mandatory parameters.
func (i Info) MandatoryCount() int {
	n := 0
	for _, p := range i.Params {
		if p.Mandatory {
			n++
		}
	}
	return n
}

// ParamIndex finds a parameter by name.
func (i Info) ParamIndex(name string) int {
	name = strings.ToLower(name)
	for idx, p := range i.Params {
		if p.Name == name {
			return idx
		}
	}
	return -1
}

func (i Info) String() string {
	var params []string
	for _, p := range i.Params {
		s := p.Name + ": " + p.Kind.Name()
		if !p.Mandatory {
			s += "?"
		}
		params = append(params, s)
	}
	ret := ""
	if i.Return != object.KindNull {
		ret = " " + i.Return.Name()
	}
	return fmt.Sprintf("%s(%s)%s", i.Name, strings.Join(params, ", "), ret)
}

// Registry is an immutable name to Info table. It is safe for concurrent
// readers once built.
type Registry struct {
	infos map[string]Info
	names []string
}

// Build creates a registry from infos. Duplicate names are rejected.
func Build(infos ...Info) (*Registry, error) {
	r := &Registry{infos: make(map[string]Info, len(infos))}
	for _, info := range infos {
		name := strings.ToLower(info.Name)
		if _, dup := r.infos[name]; dup {
			return nil, fmt.Errorf("duplicate builtin %q", name)
		}
		info.Name = name
		r.infos[name] = info
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

// MustBuild is Build for static tables.
func MustBuild(infos ...Info) *Registry {
	r, err := Build(infos...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the Info registered under name, case-insensitively.
func (r *Registry) Lookup(name string) (Info, bool) {
	if r == nil {
		return Info{}, false
	}
	info, ok := r.infos[strings.ToLower(name)]
	return info, ok
}

// Names returns all registered names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.names...)
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.infos)
}

// PluginPrefix is the namespace for builtins resolved outside the static
// registry.
const PluginPrefix = "custom."

// IsPluginName reports whether name is in the plugin namespace.
func IsPluginName(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), PluginPrefix)
}

// PluginFunc is the host side of a plugin builtin.
type PluginFunc func(args []object.Object) (object.Object, error)

type plugin struct {
	info Info
	fn   PluginFunc
}

// Plugins is the capability table for `custom.*` builtins. Plugins share
// the static builtin signature contract but live outside the immutable
// registry so they can be loaded after startup.
type Plugins struct {
	mu      sync.RWMutex
	plugins map[string]plugin
}

func NewPlugins() *Plugins {
	return &Plugins{plugins: make(map[string]plugin)}
}

// Register adds a plugin. The name must carry the plugin prefix.
func (p *Plugins) Register(info Info, fn PluginFunc) error {
	name := strings.ToLower(info.Name)
	if !IsPluginName(name) {
		return fmt.Errorf("plugin %q must use the %q prefix", name, PluginPrefix)
	}
	if fn == nil {
		return fmt.Errorf("plugin %q has no implementation", name)
	}
	info.Name = name
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plugins[name] = plugin{info: info, fn: fn}
	return nil
}

// Lookup returns the plugin's Info and implementation.
func (p *Plugins) Lookup(name string) (Info, PluginFunc, bool) {
	if p == nil {
		return Info{}, nil, false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	pl, ok := p.plugins[strings.ToLower(name)]
	return pl.info, pl.fn, ok
}

// Names returns the registered plugin names in sorted order.
func (p *Plugins) Names() []string {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.plugins))
	for n := range p.plugins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ArgError describes a call that does not satisfy an Info.
type ArgError struct {
	Detail  string // object.ArityMismatch or object.TypeMismatch
	Message string
}

func (e *ArgError) Error() string { return e.Message }

// CheckArity validates an argument count against info.
func CheckArity(info Info, n int) *ArgError {
	if n > len(info.Params) {
		return &ArgError{Detail: object.ArityMismatch,
			Message: fmt.Sprintf("%s takes at most %d arguments, got %d", info.Name, len(info.Params), n)}
	}
	for i := n; i < len(info.Params); i++ {
		if info.Params[i].Mandatory {
			return &ArgError{Detail: object.ArityMismatch,
				Message: fmt.Sprintf("%s missing mandatory parameter %q", info.Name, info.Params[i].Name)}
		}
	}
	return nil
}

// CheckKinds validates statically known argument kinds. KindInvalid marks
// an argument whose kind is unknown at parse time.
func CheckKinds(info Info, kinds []object.Kind) *ArgError {
	for i, k := range kinds {
		if i >= len(info.Params) || k == object.KindInvalid {
			continue
		}
		p := info.Params[i]
		if !object.Assignable(k, p.Kind) {
			return &ArgError{Detail: object.TypeMismatch,
				Message: fmt.Sprintf("%s parameter %q expects %s, got %s", info.Name, p.Name, p.Kind.Name(), k.Name())}
		}
	}
	return nil
}
