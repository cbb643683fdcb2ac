// Package registry implements the reference command set the interpreter
// dispatches external command names to: coreutils-style commands built
// directly on the virtual filesystem, with no dependency on a real OS
// process or PATH lookup.
package registry

import "github.com/chadparker/just-bash/interp"

// Registry is a mutable name-to-handler table satisfying interp.Commands.
type Registry struct {
	cmds map[string]interp.CommandFunc
}

// New returns a Registry pre-populated with the reference command set.
func New() *Registry {
	r := &Registry{cmds: map[string]interp.CommandFunc{}}
	registerCore(r)
	registerText(r)
	registerFiles(r)
	registerMisc(r)
	return r
}

// Lookup implements interp.Commands.
func (r *Registry) Lookup(name string) (interp.CommandFunc, bool) {
	fn, ok := r.cmds[name]
	return fn, ok
}

// Register adds or replaces a command, letting callers extend or override
// the default set with their own handlers.
func (r *Registry) Register(name string, fn interp.CommandFunc) {
	r.cmds[name] = fn
}

// Names returns every registered command name, for introspection.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.cmds))
	for name := range r.cmds {
		names = append(names, name)
	}
	return names
}
