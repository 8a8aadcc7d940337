package macro

import (
	"fmt"
	"sort"
	"strings"

	"go.starlark.net/starlark"
)

// Func is a loaded macro callable from expressions: float64 arguments
// in, a number out.
type Func func(args []float64) (float64, error)

// Registry maps qualified names (namespace.fn) to callable macros.
type Registry struct {
	funcs   map[string]Func
	modules []*LoadedModule
}

// LoadRegistry loads every macro module in dir into a registry.
func LoadRegistry(dir string) (*Registry, error) {
	modules, err := NewLoader(dir).Load()
	if err != nil {
		return nil, err
	}

	r := &Registry{funcs: map[string]Func{}, modules: modules}
	for _, mod := range modules {
		for name, callable := range mod.Exports {
			qualified := mod.Namespace + "." + name
			r.funcs[qualified] = wrapCallable(qualified, callable)
		}
	}
	return r, nil
}

// wrapCallable adapts a starlark function to the numeric calling
// convention. Each invocation runs on a fresh thread.
func wrapCallable(qualified string, fn starlark.Callable) Func {
	return func(args []float64) (float64, error) {
		thread := &starlark.Thread{Name: "macro:" + qualified}

		starArgs := make(starlark.Tuple, len(args))
		for i, a := range args {
			starArgs[i] = starlark.Float(a)
		}

		result, err := starlark.Call(thread, fn, starArgs, nil)
		if err != nil {
			return 0, fmt.Errorf("macro %s: %w", qualified, err)
		}

		switch v := result.(type) {
		case starlark.Float:
			return float64(v), nil
		case starlark.Int:
			f, _ := starlark.AsFloat(v)
			return f, nil
		}
		return 0, fmt.Errorf("macro %s returned %s, expected a number", qualified, result.Type())
	}
}

// Lookup returns the macro registered under the qualified name.
func (r *Registry) Lookup(name string) (Func, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns the qualified macro names sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FuncInfo is help-listing metadata for one registered macro, taken
// from the static parse of its source file.
type FuncInfo struct {
	Name      string // qualified name
	Signature string // qualified name with the argument list
	Doc       string // first docstring line, empty when absent
}

// Describe returns metadata for every registered macro, sorted by
// qualified name.
func (r *Registry) Describe() []FuncInfo {
	infos := make([]FuncInfo, 0, len(r.funcs))
	for _, mod := range r.modules {
		for name := range mod.Exports {
			info := FuncInfo{
				Name:      mod.Namespace + "." + name,
				Signature: mod.Namespace + "." + name + "()",
			}
			if mod.Meta != nil {
				for _, pf := range mod.Meta.Functions {
					if pf.Name == name {
						info.Signature = mod.Namespace + "." + pf.Signature()
						info.Doc, _, _ = strings.Cut(pf.Docstring, "\n")
						break
					}
				}
			}
			infos = append(infos, info)
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Len returns the number of registered macros.
func (r *Registry) Len() int { return len(r.funcs) }

// Modules returns the loaded modules.
func (r *Registry) Modules() []*LoadedModule { return r.modules }
