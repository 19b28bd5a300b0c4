// Package procmacro runs procedural macros: Go functions (or loaded
// Starlark functions) that compute their expansion from the invocation
// tokens instead of matching declarative rules.
package procmacro

import (
	"fmt"
	"sort"

	"github.com/macrolang/macroc/internal/tokenize"
)

// Func computes the replacement tokens for one invocation. args are the
// tokens between the invocation delimiters, unexpanded; a Func that wants
// nested invocations resolved first calls ctx.Expand.
type Func func(ctx Context, args tokenize.Stream) (tokenize.Stream, error)

// Context is what an expansion driver offers a running procedural macro.
type Context interface {
	// Expand fully expands every macro invocation in s.
	Expand(s tokenize.Stream) (tokenize.Stream, error)
	// Pos is the position of the current invocation.
	Pos() tokenize.Pos
}

// Registry holds procedural macros by invocation name.
type Registry struct {
	funcs map[string]Func
	docs  map[string]string
}

func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func), docs: make(map[string]string)}
}

// Register adds a macro under name. Names are flat; registering a name twice
// is an error so a Starlark file cannot silently shadow a builtin.
func (r *Registry) Register(name string, fn Func, doc string) error {
	if _, ok := r.funcs[name]; ok {
		return fmt.Errorf("procedural macro %q is already registered", name)
	}
	r.funcs[name] = fn
	r.docs[name] = doc
	return nil
}

// Lookup returns the macro registered under name.
func (r *Registry) Lookup(name string) (Func, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Doc returns the one-line description registered with name.
func (r *Registry) Doc(name string) string { return r.docs[name] }
