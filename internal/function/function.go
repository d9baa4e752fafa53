// Package function provides the function libraries that test authors call
// from expressions such as core:concat('Hello ', ${user}).
//
// A Library groups named functions under a prefix ("core:", "sprig:"). A
// Registry holds the libraries known to a process and resolves complete
// function expressions against them.
package function

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Func is a single function implementation. Parameters arrive already
// resolved and unquoted.
type Func func(params []string) (string, error)

// Library is a named set of functions sharing an expression prefix.
type Library struct {
	Name   string
	Prefix string

	functions    map[string]Func
	descriptions map[string]string
}

// NewLibrary creates an empty library. The prefix is normalized to end with
// a colon.
func NewLibrary(name, prefix string) *Library {
	if !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return &Library{
		Name:         name,
		Prefix:       prefix,
		functions:    make(map[string]Func),
		descriptions: make(map[string]string),
	}
}

// Register adds or replaces a function in the library.
func (l *Library) Register(name string, fn Func, description string) {
	l.functions[name] = fn
	l.descriptions[name] = description
}

// Lookup returns the function registered under name.
func (l *Library) Lookup(name string) (Func, bool) {
	fn, ok := l.functions[name]
	return fn, ok
}

// Description returns the human readable description of a function.
func (l *Library) Description(name string) string {
	return l.descriptions[name]
}

// Names returns the sorted function names of the library.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.functions))
	for name := range l.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registry holds function libraries and resolves expressions against them.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	libraries []*Library
}

// NewRegistry creates a registry holding the given libraries.
func NewRegistry(libraries ...*Library) *Registry {
	r := &Registry{}
	for _, lib := range libraries {
		r.Add(lib)
	}
	return r
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry with the core and sprig
// libraries installed.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(CoreLibrary(), SprigLibrary())
	})
	return defaultRegistry
}

// Add installs a library. A library with the same prefix is replaced.
func (r *Registry) Add(lib *Library) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.libraries {
		if existing.Prefix == lib.Prefix {
			r.libraries[i] = lib
			return
		}
	}
	r.libraries = append(r.libraries, lib)
}

// Libraries returns the installed libraries in installation order.
func (r *Registry) Libraries() []*Library {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Library, len(r.libraries))
	copy(out, r.libraries)
	return out
}

// LibraryForPrefix returns the library registered for prefix.
func (r *Registry) LibraryForPrefix(prefix string) (*Library, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, lib := range r.libraries {
		if lib.Prefix == prefix {
			return lib, true
		}
	}
	return nil, false
}

// libraryFor returns the library whose prefix starts expression.
func (r *Registry) libraryFor(expression string) (*Library, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, lib := range r.libraries {
		if strings.HasPrefix(expression, lib.Prefix) {
			return lib, true
		}
	}
	return nil, false
}

// IsFunction reports whether expression is a complete call to a function of
// one of the installed libraries, e.g. "core:upperCase('a')".
func (r *Registry) IsFunction(expression string) bool {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return false
	}

	if _, ok := r.libraryFor(expression); !ok {
		return false
	}
	open := strings.Index(expression, "(")
	return open > 0 && strings.HasSuffix(expression, ")")
}

// Resolve evaluates a single function expression. The raw parameter string
// is passed through resolveParams first so that nested variables and
// functions are replaced before the parameters are split. A nil
// resolveParams leaves the parameters untouched.
func (r *Registry) Resolve(expression string, resolveParams func(string) (string, error)) (string, error) {
	expression = strings.TrimSpace(expression)

	lib, ok := r.libraryFor(expression)
	if !ok {
		return "", &FunctionError{Expression: expression, Err: ErrUnknownFunction}
	}

	open := strings.Index(expression, "(")
	if open < 0 || !strings.HasSuffix(expression, ")") {
		return "", &FunctionError{Expression: expression, Err: ErrInvalidFunctionUsage}
	}

	name := expression[len(lib.Prefix):open]
	fn, ok := lib.Lookup(name)
	if !ok {
		return "", &FunctionError{Expression: expression, Err: ErrUnknownFunction}
	}

	rawParams := expression[open+1 : len(expression)-1]
	if resolveParams != nil {
		resolved, err := resolveParams(rawParams)
		if err != nil {
			return "", fmt.Errorf("failed to resolve parameters of %s: %w", expression, err)
		}
		rawParams = resolved
	}

	params, err := ParseParameters(rawParams)
	if err != nil {
		return "", &FunctionError{Expression: expression, Err: err}
	}

	result, err := fn(params)
	if err != nil {
		return "", &FunctionError{Expression: expression, Err: err}
	}
	return result, nil
}
