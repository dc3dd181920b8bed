package importer

import (
	"sort"
	"strings"

	"github.com/syssam/seedql/generator"
)

// Provider builds a batch of entity records and writes them through the
// generator. BuildEntities of every provider runs before the first
// WriteEntities, in execution order.
type Provider interface {
	// Name identifies the provider in comments and logs.
	Name() string
	// Order is the numeric execution priority; smaller runs earlier.
	Order() int
	// BuildEntities creates the provider's records.
	BuildEntities() error
	// WriteEntities emits the records through the generator.
	WriteEntities(g *generator.Generator) error
}

// Env is handed to provider factories during instantiation.
type Env struct {
	// DataFolder is the base path for input files.
	DataFolder string
	// Settings of the current run.
	Settings *Settings

	providers map[string]Provider
}

// Provider returns an already instantiated provider by name. Factories use
// this to obtain the providers they declared in Requires.
func (e *Env) Provider(name string) (Provider, bool) {
	p, ok := e.providers[name]
	return p, ok
}

// Factory declares how one provider is created. Requires names the
// providers the factory consumes; the factory runs only after all of them
// exist.
type Factory struct {
	// Name of the provider the factory creates.
	Name string
	// Requires lists provider names the factory depends on.
	Requires []string
	// New creates the provider.
	New func(env *Env) (Provider, error)
}

// Registry holds the registered provider factories. It replaces classpath
// scanning: applications register their factories at startup.
type Registry struct {
	factories []Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry { return &Registry{} }

// Register adds a factory.
func (r *Registry) Register(f Factory) { r.factories = append(r.factories, f) }

// DefaultRegistry is the registry used by the seedql command. Applications
// register their factories here from init functions.
var DefaultRegistry = NewRegistry()

// Register adds a factory to the default registry.
func Register(f Factory) { DefaultRegistry.Register(f) }

// instantiate creates all providers and returns them in execution order.
//
// Instantiation proceeds in rounds: in every round each factory whose
// dependencies exist is run, and its provider is inserted after the last
// provider whose order does not exceed the effective order - the maximum of
// the provider's own order and the orders of all its dependencies, so a
// dependency always runs first even when the declared orders contradict.
// A round without progress is an unsatisfiable dependency.
func (r *Registry) instantiate(env *Env, filter []string) ([]Provider, error) {
	remaining := make([]Factory, 0, len(r.factories))
	for _, f := range r.factories {
		if included(f.Name, filter) {
			remaining = append(remaining, f)
		}
	}
	// Fixed creation order, independent of registration order.
	sort.SliceStable(remaining, func(i, j int) bool { return remaining[i].Name < remaining[j].Name })

	env.providers = make(map[string]Provider, len(remaining))
	var execution []Provider

	for len(remaining) > 0 {
		progress := false
		next := remaining[:0]
		for _, f := range remaining {
			deps, ok := resolve(env, f.Requires)
			if !ok {
				next = append(next, f)
				continue
			}
			p, err := f.New(env)
			if err != nil {
				return nil, generator.NewModelError("", f.Name, "provider construction failed", err)
			}
			env.providers[f.Name] = p

			order := p.Order()
			for _, dep := range deps {
				if dep.Order() > order {
					order = dep.Order()
				}
			}
			index := len(execution)
			for index > 0 && execution[index-1].Order() > order {
				index--
			}
			execution = append(execution, nil)
			copy(execution[index+1:], execution[index:])
			execution[index] = p
			progress = true
		}
		remaining = next
		if !progress {
			names := make([]string, len(remaining))
			for i, f := range remaining {
				names[i] = f.Name
			}
			return nil, generator.NewModelError("", "",
				"no matching data provider in dependencies of "+strings.Join(names, ", "), nil)
		}
	}
	return execution, nil
}

// resolve returns the required providers, or ok == false if one is still
// missing.
func resolve(env *Env, requires []string) ([]Provider, bool) {
	deps := make([]Provider, 0, len(requires))
	for _, name := range requires {
		p, ok := env.providers[name]
		if !ok {
			return nil, false
		}
		deps = append(deps, p)
	}
	return deps, true
}

// included reports whether the provider name passes the package filter.
func included(name string, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, prefix := range filter {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
