package command

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// Registry is the command catalogue. Registration normally happens once
// at startup; reads are safe from any goroutine.
type Registry struct {
	commands sync.Map
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a command. A later registration with the same name
// replaces the earlier one.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	if def.New == nil {
		return fmt.Errorf("command %q has no constructor", def.Name)
	}

	r.commands.Store(def.Name, def)
	return nil
}

// MustRegister registers every definition and panics on the first error.
func (r *Registry) MustRegister(defs ...Definition) {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
}

// Get retrieves a command by name
func (r *Registry) Get(name string) (Definition, bool) {
	val, ok := r.commands.Load(name)
	if !ok {
		return Definition{}, false
	}
	return val.(Definition), true
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	var names []string
	r.commands.Range(func(key, _ any) bool {
		names = append(names, key.(string))
		return true
	})
	sort.Strings(names)
	return names
}

// Permitted returns the sorted names available in c.
func (r *Registry) Permitted(c Context) []string {
	var names []string
	r.commands.Range(func(key, value any) bool {
		if value.(Definition).available(c) {
			names = append(names, key.(string))
		}
		return true
	})
	sort.Strings(names)
	return names
}

// Match returns the permitted names matching a glob pattern such as "pass*"
// or "{login,logout}".
func (r *Registry) Match(c Context, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	var matched []string
	for _, name := range r.Permitted(c) {
		if ok, _ := doublestar.Match(pattern, name); ok {
			matched = append(matched, name)
		}
	}
	return matched, nil
}

// Stats returns registry statistics
func (r *Registry) Stats() map[string]any {
	var total, restricted, withManual int
	r.commands.Range(func(_, value any) bool {
		def := value.(Definition)
		total++
		if def.Available != nil {
			restricted++
		}
		if def.Manual != "" {
			withManual++
		}
		return true
	})

	return map[string]any{
		"total_commands":      total,
		"restricted_commands": restricted,
		"manual_pages":        withManual,
	}
}
