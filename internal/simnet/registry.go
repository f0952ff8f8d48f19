package simnet

import (
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/simnet/internal/clarity"
	"github.com/roach88/simnet/internal/manifest"
)

// Contract is a native contract implementation hosted by the network.
//
// Init runs once at deployment, after declared data vars hold their
// initial values. Call executes one function; arguments have already been
// checked against the manifest signature. Public functions must return a
// clarity.Response. Returning an error aborts the transaction.
type Contract interface {
	Init(c *Context) error
	Call(c *Context, fn string, args []clarity.Value) (clarity.Value, error)
}

// Factory builds an implementation bound to a compiled manifest. Factories
// should verify that the manifest declares what the implementation uses.
type Factory func(spec *manifest.Contract) (Contract, error)

// Registry maps implementation ids such as "fantasy-sports@v1" to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Registering an id twice is an error.
func (r *Registry) Register(id string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[id]; dup {
		return fmt.Errorf("implementation %q already registered", id)
	}
	r.factories[id] = f
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(id string, f Factory) {
	if err := r.Register(id, f); err != nil {
		panic(err)
	}
}

// Lookup returns the factory for id.
func (r *Registry) Lookup(id string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[id]
	return f, ok
}

// IDs returns registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
