package core

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

// Registry hands out stable identifiers for named objects. The same name in
// the same namespace always maps to the same identifier, so objects keep
// their identity across plan reloads.
type Registry struct {
	namespace uuid.UUID

	mu     sync.RWMutex
	ids    map[string]uuid.UUID
	owners map[uuid.UUID]string
}

func NewRegistry(namespace string) *Registry {
	return &Registry{
		namespace: uuid.NewSHA1(uuid.NameSpaceURL, []byte(namespace)),
		ids:       make(map[string]uuid.UUID),
		owners:    make(map[uuid.UUID]string),
	}
}

// Acquire returns the identifier of name, registering it if needed.
func (r *Registry) Acquire(name string) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.ids[name]; ok {
		return id
	}
	id := uuid.NewSHA1(r.namespace, []byte(name))
	r.ids[name] = id
	r.owners[id] = name
	return id
}

func (r *Registry) Lookup(name string) (uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.ids[name]
	return id, ok
}

func (r *Registry) Name(id uuid.UUID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.owners[id]
	return name, ok
}

func (r *Registry) Release(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.ids[name]
	if !ok {
		return fmt.Errorf("registry release: '%s' was never acquired. Nothing was done", name)
	}
	delete(r.ids, name)
	delete(r.owners, id)
	return nil
}

// Names returns every registered name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.ids))
	for name := range r.ids {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
