package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/curator-cms/curator/internal/domain"
	internal_errors "github.com/curator-cms/curator/internal/errors"
)

// Owner is the reconstruction target for a registered kind. The registry
// never inspects the concrete type; handlers hand it to the hosting
// application's own persistence layer.
type Owner interface {
	OwnerKind() string
}

// Model describes one registered owner kind: its declared relations and a
// function reconstructing an empty instance from a (kind, id) pair.
type Model struct {
	Kind      string
	Relations map[string]domain.Relation
	New       func(id int64) Owner
}

// Registry maps owner-kind tags to model descriptors. Registration happens
// during setup; lookups are read-only afterwards, but the mutex keeps
// late registration from tests safe.
type Registry struct {
	mu     sync.RWMutex
	models map[string]Model
}

func New() *Registry {
	return &Registry{models: make(map[string]Model)}
}

func (r *Registry) Register(m Model) error {
	if m.Kind == "" {
		return fmt.Errorf("model kind must not be empty")
	}
	for name, rel := range m.Relations {
		if name != rel.Name {
			return fmt.Errorf("relation key %q does not match relation name %q", name, rel.Name)
		}
		if !rel.Type.Valid() {
			return fmt.Errorf("relation %q has unknown type %q", name, rel.Type)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.models[m.Kind]; ok {
		return fmt.Errorf("model kind %q already registered", m.Kind)
	}
	r.models[m.Kind] = m
	return nil
}

func (r *Registry) MustRegister(m Model) {
	if err := r.Register(m); err != nil {
		panic(err)
	}
}

func (r *Registry) Model(kind string) (Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[kind]
	if !ok {
		return Model{}, fmt.Errorf("owner kind %q: %w", kind, internal_errors.NotFound)
	}
	return m, nil
}

// Relation resolves a declared relation by owner kind and name. The returned
// relation's type already accounts for pivot columns.
func (r *Registry) Relation(kind, name string) (domain.Relation, error) {
	m, err := r.Model(kind)
	if err != nil {
		return domain.Relation{}, err
	}
	rel, ok := m.Relations[name]
	if !ok {
		return domain.Relation{}, fmt.Errorf("relation %q on kind %q: %w", name, kind, internal_errors.NotFound)
	}
	rel.Type = rel.EffectiveType()
	return rel, nil
}

// Reconstruct builds an owner instance from its tagged reference.
func (r *Registry) Reconstruct(ref domain.OwnerRef) (Owner, error) {
	m, err := r.Model(ref.Kind)
	if err != nil {
		return nil, err
	}
	if m.New == nil {
		return nil, fmt.Errorf("owner kind %q has no reconstruction function", ref.Kind)
	}
	return m.New(ref.Id), nil
}

// Kinds returns registered kinds in stable order, for diagnostics.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.models))
	for k := range r.models {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
