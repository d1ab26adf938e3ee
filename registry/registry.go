// Package registry maps "<module>:<attribute>" references onto application
// factories registered at program start, so the host never looks code up by
// name at runtime.
package registry

import (
	"fmt"
	"period-tracker/contract"
	"period-tracker/domain"
	"period-tracker/errors"
	"sort"
	"sync"

	"github.com/samber/lo"
)

type Registry struct {
	mu      sync.RWMutex
	modules map[string]map[string]contract.AppFactory
}

// Entry is one registered application, used for listings.
type Entry struct {
	Ref     domain.AppRef
	Factory contract.AppFactory
}

func New() *Registry {
	return &Registry{modules: make(map[string]map[string]contract.AppFactory)}
}

func (r *Registry) Register(module, attribute string, factory contract.AppFactory) error {
	ref, err := domain.ParseAppRef(module + ":" + attribute)
	if err != nil {
		return err
	}
	if factory == nil {
		return fmt.Errorf("%w: %s", errors.ErrNilFactory, ref)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	attributes, ok := r.modules[ref.Module]
	if !ok {
		attributes = make(map[string]contract.AppFactory)
		r.modules[ref.Module] = attributes
	}
	if _, exists := attributes[ref.Attribute]; exists {
		return fmt.Errorf("%w: %s", errors.ErrAlreadyRegistered, ref)
	}
	attributes[ref.Attribute] = factory
	return nil
}

// MustRegister is Register for program wiring, where a duplicate is a bug.
func (r *Registry) MustRegister(module, attribute string, factory contract.AppFactory) *Registry {
	if err := r.Register(module, attribute, factory); err != nil {
		panic(err)
	}
	return r
}

// Resolve distinguishes an unknown module from a missing attribute, the two
// resolution failures an operator can make.
func (r *Registry) Resolve(ref domain.AppRef) (contract.AppFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	attributes, ok := r.modules[ref.Module]
	if !ok {
		return nil, fmt.Errorf("%w %q", errors.ErrApplicationNotFound, ref.Module)
	}
	factory, ok := attributes[ref.Attribute]
	if !ok {
		return nil, fmt.Errorf("%w: %q has no attribute %q (available: %v)",
			errors.ErrAttributeNotFound, ref.Module, ref.Attribute, sortedKeys(attributes))
	}
	return factory, nil
}

// Entries lists registrations sorted by reference.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []Entry
	for module, attributes := range r.modules {
		for attribute, factory := range attributes {
			entries = append(entries, Entry{
				Ref:     domain.AppRef{Module: module, Attribute: attribute},
				Factory: factory,
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Ref.String() < entries[j].Ref.String()
	})
	return entries
}

func sortedKeys(m map[string]contract.AppFactory) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
