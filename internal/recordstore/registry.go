package recordstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/terra-clan/skill-assessment/internal/assessment"
)

// Registry fans records out to every registered store. One store is the
// store of record; the rest are caches. Reads go to stores in registration
// order and the first hit wins.
type Registry struct {
	mu      sync.RWMutex
	names   []string
	stores  map[string]Store
	primary string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		stores: make(map[string]Store),
	}
}

// Register adds a store. Registering a name twice replaces the store but
// keeps its original position. The first store registered is the store of
// record until SetPrimary says otherwise.
func (r *Registry) Register(name string, store Store) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stores[name]; !exists {
		r.names = append(r.names, name)
	}
	r.stores[name] = store
	if r.primary == "" {
		r.primary = name
	}
}

// SetPrimary marks a registered store as the store of record
func (r *Registry) SetPrimary(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stores[name]; !exists {
		return fmt.Errorf("record store %q is not registered", name)
	}
	r.primary = name
	return nil
}

// Primary returns the name of the store of record
func (r *Registry) Primary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.primary
}

// List returns registered store names in order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Put writes rec to the store of record, then to every cache. A failure of
// the store of record is returned and no cache is touched. A cache that
// fails to take the record has its copy invalidated so reads fall through
// to the store of record; cache failures are logged, not returned.
func (r *Registry) Put(ctx context.Context, owner string, rec *assessment.Record) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.names) == 0 {
		return ErrNoStores
	}

	if err := r.stores[r.primary].Put(ctx, owner, rec); err != nil {
		return fmt.Errorf("%s: %w", r.primary, err)
	}

	for _, name := range r.names {
		if name == r.primary {
			continue
		}
		store := r.stores[name]
		err := store.Put(ctx, owner, rec)
		if err == nil {
			continue
		}
		slog.Warn("failed to cache record", "store", name, "owner", owner, "error", err)

		inv, ok := store.(Invalidator)
		if !ok {
			continue
		}
		if err := inv.Invalidate(ctx, owner); err != nil {
			slog.Error("failed to invalidate cached record", "store", name, "owner", owner, "error", err)
		}
	}
	return nil
}

// Latest returns the first record found, trying stores in order. A failing
// store is skipped unless every store fails.
func (r *Registry) Latest(ctx context.Context, owner string) (*assessment.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for _, name := range r.names {
		rec, err := r.stores[name].Latest(ctx, owner)
		if err != nil {
			slog.Warn("record store read failed", "store", name, "owner", owner, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if rec != nil {
			return rec, nil
		}
	}

	if len(errs) > 0 && len(errs) == len(r.names) {
		return nil, errors.Join(errs...)
	}
	return nil, nil
}

// HealthCheckAll checks health of all registered stores
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make(map[string]error, len(r.stores))
	for name, store := range r.stores {
		results[name] = store.HealthCheck(ctx)
	}
	return results
}
