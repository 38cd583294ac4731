package ygggo_conn

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Registry resolves a name to a ready connection from an externally managed
// pool. The returned *sql.Conn is owned by the caller, whose Close hands it
// back to the pool.
type Registry interface {
	Resolve(ctx context.Context, name string) (*sql.Conn, error)
}

// RegistryFunc adapts a function to Registry.
type RegistryFunc func(ctx context.Context, name string) (*sql.Conn, error)

func (f RegistryFunc) Resolve(ctx context.Context, name string) (*sql.Conn, error) {
	return f(ctx, name)
}

// DBRegistry binds names to *sql.DB pools.
type DBRegistry struct {
	mu  sync.RWMutex
	dbs map[string]*sql.DB
}

func NewDBRegistry() *DBRegistry {
	return &DBRegistry{dbs: make(map[string]*sql.DB)}
}

// Register binds name to db, replacing any previous binding. The registry
// takes ownership of db and closes it in Close.
func (r *DBRegistry) Register(name string, db *sql.DB) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dbs[name] = db
}

// Lookup returns the pool bound to name.
func (r *DBRegistry) Lookup(name string) (*sql.DB, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	db, ok := r.dbs[name]
	return db, ok
}

// Names lists bound names in order.
func (r *DBRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.dbs))
	for n := range r.dbs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *DBRegistry) Resolve(ctx context.Context, name string) (*sql.Conn, error) {
	db, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("registry: name %q is not bound", name)
	}
	return db.Conn(ctx)
}

// Close closes every bound pool and empties the registry.
func (r *DBRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs *multierror.Error
	for name, db := range r.dbs {
		if err := db.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("close %q: %w", name, err))
		}
		delete(r.dbs, name)
	}
	return errs.ErrorOrNil()
}
