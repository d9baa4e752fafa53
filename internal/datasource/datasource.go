// Package datasource opens and holds the SQL databases that sql actions run
// against.
package datasource

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	_ "modernc.org/sqlite"

	"proctor/pkg/logging"
)

const subsystem = "DataSource"

// DriverSQLite is the only driver compiled in.
const DriverSQLite = "sqlite"

// ErrUnknownDataSource is returned for unregistered data source names.
var ErrUnknownDataSource = errors.New("unknown data source")

// Config describes a data source in proctor.yaml.
type Config struct {
	Name   string `json:"name"`
	Driver string `json:"driver,omitempty"`
	DSN    string `json:"dsn"`
}

// Registry holds open databases by name.
type Registry struct {
	mu  sync.RWMutex
	dbs map[string]*sql.DB
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{dbs: make(map[string]*sql.DB)}
}

// Open opens the database described by cfg and registers it.
func (r *Registry) Open(cfg Config) error {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	if driver != DriverSQLite {
		return fmt.Errorf("data source %s: unsupported driver %q", cfg.Name, driver)
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return fmt.Errorf("open data source %s: %w", cfg.Name, err)
	}
	// in-memory sqlite databases exist per connection
	db.SetMaxOpenConns(1)

	r.Register(cfg.Name, db)
	logging.Debug(subsystem, "Opened data source %s (%s)", cfg.Name, driver)
	return nil
}

// Register adds an already opened database.
func (r *Registry) Register(name string, db *sql.DB) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dbs[name] = db
}

// DB returns the database registered under name.
func (r *Registry) DB(name string) (*sql.DB, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	db, ok := r.dbs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataSource, name)
	}
	return db, nil
}

// Names returns the sorted data source names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.dbs))
	for name := range r.dbs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes all databases.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, db := range r.dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close data source %s: %w", name, err))
		}
	}
	r.dbs = make(map[string]*sql.DB)
	return errors.Join(errs...)
}
