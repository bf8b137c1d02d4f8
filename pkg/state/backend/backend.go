// Package backend defines the pluggable storage interface deployment
// state is persisted through, plus the registry concrete backends
// register themselves into.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"
)

// ErrNotFound is returned when the requested state path does not exist.
var ErrNotFound = errors.New("state not found")

// ErrLocked is returned when the requested path is held by another
// lock.
var ErrLocked = errors.New("state is locked")

// Backend is the storage contract. Paths are forward-slash relative
// keys; backends map them onto their own namespace.
type Backend interface {
	// Type returns the backend type name (e.g. "local", "azurerm").
	Type() string

	// Read returns the content at path, or ErrNotFound.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write stores the content at path, overwriting any existing value.
	Write(ctx context.Context, path string, data io.Reader) error

	// Delete removes the content at path. Deleting a missing path is
	// not an error.
	Delete(ctx context.Context, path string) error

	// List returns every key under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists reports whether path holds content.
	Exists(ctx context.Context, path string) (bool, error)

	// Lock acquires an advisory lock on path. A held, non-stale lock
	// yields a *LockError wrapping ErrLocked.
	Lock(ctx context.Context, path string, info LockInfo) (Lock, error)
}

// Lock is a held advisory lock.
type Lock interface {
	ID() string
	Info() LockInfo
	Unlock(ctx context.Context) error
}

// LockInfo describes who holds a lock and why.
type LockInfo struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Who       string    `json:"who"`
	Operation string    `json:"operation"`
	Created   time.Time `json:"created"`
}

// LockError carries the holder's info alongside ErrLocked.
type LockError struct {
	Info LockInfo
	Err  error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("locked by %s (operation %s, since %s)", e.Info.Who, e.Info.Operation, e.Info.Created.Format(time.RFC3339))
}

func (e *LockError) Unwrap() error {
	return e.Err
}

// Config selects and configures a backend.
type Config struct {
	// Type is the registered backend type name.
	Type string `yaml:"type"`

	// Settings are backend-specific key/value options.
	Settings map[string]string `yaml:"settings"`
}

// Factory constructs a backend from its settings.
type Factory func(settings map[string]string) (Backend, error)

var registry = map[string]Factory{}

// Register makes a backend type available to Create. Called from
// backend package init functions.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// Create instantiates the backend named by the config. An empty type
// defaults to "local".
func Create(config Config) (Backend, error) {
	name := config.Type
	if name == "" {
		name = "local"
	}

	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown state backend %q (registered: %v)", name, Registered())
	}
	return factory(config.Settings)
}

// Registered returns the registered backend type names, sorted.
func Registered() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
