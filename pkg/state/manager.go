// Package state provides persistence for deployment state through a
// pluggable storage backend.
package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/botforge-io/botforge/pkg/state/backend"
	"github.com/botforge-io/botforge/pkg/state/types"
)

// Manager provides high-level deployment state operations.
type Manager interface {
	Get(ctx context.Context, environment string) (*types.DeploymentState, error)
	Save(ctx context.Context, state *types.DeploymentState) error
	Delete(ctx context.Context, environment string) error
	List(ctx context.Context) ([]types.DeploymentRef, error)

	// Lock acquires the advisory lock for an environment.
	Lock(ctx context.Context, environment, operation, who string) (backend.Lock, error)

	Backend() backend.Backend
}

type manager struct {
	backend backend.Backend
}

// NewManager creates a state manager over the given backend.
func NewManager(b backend.Backend) Manager {
	return &manager{backend: b}
}

// NewManagerFromConfig creates a state manager from backend config.
func NewManagerFromConfig(config backend.Config) (Manager, error) {
	b, err := backend.Create(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create state backend: %w", err)
	}
	return NewManager(b), nil
}

func (m *manager) Backend() backend.Backend {
	return m.backend
}

func (m *manager) Get(ctx context.Context, environment string) (*types.DeploymentState, error) {
	return readJSON[types.DeploymentState](ctx, m.backend, deploymentPath(environment))
}

func (m *manager) Save(ctx context.Context, state *types.DeploymentState) error {
	return writeJSON(ctx, m.backend, deploymentPath(state.Environment), state)
}

func (m *manager) Delete(ctx context.Context, environment string) error {
	// Object-store backends match by raw key prefix, so the prefix must
	// end at the environment's own directory: listing "deployments/dev"
	// would also match "deployments/dev2/..." and "deployments/dev.lock".
	prefix := path.Join("deployments", environment) + "/"
	paths, err := m.backend.List(ctx, prefix)
	if err != nil {
		return err
	}

	for _, p := range paths {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		if err := m.backend.Delete(ctx, p); err != nil {
			return fmt.Errorf("failed to delete %s: %w", p, err)
		}
	}
	return nil
}

func (m *manager) List(ctx context.Context) ([]types.DeploymentRef, error) {
	paths, err := m.backend.List(ctx, "deployments/")
	if err != nil {
		return nil, err
	}

	// Path format: deployments/<environment>/deployment.state.json
	environments := map[string]bool{}
	for _, p := range paths {
		parts := strings.Split(path.Clean(p), "/")
		if len(parts) >= 3 && parts[0] == "deployments" && parts[2] == "deployment.state.json" {
			environments[parts[1]] = true
		}
	}

	refs := make([]types.DeploymentRef, 0, len(environments))
	for environment := range environments {
		state, err := m.Get(ctx, environment)
		if err != nil {
			continue // unreadable entries are skipped, not fatal
		}
		refs = append(refs, types.DeploymentRef{
			Environment: state.Environment,
			Status:      state.Status,
			CreatedAt:   state.CreatedAt,
			UpdatedAt:   state.UpdatedAt,
		})
	}

	sort.Slice(refs, func(i, j int) bool {
		return refs[i].Environment < refs[j].Environment
	})
	return refs, nil
}

func (m *manager) Lock(ctx context.Context, environment, operation, who string) (backend.Lock, error) {
	return m.backend.Lock(ctx, path.Join("deployments", environment), backend.LockInfo{
		Who:       who,
		Operation: operation,
	})
}

func deploymentPath(environment string) string {
	return path.Join("deployments", environment, "deployment.state.json")
}

func readJSON[T any](ctx context.Context, b backend.Backend, p string) (*T, error) {
	reader, err := b.Read(ctx, p)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var result T
	if err := json.NewDecoder(reader).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", p, err)
	}
	return &result, nil
}

func writeJSON(ctx context.Context, b backend.Backend, p string, data interface{}) error {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", p, err)
	}
	return b.Write(ctx, p, bytes.NewReader(content))
}
