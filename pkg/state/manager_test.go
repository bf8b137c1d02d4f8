package state

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botforge-io/botforge/pkg/params"
	"github.com/botforge-io/botforge/pkg/state/backend"
	_ "github.com/botforge-io/botforge/pkg/state/backend/local"
	"github.com/botforge-io/botforge/pkg/state/types"
)

func newTestManager(t *testing.T) Manager {
	t.Helper()
	m, err := NewManagerFromConfig(backend.Config{
		Type:     "local",
		Settings: map[string]string{"path": t.TempDir()},
	})
	require.NoError(t, err)
	return m
}

func testState(environment string) *types.DeploymentState {
	now := time.Now()
	return &types.DeploymentState{
		Environment: environment,
		OperationID: "op-1",
		CreatedAt:   now,
		UpdatedAt:   now,
		Status:      types.StatusReady,
		Parameters:  params.ParameterSet{EnvironmentName: environment},
		Names:       map[string]string{"resourceGroup": "rg-" + environment},
		Modules: map[string]*types.ModuleState{
			"app-host": {
				Name:    "app-host",
				Kind:    "appHost",
				Status:  types.ModuleStatusCompleted,
				Outputs: map[string]interface{}{"hostName": "app." + environment},
			},
		},
	}
}

func TestSaveAndGet(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, testState("dev")))

	got, err := m.Get(ctx, "dev")
	require.NoError(t, err)
	assert.Equal(t, "dev", got.Environment)
	assert.Equal(t, types.StatusReady, got.Status)
	assert.Equal(t, "app.dev", got.Modules["app-host"].Outputs["hostName"])
	assert.Equal(t, "dev", got.Parameters.EnvironmentName)
}

func TestGetMissing(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func TestListSorted(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, testState("prod")))
	require.NoError(t, m.Save(ctx, testState("dev")))

	refs, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "dev", refs[0].Environment)
	assert.Equal(t, "prod", refs[1].Environment)
}

func TestDelete(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, testState("dev")))
	require.NoError(t, m.Delete(ctx, "dev"))

	_, err := m.Get(ctx, "dev")
	assert.ErrorIs(t, err, backend.ErrNotFound)

	refs, err := m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

// prefixBackend lists keys by raw string prefix, the way the object
// store backends do.
type prefixBackend struct {
	objects map[string][]byte
}

func (b *prefixBackend) Type() string { return "prefix" }

func (b *prefixBackend) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	data, ok := b.objects[path]
	if !ok {
		return nil, backend.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *prefixBackend) Write(ctx context.Context, path string, data io.Reader) error {
	content, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	b.objects[path] = content
	return nil
}

func (b *prefixBackend) Delete(ctx context.Context, path string) error {
	delete(b.objects, path)
	return nil
}

func (b *prefixBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for key := range b.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (b *prefixBackend) Exists(ctx context.Context, path string) (bool, error) {
	_, ok := b.objects[path]
	return ok, nil
}

func (b *prefixBackend) Lock(ctx context.Context, path string, info backend.LockInfo) (backend.Lock, error) {
	return nil, nil
}

func TestDelete_LeavesSiblingEnvironmentsAndLock(t *testing.T) {
	b := &prefixBackend{objects: map[string][]byte{
		"deployments/dev/deployment.state.json":  []byte("{}"),
		"deployments/dev2/deployment.state.json": []byte("{}"),
		"deployments/dev.lock":                   []byte("{}"),
	}}
	m := NewManager(b)

	require.NoError(t, m.Delete(context.Background(), "dev"))

	_, hasOwn := b.objects["deployments/dev/deployment.state.json"]
	assert.False(t, hasOwn)

	// A sibling environment sharing the name prefix, and the held lock
	// file beside the directory, must both survive.
	_, hasSibling := b.objects["deployments/dev2/deployment.state.json"]
	assert.True(t, hasSibling)
	_, hasLock := b.objects["deployments/dev.lock"]
	assert.True(t, hasLock)
}

func TestLockRoundTrip(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	lock, err := m.Lock(ctx, "dev", "deploy", "tester")
	require.NoError(t, err)

	_, err = m.Lock(ctx, "dev", "deploy", "other")
	assert.ErrorIs(t, err, backend.ErrLocked)

	require.NoError(t, lock.Unlock(ctx))
	lock, err = m.Lock(ctx, "dev", "destroy", "other")
	require.NoError(t, err)
	require.NoError(t, lock.Unlock(ctx))
}
