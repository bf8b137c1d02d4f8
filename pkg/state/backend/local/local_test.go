package local

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botforge-io/botforge/pkg/state/backend"
)

func newTestBackend(t *testing.T) backend.Backend {
	t.Helper()
	b, err := NewBackend(map[string]string{"path": t.TempDir()})
	require.NoError(t, err)
	return b
}

func TestReadWriteDelete(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	err := b.Write(ctx, "deployments/dev/deployment.state.json", strings.NewReader(`{"environment":"dev"}`))
	require.NoError(t, err)

	reader, err := b.Read(ctx, "deployments/dev/deployment.state.json")
	require.NoError(t, err)
	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	assert.JSONEq(t, `{"environment":"dev"}`, string(content))

	exists, err := b.Exists(ctx, "deployments/dev/deployment.state.json")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, b.Delete(ctx, "deployments/dev/deployment.state.json"))
	_, err = b.Read(ctx, "deployments/dev/deployment.state.json")
	assert.ErrorIs(t, err, backend.ErrNotFound)

	// Deleting again is not an error.
	assert.NoError(t, b.Delete(ctx, "deployments/dev/deployment.state.json"))
}

func TestList(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Write(ctx, "deployments/dev/deployment.state.json", strings.NewReader("{}")))
	require.NoError(t, b.Write(ctx, "deployments/prod/deployment.state.json", strings.NewReader("{}")))

	paths, err := b.List(ctx, "deployments/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"deployments/dev/deployment.state.json",
		"deployments/prod/deployment.state.json",
	}, paths)

	// Missing prefix lists nothing.
	paths, err = b.List(ctx, "nothing/")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestLock(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	lock, err := b.Lock(ctx, "deployments/dev", backend.LockInfo{Who: "tester", Operation: "deploy"})
	require.NoError(t, err)
	assert.NotEmpty(t, lock.ID())
	assert.Equal(t, "tester", lock.Info().Who)

	_, err = b.Lock(ctx, "deployments/dev", backend.LockInfo{Who: "other", Operation: "deploy"})
	require.Error(t, err)
	assert.ErrorIs(t, err, backend.ErrLocked)

	var lockErr *backend.LockError
	require.ErrorAs(t, err, &lockErr)
	assert.Equal(t, "tester", lockErr.Info.Who)

	require.NoError(t, lock.Unlock(ctx))

	relocked, err := b.Lock(ctx, "deployments/dev", backend.LockInfo{Who: "other", Operation: "destroy"})
	require.NoError(t, err)
	require.NoError(t, relocked.Unlock(ctx))
}

func TestReadMissing(t *testing.T) {
	b := newTestBackend(t)
	_, err := b.Read(context.Background(), "missing.json")
	assert.ErrorIs(t, err, backend.ErrNotFound)
}
