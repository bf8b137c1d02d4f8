package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botforge-io/botforge/pkg/errors"
	"github.com/botforge-io/botforge/pkg/params"
	"github.com/botforge-io/botforge/pkg/provision/fake"
	"github.com/botforge-io/botforge/pkg/state"
	"github.com/botforge-io/botforge/pkg/state/backend"
	_ "github.com/botforge-io/botforge/pkg/state/backend/local"
	"github.com/botforge-io/botforge/pkg/state/types"
)

func newTestEngine(t *testing.T) (*Engine, *fake.Provisioner) {
	t.Helper()
	manager, err := state.NewManagerFromConfig(backend.Config{
		Type:     "local",
		Settings: map[string]string{"path": t.TempDir()},
	})
	require.NoError(t, err)

	p := fake.New()
	return New(p, manager), p
}

func TestDeploy_PersistsReadyState(t *testing.T) {
	e, _ := newTestEngine(t)

	result, err := e.Deploy(context.Background(), params.ParameterSet{
		EnvironmentName: "dev",
		SubscriptionID:  "sub",
	})
	require.NoError(t, err)
	assert.Len(t, result.Modules, 9)
	assert.NotEmpty(t, result.OperationID)
	assert.NotEmpty(t, result.Flat.BackendHostName)

	record, err := e.State(context.Background(), "dev")
	require.NoError(t, err)
	assert.Equal(t, types.StatusReady, record.Status)
	assert.Len(t, record.Modules, 9)
	assert.Equal(t, "sub", record.Parameters.SubscriptionID)

	// Resolved inputs are persisted so destroy can replay them.
	ai := record.Modules[ModuleAIServices]
	assert.Equal(t, ai.ResourceName, ai.Inputs["customSubDomain"])
	assert.NotEmpty(t, record.Modules[ModuleBotService].Inputs["endpoint"])
}

func TestOutputs_RereadFromState(t *testing.T) {
	e, _ := newTestEngine(t)

	result, err := e.Deploy(context.Background(), params.ParameterSet{
		EnvironmentName: "dev",
		SubscriptionID:  "sub",
	})
	require.NoError(t, err)

	flat, err := e.Outputs(context.Background(), "dev")
	require.NoError(t, err)
	assert.Equal(t, result.Flat, flat)
}

func TestOutputs_UnknownEnvironment(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Outputs(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestDestroy_DeletesReverseOrderAndState(t *testing.T) {
	e, p := newTestEngine(t)

	_, err := e.Deploy(context.Background(), params.ParameterSet{EnvironmentName: "dev"})
	require.NoError(t, err)

	require.NoError(t, e.Destroy(context.Background(), "dev"))

	deleted := p.Deleted()
	require.NotEmpty(t, deleted)
	// Dependents go first: the bot before the app host, the app host
	// before its dependencies.
	assert.Equal(t, ModuleBotService, deleted[0])
	assert.Less(t, indexOf(deleted, ModuleBotService), indexOf(deleted, ModuleAppHost))
	assert.Less(t, indexOf(deleted, ModuleAppHost), indexOf(deleted, ModuleCosmos))

	// Skipped modules (public mode default) are never deleted.
	assert.NotContains(t, deleted, ModuleNetwork)
	assert.NotContains(t, deleted, ModuleDNS)

	_, err = e.State(context.Background(), "dev")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestDeploy_FailureSavesFailedState(t *testing.T) {
	manager, err := state.NewManagerFromConfig(backend.Config{
		Type:     "local",
		Settings: map[string]string{"path": t.TempDir()},
	})
	require.NoError(t, err)

	e := New(&failAfter{inner: fake.New(), failOn: ModuleAppHost}, manager)
	_, err = e.Deploy(context.Background(), params.ParameterSet{EnvironmentName: "dev"})
	require.Error(t, err)

	record, getErr := e.State(context.Background(), "dev")
	require.NoError(t, getErr)
	assert.Equal(t, types.StatusFailed, record.Status)
	assert.NotEmpty(t, record.StatusReason)
	assert.Equal(t, types.ModuleStatusCompleted, record.Modules[ModuleCosmos].Status)
	assert.Equal(t, types.ModuleStatusFailed, record.Modules[ModuleAppHost].Status)
}

func indexOf(list []string, value string) int {
	for i, v := range list {
		if v == value {
			return i
		}
	}
	return -1
}
