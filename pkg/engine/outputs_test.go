package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botforge-io/botforge/pkg/params"
	"github.com/botforge-io/botforge/pkg/provision/fake"
)

func TestAggregate_Projection(t *testing.T) {
	r := resolve(t, params.ParameterSet{
		EnvironmentName: "dev",
		SubscriptionID:  "12345678-0000-0000-0000-000000000000",
	})
	g, err := Build(r)
	require.NoError(t, err)

	outputs, err := NewEvaluator(fake.New()).Evaluate(context.Background(), g, r)
	require.NoError(t, err)

	flat := Aggregate(r, outputs)

	assert.Equal(t, "rg-dev", flat.ResourceGroupName)
	assert.Equal(t, "/subscriptions/12345678-0000-0000-0000-000000000000/resourceGroups/rg-dev", flat.ResourceGroupID)
	assert.Equal(t, outputs[ModuleAIServices]["endpoint"], flat.AIServicesEndpoint)
	assert.Equal(t, "gpt-4o-mini", flat.ModelDeploymentName)
	assert.Equal(t, "botdb", flat.CosmosDatabaseName)
	assert.Equal(t, "conversations", flat.CosmosContainerName)
	assert.Equal(t, outputs[ModuleAppHost]["hostName"], flat.BackendHostName)
	assert.Equal(t, outputs[ModuleManagedIdentity]["clientId"], flat.MSIClientID)
	assert.True(t, flat.EnableAuth)
	assert.Equal(t, "identity", flat.AuthMode)
}

func TestAggregate_NoSubscriptionOmitsGroupID(t *testing.T) {
	r := resolve(t, params.ParameterSet{EnvironmentName: "dev"})
	flat := Aggregate(r, ModuleOutputs{})
	assert.Empty(t, flat.ResourceGroupID)
	assert.Equal(t, "rg-dev", flat.ResourceGroupName)
}

func TestAggregate_Idempotent(t *testing.T) {
	r := resolve(t, params.ParameterSet{EnvironmentName: "dev", SubscriptionID: "sub"})
	g, err := Build(r)
	require.NoError(t, err)
	outputs, err := NewEvaluator(fake.New()).Evaluate(context.Background(), g, r)
	require.NoError(t, err)

	first, err := json.Marshal(Aggregate(r, outputs))
	require.NoError(t, err)
	second, err := json.Marshal(Aggregate(r, outputs))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestEnvMap(t *testing.T) {
	env := EnvMap(FlatOutputs{
		TenantID:            "tenant",
		AIServicesEndpoint:  "https://ai.example/",
		ModelDeploymentName: "gpt-4o-mini",
		CosmosEndpoint:      "https://db.example/",
		CosmosDatabaseName:  "botdb",
		CosmosContainerName: "conversations",
		MSIClientID:         "client",
		MSITenantID:         "tenant",
		EnableAuth:          true,
	})

	assert.Equal(t, "https://ai.example/", env["AZURE_OPENAI_API_ENDPOINT"])
	assert.Equal(t, "gpt-4o-mini", env["AZURE_OPENAI_DEPLOYMENT_NAME"])
	assert.Equal(t, "botdb", env["AZURE_COSMOSDB_DATABASE_ID"])
	assert.Equal(t, "conversations", env["AZURE_COSMOSDB_CONTAINER_ID"])
	assert.Equal(t, "client", env["MicrosoftAppId"])
	assert.Equal(t, "true", env["ENABLE_AUTH"])
}
