package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadYAML(t *testing.T) {
	data := []byte(`
environmentName: dev
location: westus3
authMode: accessKey
publicNetworkAccess: Disabled
model: "gpt-4o-mini,2024-07-18"
modelCapacity: 30
nameOverrides:
  cosmos: my-cosmos
tags:
  team: bots
`)

	ps, err := LoadYAML(data, "botforge.yaml")
	require.NoError(t, err)

	assert.Equal(t, "dev", ps.EnvironmentName)
	assert.Equal(t, "westus3", ps.Location)
	assert.Equal(t, AuthModeAccessKey, ps.AuthMode)
	assert.Equal(t, NetworkModeDisabled, ps.PublicNetworkAccess)
	assert.Equal(t, 30, ps.ModelCapacity)
	assert.Equal(t, "my-cosmos", ps.NameOverrides["cosmos"])
	assert.Equal(t, "bots", ps.Tags["team"])
}

func TestLoadHCL(t *testing.T) {
	data := []byte(`
environment           = "staging"
location              = "eastus2"
auth_mode             = "identity"
public_network_access = "Disabled"
allowed_ip_addresses  = "10.1.1.1,10.1.1.2"

model {
  name     = "gpt-4o-mini"
  version  = "2024-07-18"
  capacity = 80
}

network {
  vnet_prefix             = "10.10.0.0/16"
  private_endpoint_prefix = "10.10.1.0/24"
  app_prefix              = "10.10.2.0/24"
}

overrides {
  app = "my-backend"
}

tags {
  owner = "platform"
}
`)

	ps, err := LoadHCL(data, "botforge.hcl")
	require.NoError(t, err)

	assert.Equal(t, "staging", ps.EnvironmentName)
	assert.Equal(t, AuthModeIdentity, ps.AuthMode)
	assert.Equal(t, NetworkModeDisabled, ps.PublicNetworkAccess)
	assert.Equal(t, "gpt-4o-mini,2024-07-18", ps.Model)
	assert.Equal(t, 80, ps.ModelCapacity)
	assert.Equal(t, "10.10.0.0/16", ps.VNetAddressPrefix)
	assert.Equal(t, "my-backend", ps.NameOverrides["app"])
	assert.Equal(t, "platform", ps.Tags["owner"])
}

func TestLoadHCL_ParseError(t *testing.T) {
	_, err := LoadHCL([]byte(`environment = `), "broken.hcl")
	require.Error(t, err)
}

func TestLoadARMParameters(t *testing.T) {
	data := []byte(`{
  "$schema": "https://schema.management.azure.com/schemas/2019-04-01/deploymentParameters.json#",
  "contentVersion": "1.0.0.0",
  "parameters": {
    "environmentName": { "value": "prod" },
    "location": { "value": "eastus2" },
    "authMode": { "value": "identity" },
    "publicNetworkAccess": { "value": "Enabled" },
    "model": { "value": "gpt-4o-mini,2024-07-18" },
    "modelCapacity": { "value": 50 },
    "nameOverrides": { "value": { "bot": "prod-bot" } }
  }
}`)

	ps, err := LoadARMParameters(data, "main.parameters.json")
	require.NoError(t, err)

	assert.Equal(t, "prod", ps.EnvironmentName)
	assert.Equal(t, AuthModeIdentity, ps.AuthMode)
	assert.Equal(t, 50, ps.ModelCapacity)
	assert.Equal(t, "prod-bot", ps.NameOverrides["bot"])
}
