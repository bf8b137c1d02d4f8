package fake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botforge-io/botforge/pkg/graph"
	"github.com/botforge-io/botforge/pkg/provision"
)

func TestEvaluate_Deterministic(t *testing.T) {
	req := provision.ModuleRequest{
		Module:        "managed-identity",
		Kind:          graph.KindManagedIdentity,
		Name:          "msi-dev-abc",
		ResourceGroup: "rg-dev",
		Location:      "eastus2",
	}

	first, err := New().Evaluate(context.Background(), req)
	require.NoError(t, err)
	second, err := New().Evaluate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first["principalId"])
	assert.NotEqual(t, first["principalId"], first["clientId"])
	assert.Contains(t, first["resourceId"], "/userAssignedIdentities/msi-dev-abc")
}

func TestEvaluate_VirtualNetwork(t *testing.T) {
	outputs, err := New().Evaluate(context.Background(), provision.ModuleRequest{
		Module:        "network",
		Kind:          graph.KindVirtualNetwork,
		Name:          "vnet-dev-abc",
		ResourceGroup: "rg-dev",
		Inputs: map[string]interface{}{
			"privateEndpointSubnetName": "snet-pl-dev-abc",
			"appSubnetName":             "snet-app-dev-abc",
		},
	})
	require.NoError(t, err)

	assert.Contains(t, outputs["vnetId"], "/virtualNetworks/vnet-dev-abc")
	assert.Contains(t, outputs["privateEndpointSubnetId"], "/subnets/snet-pl-dev-abc")
	assert.Contains(t, outputs["appSubnetId"], "/subnets/snet-app-dev-abc")
}

func TestEvaluate_DNSZones(t *testing.T) {
	outputs, err := New().Evaluate(context.Background(), provision.ModuleRequest{
		Module:        "dns",
		Kind:          graph.KindPrivateDNSZones,
		Name:          "dns",
		ResourceGroup: "rg-dns-dev",
		Inputs: map[string]interface{}{
			"zones": map[string]string{
				"openai":    "privatelink.openai.azure.com",
				"documents": "privatelink.documents.azure.com",
			},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, outputs["openai"], "/privateDnsZones/privatelink.openai.azure.com")
	assert.Contains(t, outputs["documents"], "/privateDnsZones/privatelink.documents.azure.com")
}

func TestEvaluate_AppHost(t *testing.T) {
	outputs, err := New().Evaluate(context.Background(), provision.ModuleRequest{
		Module:        "app-host",
		Kind:          graph.KindAppHost,
		Name:          "app-dev-abc",
		ResourceGroup: "rg-dev",
	})
	require.NoError(t, err)

	assert.Equal(t, "app-dev-abc.azurewebsites.net", outputs["hostName"])
}

func TestEvaluate_UnknownKind(t *testing.T) {
	_, err := New().Evaluate(context.Background(), provision.ModuleRequest{
		Module: "mystery",
		Kind:   graph.Kind("mystery"),
	})
	assert.Error(t, err)
}

func TestDelete_Records(t *testing.T) {
	p := New()
	require.NoError(t, p.Delete(context.Background(), provision.ModuleRequest{Module: "bing"}))
	assert.Equal(t, []string{"bing"}, p.Deleted())
}
