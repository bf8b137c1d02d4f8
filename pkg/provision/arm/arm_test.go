package arm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botforge-io/botforge/pkg/provision"
)

func TestZoneGroupConfigs_SkipsEmptyZones(t *testing.T) {
	configs := zoneGroupConfigs([]string{
		"/subscriptions/s/resourceGroups/rg/providers/Microsoft.Network/privateDnsZones/privatelink.openai.azure.com",
		"",
		"/subscriptions/s/resourceGroups/rg/providers/Microsoft.Network/privateDnsZones/privatelink.documents.azure.com",
	})

	require.Len(t, configs, 2)
	first := configs[0].(map[string]interface{})
	props := first["properties"].(map[string]interface{})
	assert.Contains(t, props["privateDnsZoneId"], "privatelink.openai.azure.com")
}

func TestZoneGroupConfigs_AllEmpty(t *testing.T) {
	assert.Empty(t, zoneGroupConfigs([]string{"", ""}))
}

func TestParseAccountKey(t *testing.T) {
	key, err := parseAccountKey([]byte(`{"key1":"primary","key2":"secondary"}`))
	require.NoError(t, err)
	assert.Equal(t, "primary", key)

	key, err = parseAccountKey([]byte(`{"key2":"secondary"}`))
	require.NoError(t, err)
	assert.Equal(t, "secondary", key)

	_, err = parseAccountKey([]byte(`not-json`))
	assert.Error(t, err)
}

func TestInputStringMap_JSONDecodedInputs(t *testing.T) {
	// Inputs replayed from persisted state lose their concrete map type.
	req := provision.ModuleRequest{
		Inputs: map[string]interface{}{
			"zones": map[string]interface{}{
				"openai":    "privatelink.openai.azure.com",
				"documents": "privatelink.documents.azure.com",
			},
		},
	}
	zones := inputStringMap(req, "zones")
	assert.Equal(t, "privatelink.openai.azure.com", zones["openai"])
	assert.Len(t, zones, 2)

	req.Inputs["zones"] = map[string]string{"vault": "privatelink.vaultcore.azure.net"}
	assert.Equal(t, "privatelink.vaultcore.azure.net", inputStringMap(req, "zones")["vault"])

	assert.Nil(t, inputStringMap(req, "missing"))
}
