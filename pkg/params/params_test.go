package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botforge-io/botforge/pkg/errors"
)

func validSet() ParameterSet {
	return ParameterSet{
		EnvironmentName: "dev",
		SubscriptionID:  "00000000-0000-0000-0000-000000000001",
		MyPrincipalID:   "11111111-1111-1111-1111-111111111111",
	}
}

func TestResolve_Deterministic(t *testing.T) {
	first, err := Resolve(validSet())
	require.NoError(t, err)
	second, err := Resolve(validSet())
	require.NoError(t, err)

	assert.Equal(t, first.UniqueSuffix, second.UniqueSuffix)
	assert.Equal(t, first.Names.All(), second.Names.All())
}

func TestResolve_SuffixScoped(t *testing.T) {
	dev, err := Resolve(validSet())
	require.NoError(t, err)

	prod := validSet()
	prod.EnvironmentName = "prod"
	resolved, err := Resolve(prod)
	require.NoError(t, err)

	assert.NotEqual(t, dev.UniqueSuffix, resolved.UniqueSuffix)
}

func TestUniqueSuffix_Length(t *testing.T) {
	for _, env := range []string{"dev", "prod", "a", "very-long-environment-name"} {
		suffix := UniqueSuffix("scope", env)
		assert.Len(t, suffix, 3, "suffix for %q", env)
	}
}

func TestResolve_DerivedNames(t *testing.T) {
	resolved, err := Resolve(validSet())
	require.NoError(t, err)

	suffix := resolved.UniqueSuffix
	assert.Equal(t, "rg-dev", resolved.Names.Name(KeyResourceGroup))
	assert.Equal(t, "rg-dns-dev", resolved.Names.Name(KeyDNSResourceGroup))
	assert.Equal(t, "vnet-dev-"+suffix, resolved.Names.Name(KeyVNet))
	assert.Equal(t, "snet-pl-dev-"+suffix, resolved.Names.Name(KeySubnetPL))
	assert.Equal(t, "snet-app-dev-"+suffix, resolved.Names.Name(KeySubnetApp))
	assert.Equal(t, "msi-dev-"+suffix, resolved.Names.Name(KeyMSI))
	assert.Equal(t, "cosmos-dev-"+suffix, resolved.Names.Name(KeyCosmos))
	assert.Equal(t, "bot-dev-"+suffix, resolved.Names.Name(KeyBot))
}

func TestResolve_OverrideWinsExactly(t *testing.T) {
	ps := validSet()
	ps.NameOverrides = map[string]string{
		KeyCosmos: "my-exact-cosmos",
		KeyApp:    "my-exact-app",
	}

	resolved, err := Resolve(ps)
	require.NoError(t, err)

	assert.Equal(t, "my-exact-cosmos", resolved.Names.Name(KeyCosmos))
	assert.Equal(t, "my-exact-app", resolved.Names.Name(KeyApp))
	// Non-overridden keys still derive.
	assert.Equal(t, "bot-dev-"+resolved.UniqueSuffix, resolved.Names.Name(KeyBot))
}

func TestResolve_ModelSplit(t *testing.T) {
	ps := validSet()
	ps.Model = "gpt-4o-mini,2024-07-18"

	resolved, err := Resolve(ps)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", resolved.ModelName)
	assert.Equal(t, "2024-07-18", resolved.ModelVersion)
	assert.Equal(t, "gpt-4o-mini", resolved.Names.Name(KeyModelDeployment))
}

func TestResolve_ModelWithoutComma(t *testing.T) {
	ps := validSet()
	ps.Model = "gpt-4o-mini"

	_, err := Resolve(ps)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestResolve_IPList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", []string{}},
		{"single", "10.0.0.1", []string{"10.0.0.1"}},
		{"spaces", " 10.0.0.1 , 192.168.0.0/24 ", []string{"10.0.0.1", "192.168.0.0/24"}},
		{"trailing comma", "10.0.0.1,", []string{"10.0.0.1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := validSet()
			ps.AllowedIPAddresses = tt.input
			resolved, err := Resolve(ps)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resolved.AllowedIPs)
		})
	}
}

func TestResolve_InvalidEnums(t *testing.T) {
	ps := validSet()
	ps.PublicNetworkAccess = "Sometimes"
	_, err := Resolve(ps)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))

	ps = validSet()
	ps.AuthMode = "password"
	_, err = Resolve(ps)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestResolve_CapacityBounds(t *testing.T) {
	ps := validSet()
	ps.ModelCapacity = -1
	_, err := Resolve(ps)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))

	ps = validSet()
	ps.ModelCapacity = 0
	resolved, err := Resolve(ps)
	require.NoError(t, err)
	assert.Equal(t, defaultModelCapacity, resolved.ModelCapacity)
}

func TestResolve_MissingEnvironment(t *testing.T) {
	_, err := Resolve(ParameterSet{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestResolve_Defaults(t *testing.T) {
	resolved, err := Resolve(validSet())
	require.NoError(t, err)

	assert.Equal(t, NetworkModeEnabled, resolved.PublicNetworkAccess)
	assert.Equal(t, AuthModeIdentity, resolved.AuthMode)
	assert.Equal(t, "User", resolved.MyPrincipalType)
	assert.True(t, resolved.EnableAuth())
}
