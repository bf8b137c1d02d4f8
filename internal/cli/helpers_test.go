package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botforge-io/botforge/pkg/params"
)

func TestParamFlags_FlagsWinOverFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "params.yaml")
	require.NoError(t, os.WriteFile(file, []byte("environmentName: dev\nlocation: westus\n"), 0o644))

	flags := paramFlags{
		paramsFile:  file,
		environment: "prod",
		authMode:    "accessKey",
	}
	ps, err := flags.load()
	require.NoError(t, err)
	assert.Equal(t, "prod", ps.EnvironmentName)
	assert.Equal(t, "westus", ps.Location)
	assert.Equal(t, params.AuthModeAccessKey, ps.AuthMode)
}

func TestParamFlags_NameOverrides(t *testing.T) {
	flags := paramFlags{
		environment: "dev",
		overrides:   []string{"cosmos=my-cosmos", "app=my-app"},
	}
	ps, err := flags.load()
	require.NoError(t, err)
	assert.Equal(t, "my-cosmos", ps.NameOverrides["cosmos"])
	assert.Equal(t, "my-app", ps.NameOverrides["app"])
}

func TestParamFlags_InvalidOverride(t *testing.T) {
	flags := paramFlags{overrides: []string{"no-equals"}}
	_, err := flags.load()
	assert.Error(t, err)
}

func TestCreateStateManager_InvalidConfig(t *testing.T) {
	_, err := createStateManager("local", []string{"not-a-pair"})
	assert.Error(t, err)
}

func TestCreateProvisioner_DryRun(t *testing.T) {
	p, err := createProvisioner(true, params.ParameterSet{})
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestCreateProvisioner_RequiresSubscription(t *testing.T) {
	_, err := createProvisioner(false, params.ParameterSet{})
	assert.Error(t, err)
}
