package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/botforge-io/botforge/pkg/engine"
	"github.com/botforge-io/botforge/pkg/params"
	"github.com/botforge-io/botforge/pkg/provision"
	"github.com/botforge-io/botforge/pkg/provision/arm"
	"github.com/botforge-io/botforge/pkg/provision/fake"
	"github.com/botforge-io/botforge/pkg/state"
	"github.com/botforge-io/botforge/pkg/state/backend"
)

// paramFlags are the parameter overrides shared by resolve, deploy,
// and inspect. Flag values win over the parameter file.
type paramFlags struct {
	paramsFile   string
	environment  string
	location     string
	subscription string
	authMode     string
	networkMode  string
	model        string
	overrides    []string
}

func (f *paramFlags) load() (params.ParameterSet, error) {
	var ps params.ParameterSet
	if f.paramsFile != "" {
		loaded, err := params.Load(f.paramsFile)
		if err != nil {
			return params.ParameterSet{}, err
		}
		ps = loaded
	}

	if f.environment != "" {
		ps.EnvironmentName = f.environment
	}
	if f.location != "" {
		ps.Location = f.location
	}
	if f.subscription != "" {
		ps.SubscriptionID = f.subscription
	}
	if f.authMode != "" {
		ps.AuthMode = params.AuthMode(f.authMode)
	}
	if f.networkMode != "" {
		ps.PublicNetworkAccess = params.NetworkMode(f.networkMode)
	}
	if f.model != "" {
		ps.Model = f.model
	}

	for _, override := range f.overrides {
		key, name, ok := strings.Cut(override, "=")
		if !ok {
			return params.ParameterSet{}, fmt.Errorf("invalid --name override %q, expected key=name", override)
		}
		if ps.NameOverrides == nil {
			ps.NameOverrides = map[string]string{}
		}
		ps.NameOverrides[key] = name
	}

	return ps, nil
}

// register adds the shared parameter flags to a command.
func (f *paramFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.paramsFile, "params", "p", "", "Parameter file (.yaml, .json, or .hcl)")
	cmd.Flags().StringVarP(&f.environment, "environment", "e", "", "Environment name")
	cmd.Flags().StringVar(&f.location, "location", "", "Azure region")
	cmd.Flags().StringVar(&f.subscription, "subscription", "", "Azure subscription id")
	cmd.Flags().StringVar(&f.authMode, "auth-mode", "", "Auth mode (identity, accessKey)")
	cmd.Flags().StringVar(&f.networkMode, "network", "", "Public network access (Enabled, Disabled)")
	cmd.Flags().StringVar(&f.model, "model", "", "Model to deploy as \"name,version\"")
	cmd.Flags().StringArrayVar(&f.overrides, "name", nil, "Resource name override (key=name)")
}

// createStateManager builds the state manager from the --backend
// flags, falling back to viper config and env.
func createStateManager(backendType string, backendConfig []string) (state.Manager, error) {
	if backendType == "" {
		backendType = viper.GetString("backend")
	}

	settings := map[string]string{}
	for key, value := range viper.GetStringMapString("backend_settings") {
		settings[key] = value
	}
	for _, entry := range backendConfig {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --backend-config %q, expected key=value", entry)
		}
		settings[key] = value
	}

	return state.NewManagerFromConfig(backend.Config{
		Type:     backendType,
		Settings: settings,
	})
}

// createProvisioner selects the provisioner: the deterministic
// in-memory one for dry runs, ARM otherwise.
func createProvisioner(dryRun bool, ps params.ParameterSet) (provision.Provisioner, error) {
	if dryRun {
		return fake.New().WithScope(ps.SubscriptionID, viper.GetString("tenant_id")), nil
	}

	if ps.SubscriptionID == "" {
		return nil, fmt.Errorf("subscriptionId is required to deploy (set it in the parameter file or with --subscription)")
	}
	return arm.New(ps.SubscriptionID, viper.GetString("tenant_id"), nil)
}

func createEngine(dryRun bool, ps params.ParameterSet, backendType string, backendConfig []string) (*engine.Engine, error) {
	provisioner, err := createProvisioner(dryRun, ps)
	if err != nil {
		return nil, err
	}

	manager, err := createStateManager(backendType, backendConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create state manager: %w", err)
	}

	return engine.New(provisioner, manager), nil
}
