// Package params resolves top-level deployment parameters into the
// concrete, validated values every downstream module consumes.
package params

import (
	"strings"

	"github.com/botforge-io/botforge/pkg/errors"
)

// NetworkMode controls whether the data-plane resources are reachable
// over the public internet or only through private endpoints.
type NetworkMode string

const (
	// NetworkModeEnabled leaves public network access on; no virtual
	// network or private DNS zones are created.
	NetworkModeEnabled NetworkMode = "Enabled"

	// NetworkModeDisabled turns public network access off; all
	// data-plane resources are wired through private endpoints.
	NetworkModeDisabled NetworkMode = "Disabled"
)

// AuthMode selects how the application authenticates to data-plane
// services.
type AuthMode string

const (
	AuthModeIdentity  AuthMode = "identity"
	AuthModeAccessKey AuthMode = "accessKey"
)

const (
	defaultLocation        = "eastus2"
	defaultModel           = "gpt-4o-mini,2024-07-18"
	defaultModelCapacity   = 50
	defaultPrincipalType   = "User"
	defaultVNetPrefix      = "10.0.0.0/16"
	defaultPLSubnetPrefix  = "10.0.1.0/24"
	defaultAppSubnetPrefix = "10.0.2.0/24"
)

// ParameterSet is the immutable top-level input record.
type ParameterSet struct {
	// EnvironmentName scopes every derived resource name.
	EnvironmentName string `yaml:"environmentName"`

	// Location is the Azure region resources deploy into.
	Location string `yaml:"location"`

	// SubscriptionID is the identity scope for unique-suffix
	// derivation and resource-id construction.
	SubscriptionID string `yaml:"subscriptionId"`

	// MyPrincipalID is the object id of the invoking user or service
	// principal. Empty means "skip this access grant".
	MyPrincipalID string `yaml:"myPrincipalId"`

	// MyPrincipalType is "User" or "ServicePrincipal".
	MyPrincipalType string `yaml:"myPrincipalType"`

	// AllowedIPAddresses is a comma-separated list of IPs/CIDRs allowed
	// through the data-plane firewalls. Empty means no IP filter.
	AllowedIPAddresses string `yaml:"allowedIpAddresses"`

	// PublicNetworkAccess is Enabled or Disabled.
	PublicNetworkAccess NetworkMode `yaml:"publicNetworkAccess"`

	// AuthMode is identity or accessKey.
	AuthMode AuthMode `yaml:"authMode"`

	// Address prefixes for the virtual network and its subnets.
	VNetAddressPrefix           string `yaml:"vnetAddressPrefix"`
	PrivateEndpointSubnetPrefix string `yaml:"privateEndpointSubnetPrefix"`
	AppSubnetPrefix             string `yaml:"appSubnetPrefix"`

	// Model is the "name,version" pair of the model to deploy.
	Model string `yaml:"model"`

	// ModelCapacity is the deployment capacity in thousands of TPM.
	ModelCapacity int `yaml:"modelCapacity"`

	// NameOverrides maps a logical resource key to an explicit name.
	// A non-empty override wins over derivation.
	NameOverrides map[string]string `yaml:"nameOverrides"`

	// Tags are applied to every resource.
	Tags map[string]string `yaml:"tags"`
}

// Resolved is the validated, defaulted parameter record plus every
// value derived from it. Read-only after Resolve returns.
type Resolved struct {
	ParameterSet

	// ModelName and ModelVersion are the two halves of Model.
	ModelName    string
	ModelVersion string

	// AllowedIPs is the parsed, trimmed allow-list.
	AllowedIPs []string

	// UniqueSuffix is the deterministic 3-character name suffix.
	UniqueSuffix string

	// Names maps every logical resource key to its concrete name.
	Names *NameTable
}

// Resolve validates and defaults the parameter set, derives the unique
// suffix, and builds the name table. Pure: same inputs always produce
// the same Resolved record.
func Resolve(ps ParameterSet) (*Resolved, error) {
	if ps.EnvironmentName == "" {
		return nil, errors.InvalidConfig("environmentName is required", nil)
	}
	if ps.Location == "" {
		ps.Location = defaultLocation
	}
	if ps.Model == "" {
		ps.Model = defaultModel
	}
	if ps.ModelCapacity == 0 {
		ps.ModelCapacity = defaultModelCapacity
	}
	if ps.ModelCapacity < 1 {
		return nil, errors.InvalidConfig("modelCapacity must be at least 1", map[string]interface{}{
			"modelCapacity": ps.ModelCapacity,
		})
	}
	if ps.MyPrincipalType == "" {
		ps.MyPrincipalType = defaultPrincipalType
	}
	if ps.VNetAddressPrefix == "" {
		ps.VNetAddressPrefix = defaultVNetPrefix
	}
	if ps.PrivateEndpointSubnetPrefix == "" {
		ps.PrivateEndpointSubnetPrefix = defaultPLSubnetPrefix
	}
	if ps.AppSubnetPrefix == "" {
		ps.AppSubnetPrefix = defaultAppSubnetPrefix
	}

	switch ps.PublicNetworkAccess {
	case "":
		ps.PublicNetworkAccess = NetworkModeEnabled
	case NetworkModeEnabled, NetworkModeDisabled:
	default:
		return nil, errors.InvalidConfig("publicNetworkAccess must be Enabled or Disabled", map[string]interface{}{
			"publicNetworkAccess": string(ps.PublicNetworkAccess),
		})
	}

	switch ps.AuthMode {
	case "":
		ps.AuthMode = AuthModeIdentity
	case AuthModeIdentity, AuthModeAccessKey:
	default:
		return nil, errors.InvalidConfig("authMode must be identity or accessKey", map[string]interface{}{
			"authMode": string(ps.AuthMode),
		})
	}

	modelName, modelVersion, err := splitModel(ps.Model)
	if err != nil {
		return nil, err
	}

	suffix := UniqueSuffix(ps.SubscriptionID, ps.EnvironmentName)

	names := buildNameTable(ps.EnvironmentName, suffix, ps.NameOverrides)
	if names.names[KeyModelDeployment] == "" {
		names.names[KeyModelDeployment] = modelName
	}

	return &Resolved{
		ParameterSet: ps,
		ModelName:    modelName,
		ModelVersion: modelVersion,
		AllowedIPs:   parseIPList(ps.AllowedIPAddresses),
		UniqueSuffix: suffix,
		Names:        names,
	}, nil
}

// splitModel splits "name,version" at the first comma.
func splitModel(model string) (string, string, error) {
	name, version, ok := strings.Cut(model, ",")
	if !ok {
		return "", "", errors.InvalidConfig("model must be a \"name,version\" pair", map[string]interface{}{
			"model": model,
		})
	}
	return strings.TrimSpace(name), strings.TrimSpace(version), nil
}

// parseIPList splits a comma-separated allow-list into trimmed
// entries. An empty input yields an empty slice, never a single
// empty-string element.
func parseIPList(raw string) []string {
	ips := []string{}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			ips = append(ips, entry)
		}
	}
	return ips
}

// EnableAuth reports whether identity-based auth is active.
func (r *Resolved) EnableAuth() bool {
	return r.AuthMode == AuthModeIdentity
}
