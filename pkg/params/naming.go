package params

import (
	"hash/fnv"
	"strconv"
)

// Logical resource keys for the name table.
const (
	KeyResourceGroup    = "resourceGroup"
	KeyDNSResourceGroup = "dnsResourceGroup"
	KeyVNet             = "vnet"
	KeySubnetPL         = "subnetPrivateEndpoints"
	KeySubnetApp        = "subnetApp"
	KeyMSI              = "msi"
	KeyAIServices       = "aiServices"
	KeyBing             = "bing"
	KeyCosmos           = "cosmos"
	KeyAppPlan          = "appPlan"
	KeyApp              = "app"
	KeyBot              = "bot"
	KeyModelDeployment  = "modelDeployment"
)

// nameRule describes how a logical key derives its concrete name when
// no override is supplied.
type nameRule struct {
	prefix string

	// noSuffix keys derive as prefix + environment only.
	noSuffix bool
}

// Abbreviations follow the naming the deployment has always used; the
// subnet prefixes embed the -pl- / -app- sub-tags.
var nameRules = map[string]nameRule{
	KeyResourceGroup:    {prefix: "rg-", noSuffix: true},
	KeyDNSResourceGroup: {prefix: "rg-dns-", noSuffix: true},
	KeyVNet:             {prefix: "vnet-"},
	KeySubnetPL:         {prefix: "snet-pl-"},
	KeySubnetApp:        {prefix: "snet-app-"},
	KeyMSI:              {prefix: "msi-"},
	KeyAIServices:       {prefix: "ais-"},
	KeyBing:             {prefix: "bing-"},
	KeyCosmos:           {prefix: "cosmos-"},
	KeyAppPlan:          {prefix: "plan-"},
	KeyApp:              {prefix: "app-"},
	KeyBot:              {prefix: "bot-"},
}

// NameTable maps logical resource keys to concrete resource names.
// Built once during parameter resolution, read-only thereafter.
type NameTable struct {
	names map[string]string
}

// Name returns the concrete name for a logical resource key. Unknown
// keys return the empty string.
func (t *NameTable) Name(key string) string {
	return t.names[key]
}

// Keys returns every logical key with a resolved name.
func (t *NameTable) Keys() []string {
	keys := make([]string, 0, len(t.names))
	for k := range t.names {
		keys = append(keys, k)
	}
	return keys
}

// All returns a copy of the full key-to-name mapping.
func (t *NameTable) All() map[string]string {
	out := make(map[string]string, len(t.names))
	for k, v := range t.names {
		out[k] = v
	}
	return out
}

func buildNameTable(environment, suffix string, overrides map[string]string) *NameTable {
	names := make(map[string]string, len(nameRules)+1)
	for key, rule := range nameRules {
		if override := overrides[key]; override != "" {
			names[key] = override
			continue
		}
		if rule.noSuffix {
			names[key] = rule.prefix + environment
		} else {
			names[key] = rule.prefix + environment + "-" + suffix
		}
	}

	// The model deployment is named after the model itself unless
	// overridden; derivation happens in Resolve where the model name
	// is known.
	if override := overrides[KeyModelDeployment]; override != "" {
		names[KeyModelDeployment] = override
	}

	return &NameTable{names: names}
}

// UniqueSuffix derives the fixed-length deterministic suffix from a
// stable scope identifier and the environment name. The same inputs
// always produce the same suffix, so repeated resolutions against one
// environment target the same resource names.
func UniqueSuffix(scope, environment string) string {
	if scope == "" {
		scope = "botforge"
	}

	h := fnv.New64a()
	h.Write([]byte(scope))
	h.Write([]byte("|"))
	h.Write([]byte(environment))

	s := strconv.FormatUint(h.Sum64(), 36)
	for len(s) < 3 {
		s = "0" + s
	}
	return s[:3]
}
