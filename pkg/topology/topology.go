// Package topology decides which networking resources exist for a
// given network-access mode and how downstream modules bind to them.
package topology

import (
	"github.com/botforge-io/botforge/pkg/graph"
	"github.com/botforge-io/botforge/pkg/params"
)

// ModuleNetwork and ModuleDNS are the module IDs the decision's
// references point at.
const (
	ModuleNetwork = "network"
	ModuleDNS     = "dns"
)

// OutputPrivateEndpointSubnetID is the network module output carrying
// the private-endpoint subnet resource id.
const OutputPrivateEndpointSubnetID = "privateEndpointSubnetId"

// Decision describes the conditional topology for one network mode.
type Decision struct {
	// CreateNetworking gates the virtual network module.
	CreateNetworking bool

	// CreateDNS gates the private DNS zone module and its resource
	// group.
	CreateDNS bool

	// PrivateEndpointSubnetID is what every module needing a
	// private-endpoint subnet receives: a reference to the network
	// module's subnet output when networking exists, the empty
	// sentinel otherwise. Never an unresolvable reference.
	PrivateEndpointSubnetID graph.Binding

	// Zones maps each zone key to what downstream modules receive: a
	// reference to the DNS module's per-zone resource id when DNS
	// exists, the literal zone domain otherwise.
	Zones map[ZoneKey]graph.Binding
}

// Select computes the topology decision for a network mode.
func Select(mode params.NetworkMode) Decision {
	private := mode == params.NetworkModeDisabled

	d := Decision{
		CreateNetworking: private,
		CreateDNS:        private,
		Zones:            make(map[ZoneKey]graph.Binding, len(ZoneOrder)),
	}

	if private {
		d.PrivateEndpointSubnetID = graph.Ref(ModuleNetwork, OutputPrivateEndpointSubnetID)
		for _, key := range ZoneOrder {
			d.Zones[key] = graph.Ref(ModuleDNS, string(key))
		}
		return d
	}

	d.PrivateEndpointSubnetID = graph.Lit("")
	for _, key := range ZoneOrder {
		// Downstream modules accept a plain zone name when no private
		// DNS zones exist.
		d.Zones[key] = graph.Lit(zoneDomains[key])
	}
	return d
}
