// Package engine builds the fixed deployment graph from resolved
// parameters and evaluates it through a provisioner.
package engine

import (
	"fmt"

	"github.com/botforge-io/botforge/pkg/graph"
	"github.com/botforge-io/botforge/pkg/grants"
	"github.com/botforge-io/botforge/pkg/params"
	"github.com/botforge-io/botforge/pkg/topology"
)

// Module IDs of the fixed topology.
const (
	ModuleNetwork         = topology.ModuleNetwork
	ModuleDNS             = topology.ModuleDNS
	ModuleManagedIdentity = "managed-identity"
	ModuleAIServices      = "ai-services"
	ModuleBing            = "bing"
	ModuleCosmos          = "document-database"
	ModuleModelDeployment = "model-deployment"
	ModuleAppHost         = "app-host"
	ModuleBotService      = "bot-service"
)

// Cosmos SQL database and container names baked into the deployment.
const (
	cosmosDatabaseName  = "botdb"
	cosmosContainerName = "conversations"
)

// Build constructs the nine-module dependency graph for the resolved
// parameter set. Pure: no cloud calls, no evaluation.
func Build(r *params.Resolved) (*graph.Graph, error) {
	g := graph.NewGraph(r.EnvironmentName)
	decision := topology.Select(r.PublicNetworkAccess)

	names := r.Names
	mainGroup := names.Name(params.KeyResourceGroup)
	dnsGroup := names.Name(params.KeyDNSResourceGroup)

	// Every data-plane module with identity support receives the same
	// grant list: the invoking principal plus the managed identity.
	accessGrants := grants.Bindings(
		r.AuthMode,
		r.MyPrincipalID,
		r.MyPrincipalType,
		graph.Ref(ModuleManagedIdentity, "principalId"),
	)

	network := graph.NewNode(ModuleNetwork, graph.KindVirtualNetwork, names.Name(params.KeyVNet), mainGroup)
	network.Condition = decision.CreateNetworking
	network.SetInput("addressPrefix", graph.Lit(r.VNetAddressPrefix))
	network.SetInput("privateEndpointSubnetName", graph.Lit(names.Name(params.KeySubnetPL)))
	network.SetInput("privateEndpointSubnetPrefix", graph.Lit(r.PrivateEndpointSubnetPrefix))
	network.SetInput("appSubnetName", graph.Lit(names.Name(params.KeySubnetApp)))
	network.SetInput("appSubnetPrefix", graph.Lit(r.AppSubnetPrefix))
	network.DeclaredOutputs = []string{"vnetId", "vnetName", "privateEndpointSubnetId", "appSubnetId"}

	dns := graph.NewNode(ModuleDNS, graph.KindPrivateDNSZones, names.Name(params.KeyVNet), dnsGroup)
	dns.Condition = decision.CreateDNS
	dns.SetInput("zones", topology.ZoneMap())
	dns.SetInput("vnetId", graph.Ref(ModuleNetwork, "vnetId"))
	for _, key := range topology.ZoneOrder {
		dns.DeclaredOutputs = append(dns.DeclaredOutputs, string(key))
	}

	identity := graph.NewNode(ModuleManagedIdentity, graph.KindManagedIdentity, names.Name(params.KeyMSI), mainGroup)
	identity.DeclaredOutputs = []string{"principalId", "clientId", "tenantId", "resourceId", "name"}

	ai := graph.NewNode(ModuleAIServices, graph.KindAIServices, names.Name(params.KeyAIServices), mainGroup)
	ai.SetInput("customSubDomain", graph.Lit(names.Name(params.KeyAIServices)))
	ai.SetInput("publicNetworkAccess", graph.Lit(string(r.PublicNetworkAccess)))
	ai.SetInput("disableLocalAuth", graph.Lit(r.EnableAuth()))
	ai.SetInput("allowedIpRules", r.AllowedIPs)
	ai.SetInput("privateEndpointSubnetId", decision.PrivateEndpointSubnetID)
	ai.SetInput("openaiZone", decision.Zones[topology.ZoneOpenAI])
	ai.SetInput("cognitiveServicesZone", decision.Zones[topology.ZoneCognitiveServices])
	ai.SetInput("aiServicesZone", decision.Zones[topology.ZoneAIServices])
	ai.SetInput("accessGrants", accessGrants)
	ai.DeclaredOutputs = []string{"endpoint", "accountId", "name"}

	// The search account takes no access grants and no network
	// isolation. Historical behavior, kept as-is.
	bing := graph.NewNode(ModuleBing, graph.KindBingSearch, names.Name(params.KeyBing), mainGroup)
	bing.SetInput("sku", graph.Lit("G1"))
	bing.DeclaredOutputs = []string{"endpoint", "apiKey", "name"}

	cosmos := graph.NewNode(ModuleCosmos, graph.KindCosmosAccount, names.Name(params.KeyCosmos), mainGroup)
	cosmos.SetInput("databaseName", graph.Lit(cosmosDatabaseName))
	cosmos.SetInput("containerName", graph.Lit(cosmosContainerName))
	cosmos.SetInput("publicNetworkAccess", graph.Lit(string(r.PublicNetworkAccess)))
	cosmos.SetInput("disableLocalAuth", graph.Lit(r.EnableAuth()))
	cosmos.SetInput("privateEndpointSubnetId", decision.PrivateEndpointSubnetID)
	cosmos.SetInput("documentsZone", decision.Zones[topology.ZoneDocuments])
	cosmos.SetInput("accessGrants", accessGrants)
	cosmos.DeclaredOutputs = []string{"endpoint", "accountId", "databaseName", "containerName", "name"}

	model := graph.NewNode(ModuleModelDeployment, graph.KindModelDeployment, names.Name(params.KeyModelDeployment), mainGroup)
	model.SetInput("accountName", graph.Ref(ModuleAIServices, "name"))
	model.SetInput("deploymentName", graph.Lit(names.Name(params.KeyModelDeployment)))
	model.SetInput("modelName", graph.Lit(r.ModelName))
	model.SetInput("modelVersion", graph.Lit(r.ModelVersion))
	model.SetInput("capacity", graph.Lit(r.ModelCapacity))
	model.DeclaredOutputs = []string{"deploymentName"}

	app := graph.NewNode(ModuleAppHost, graph.KindAppHost, names.Name(params.KeyApp), mainGroup)
	app.SetInput("planName", graph.Lit(names.Name(params.KeyAppPlan)))
	app.SetInput("publicNetworkAccess", graph.Lit(string(r.PublicNetworkAccess)))
	app.SetInput("privateEndpointSubnetId", decision.PrivateEndpointSubnetID)
	app.SetInput("appServiceZone", decision.Zones[topology.ZoneAppService])
	app.SetInput("appSubnetId", appSubnetBinding(decision))
	app.SetInput("aiServicesEndpoint", graph.Ref(ModuleAIServices, "endpoint"))
	app.SetInput("modelDeploymentName", graph.Ref(ModuleModelDeployment, "deploymentName"))
	app.SetInput("cosmosEndpoint", graph.Ref(ModuleCosmos, "endpoint"))
	app.SetInput("cosmosDatabaseName", graph.Ref(ModuleCosmos, "databaseName"))
	app.SetInput("cosmosContainerName", graph.Ref(ModuleCosmos, "containerName"))
	app.SetInput("bingApiKey", graph.Ref(ModuleBing, "apiKey"))
	app.SetInput("msiClientId", graph.Ref(ModuleManagedIdentity, "clientId"))
	app.SetInput("msiTenantId", graph.Ref(ModuleManagedIdentity, "tenantId"))
	app.SetInput("msiResourceId", graph.Ref(ModuleManagedIdentity, "resourceId"))
	app.SetInput("accessGrants", accessGrants)
	app.DeclaredOutputs = []string{"name", "hostName", "appId", "principalId"}

	bot := graph.NewNode(ModuleBotService, graph.KindBotService, names.Name(params.KeyBot), mainGroup)
	bot.SetInput("sku", graph.Lit("S1"))
	bot.SetInput("displayName", graph.Lit(names.Name(params.KeyBot)))
	bot.SetInput("endpoint", graph.Fmt("https://%s/api/messages", graph.Ref(ModuleAppHost, "hostName")))
	bot.SetInput("msiClientId", graph.Ref(ModuleManagedIdentity, "clientId"))
	bot.SetInput("msiTenantId", graph.Ref(ModuleManagedIdentity, "tenantId"))
	bot.SetInput("msiResourceId", graph.Ref(ModuleManagedIdentity, "resourceId"))
	bot.DeclaredOutputs = []string{"botName", "botId"}

	nodes := []*graph.Node{network, dns, identity, ai, bing, cosmos, model, app, bot}
	for _, node := range nodes {
		if err := g.AddNode(node); err != nil {
			return nil, err
		}
	}

	for _, node := range nodes {
		for _, ref := range inputRefs(node.Inputs) {
			if ref.Module == node.ID {
				return nil, fmt.Errorf("module %s references its own output %s", node.ID, ref.Output)
			}
			if err := g.AddEdge(node.ID, ref.Module); err != nil {
				return nil, err
			}
		}
	}

	return g, nil
}

// appSubnetBinding wires the delegated application subnet into the app
// host. Like the private-endpoint subnet it collapses to the empty
// sentinel when no network exists.
func appSubnetBinding(d topology.Decision) graph.Binding {
	if !d.CreateNetworking {
		return graph.Lit("")
	}
	return graph.Ref(ModuleNetwork, "appSubnetId")
}

// inputRefs walks a node's input values and collects every upstream
// module reference, including those nested in format args and grant
// lists.
func inputRefs(inputs map[string]interface{}) []graph.Binding {
	var refs []graph.Binding
	for _, value := range inputs {
		switch v := value.(type) {
		case graph.Binding:
			refs = append(refs, v.Refs()...)
		case []grants.Grant:
			for _, grant := range v {
				refs = append(refs, grant.PrincipalID.Refs()...)
			}
		}
	}
	return refs
}
