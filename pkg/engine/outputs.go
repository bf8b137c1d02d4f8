package engine

import (
	"fmt"
	"strconv"

	"github.com/botforge-io/botforge/pkg/params"
)

// FlatOutputs is the deployment-level output record projected from the
// per-module outputs. Field order follows what the application reads.
type FlatOutputs struct {
	TenantID            string `json:"tenantId" yaml:"tenantId"`
	ResourceGroupID     string `json:"resourceGroupId" yaml:"resourceGroupId"`
	ResourceGroupName   string `json:"resourceGroupName" yaml:"resourceGroupName"`
	AIServicesEndpoint  string `json:"aiServicesEndpoint" yaml:"aiServicesEndpoint"`
	ModelDeploymentName string `json:"modelDeploymentName" yaml:"modelDeploymentName"`
	CosmosEndpoint      string `json:"cosmosEndpoint" yaml:"cosmosEndpoint"`
	CosmosDatabaseName  string `json:"cosmosDatabaseName" yaml:"cosmosDatabaseName"`
	CosmosContainerName string `json:"cosmosContainerName" yaml:"cosmosContainerName"`
	BingEndpoint        string `json:"bingEndpoint" yaml:"bingEndpoint"`
	BingAPIKey          string `json:"bingApiKey" yaml:"bingApiKey"`
	BackendAppName      string `json:"backendAppName" yaml:"backendAppName"`
	BackendHostName     string `json:"backendHostName" yaml:"backendHostName"`
	BotName             string `json:"botName" yaml:"botName"`
	MSIPrincipalID      string `json:"msiPrincipalId" yaml:"msiPrincipalId"`
	MSIClientID         string `json:"msiClientId" yaml:"msiClientId"`
	MSITenantID         string `json:"msiTenantId" yaml:"msiTenantId"`
	AuthMode            string `json:"authMode" yaml:"authMode"`
	EnableAuth          bool   `json:"enableAuth" yaml:"enableAuth"`
}

// Aggregate projects the per-module outputs into the flat record. Pure
// and idempotent: the same inputs always produce the same record.
func Aggregate(r *params.Resolved, outputs ModuleOutputs) FlatOutputs {
	get := func(module, key string) string {
		record, ok := outputs[module]
		if !ok {
			return ""
		}
		s, _ := record[key].(string)
		return s
	}

	groupName := r.Names.Name(params.KeyResourceGroup)

	flat := FlatOutputs{
		TenantID:            get(ModuleManagedIdentity, "tenantId"),
		ResourceGroupName:   groupName,
		AIServicesEndpoint:  get(ModuleAIServices, "endpoint"),
		ModelDeploymentName: get(ModuleModelDeployment, "deploymentName"),
		CosmosEndpoint:      get(ModuleCosmos, "endpoint"),
		CosmosDatabaseName:  get(ModuleCosmos, "databaseName"),
		CosmosContainerName: get(ModuleCosmos, "containerName"),
		BingEndpoint:        get(ModuleBing, "endpoint"),
		BingAPIKey:          get(ModuleBing, "apiKey"),
		BackendAppName:      get(ModuleAppHost, "name"),
		BackendHostName:     get(ModuleAppHost, "hostName"),
		BotName:             get(ModuleBotService, "botName"),
		MSIPrincipalID:      get(ModuleManagedIdentity, "principalId"),
		MSIClientID:         get(ModuleManagedIdentity, "clientId"),
		MSITenantID:         get(ModuleManagedIdentity, "tenantId"),
		AuthMode:            string(r.AuthMode),
		EnableAuth:          r.EnableAuth(),
	}

	if r.SubscriptionID != "" {
		flat.ResourceGroupID = fmt.Sprintf("/subscriptions/%s/resourceGroups/%s", r.SubscriptionID, groupName)
	}

	return flat
}

// EnvMap renders the flat outputs as the environment variables the bot
// application reads at startup.
func EnvMap(flat FlatOutputs) map[string]string {
	return map[string]string{
		"AZURE_TENANT_ID":              flat.TenantID,
		"AZURE_OPENAI_API_ENDPOINT":    flat.AIServicesEndpoint,
		"AZURE_OPENAI_DEPLOYMENT_NAME": flat.ModelDeploymentName,
		"AZURE_COSMOSDB_ENDPOINT":      flat.CosmosEndpoint,
		"AZURE_COSMOSDB_DATABASE_ID":   flat.CosmosDatabaseName,
		"AZURE_COSMOSDB_CONTAINER_ID":  flat.CosmosContainerName,
		"AZURE_BING_API_ENDPOINT":      flat.BingEndpoint,
		"AZURE_BING_API_KEY":           flat.BingAPIKey,
		"MicrosoftAppId":               flat.MSIClientID,
		"MicrosoftAppTenantId":         flat.MSITenantID,
		"ENABLE_AUTH":                  strconv.FormatBool(flat.EnableAuth),
	}
}
