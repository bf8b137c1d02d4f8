// Package arm implements the provisioner contract against Azure
// Resource Manager. Each module maps to one or more generic resource
// PUTs; polling blocks until the deployment settles.
package arm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	azarm "github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/google/uuid"

	"github.com/botforge-io/botforge/pkg/graph"
	"github.com/botforge-io/botforge/pkg/grants"
	"github.com/botforge-io/botforge/pkg/provision"
)

// API versions per resource provider.
const (
	apiVirtualNetwork  = "2024-05-01"
	apiPrivateDNS      = "2024-06-01"
	apiManagedIdentity = "2023-01-31"
	apiCognitive       = "2024-10-01"
	apiBing            = "2020-06-10"
	apiCosmos          = "2024-11-15"
	apiWeb             = "2024-04-01"
	apiBotService      = "2022-09-15"
	apiRoleAssignment  = "2022-04-01"
)

// Built-in role definitions granted to access-grant principals.
const (
	roleCognitiveServicesOpenAIUser = "a001fd3d-188f-4b5d-821b-7da978bf7442"
	cosmosDataContributorRole       = "00000000-0000-0000-0000-000000000002"
)

// roleAssignmentNamespace seeds deterministic role-assignment names so
// re-deploys converge on the same assignment instead of conflicting.
var roleAssignmentNamespace = uuid.MustParse("a2b7f3de-2c1a-4b6e-9c70-5d6f1f1f9f01")

// Provisioner evaluates modules against Azure Resource Manager.
type Provisioner struct {
	subscriptionID string
	tenantID       string
	resources      *armresources.Client
	groups         *armresources.ResourceGroupsClient

	// mgmt issues the POST actions (listKeys) the generic resource
	// client has no surface for.
	mgmt *azarm.Client
}

// New creates an ARM provisioner. A nil credential falls back to
// DefaultAzureCredential.
func New(subscriptionID, tenantID string, cred azcore.TokenCredential) (*Provisioner, error) {
	if subscriptionID == "" {
		return nil, fmt.Errorf("subscription id is required")
	}

	if cred == nil {
		var err error
		cred, err = azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create default Azure credential: %w", err)
		}
	}

	resources, err := armresources.NewClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create resources client: %w", err)
	}

	groups, err := armresources.NewResourceGroupsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource groups client: %w", err)
	}

	mgmt, err := azarm.NewClient("botforge", "v1", cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create management client: %w", err)
	}

	return &Provisioner{
		subscriptionID: subscriptionID,
		tenantID:       tenantID,
		resources:      resources,
		groups:         groups,
		mgmt:           mgmt,
	}, nil
}

func (p *Provisioner) Evaluate(ctx context.Context, req provision.ModuleRequest) (provision.Outputs, error) {
	if err := p.ensureResourceGroup(ctx, req); err != nil {
		return nil, err
	}

	switch req.Kind {
	case graph.KindVirtualNetwork:
		return p.evaluateVirtualNetwork(ctx, req)
	case graph.KindPrivateDNSZones:
		return p.evaluatePrivateDNSZones(ctx, req)
	case graph.KindManagedIdentity:
		return p.evaluateManagedIdentity(ctx, req)
	case graph.KindAIServices:
		return p.evaluateAIServices(ctx, req)
	case graph.KindBingSearch:
		return p.evaluateBing(ctx, req)
	case graph.KindCosmosAccount:
		return p.evaluateCosmos(ctx, req)
	case graph.KindModelDeployment:
		return p.evaluateModelDeployment(ctx, req)
	case graph.KindAppHost:
		return p.evaluateAppHost(ctx, req)
	case graph.KindBotService:
		return p.evaluateBotService(ctx, req)
	default:
		return nil, fmt.Errorf("unknown module kind %q", req.Kind)
	}
}

func (p *Provisioner) Delete(ctx context.Context, req provision.ModuleRequest) error {
	if req.Kind == graph.KindPrivateDNSZones {
		return p.deletePrivateDNSZones(ctx, req)
	}

	resourceID, apiVersion := p.primaryResourceID(req)
	if resourceID == "" {
		return nil
	}

	poller, err := p.resources.BeginDeleteByID(ctx, resourceID, apiVersion, nil)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", resourceID, err)
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return fmt.Errorf("failed to delete %s: %w", resourceID, err)
	}
	return nil
}

func (p *Provisioner) ensureResourceGroup(ctx context.Context, req provision.ModuleRequest) error {
	// Private DNS zones are global, but their containing group still
	// needs a region, so every module uses the deployment location.
	_, err := p.groups.CreateOrUpdate(ctx, req.ResourceGroup, armresources.ResourceGroup{
		Location: to.Ptr(req.Location),
		Tags:     tagPtrs(req.Tags),
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to ensure resource group %s: %w", req.ResourceGroup, err)
	}
	return nil
}

func (p *Provisioner) evaluateVirtualNetwork(ctx context.Context, req provision.ModuleRequest) (provision.Outputs, error) {
	plSubnet := inputString(req, "privateEndpointSubnetName")
	appSubnet := inputString(req, "appSubnetName")

	vnetID := p.resourceID(req.ResourceGroup, "Microsoft.Network/virtualNetworks", req.Name)
	properties := map[string]interface{}{
		"addressSpace": map[string]interface{}{
			"addressPrefixes": []string{inputString(req, "addressPrefix")},
		},
		"subnets": []interface{}{
			map[string]interface{}{
				"name": plSubnet,
				"properties": map[string]interface{}{
					"addressPrefix":                     inputString(req, "privateEndpointSubnetPrefix"),
					"privateEndpointNetworkPolicies":    "Disabled",
					"privateLinkServiceNetworkPolicies": "Enabled",
				},
			},
			map[string]interface{}{
				"name": appSubnet,
				"properties": map[string]interface{}{
					"addressPrefix": inputString(req, "appSubnetPrefix"),
					"delegations": []interface{}{
						map[string]interface{}{
							"name": "appservice",
							"properties": map[string]interface{}{
								"serviceName": "Microsoft.Web/serverFarms",
							},
						},
					},
				},
			},
		},
	}

	if _, err := p.put(ctx, vnetID, apiVirtualNetwork, req, properties, nil); err != nil {
		return nil, err
	}

	return provision.Outputs{
		"vnetId":                  vnetID,
		"vnetName":                req.Name,
		"privateEndpointSubnetId": vnetID + "/subnets/" + plSubnet,
		"appSubnetId":             vnetID + "/subnets/" + appSubnet,
	}, nil
}

func (p *Provisioner) evaluatePrivateDNSZones(ctx context.Context, req provision.ModuleRequest) (provision.Outputs, error) {
	zones, _ := req.Inputs["zones"].(map[string]string)
	vnetID := inputString(req, "vnetId")

	outputs := provision.Outputs{}
	for key, domain := range zones {
		zoneID := p.resourceID(req.ResourceGroup, "Microsoft.Network/privateDnsZones", domain)
		if _, err := p.putGlobal(ctx, zoneID, apiPrivateDNS, req, map[string]interface{}{}); err != nil {
			return nil, err
		}

		// Link every zone back to the virtual network so private
		// endpoint records resolve inside it.
		linkID := zoneID + "/virtualNetworkLinks/" + req.Name + "-link"
		linkProps := map[string]interface{}{
			"virtualNetwork":      map[string]interface{}{"id": vnetID},
			"registrationEnabled": false,
		}
		if _, err := p.putGlobal(ctx, linkID, apiPrivateDNS, req, linkProps); err != nil {
			return nil, err
		}

		outputs[key] = zoneID
	}
	return outputs, nil
}

func (p *Provisioner) evaluateManagedIdentity(ctx context.Context, req provision.ModuleRequest) (provision.Outputs, error) {
	msiID := p.resourceID(req.ResourceGroup, "Microsoft.ManagedIdentity/userAssignedIdentities", req.Name)
	resp, err := p.put(ctx, msiID, apiManagedIdentity, req, map[string]interface{}{}, nil)
	if err != nil {
		return nil, err
	}

	return provision.Outputs{
		"principalId": propString(resp, "principalId"),
		"clientId":    propString(resp, "clientId"),
		"tenantId":    p.tenantID,
		"resourceId":  msiID,
		"name":        req.Name,
	}, nil
}

func (p *Provisioner) evaluateAIServices(ctx context.Context, req provision.ModuleRequest) (provision.Outputs, error) {
	accountID := p.resourceID(req.ResourceGroup, "Microsoft.CognitiveServices/accounts", req.Name)

	ipRules := []interface{}{}
	if ips, ok := req.Inputs["allowedIpRules"].([]string); ok {
		for _, ip := range ips {
			ipRules = append(ipRules, map[string]interface{}{"value": ip})
		}
	}

	properties := map[string]interface{}{
		"customSubDomainName": inputString(req, "customSubDomain"),
		"publicNetworkAccess": inputString(req, "publicNetworkAccess"),
		"disableLocalAuth":    req.Inputs["disableLocalAuth"] == true,
	}
	if len(ipRules) > 0 {
		properties["networkAcls"] = map[string]interface{}{
			"defaultAction": "Deny",
			"ipRules":       ipRules,
		}
	}

	resource := armresources.GenericResource{
		Location:   to.Ptr(req.Location),
		Tags:       tagPtrs(req.Tags),
		Kind:       to.Ptr("AIServices"),
		SKU:        &armresources.SKU{Name: to.Ptr("S0")},
		Properties: properties,
	}
	resp, err := p.putResource(ctx, accountID, apiCognitive, resource)
	if err != nil {
		return nil, err
	}

	if err := p.assignRoles(ctx, accountID, roleCognitiveServicesOpenAIUser, req); err != nil {
		return nil, err
	}

	zones := []string{
		inputString(req, "openaiZone"),
		inputString(req, "cognitiveServicesZone"),
		inputString(req, "aiServicesZone"),
	}
	if err := p.ensurePrivateEndpoint(ctx, req, accountID, "account", zones); err != nil {
		return nil, err
	}

	endpoint := propString(resp, "endpoint")
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.cognitiveservices.azure.com/", req.Name)
	}

	return provision.Outputs{
		"endpoint":  endpoint,
		"accountId": accountID,
		"name":      req.Name,
	}, nil
}

func (p *Provisioner) evaluateBing(ctx context.Context, req provision.ModuleRequest) (provision.Outputs, error) {
	accountID := p.resourceID(req.ResourceGroup, "Microsoft.Bing/accounts", req.Name)

	resource := armresources.GenericResource{
		Location: to.Ptr("global"),
		Tags:     tagPtrs(req.Tags),
		Kind:     to.Ptr("Bing.Search.v7"),
		SKU:      &armresources.SKU{Name: to.Ptr(inputString(req, "sku"))},
	}
	if _, err := p.putResource(ctx, accountID, apiBing, resource); err != nil {
		return nil, err
	}

	apiKey, err := p.listAccountKey(ctx, accountID, apiBing)
	if err != nil {
		return nil, err
	}

	return provision.Outputs{
		"endpoint": "https://api.bing.microsoft.com/",
		"apiKey":   apiKey,
		"name":     req.Name,
	}, nil
}

func (p *Provisioner) evaluateCosmos(ctx context.Context, req provision.ModuleRequest) (provision.Outputs, error) {
	accountID := p.resourceID(req.ResourceGroup, "Microsoft.DocumentDB/databaseAccounts", req.Name)

	properties := map[string]interface{}{
		"databaseAccountOfferType": "Standard",
		"publicNetworkAccess":      inputString(req, "publicNetworkAccess"),
		"disableLocalAuth":         req.Inputs["disableLocalAuth"] == true,
		"locations": []interface{}{
			map[string]interface{}{"locationName": req.Location, "failoverPriority": 0},
		},
	}

	resp, err := p.put(ctx, accountID, apiCosmos, req, properties, to.Ptr("GlobalDocumentDB"))
	if err != nil {
		return nil, err
	}

	databaseName := inputString(req, "databaseName")
	containerName := inputString(req, "containerName")

	dbID := accountID + "/sqlDatabases/" + databaseName
	dbProps := map[string]interface{}{
		"resource": map[string]interface{}{"id": databaseName},
	}
	if _, err := p.putGlobal(ctx, dbID, apiCosmos, req, dbProps); err != nil {
		return nil, err
	}

	containerID := dbID + "/containers/" + containerName
	containerProps := map[string]interface{}{
		"resource": map[string]interface{}{
			"id": containerName,
			"partitionKey": map[string]interface{}{
				"paths": []string{"/id"},
				"kind":  "Hash",
			},
		},
	}
	if _, err := p.putGlobal(ctx, containerID, apiCosmos, req, containerProps); err != nil {
		return nil, err
	}

	if err := p.assignCosmosRoles(ctx, accountID, req); err != nil {
		return nil, err
	}

	if err := p.ensurePrivateEndpoint(ctx, req, accountID, "Sql", []string{inputString(req, "documentsZone")}); err != nil {
		return nil, err
	}

	endpoint := propString(resp, "documentEndpoint")
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.documents.azure.com:443/", req.Name)
	}

	return provision.Outputs{
		"endpoint":      endpoint,
		"accountId":     accountID,
		"databaseName":  databaseName,
		"containerName": containerName,
		"name":          req.Name,
	}, nil
}

func (p *Provisioner) evaluateModelDeployment(ctx context.Context, req provision.ModuleRequest) (provision.Outputs, error) {
	deploymentName := inputString(req, "deploymentName")
	accountName := inputString(req, "accountName")
	deploymentID := p.resourceID(req.ResourceGroup, "Microsoft.CognitiveServices/accounts", accountName) + "/deployments/" + deploymentName

	capacity := 1
	if c, ok := req.Inputs["capacity"].(int); ok {
		capacity = c
	}

	resource := armresources.GenericResource{
		SKU: &armresources.SKU{
			Name:     to.Ptr("GlobalStandard"),
			Capacity: to.Ptr(int32(capacity)),
		},
		Properties: map[string]interface{}{
			"model": map[string]interface{}{
				"format":  "OpenAI",
				"name":    inputString(req, "modelName"),
				"version": inputString(req, "modelVersion"),
			},
		},
	}
	if _, err := p.putResource(ctx, deploymentID, apiCognitive, resource); err != nil {
		return nil, err
	}

	return provision.Outputs{
		"deploymentName": deploymentName,
	}, nil
}

func (p *Provisioner) evaluateAppHost(ctx context.Context, req provision.ModuleRequest) (provision.Outputs, error) {
	planName := inputString(req, "planName")
	planID := p.resourceID(req.ResourceGroup, "Microsoft.Web/serverfarms", planName)

	plan := armresources.GenericResource{
		Location:   to.Ptr(req.Location),
		Tags:       tagPtrs(req.Tags),
		Kind:       to.Ptr("linux"),
		SKU:        &armresources.SKU{Name: to.Ptr("P0v3")},
		Properties: map[string]interface{}{"reserved": true},
	}
	if _, err := p.putResource(ctx, planID, apiWeb, plan); err != nil {
		return nil, err
	}

	siteID := p.resourceID(req.ResourceGroup, "Microsoft.Web/sites", req.Name)
	siteProps := map[string]interface{}{
		"serverFarmId": planID,
		"httpsOnly":    true,
		"siteConfig": map[string]interface{}{
			"linuxFxVersion": "PYTHON|3.11",
			"appSettings": []interface{}{
				setting("AZURE_OPENAI_API_ENDPOINT", inputString(req, "aiServicesEndpoint")),
				setting("AZURE_OPENAI_DEPLOYMENT_NAME", inputString(req, "modelDeploymentName")),
				setting("AZURE_COSMOSDB_ENDPOINT", inputString(req, "cosmosEndpoint")),
				setting("AZURE_COSMOSDB_DATABASE_ID", inputString(req, "cosmosDatabaseName")),
				setting("AZURE_COSMOSDB_CONTAINER_ID", inputString(req, "cosmosContainerName")),
				setting("AZURE_BING_API_KEY", inputString(req, "bingApiKey")),
				setting("MicrosoftAppId", inputString(req, "msiClientId")),
				setting("MicrosoftAppTenantId", inputString(req, "msiTenantId")),
				setting("MicrosoftAppType", "UserAssignedMSI"),
			},
		},
	}
	if subnetID := inputString(req, "appSubnetId"); subnetID != "" {
		siteProps["virtualNetworkSubnetId"] = subnetID
	}

	site := armresources.GenericResource{
		Location:   to.Ptr(req.Location),
		Tags:       tagPtrs(req.Tags),
		Kind:       to.Ptr("app,linux"),
		Properties: siteProps,
	}
	if msiResourceID := inputString(req, "msiResourceId"); msiResourceID != "" {
		site.Identity = &armresources.Identity{
			Type: to.Ptr(armresources.ResourceIdentityTypeUserAssigned),
			UserAssignedIdentities: map[string]*armresources.IdentityUserAssignedIdentitiesValue{
				msiResourceID: {},
			},
		}
	}

	resp, err := p.putResource(ctx, siteID, apiWeb, site)
	if err != nil {
		return nil, err
	}

	if err := p.ensurePrivateEndpoint(ctx, req, siteID, "sites", []string{inputString(req, "appServiceZone")}); err != nil {
		return nil, err
	}

	hostName := propString(resp, "defaultHostName")
	if hostName == "" {
		hostName = req.Name + ".azurewebsites.net"
	}

	return provision.Outputs{
		"name":        req.Name,
		"hostName":    hostName,
		"appId":       siteID,
		"principalId": propString(resp, "principalId"),
	}, nil
}

func (p *Provisioner) evaluateBotService(ctx context.Context, req provision.ModuleRequest) (provision.Outputs, error) {
	botID := p.resourceID(req.ResourceGroup, "Microsoft.BotService/botServices", req.Name)

	resource := armresources.GenericResource{
		Location: to.Ptr("global"),
		Tags:     tagPtrs(req.Tags),
		Kind:     to.Ptr("azurebot"),
		SKU:      &armresources.SKU{Name: to.Ptr(inputString(req, "sku"))},
		Properties: map[string]interface{}{
			"displayName":         inputString(req, "displayName"),
			"endpoint":            inputString(req, "endpoint"),
			"msaAppId":            inputString(req, "msiClientId"),
			"msaAppTenantId":      inputString(req, "msiTenantId"),
			"msaAppType":          "UserAssignedMSI",
			"msaAppMSIResourceId": inputString(req, "msiResourceId"),
			"disableLocalAuth":    true,
		},
	}
	if _, err := p.putResource(ctx, botID, apiBotService, resource); err != nil {
		return nil, err
	}

	return provision.Outputs{
		"botName": req.Name,
		"botId":   botID,
	}, nil
}

// assignRoles grants every access-grant principal the given role on
// the resource scope.
func (p *Provisioner) assignRoles(ctx context.Context, scope, roleDefinition string, req provision.ModuleRequest) error {
	accessGrants, ok := req.Inputs["accessGrants"].([]grants.AccessGrant)
	if !ok {
		return nil
	}

	for _, grant := range accessGrants {
		name := uuid.NewSHA1(roleAssignmentNamespace, []byte(scope+grant.PrincipalID+roleDefinition)).String()
		assignmentID := scope + "/providers/Microsoft.Authorization/roleAssignments/" + name

		properties := map[string]interface{}{
			"roleDefinitionId": fmt.Sprintf("/subscriptions/%s/providers/Microsoft.Authorization/roleDefinitions/%s", p.subscriptionID, roleDefinition),
			"principalId":      grant.PrincipalID,
			"principalType":    grant.PrincipalType,
		}
		if _, err := p.putGlobal(ctx, assignmentID, apiRoleAssignment, req, properties); err != nil {
			return err
		}
	}
	return nil
}

// assignCosmosRoles grants data-plane access through Cosmos SQL role
// assignments.
func (p *Provisioner) assignCosmosRoles(ctx context.Context, accountID string, req provision.ModuleRequest) error {
	accessGrants, ok := req.Inputs["accessGrants"].([]grants.AccessGrant)
	if !ok {
		return nil
	}

	for _, grant := range accessGrants {
		name := uuid.NewSHA1(roleAssignmentNamespace, []byte(accountID+grant.PrincipalID)).String()
		assignmentID := accountID + "/sqlRoleAssignments/" + name

		properties := map[string]interface{}{
			"roleDefinitionId": accountID + "/sqlRoleDefinitions/" + cosmosDataContributorRole,
			"principalId":      grant.PrincipalID,
			"scope":            accountID,
		}
		if _, err := p.putGlobal(ctx, assignmentID, apiCosmos, req, properties); err != nil {
			return err
		}
	}
	return nil
}

// ensurePrivateEndpoint connects a data-plane resource to the private
// endpoint subnet and registers it in the matching private DNS zones.
// A no-op when no subnet is threaded (public network mode).
func (p *Provisioner) ensurePrivateEndpoint(ctx context.Context, req provision.ModuleRequest, targetID, groupID string, zoneIDs []string) error {
	subnetID := inputString(req, "privateEndpointSubnetId")
	if subnetID == "" {
		return nil
	}

	endpointID := p.resourceID(req.ResourceGroup, "Microsoft.Network/privateEndpoints", "pe-"+req.Name)
	properties := map[string]interface{}{
		"subnet": map[string]interface{}{"id": subnetID},
		"privateLinkServiceConnections": []interface{}{
			map[string]interface{}{
				"name": "pe-" + req.Name,
				"properties": map[string]interface{}{
					"privateLinkServiceId": targetID,
					"groupIds":             []string{groupID},
				},
			},
		},
	}
	if _, err := p.put(ctx, endpointID, apiVirtualNetwork, req, properties, nil); err != nil {
		return err
	}

	configs := zoneGroupConfigs(zoneIDs)
	if len(configs) == 0 {
		return nil
	}
	groupProps := map[string]interface{}{
		"privateDnsZoneConfigs": configs,
	}
	_, err := p.putGlobal(ctx, endpointID+"/privateDnsZoneGroups/default", apiVirtualNetwork, req, groupProps)
	return err
}

// zoneGroupConfigs builds the zone-group config list, skipping empty
// zone ids (zones that were not created in the current network mode).
func zoneGroupConfigs(zoneIDs []string) []interface{} {
	var configs []interface{}
	for i, zoneID := range zoneIDs {
		if zoneID == "" {
			continue
		}
		configs = append(configs, map[string]interface{}{
			"name": fmt.Sprintf("zone-%d", i),
			"properties": map[string]interface{}{
				"privateDnsZoneId": zoneID,
			},
		})
	}
	return configs
}

// listAccountKey POSTs the listKeys action on an account resource and
// returns its primary key.
func (p *Provisioner) listAccountKey(ctx context.Context, resourceID, apiVersion string) (string, error) {
	req, err := runtime.NewRequest(ctx, http.MethodPost, runtime.JoinPaths(p.mgmt.Endpoint(), resourceID, "listKeys"))
	if err != nil {
		return "", err
	}
	query := req.Raw().URL.Query()
	query.Set("api-version", apiVersion)
	req.Raw().URL.RawQuery = query.Encode()

	resp, err := p.mgmt.Pipeline().Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to list keys for %s: %w", resourceID, err)
	}
	if !runtime.HasStatusCode(resp, http.StatusOK) {
		return "", runtime.NewResponseError(resp)
	}

	payload, err := runtime.Payload(resp)
	if err != nil {
		return "", err
	}
	return parseAccountKey(payload)
}

func parseAccountKey(payload []byte) (string, error) {
	var keys struct {
		Key1 string `json:"key1"`
		Key2 string `json:"key2"`
	}
	if err := json.Unmarshal(payload, &keys); err != nil {
		return "", fmt.Errorf("failed to decode listKeys response: %w", err)
	}
	if keys.Key1 != "" {
		return keys.Key1, nil
	}
	return keys.Key2, nil
}

func (p *Provisioner) put(ctx context.Context, resourceID, apiVersion string, req provision.ModuleRequest, properties map[string]interface{}, kind *string) (armresources.GenericResource, error) {
	resource := armresources.GenericResource{
		Location:   to.Ptr(req.Location),
		Tags:       tagPtrs(req.Tags),
		Kind:       kind,
		Properties: properties,
	}
	return p.putResource(ctx, resourceID, apiVersion, resource)
}

// putGlobal writes a child or extension resource that carries no
// location or tags of its own.
func (p *Provisioner) putGlobal(ctx context.Context, resourceID, apiVersion string, req provision.ModuleRequest, properties map[string]interface{}) (armresources.GenericResource, error) {
	resource := armresources.GenericResource{
		Properties: properties,
	}
	if req.Kind == graph.KindPrivateDNSZones {
		resource.Location = to.Ptr("global")
		resource.Tags = tagPtrs(req.Tags)
	}
	return p.putResource(ctx, resourceID, apiVersion, resource)
}

func (p *Provisioner) putResource(ctx context.Context, resourceID, apiVersion string, resource armresources.GenericResource) (armresources.GenericResource, error) {
	poller, err := p.resources.BeginCreateOrUpdateByID(ctx, resourceID, apiVersion, resource, nil)
	if err != nil {
		return armresources.GenericResource{}, fmt.Errorf("failed to create %s: %w", resourceID, err)
	}

	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return armresources.GenericResource{}, fmt.Errorf("failed to create %s: %w", resourceID, err)
	}
	return resp.GenericResource, nil
}

// deletePrivateDNSZones removes every zone the module created, one by
// one; deleting a zone takes its vnet links with it. The zone list
// comes from the module's persisted inputs.
func (p *Provisioner) deletePrivateDNSZones(ctx context.Context, req provision.ModuleRequest) error {
	for _, domain := range inputStringMap(req, "zones") {
		zoneID := p.resourceID(req.ResourceGroup, "Microsoft.Network/privateDnsZones", domain)
		poller, err := p.resources.BeginDeleteByID(ctx, zoneID, apiPrivateDNS, nil)
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", zoneID, err)
		}
		if _, err := poller.PollUntilDone(ctx, nil); err != nil {
			return fmt.Errorf("failed to delete %s: %w", zoneID, err)
		}
	}
	return nil
}

// primaryResourceID returns the top-level resource a module owns, for
// deletion.
func (p *Provisioner) primaryResourceID(req provision.ModuleRequest) (string, string) {
	switch req.Kind {
	case graph.KindVirtualNetwork:
		return p.resourceID(req.ResourceGroup, "Microsoft.Network/virtualNetworks", req.Name), apiVirtualNetwork
	case graph.KindManagedIdentity:
		return p.resourceID(req.ResourceGroup, "Microsoft.ManagedIdentity/userAssignedIdentities", req.Name), apiManagedIdentity
	case graph.KindAIServices:
		return p.resourceID(req.ResourceGroup, "Microsoft.CognitiveServices/accounts", req.Name), apiCognitive
	case graph.KindBingSearch:
		return p.resourceID(req.ResourceGroup, "Microsoft.Bing/accounts", req.Name), apiBing
	case graph.KindCosmosAccount:
		return p.resourceID(req.ResourceGroup, "Microsoft.DocumentDB/databaseAccounts", req.Name), apiCosmos
	case graph.KindAppHost:
		return p.resourceID(req.ResourceGroup, "Microsoft.Web/sites", req.Name), apiWeb
	case graph.KindBotService:
		return p.resourceID(req.ResourceGroup, "Microsoft.BotService/botServices", req.Name), apiBotService
	default:
		return "", ""
	}
}

func (p *Provisioner) resourceID(resourceGroup, resourceType, name string) string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/%s/%s",
		p.subscriptionID, resourceGroup, resourceType, name)
}

func setting(name, value string) map[string]interface{} {
	return map[string]interface{}{"name": name, "value": value}
}

func tagPtrs(tags map[string]string) map[string]*string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]*string, len(tags))
	for k, v := range tags {
		out[k] = to.Ptr(v)
	}
	return out
}

func inputString(req provision.ModuleRequest, key string) string {
	s, _ := req.Inputs[key].(string)
	return s
}

// inputStringMap reads a string-map input. Inputs replayed from
// persisted state arrive JSON-decoded as map[string]interface{}.
func inputStringMap(req provision.ModuleRequest, key string) map[string]string {
	switch m := req.Inputs[key].(type) {
	case map[string]string:
		return m
	case map[string]interface{}:
		out := make(map[string]string, len(m))
		for k, v := range m {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
		return out
	default:
		return nil
	}
}

func propString(resource armresources.GenericResource, key string) string {
	props, ok := resource.Properties.(map[string]interface{})
	if !ok {
		return ""
	}
	s, _ := props[key].(string)
	return s
}

var _ provision.Provisioner = (*Provisioner)(nil)
