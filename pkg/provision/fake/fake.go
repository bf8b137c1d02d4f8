// Package fake implements an in-memory provisioner that synthesizes
// deterministic outputs from resource names. It backs dry runs and
// tests; no cloud calls are made.
package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/botforge-io/botforge/pkg/graph"
	"github.com/botforge-io/botforge/pkg/provision"
)

const defaultSubscriptionID = "00000000-0000-0000-0000-000000000000"
const defaultTenantID = "11111111-1111-1111-1111-111111111111"

// principalNamespace seeds the deterministic pseudo-guids so the same
// resource name always yields the same principal/client id.
var principalNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// Provisioner synthesizes outputs without touching any cloud API.
type Provisioner struct {
	subscriptionID string
	tenantID       string

	mu        sync.Mutex
	evaluated []string
	deleted   []string
}

// New creates a fake provisioner with default subscription and tenant
// identifiers.
func New() *Provisioner {
	return &Provisioner{
		subscriptionID: defaultSubscriptionID,
		tenantID:       defaultTenantID,
	}
}

// WithScope overrides the subscription and tenant ids embedded in
// synthesized resource ids.
func (p *Provisioner) WithScope(subscriptionID, tenantID string) *Provisioner {
	if subscriptionID != "" {
		p.subscriptionID = subscriptionID
	}
	if tenantID != "" {
		p.tenantID = tenantID
	}
	return p
}

// Evaluated returns the module names evaluated so far, in order.
func (p *Provisioner) Evaluated() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.evaluated...)
}

// Deleted returns the module names deleted so far, in order.
func (p *Provisioner) Deleted() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.deleted...)
}

func (p *Provisioner) Evaluate(ctx context.Context, req provision.ModuleRequest) (provision.Outputs, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.evaluated = append(p.evaluated, req.Module)
	p.mu.Unlock()

	switch req.Kind {
	case graph.KindVirtualNetwork:
		vnetID := p.resourceID(req.ResourceGroup, "Microsoft.Network/virtualNetworks", req.Name)
		return provision.Outputs{
			"vnetId":                  vnetID,
			"vnetName":                req.Name,
			"privateEndpointSubnetId": vnetID + "/subnets/" + inputString(req, "privateEndpointSubnetName"),
			"appSubnetId":             vnetID + "/subnets/" + inputString(req, "appSubnetName"),
		}, nil

	case graph.KindPrivateDNSZones:
		outputs := provision.Outputs{}
		zones, _ := req.Inputs["zones"].(map[string]string)
		for key, domain := range zones {
			outputs[key] = p.resourceID(req.ResourceGroup, "Microsoft.Network/privateDnsZones", domain)
		}
		return outputs, nil

	case graph.KindManagedIdentity:
		return provision.Outputs{
			"principalId": pseudoGUID("principal", req.Name),
			"clientId":    pseudoGUID("client", req.Name),
			"tenantId":    p.tenantID,
			"resourceId":  p.resourceID(req.ResourceGroup, "Microsoft.ManagedIdentity/userAssignedIdentities", req.Name),
			"name":        req.Name,
		}, nil

	case graph.KindAIServices:
		return provision.Outputs{
			"endpoint":  fmt.Sprintf("https://%s.cognitiveservices.azure.com/", req.Name),
			"accountId": p.resourceID(req.ResourceGroup, "Microsoft.CognitiveServices/accounts", req.Name),
			"name":      req.Name,
		}, nil

	case graph.KindBingSearch:
		return provision.Outputs{
			"endpoint": "https://api.bing.microsoft.com/",
			"apiKey":   pseudoKey(req.Name),
			"name":     req.Name,
		}, nil

	case graph.KindCosmosAccount:
		return provision.Outputs{
			"endpoint":      fmt.Sprintf("https://%s.documents.azure.com:443/", req.Name),
			"accountId":     p.resourceID(req.ResourceGroup, "Microsoft.DocumentDB/databaseAccounts", req.Name),
			"databaseName":  inputString(req, "databaseName"),
			"containerName": inputString(req, "containerName"),
			"name":          req.Name,
		}, nil

	case graph.KindModelDeployment:
		name := inputString(req, "deploymentName")
		if name == "" {
			name = inputString(req, "modelName")
		}
		return provision.Outputs{
			"deploymentName": name,
		}, nil

	case graph.KindAppHost:
		return provision.Outputs{
			"name":        req.Name,
			"hostName":    req.Name + ".azurewebsites.net",
			"appId":       p.resourceID(req.ResourceGroup, "Microsoft.Web/sites", req.Name),
			"principalId": pseudoGUID("site", req.Name),
		}, nil

	case graph.KindBotService:
		return provision.Outputs{
			"botName": req.Name,
			"botId":   p.resourceID(req.ResourceGroup, "Microsoft.BotService/botServices", req.Name),
		}, nil

	default:
		return nil, fmt.Errorf("unknown module kind %q", req.Kind)
	}
}

func (p *Provisioner) Delete(ctx context.Context, req provision.ModuleRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	p.deleted = append(p.deleted, req.Module)
	p.mu.Unlock()
	return nil
}

func (p *Provisioner) resourceID(resourceGroup, resourceType, name string) string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/%s/%s",
		p.subscriptionID, resourceGroup, resourceType, name)
}

func inputString(req provision.ModuleRequest, key string) string {
	s, _ := req.Inputs[key].(string)
	return s
}

func pseudoGUID(scope, name string) string {
	return uuid.NewSHA1(principalNamespace, []byte(scope+":"+name)).String()
}

func pseudoKey(name string) string {
	return uuid.NewSHA1(principalNamespace, []byte("key:"+name)).String()[:32]
}

var _ provision.Provisioner = (*Provisioner)(nil)
