package topology

// ZoneKey names a private DNS zone. Downstream modules reference zones
// by key; the canonical order below only matters for display and for
// the zone list handed to the DNS module.
type ZoneKey string

const (
	ZoneOpenAI            ZoneKey = "openai"
	ZoneCognitiveServices ZoneKey = "cognitiveservices"
	ZoneAIServices        ZoneKey = "aiServices"
	ZoneSearch            ZoneKey = "search"
	ZoneBlob              ZoneKey = "blob"
	ZoneDocuments         ZoneKey = "documents"
	ZoneVault             ZoneKey = "vault"
	ZoneMLApi             ZoneKey = "mlApi"
	ZoneAppService        ZoneKey = "appService"
)

// ZoneOrder is the canonical ordering of the nine zones.
var ZoneOrder = []ZoneKey{
	ZoneOpenAI,
	ZoneCognitiveServices,
	ZoneAIServices,
	ZoneSearch,
	ZoneBlob,
	ZoneDocuments,
	ZoneVault,
	ZoneMLApi,
	ZoneAppService,
}

var zoneDomains = map[ZoneKey]string{
	ZoneOpenAI:            "privatelink.openai.azure.com",
	ZoneCognitiveServices: "privatelink.cognitiveservices.azure.com",
	ZoneAIServices:        "privatelink.services.ai.azure.com",
	ZoneSearch:            "privatelink.search.windows.net",
	ZoneBlob:              "privatelink.blob.core.windows.net",
	ZoneDocuments:         "privatelink.documents.azure.com",
	ZoneVault:             "privatelink.vaultcore.azure.net",
	ZoneMLApi:             "privatelink.api.azureml.ms",
	ZoneAppService:        "privatelink.azurewebsites.net",
}

// ZoneDomain returns the domain for a zone key.
func ZoneDomain(key ZoneKey) string {
	return zoneDomains[key]
}

// ZoneDomains returns every zone domain in canonical order.
func ZoneDomains() []string {
	domains := make([]string, len(ZoneOrder))
	for i, key := range ZoneOrder {
		domains[i] = zoneDomains[key]
	}
	return domains
}

// ZoneMap returns the key-to-domain mapping handed to the DNS module.
func ZoneMap() map[string]string {
	m := make(map[string]string, len(zoneDomains))
	for key, domain := range zoneDomains {
		m[string(key)] = domain
	}
	return m
}
