package params

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/botforge-io/botforge/pkg/errors"
)

// Load reads a parameter file, dispatching on extension: .yaml/.yml,
// .hcl, or .json (ARM parameter-file format).
func Load(path string) (ParameterSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ParameterSet{}, errors.ParseError(path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(data, path)
	case ".hcl":
		return LoadHCL(data, path)
	case ".json":
		return LoadARMParameters(data, path)
	default:
		return ParameterSet{}, errors.ParseError(path, fmt.Errorf("unsupported parameter file extension %q", filepath.Ext(path)))
	}
}

// LoadYAML parses a YAML parameter file.
func LoadYAML(data []byte, filename string) (ParameterSet, error) {
	var ps ParameterSet
	if err := yaml.Unmarshal(data, &ps); err != nil {
		return ParameterSet{}, errors.ParseError(filename, err)
	}
	return ps, nil
}

// armParameterFile mirrors the ARM deployment parameter-file shape.
type armParameterFile struct {
	Schema         string                       `json:"$schema"`
	ContentVersion string                       `json:"contentVersion"`
	Parameters     map[string]armParameterValue `json:"parameters"`
}

type armParameterValue struct {
	Value any `json:"value"`
}

// LoadARMParameters parses an ARM-format parameter file
// (main.parameters.json) into a ParameterSet.
func LoadARMParameters(data []byte, filename string) (ParameterSet, error) {
	var file armParameterFile
	if err := json.Unmarshal(data, &file); err != nil {
		return ParameterSet{}, errors.ParseError(filename, err)
	}

	var ps ParameterSet
	str := func(key string) string {
		if v, ok := file.Parameters[key]; ok {
			if s, ok := v.Value.(string); ok {
				return s
			}
		}
		return ""
	}

	ps.EnvironmentName = str("environmentName")
	ps.Location = str("location")
	ps.SubscriptionID = str("subscriptionId")
	ps.MyPrincipalID = str("myPrincipalId")
	ps.MyPrincipalType = str("myPrincipalType")
	ps.AllowedIPAddresses = str("allowedIpAddresses")
	ps.PublicNetworkAccess = NetworkMode(str("publicNetworkAccess"))
	ps.AuthMode = AuthMode(str("authMode"))
	ps.VNetAddressPrefix = str("vnetAddressPrefix")
	ps.PrivateEndpointSubnetPrefix = str("privateEndpointSubnetPrefix")
	ps.AppSubnetPrefix = str("appSubnetPrefix")
	ps.Model = str("model")

	if v, ok := file.Parameters["modelCapacity"]; ok {
		switch n := v.Value.(type) {
		case float64:
			ps.ModelCapacity = int(n)
		case int:
			ps.ModelCapacity = n
		}
	}

	if v, ok := file.Parameters["nameOverrides"]; ok {
		if m, ok := v.Value.(map[string]any); ok {
			ps.NameOverrides = make(map[string]string, len(m))
			for k, val := range m {
				if s, ok := val.(string); ok {
					ps.NameOverrides[k] = s
				}
			}
		}
	}

	if v, ok := file.Parameters["tags"]; ok {
		if m, ok := v.Value.(map[string]any); ok {
			ps.Tags = make(map[string]string, len(m))
			for k, val := range m {
				if s, ok := val.(string); ok {
					ps.Tags[k] = s
				}
			}
		}
	}

	return ps, nil
}

// LoadHCL parses an HCL parameter file.
func LoadHCL(data []byte, filename string) (ParameterSet, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return ParameterSet{}, errors.ParseError(filename, fmt.Errorf("failed to parse HCL: %s", diags.Error()))
	}

	bodySchema := &hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{
			{Name: "environment"},
			{Name: "location"},
			{Name: "subscription_id"},
			{Name: "my_principal_id"},
			{Name: "my_principal_type"},
			{Name: "allowed_ip_addresses"},
			{Name: "public_network_access"},
			{Name: "auth_mode"},
		},
		Blocks: []hcl.BlockHeaderSchema{
			{Type: "model"},
			{Type: "network"},
			{Type: "overrides"},
			{Type: "tags"},
		},
	}

	content, moreDiags := file.Body.Content(bodySchema)
	diags = append(diags, moreDiags...)
	if diags.HasErrors() {
		return ParameterSet{}, errors.ParseError(filename, fmt.Errorf("invalid parameter file: %s", diags.Error()))
	}

	var ps ParameterSet
	attrString := func(name string, dst *string) hcl.Diagnostics {
		attr, ok := content.Attributes[name]
		if !ok {
			return nil
		}
		val, valDiags := attr.Expr.Value(nil)
		if valDiags.HasErrors() {
			return valDiags
		}
		if val.Type() == cty.String {
			*dst = val.AsString()
		}
		return nil
	}

	var modeStr, authStr string
	for _, bind := range []struct {
		name string
		dst  *string
	}{
		{"environment", &ps.EnvironmentName},
		{"location", &ps.Location},
		{"subscription_id", &ps.SubscriptionID},
		{"my_principal_id", &ps.MyPrincipalID},
		{"my_principal_type", &ps.MyPrincipalType},
		{"allowed_ip_addresses", &ps.AllowedIPAddresses},
		{"public_network_access", &modeStr},
		{"auth_mode", &authStr},
	} {
		if valDiags := attrString(bind.name, bind.dst); valDiags.HasErrors() {
			return ParameterSet{}, errors.ParseError(filename, fmt.Errorf("invalid %s: %s", bind.name, valDiags.Error()))
		}
	}
	ps.PublicNetworkAccess = NetworkMode(modeStr)
	ps.AuthMode = AuthMode(authStr)

	for _, block := range content.Blocks {
		switch block.Type {
		case "model":
			if err := decodeModelBlock(block, &ps); err != nil {
				return ParameterSet{}, errors.ParseError(filename, err)
			}
		case "network":
			if err := decodeNetworkBlock(block, &ps); err != nil {
				return ParameterSet{}, errors.ParseError(filename, err)
			}
		case "overrides":
			m, err := decodeStringMapBlock(block)
			if err != nil {
				return ParameterSet{}, errors.ParseError(filename, err)
			}
			ps.NameOverrides = m
		case "tags":
			m, err := decodeStringMapBlock(block)
			if err != nil {
				return ParameterSet{}, errors.ParseError(filename, err)
			}
			ps.Tags = m
		}
	}

	return ps, nil
}

func decodeModelBlock(block *hcl.Block, ps *ParameterSet) error {
	schema := &hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{
			{Name: "name"},
			{Name: "version"},
			{Name: "capacity"},
		},
	}
	content, diags := block.Body.Content(schema)
	if diags.HasErrors() {
		return fmt.Errorf("invalid model block: %s", diags.Error())
	}

	var name, version string
	for attrName, dst := range map[string]*string{"name": &name, "version": &version} {
		if attr, ok := content.Attributes[attrName]; ok {
			val, valDiags := attr.Expr.Value(nil)
			if valDiags.HasErrors() {
				return fmt.Errorf("invalid model %s: %s", attrName, valDiags.Error())
			}
			*dst = val.AsString()
		}
	}
	if name != "" {
		ps.Model = name + "," + version
	}

	if attr, ok := content.Attributes["capacity"]; ok {
		val, valDiags := attr.Expr.Value(nil)
		if valDiags.HasErrors() {
			return fmt.Errorf("invalid model capacity: %s", valDiags.Error())
		}
		var capacity int
		if err := ctyToInt(val, &capacity); err != nil {
			return err
		}
		ps.ModelCapacity = capacity
	}

	return nil
}

func decodeNetworkBlock(block *hcl.Block, ps *ParameterSet) error {
	schema := &hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{
			{Name: "vnet_prefix"},
			{Name: "private_endpoint_prefix"},
			{Name: "app_prefix"},
		},
	}
	content, diags := block.Body.Content(schema)
	if diags.HasErrors() {
		return fmt.Errorf("invalid network block: %s", diags.Error())
	}

	for attrName, dst := range map[string]*string{
		"vnet_prefix":             &ps.VNetAddressPrefix,
		"private_endpoint_prefix": &ps.PrivateEndpointSubnetPrefix,
		"app_prefix":              &ps.AppSubnetPrefix,
	} {
		if attr, ok := content.Attributes[attrName]; ok {
			val, valDiags := attr.Expr.Value(nil)
			if valDiags.HasErrors() {
				return fmt.Errorf("invalid %s: %s", attrName, valDiags.Error())
			}
			*dst = val.AsString()
		}
	}

	return nil
}

func decodeStringMapBlock(block *hcl.Block) (map[string]string, error) {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid %s block: %s", block.Type, diags.Error())
	}

	m := make(map[string]string, len(attrs))
	for name, attr := range attrs {
		val, valDiags := attr.Expr.Value(nil)
		if valDiags.HasErrors() {
			return nil, fmt.Errorf("invalid %s.%s: %s", block.Type, name, valDiags.Error())
		}
		if val.Type() == cty.String {
			m[name] = val.AsString()
		}
	}
	return m, nil
}

func ctyToInt(val cty.Value, dst *int) error {
	if val.Type() != cty.Number {
		return fmt.Errorf("expected a number, got %s", val.Type().FriendlyName())
	}
	f, _ := val.AsBigFloat().Int64()
	*dst = int(f)
	return nil
}
