package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/botforge-io/botforge/pkg/engine"
	"github.com/botforge-io/botforge/pkg/params"
)

// resolution is the printable form of a resolved topology.
type resolution struct {
	Environment  string            `json:"environment" yaml:"environment"`
	Location     string            `json:"location" yaml:"location"`
	NetworkMode  string            `json:"publicNetworkAccess" yaml:"publicNetworkAccess"`
	AuthMode     string            `json:"authMode" yaml:"authMode"`
	Model        string            `json:"model" yaml:"model"`
	UniqueSuffix string            `json:"uniqueSuffix" yaml:"uniqueSuffix"`
	Names        map[string]string `json:"names" yaml:"names"`
	Modules      []resolvedModule  `json:"modules" yaml:"modules"`
}

type resolvedModule struct {
	ID            string   `json:"id" yaml:"id"`
	Kind          string   `json:"kind" yaml:"kind"`
	ResourceName  string   `json:"resourceName,omitempty" yaml:"resourceName,omitempty"`
	ResourceGroup string   `json:"resourceGroup" yaml:"resourceGroup"`
	Enabled       bool     `json:"enabled" yaml:"enabled"`
	DependsOn     []string `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
}

func newResolveCmd() *cobra.Command {
	var (
		flags        paramFlags
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve parameters into the deployment plan without deploying",
		Long: `Resolve a parameter set into concrete resource names and the module
dependency graph, without touching Azure.

Examples:
  botforge resolve -e dev
  botforge resolve -p params.yaml -o json
  botforge resolve -e prod --network Disabled`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := flags.load()
			if err != nil {
				return err
			}

			resolved, err := params.Resolve(ps)
			if err != nil {
				return err
			}
			g, err := engine.Build(resolved)
			if err != nil {
				return err
			}

			sorted, err := g.TopologicalSort()
			if err != nil {
				return err
			}

			out := resolution{
				Environment:  resolved.EnvironmentName,
				Location:     resolved.Location,
				NetworkMode:  string(resolved.PublicNetworkAccess),
				AuthMode:     string(resolved.AuthMode),
				Model:        resolved.Model,
				UniqueSuffix: resolved.UniqueSuffix,
				Names:        resolved.Names.All(),
			}
			for _, node := range sorted {
				deps := append([]string(nil), node.DependsOn...)
				sort.Strings(deps)
				out.Modules = append(out.Modules, resolvedModule{
					ID:            node.ID,
					Kind:          string(node.Kind),
					ResourceName:  node.ResourceName,
					ResourceGroup: node.ResourceGroup,
					Enabled:       node.Condition,
					DependsOn:     deps,
				})
			}

			switch outputFormat {
			case "json":
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(out)
			case "yaml":
				return yaml.NewEncoder(os.Stdout).Encode(out)
			case "table", "":
				table := NewProgressTable(os.Stdout)
				if err := table.AddGraph(g); err != nil {
					return err
				}
				table.PrintPlan()
				return nil
			default:
				return fmt.Errorf("unknown output format %q (expected table, json, or yaml)", outputFormat)
			}
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json, yaml)")

	return cmd
}
