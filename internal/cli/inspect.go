package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/botforge-io/botforge/pkg/engine"
	"github.com/botforge-io/botforge/pkg/graph/visual"
	"github.com/botforge-io/botforge/pkg/params"
)

func newInspectCmd() *cobra.Command {
	var (
		flags        paramFlags
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Visualize the module dependency graph",
		Long: `Render the resolved module dependency graph without deploying.

Examples:
  botforge inspect -e dev
  botforge inspect -p params.yaml --network Disabled
  botforge inspect -e dev -o mermaid > topology.mmd`,
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

			switch outputFormat {
			case "mermaid", "":
				rendered, err := visual.RenderMermaid(g, visual.MermaidOptions{
					Title: resolved.EnvironmentName,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(os.Stdout, rendered)
				return nil
			default:
				return fmt.Errorf("unknown output format %q (expected mermaid)", outputFormat)
			}
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "mermaid", "Output format (mermaid)")

	return cmd
}
