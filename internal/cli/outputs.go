package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/botforge-io/botforge/pkg/engine"
	"github.com/botforge-io/botforge/pkg/envfile"
)

func newOutputsCmd() *cobra.Command {
	var (
		outputFormat  string
		envFile       string
		backendType   string
		backendConfig []string
	)

	cmd := &cobra.Command{
		Use:   "outputs <environment>",
		Short: "Show the outputs of a deployed environment",
		Long: `Re-project the flat output record of a previously deployed
environment from persisted state.

Examples:
  botforge outputs dev
  botforge outputs dev -o json
  botforge outputs dev -o env
  botforge outputs dev --env-file .env`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			manager, err := createStateManager(backendType, backendConfig)
			if err != nil {
				return err
			}

			// The provisioner is never invoked for reads; outputs come
			// from state.
			eng := engine.New(nil, manager)
			flat, err := eng.Outputs(ctx, args[0])
			if err != nil {
				return err
			}

			if envFile != "" {
				if err := envfile.WriteMerged(envFile, engine.EnvMap(flat)); err != nil {
					return err
				}
				fmt.Printf("Wrote application settings to %s\n", envFile)
				return nil
			}

			switch outputFormat {
			case "json":
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(flat)
			case "env":
				os.Stdout.Write(envfile.Render(engine.EnvMap(flat)))
				return nil
			case "table", "":
				printOutputs(os.Stdout, flat)
				return nil
			default:
				return fmt.Errorf("unknown output format %q (expected table, json, or env)", outputFormat)
			}
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json, env)")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Write application environment variables to this dotenv file")
	cmd.Flags().StringVar(&backendType, "state-backend", "", "Override the state backend type")
	cmd.Flags().StringArrayVar(&backendConfig, "state-backend-config", nil, "State backend configuration (key=value)")

	return cmd
}
