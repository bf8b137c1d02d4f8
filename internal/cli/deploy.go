package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/botforge-io/botforge/pkg/engine"
	"github.com/botforge-io/botforge/pkg/envfile"
)

func newDeployCmd() *cobra.Command {
	var (
		flags         paramFlags
		dryRun        bool
		autoApprove   bool
		envFile       string
		backendType   string
		backendConfig []string
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the bot topology to Azure",
		Long: `Resolve the parameter set, evaluate every module in dependency
order, and persist the deployment state.

With --dry-run no cloud calls are made; modules evaluate against a
deterministic in-memory provisioner so the full output record can be
previewed.

Examples:
  botforge deploy -e dev --subscription 00000000-...
  botforge deploy -p params.yaml --auto-approve
  botforge deploy -e dev --dry-run --env-file .env`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			ps, err := flags.load()
			if err != nil {
				return err
			}

			eng, err := createEngine(dryRun, ps, backendType, backendConfig)
			if err != nil {
				return err
			}

			// Show the plan before provisioning anything.
			resolved, g, err := eng.Resolve(ps)
			if err != nil {
				return err
			}

			table := NewProgressTable(os.Stdout)
			if err := table.AddGraph(g); err != nil {
				return err
			}
			table.PrintPlan()

			if !dryRun && !autoApprove {
				if err := confirm(fmt.Sprintf("Deploy environment %q?", resolved.EnvironmentName)); err != nil {
					return err
				}
			}

			result, err := eng.WithProgress(table.Update).Deploy(ctx, ps)
			table.PrintSummary()
			if err != nil {
				return err
			}

			fmt.Println()
			printOutputs(os.Stdout, result.Flat)

			if envFile != "" {
				if err := envfile.WriteMerged(envFile, engine.EnvMap(result.Flat)); err != nil {
					return err
				}
				fmt.Printf("\nWrote application settings to %s\n", envFile)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Evaluate against the in-memory provisioner; no cloud calls")
	cmd.Flags().BoolVar(&autoApprove, "auto-approve", false, "Skip confirmation prompt")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Write application environment variables to this dotenv file")
	cmd.Flags().StringVar(&backendType, "state-backend", "", "Override the state backend type")
	cmd.Flags().StringArrayVar(&backendConfig, "state-backend-config", nil, "State backend configuration (key=value)")

	return cmd
}

// confirm prompts for a y/N answer. Non-interactive sessions must pass
// --auto-approve instead.
func confirm(prompt string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("stdin is not a terminal; re-run with --auto-approve")
	}

	fmt.Printf("%s [y/N]: ", prompt)
	var response string
	_, _ = fmt.Scanln(&response)
	response = strings.ToLower(strings.TrimSpace(response))
	if response != "y" && response != "yes" {
		return fmt.Errorf("cancelled")
	}
	return nil
}

func printOutputs(w *os.File, flat engine.FlatOutputs) {
	fmt.Fprintln(w, "Outputs:")
	for _, row := range outputRows(flat) {
		fmt.Fprintf(w, "  %-22s %s\n", row[0], row[1])
	}
}

func outputRows(flat engine.FlatOutputs) [][2]string {
	return [][2]string{
		{"resourceGroup", flat.ResourceGroupName},
		{"aiServicesEndpoint", flat.AIServicesEndpoint},
		{"modelDeployment", flat.ModelDeploymentName},
		{"cosmosEndpoint", flat.CosmosEndpoint},
		{"backendHostName", flat.BackendHostName},
		{"botName", flat.BotName},
		{"msiClientId", flat.MSIClientID},
		{"authMode", flat.AuthMode},
	}
}
