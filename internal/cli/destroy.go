package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/botforge-io/botforge/pkg/engine"
	"github.com/botforge-io/botforge/pkg/state/types"
)

func newDestroyCmd() *cobra.Command {
	var (
		dryRun        bool
		autoApprove   bool
		backendType   string
		backendConfig []string
	)

	cmd := &cobra.Command{
		Use:   "destroy <environment>",
		Short: "Destroy a deployed environment",
		Long: `Delete every resource of a deployed environment in reverse
dependency order, then remove its persisted state.

Examples:
  botforge destroy dev
  botforge destroy staging --auto-approve`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			environment := args[0]
			ctx := context.Background()

			manager, err := createStateManager(backendType, backendConfig)
			if err != nil {
				return err
			}

			// Read state first so we can show what will be destroyed
			// and reuse the stored parameters for the provisioner.
			record, err := engine.New(nil, manager).State(ctx, environment)
			if err != nil {
				return err
			}

			fmt.Printf("Environment: %s\n", environment)
			fmt.Printf("Status:      %s\n\n", record.Status)
			fmt.Println("The following resources will be destroyed:")
			count := 0
			for _, module := range record.Modules {
				if module.Status != types.ModuleStatusCompleted {
					continue
				}
				fmt.Printf("  - %s %q\n", module.Kind, module.ResourceName)
				count++
			}
			fmt.Printf("\nTotal: %d resources\n\n", count)

			if !autoApprove {
				if err := confirm(fmt.Sprintf("Destroy environment %q?", environment)); err != nil {
					return err
				}
			}

			provisioner, err := createProvisioner(dryRun, record.Parameters)
			if err != nil {
				return err
			}

			return engine.New(provisioner, manager).Destroy(ctx, environment)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Walk the destroy order without cloud calls")
	cmd.Flags().BoolVar(&autoApprove, "auto-approve", false, "Skip confirmation prompt")
	cmd.Flags().StringVar(&backendType, "state-backend", "", "Override the state backend type")
	cmd.Flags().StringArrayVar(&backendConfig, "state-backend-config", nil, "State backend configuration (key=value)")

	return cmd
}
