package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/botforge-io/botforge/pkg/engine"
)

func newListCmd() *cobra.Command {
	var (
		backendType   string
		backendConfig []string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List deployed environments",
		Long: `List every environment with persisted deployment state.

Examples:
  botforge list
  botforge list --state-backend azurerm --state-backend-config storage_account_name=mystate --state-backend-config container_name=botforge`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := createStateManager(backendType, backendConfig)
			if err != nil {
				return err
			}

			refs, err := engine.New(nil, manager).List(context.Background())
			if err != nil {
				return err
			}

			if len(refs) == 0 {
				fmt.Println("No deployments found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ENVIRONMENT\tSTATUS\tUPDATED")
			for _, ref := range refs {
				fmt.Fprintf(w, "%s\t%s\t%s\n", ref.Environment, ref.Status, ref.UpdatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&backendType, "state-backend", "", "Override the state backend type")
	cmd.Flags().StringArrayVar(&backendConfig, "state-backend-config", nil, "State backend configuration (key=value)")

	return cmd
}
