// Package cli implements the botforge CLI commands.
package cli

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	// Import state backends to register them via init()
	_ "github.com/botforge-io/botforge/pkg/state/backend/azurerm"
	_ "github.com/botforge-io/botforge/pkg/state/backend/gcs"
	_ "github.com/botforge-io/botforge/pkg/state/backend/local"
	_ "github.com/botforge-io/botforge/pkg/state/backend/s3"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "botforge",
	Short: "Deploy the AI assistant bot topology to Azure",
	Long: `botforge resolves a declarative deployment topology (AI services,
model deployment, Cosmos DB, Bing search, App Service host, and Azure
Bot registration) into concrete Azure resources.

The same parameter set always resolves to the same resource names and
the same dependency graph, so repeated deploys converge instead of
duplicating resources.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.botforge/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("backend", "local", "State backend type (local, azurerm, s3, gcs)")
	rootCmd.PersistentFlags().StringArray("backend-config", nil, "Backend configuration (key=value)")

	_ = viper.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend"))
	viper.SetEnvPrefix("BOTFORGE")
	viper.AutomaticEnv()

	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newDeployCmd())
	rootCmd.AddCommand(newOutputsCmd())
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newDestroyCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home + "/.botforge")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	// Read config file if it exists
	_ = viper.ReadInConfig()
}
