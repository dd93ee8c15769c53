// Command marketplace runs one marketplace process: the API gateway, the
// customer service or the shopping consumer.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/KOMKZ/yogan-market/application"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "marketplace",
		Short:         "Marketplace gateway and services",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "./configs", "configuration directory (config.yaml, <env>.yaml)")
	flags.Int("port", 0, "HTTP listen port")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("broker-url", "", "AMQP broker URL")
	flags.String("redis-addr", "", "Redis address; empty keeps profiles in memory")

	root.AddCommand(
		roleCmd(application.RoleGateway, "Run the API gateway", application.RunGateway),
		roleCmd(application.RoleCustomer, "Run the customer service", application.RunCustomer),
		roleCmd(application.RoleShopping, "Run the shopping service consumer", application.RunShopping),
	)
	return root
}

func roleCmd(role application.Role, short string, run func(context.Context, *application.AppConfig) error) *cobra.Command {
	return &cobra.Command{
		Use:   string(role),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}

			cfg, err := application.LoadConfig(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
}
