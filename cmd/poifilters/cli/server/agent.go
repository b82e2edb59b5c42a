package server

import (
	"context"
	"fmt"

	"github.com/mwantia/poifilters/internal/agent"
	"github.com/mwantia/poifilters/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewAgentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Start the POI filter agent",
		Long: `Start the POI filter agent.

The agent opens the filter store, builds the catalog and, when enabled,
reloads the taxonomy file whenever it changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			agent := agent.NewAgent(cfg)
			if err := agent.Serve(context.Background()); err != nil {
				return err
			}

			return nil
		},
	}

	cmd.Flags().Bool("watch", false, "reload the taxonomy file on change")
	viper.BindPFlag("taxonomy.watch", cmd.Flags().Lookup("watch"))

	return cmd
}
