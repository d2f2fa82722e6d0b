package cmd

import (
	"github.com/spf13/cobra"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/cmd/types"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/core"
)

func StartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Starts the claimer",
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := cmd.Flags().GetString(types.FlagHome)
			if err != nil {
				return err
			}

			logLevel, err := cmd.Flags().GetString(types.FlagLogLevel)
			if err != nil {
				return err
			}

			app, err := core.NewApp(home, core.WithLogLevel(logLevel))
			if err != nil {
				return err
			}

			return app.Start()
		},
	}
}
