package cmd

import (
	"fmt"
	"os"
	"path"

	"github.com/spf13/cobra"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/cmd/types"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/config"
)

func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Creates the default config in the home directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := cmd.Flags().GetString(types.FlagHome)
			if err != nil {
				return err
			}

			if _, err := config.Init(home); err != nil {
				return err
			}

			dir := os.ExpandEnv(home)
			fmt.Printf("Config ready at %s\n", path.Join(dir, config.ConfigFileName))
			fmt.Printf("Put %s and %s in the environment or in %s before starting.\n",
				config.EnvPrivateKey, config.EnvOwner, path.Join(dir, ".env"))
			return nil
		},
	}
}

func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the rancher version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.VersionString())
		},
	}
}
