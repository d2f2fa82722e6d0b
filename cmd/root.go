package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/cmd/account"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/cmd/config"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/cmd/journal"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/cmd/types"
)

func RootCmd() *cobra.Command {
	r := &cobra.Command{
		Use:           "rancher",
		Short:         "Rancher claims the rewards of NFTs staked on Ranchers Land as soon as they are due.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	r.PersistentFlags().String(types.FlagHome, types.DefaultHome, "sets the home directory for rancher")
	r.PersistentFlags().String(types.FlagLogLevel, types.DefaultLogLevel, "log level. info|error|debug")

	r.AddCommand(
		StartCmd(),
		InitCmd(),
		VersionCmd(),
		config.ConfigCmd(),
		account.AccountCmd(),
		journal.JournalCmd(),
	)

	return r
}

func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
