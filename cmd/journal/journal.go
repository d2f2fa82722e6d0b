package journal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/cmd/types"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/config"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/journal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func JournalCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "journal",
		Short: "Claim journal subcommands, run them while the claimer is stopped",
	}

	c.AddCommand(listCmd(), dumpKeysCmd(), getCmd())

	return c
}

func openJournal(cmd *cobra.Command) (*journal.Journal, error) {
	home, err := cmd.Flags().GetString(types.FlagHome)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Init(home)
	if err != nil {
		return nil, err
	}
	if cfg.JournalDirectory == "" {
		return nil, errors.New("journal_directory is not set, the journal only lives in memory")
	}

	return journal.Open(cfg.JournalDirectory)
}

func writeRecords(w io.Writer, records []journal.Record) error {
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

func listCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Short: "Prints claim attempts as JSON lines, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := cmd.Flags().GetInt(types.FlagLimit)
			if err != nil {
				return err
			}
			asset, err := cmd.Flags().GetString(types.FlagAsset)
			if err != nil {
				return err
			}

			j, err := openJournal(cmd)
			if err != nil {
				return err
			}
			defer j.Close()

			var records []journal.Record
			if asset == "" {
				records, err = j.List(limit)
			} else {
				id, perr := strconv.ParseUint(asset, 10, 64)
				if perr != nil {
					return fmt.Errorf("invalid asset id %q: %w", asset, perr)
				}
				records, err = j.ByAsset(id, limit)
			}
			if err != nil {
				return err
			}

			return writeRecords(os.Stdout, records)
		},
	}

	c.Flags().Int(types.FlagLimit, 20, "maximum number of records, 0 for all")
	c.Flags().String(types.FlagAsset, "", "only show attempts for this asset id")

	return c
}

func dumpKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Dump all keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournal(cmd)
			if err != nil {
				return err
			}
			defer j.Close()

			keys, err := j.Keys()
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Println(k)
			}
			return nil
		},
	}
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [record-id]",
		Short: "Prints a single claim attempt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournal(cmd)
			if err != nil {
				return err
			}
			defer j.Close()

			r, err := j.Get(args[0])
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(r, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
}
