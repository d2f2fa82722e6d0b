package account

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/cmd/types"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/config"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/dashboard"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/rpc"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/store"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/tables"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/wallet"
)

func AccountCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "account",
		Short: "Account subcommands",
	}

	c.PersistentFlags().String(types.FlagOwner, "", "account to inspect, defaults to OWNER")

	c.AddCommand(assetsCmd(), claimCmd(), balanceCmd())

	return c
}

type session struct {
	cfg     *config.Config
	owner   string
	secrets config.Secrets
	client  *rpc.FailoverClient
}

// open loads the config and connects to the chain. The private key is only
// required when signing.
func open(cmd *cobra.Command, sign bool) (*session, error) {
	home, err := cmd.Flags().GetString(types.FlagHome)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Init(home)
	if err != nil {
		return nil, err
	}

	secrets, secretsErr := config.LoadSecrets(home, ".")

	owner, err := cmd.Flags().GetString(types.FlagOwner)
	if err != nil {
		return nil, err
	}
	if owner == "" {
		owner = secrets.Owner
	}
	if owner == "" || (sign && secrets.PrivateKey == "") {
		return nil, secretsErr
	}

	privKey := ""
	if sign {
		privKey = secrets.PrivateKey
	}

	client, err := config.InitClient(cmd.Context(), cfg, privKey)
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, owner: owner, secrets: secrets, client: client}, nil
}

func (s *session) reader() *tables.Reader {
	return tables.NewReader(tables.NewEOSSource(s.client), s.cfg.ChainCfg.Contract,
		tables.WithLimit(s.cfg.TablesCfg.PageLimit),
		tables.WithRetry(s.cfg.TablesCfg.ReadAttempts, config.Seconds(s.cfg.TablesCfg.ReadRetryDelay)),
	)
}

func assetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assets",
		Short: "Lists the staked NFTs of the owner with their claim countdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, false)
			if err != nil {
				return err
			}

			r := s.reader()
			rows, err := r.StakedNFTs(cmd.Context(), s.owner)
			if err != nil {
				return err
			}
			catalog, err := r.Catalog(cmd.Context())
			if err != nil {
				return err
			}

			st := store.NewStore(s.owner)
			st.Rebuild(rows, catalog, time.Now().Unix())
			snap := st.Snapshot()

			if len(snap.Entries) == 0 {
				fmt.Printf("No staked NFTs to claim for %s\n", s.owner)
				return nil
			}

			fmt.Println(renderAssets(snap))
			return nil
		},
	}
}

// renderAssets prints a snapshot as a bordered table. Columns are sized to their
// widest cell so asset ids are never cut.
func renderAssets(snap store.Snapshot) string {
	cols := dashboard.Columns()
	rows := dashboard.Rows(snap)

	headers := make([]string, len(cols))
	widths := make([]int, len(cols))
	for i, c := range cols {
		headers[i] = c.Title
		widths[i] = lipgloss.Width(c.Title)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	cell := lipgloss.NewStyle().Padding(0, 1)
	line := func(values []string, style lipgloss.Style) string {
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = style.Width(widths[i] + 2).Render(v)
		}
		return strings.Join(out, "│")
	}

	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("─", w+2)
	}

	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, line(headers, cell.Bold(true)), strings.Join(rule, "┼"))
	for _, row := range rows {
		lines = append(lines, line(row, cell))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		Render(strings.Join(lines, "\n"))
}

func claimCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "claim [asset-id]",
		Short: "Claims a single staked NFT now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid asset id %q: %w", args[0], err)
			}

			force, err := cmd.Flags().GetBool(types.FlagForce)
			if err != nil {
				return err
			}

			s, err := open(cmd, true)
			if err != nil {
				return err
			}
			if s.owner != s.secrets.Owner {
				return errors.New("claims can only be signed for OWNER")
			}

			nft, err := s.reader().FindStakedNFT(cmd.Context(), assetID)
			if err != nil {
				return err
			}
			if nft.Owner != s.owner {
				return fmt.Errorf("asset %d is staked by %s", assetID, nft.Owner)
			}
			if remaining := nft.NextClaim - time.Now().Unix(); remaining > 0 && !force {
				return fmt.Errorf("asset %d can be claimed in %s, use --%s to send anyway",
					assetID, store.FormatRemaining(remaining), types.FlagForce)
			}

			submitter := wallet.NewEOSSubmitter(s.client, wallet.SubmitterConfig{
				Contract:     s.cfg.ChainCfg.Contract,
				Owner:        s.owner,
				BlocksBehind: s.cfg.ChainCfg.BlocksBehind,
				Expiration:   config.Seconds(s.cfg.ChainCfg.ExpireSeconds),
			})

			ctx, cancel := context.WithTimeout(cmd.Context(), config.Seconds(s.cfg.ChainCfg.ExpireSeconds))
			defer cancel()

			txID, err := submitter.Claim(ctx, assetID)
			if err != nil {
				return err
			}

			fmt.Printf("Claimed NFT %d, tx %s\n", assetID, txID)
			return nil
		},
	}

	c.Flags().Bool(types.FlagForce, false, "send the claim even when the cooldown has not passed")

	return c
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Displays the token balance of the owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, false)
			if err != nil {
				return err
			}

			assets, err := wallet.Balance(cmd.Context(), s.client, s.owner, s.cfg.ChainCfg.TokenSymbol, s.cfg.ChainCfg.TokenContract)
			if err != nil {
				return err
			}

			if len(assets) == 0 {
				fmt.Printf("Balance: 0 %s\n", s.cfg.ChainCfg.TokenSymbol)
				return nil
			}
			for _, a := range assets {
				fmt.Printf("Balance: %s\n", a.String())
			}
			return nil
		},
	}
}
