package wallet

import (
	"context"
	"fmt"
	"time"

	eos "github.com/eoscanada/eos-go"
	"github.com/rs/zerolog/log"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/rpc"
)

const ClaimAction = "claimnft"

// Submitter sends a claim for one staked asset and returns the transaction id.
type Submitter interface {
	Claim(ctx context.Context, assetID uint64) (string, error)
}

type chainAPI interface {
	GetInfo(ctx context.Context) (*eos.InfoResp, error)
	GetBlockByNum(ctx context.Context, num uint32) (*eos.BlockResp, error)
	SignTransaction(ctx context.Context, tx *eos.Transaction, chainID eos.Checksum256, compression eos.CompressionType) (*eos.SignedTransaction, *eos.PackedTransaction, error)
	PushTransaction(ctx context.Context, tx *eos.PackedTransaction) (*eos.PushTransactionFullResp, error)
}

type SubmitterConfig struct {
	Contract     string
	Owner        string
	BlocksBehind uint32
	Expiration   time.Duration
}

func (c SubmitterConfig) withDefaults() SubmitterConfig {
	if c.BlocksBehind == 0 {
		c.BlocksBehind = 3
	}
	if c.Expiration == 0 {
		c.Expiration = 30 * time.Second
	}
	return c
}

type claimNFT struct {
	AssetID uint64          `json:"asset_id"`
	Owner   eos.AccountName `json:"owner"`
	Wallet  eos.AccountName `json:"wallet"`
}

// EOSSubmitter signs and pushes claimnft transactions.
type EOSSubmitter struct {
	cfg      SubmitterConfig
	api      func() chainAPI
	failover func() bool
}

var _ Submitter = (*EOSSubmitter)(nil)

// NewEOSSubmitter pushes claims through client, which must carry a signer.
func NewEOSSubmitter(client *rpc.FailoverClient, cfg SubmitterConfig) *EOSSubmitter {
	return &EOSSubmitter{
		cfg:      cfg.withDefaults(),
		api:      func() chainAPI { return client.API() },
		failover: client.Failover,
	}
}

func (s *EOSSubmitter) Claim(ctx context.Context, assetID uint64) (string, error) {
	txID, err := s.push(ctx, s.api(), assetID)
	if err != nil && rpc.IsConnectionError(err) && s.failover != nil {
		log.Warn().Err(err).Uint64("asset_id", assetID).Msg("Connection error while claiming, attempting failover")
		if s.failover() {
			txID, err = s.push(ctx, s.api(), assetID)
		}
	}
	if err != nil {
		claimsSubmitted.WithLabelValues("failed").Inc()
		return "", classify(assetID, err)
	}

	claimsSubmitted.WithLabelValues("ok").Inc()
	return txID, nil
}

func (s *EOSSubmitter) action(assetID uint64) *eos.Action {
	return &eos.Action{
		Account: eos.AN(s.cfg.Contract),
		Name:    eos.ActN(ClaimAction),
		Authorization: []eos.PermissionLevel{
			{Actor: eos.AN(s.cfg.Owner), Permission: eos.PN("active")},
		},
		ActionData: eos.NewActionData(claimNFT{
			AssetID: assetID,
			Owner:   eos.AN(s.cfg.Owner),
			Wallet:  eos.AN(s.cfg.Owner),
		}),
	}
}

func (s *EOSSubmitter) push(ctx context.Context, api chainAPI, assetID uint64) (string, error) {
	info, err := api.GetInfo(ctx)
	if err != nil {
		return "", fmt.Errorf("cannot read chain info: %w", err)
	}

	refNum := info.HeadBlockNum
	if refNum > s.cfg.BlocksBehind {
		refNum -= s.cfg.BlocksBehind
	}
	block, err := api.GetBlockByNum(ctx, refNum)
	if err != nil {
		return "", fmt.Errorf("cannot read reference block %d: %w", refNum, err)
	}

	tx := eos.NewTransaction([]*eos.Action{s.action(assetID)}, &eos.TxOptions{
		ChainID:     info.ChainID,
		HeadBlockID: block.ID,
	})
	tx.SetExpiration(s.cfg.Expiration)

	_, packed, err := api.SignTransaction(ctx, tx, info.ChainID, eos.CompressionNone)
	if err != nil {
		return "", fmt.Errorf("cannot sign claim: %w", err)
	}

	resp, err := api.PushTransaction(ctx, packed)
	if err != nil {
		return "", err
	}

	log.Debug().
		Uint64("asset_id", assetID).
		Uint32("ref_block", refNum).
		Str("tx_id", resp.TransactionID).
		Msg("claim pushed")

	return resp.TransactionID, nil
}
