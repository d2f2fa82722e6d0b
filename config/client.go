package config

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/rpc"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/wallet"
)

// InitClient connects to the configured chain nodes. When privKey is set the client
// signs with it.
func InitClient(ctx context.Context, cfg *Config, privKey string) (*rpc.FailoverClient, error) {
	opts := make([]rpc.Option, 0, 1)
	if privKey != "" {
		kb, err := wallet.NewKeyBag(ctx, privKey)
		if err != nil {
			return nil, err
		}
		opts = append(opts, rpc.WithSigner(kb))
	}

	fc, err := rpc.NewFailoverClient(rpc.NodeConfig{
		RPCAddrs: cfg.ChainCfg.RPCAddrs,
	}, opts...)
	if err != nil {
		return nil, err
	}

	log.Debug().Int("nodes", fc.NodeCount()).Msg("chain client ready")
	return fc, nil
}
