package wallet

import (
	"context"
	"errors"
	"fmt"

	eos "github.com/eoscanada/eos-go"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/rpc"
)

var ErrInvalidKey = errors.New("invalid private key")

// NewKeyBag holds the single private key used to sign claims.
func NewKeyBag(ctx context.Context, privKey string) (*eos.KeyBag, error) {
	kb := eos.NewKeyBag()
	if err := kb.ImportPrivateKey(ctx, privKey); err != nil {
		return nil, errors.Join(ErrInvalidKey, err)
	}
	return kb, nil
}

// Balance returns the balance of account on the token contract.
func Balance(ctx context.Context, client *rpc.FailoverClient, account, symbol, tokenContract string) ([]eos.Asset, error) {
	assets, err := rpc.QueryWithFailover(client, func(api *eos.API) ([]eos.Asset, error) {
		return api.GetCurrencyBalance(ctx, eos.AN(account), symbol, eos.AN(tokenContract))
	})
	if err != nil {
		return nil, fmt.Errorf("cannot read %s balance of %s: %w", symbol, account, err)
	}
	return assets, nil
}

// Units converts an on chain asset amount to a float, for metrics only.
func Units(a eos.Asset) float64 {
	v := float64(a.Amount)
	for i := uint8(0); i < a.Symbol.Precision; i++ {
		v /= 10
	}
	return v
}
