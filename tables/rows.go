package tables

import (
	eos "github.com/eoscanada/eos-go"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/types"
)

// StakedNFTRow is a stakednft table row. Numeric fields may arrive as
// strings or numbers depending on the node.
type StakedNFTRow struct {
	Owner      string     `json:"owner"`
	AssetID    eos.Uint64 `json:"asset_id"`
	TemplateID eos.Uint64 `json:"template_id"`
	NextClaim  eos.Uint64 `json:"next_claim"`
}

func (r StakedNFTRow) StakedNFT() types.StakedNFT {
	return types.StakedNFT{
		Owner:      r.Owner,
		AssetID:    uint64(r.AssetID),
		TemplateID: uint64(r.TemplateID),
		NextClaim:  int64(r.NextClaim),
	}
}

type NFTConfigRow struct {
	TemplateID eos.Uint64 `json:"template_id"`
	Name       string     `json:"nft_name"`
}
