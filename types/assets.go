package types

// UnknownName is shown for assets whose template is missing from the catalog.
const UnknownName = "Unknown"

// StakedNFT is one row of the contract's stakednft table.
type StakedNFT struct {
	Owner      string `json:"owner"`
	AssetID    uint64 `json:"asset_id"`
	TemplateID uint64 `json:"template_id"`
	NextClaim  int64  `json:"next_claim"`
}

// Catalog maps template ids to display names. It is loaded once and never invalidated.
type Catalog map[uint64]string

func (c Catalog) Name(templateID uint64) string {
	if templateID == 0 {
		return UnknownName
	}
	name, ok := c[templateID]
	if !ok || name == "" {
		return UnknownName
	}
	return name
}
