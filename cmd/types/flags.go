package types

const (
	FlagHome     = "home"
	FlagLogLevel = "log-level"
	FlagLimit    = "limit"
	FlagAsset    = "asset"
	FlagOwner    = "owner"
	FlagForce    = "force"

	DefaultHome     = "$HOME/.rancher"
	DefaultLogLevel = "info"
)
