package types

import (
	"time"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/journal"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/queue"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/store"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type IndexResponse struct {
	Status string         `json:"status"`
	Owner  string         `json:"owner"`
	Assets int            `json:"assets"`
	Counts map[string]int `json:"counts"`
}

type AssetsResponse struct {
	Owner  string        `json:"owner"`
	Taken  time.Time     `json:"taken"`
	Assets []AssetStatus `json:"assets"`
}

// AssetStatus is a store entry with its countdown already formatted.
type AssetStatus struct {
	store.Entry
	Countdown string `json:"remaining"`
}

type AssetResponse struct {
	Asset   AssetStatus      `json:"asset"`
	Retry   *queue.Retry     `json:"retry,omitempty"`
	History []journal.Record `json:"history"`
}

type ClaimsResponse struct {
	Claims []journal.Record `json:"claims"`
}

type RetriesResponse struct {
	Retries []queue.Retry `json:"retries"`
}

type VersionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	ChainID string `json:"chain-id"`
}

type NetworkResponse struct {
	RPCAddr   string `json:"rpc_addr"`
	Nodes     int    `json:"nodes"`
	Failovers int    `json:"failovers"`
	HeadBlock uint32 `json:"head_block"`
	Server    string `json:"server_version"`
}
