package tables

import (
	"context"
	"errors"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	Contract       = "ranchersland"
	TableStakedNFT = "stakednft"
	TableNFTConfig = "nftconfig"

	DefaultLimit = 100
)

var (
	ErrReadExhausted = errors.New("table read retries exhausted")
	ErrAssetNotFound = errors.New("staked asset not found")
	ErrCursorStalled = errors.New("table cursor did not advance")
)

// PageRequest describes a single get_table_rows call. KeyField names the row field
// holding the table primary key and is used to derive a cursor when the node omits one.
type PageRequest struct {
	Code       string
	Scope      string
	Table      string
	LowerBound string
	UpperBound string
	Limit      uint32
	KeyField   string
}

type Page struct {
	Rows    []jsoniter.RawMessage
	More    bool
	NextKey string
}

// PageSource returns one page of rows from a remote table.
type PageSource interface {
	Page(ctx context.Context, req PageRequest) (*Page, error)
}
