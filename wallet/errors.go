package wallet

import (
	"errors"
	"fmt"
	"strings"

	eos "github.com/eoscanada/eos-go"
)

// ClaimError describes a claim the chain or the transport rejected.
type ClaimError struct {
	AssetID uint64
	// Code and Name come from the node's structured error when one was returned.
	Code    int
	Name    string
	What    string
	Details []string
	Err     error
}

func (e *ClaimError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("claim of asset %d failed: %v", e.AssetID, e.Err)
	}

	msg := fmt.Sprintf("claim of asset %d rejected: %s (%d): %s", e.AssetID, e.Name, e.Code, e.What)
	if len(e.Details) > 0 {
		msg += ": " + strings.Join(e.Details, "; ")
	}
	return msg
}

func (e *ClaimError) Unwrap() error {
	return e.Err
}

// Remote reports whether the node itself rejected the transaction.
func (e *ClaimError) Remote() bool {
	return e.Name != ""
}

func classify(assetID uint64, err error) *ClaimError {
	ce := &ClaimError{AssetID: assetID, Err: err}

	var apiErr eos.APIError
	var apiErrPtr *eos.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		apiErr = *apiErrPtr
	default:
		return ce
	}

	ce.Code = apiErr.ErrorStruct.Code
	ce.Name = apiErr.ErrorStruct.Name
	ce.What = apiErr.ErrorStruct.What
	for _, d := range apiErr.ErrorStruct.Details {
		ce.Details = append(ce.Details, d.Message)
	}
	if ce.Name == "" {
		ce.Name = "api_error"
		ce.Code = apiErr.Code
		ce.What = apiErr.Message
	}
	return ce
}
