package mocks

//go:generate mockgen -destination=mocks.go -package=mocks . PageSource,Submitter

import (
	"github.com/thisisglitchtm/Ranchers-Land-Claim/tables"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/wallet"
)

type PageSource interface {
	tables.PageSource
}

type Submitter interface {
	wallet.Submitter
}
