package provider

import (
	"context"

	"github.com/fintlab/cardledger/pkg/domain"
)

type Scraper interface {
	Login(context.Context, Credentials) (LoginStatus, error)
	Transactions(context.Context, Options) (*domain.ScrapeResult, error)
}
