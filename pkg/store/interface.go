package store

import (
	"context"

	"github.com/fintlab/cardledger/pkg/domain"
)

type Store interface {
	Write(ctx context.Context, result *domain.ScrapeResult) error
}
