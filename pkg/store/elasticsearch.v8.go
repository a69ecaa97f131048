package store

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/rs/zerolog"

	"github.com/fintlab/cardledger/pkg/domain"
)

const (
	esIndex = "cardledger"
	esFlush = 2048
)

type ElasticsearchV8 struct {
	addresses []string
	log       zerolog.Logger
}

func NewElasticsearchV8(log zerolog.Logger, urls ...string) Store {
	return &ElasticsearchV8{addresses: urls, log: log}
}

func (e *ElasticsearchV8) Write(ctx context.Context, result *domain.ScrapeResult) error {
	retryBackoff := backoff.NewExponentialBackOff()

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: e.addresses,

		// Retry on 429 TooManyRequests statuses
		RetryOnStatus: []int{502, 503, 504, 429},

		RetryBackoff: func(i int) time.Duration {
			if i == 1 {
				retryBackoff.Reset()
			}
			return retryBackoff.NextBackOff()
		},

		MaxRetries: 5,
	})
	if err != nil {
		return err
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:         esIndex,
		FlushBytes:    esFlush,
		Client:        es,
		NumWorkers:    4,
		FlushInterval: 10 * time.Second,
	})
	if err != nil {
		return err
	}

	_, err = es.Indices.Create(esIndex)
	if err != nil {
		e.log.Debug().Err(err).Str("index", esIndex).Msg("attempted to make index")
	}

	for _, t := range result.All() {
		data, err := t.JSON()
		if err != nil {
			return err
		}

		// account+voucher keys the document so re-scrapes of overlapping
		// windows upsert instead of duplicating
		err = bi.Add(
			ctx,
			esutil.BulkIndexerItem{
				Action:     "index",
				DocumentID: fmt.Sprintf("%s-%s-%d", t.Provider, t.Account, t.Identifier),
				Body:       bytes.NewReader(data),

				OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
					if err != nil {
						e.log.Error().Err(err).Msg("failed to index transaction")
					} else {
						e.log.Error().Str("type", res.Error.Type).Str("reason", res.Error.Reason).Msg("failed to index transaction")
					}
				},
			},
		)
		if err != nil {
			return err
		}
	}

	err = bi.Close(ctx)
	if err != nil {
		return err
	}

	stats := bi.Stats()
	if stats.NumFailed > 0 {
		return fmt.Errorf("failed indexing %d docs", int64(stats.NumFailed))
	}
	e.log.Info().Int64("indexed", int64(stats.NumFlushed)).Msg("ledger indexed")
	return nil
}
