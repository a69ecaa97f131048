package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fintlab/cardledger/pkg/domain"
)

const (
	mongoDatabase   = "cardledger"
	mongoCollection = "transactions"
)

type Mongo struct {
	uri string
}

func NewMongo(uri string) Store {
	return &Mongo{uri: uri}
}

// Write upserts every transaction keyed by provider+account+voucher, so
// overlapping scrape windows converge instead of duplicating rows.
func (m *Mongo) Write(ctx context.Context, result *domain.ScrapeResult) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(m.uri))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	txns := result.All()
	if len(txns) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(txns))
	for _, t := range txns {
		filter := bson.M{
			"provider":   t.Provider,
			"account":    t.Account,
			"identifier": t.Identifier,
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(bson.M{"$set": t}).
			SetUpsert(true))
	}

	coll := client.Database(mongoDatabase).Collection(mongoCollection)
	_, err = coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("failed to perform bulk write: %w", err)
	}
	return nil
}
