package sink

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/gymscraper/internal/types"
)

// MongoAudit is a secondary, best-effort store of raw ScrapeResult
// documents, diagnostic only: losing it never affects classesUpserted,
// mirroring the fan-out idiom of a multi-backend storage layer.
type MongoAudit struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoAudit connects to uri and opens database/collection for audit
// writes.
func NewMongoAudit(ctx context.Context, uri, database, collection string, logger *slog.Logger) (*MongoAudit, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return &MongoAudit{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_audit"),
	}, nil
}

type auditDocument struct {
	SourceURL    string            `bson:"_source_url"`
	Timestamp    time.Time         `bson:"_timestamp"`
	Organization types.Organization `bson:"organization"`
	Locations    []types.Location   `bson:"locations"`
	Classes      []types.Class      `bson:"classes"`
}

// Record writes result as a best-effort audit document. Failures are
// logged and swallowed; the caller's run outcome never depends on this.
func (m *MongoAudit) Record(ctx context.Context, sourceURL string, result types.ScrapeResult) {
	doc := auditDocument{
		SourceURL:    sourceURL,
		Timestamp:    result.FetchedAt,
		Organization: result.Organization,
		Locations:    result.Locations,
		Classes:      result.Classes,
	}
	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		m.logger.Warn("audit insert failed", "url", sourceURL, "error", err)
	}
}

// Close disconnects the Mongo client.
func (m *MongoAudit) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
