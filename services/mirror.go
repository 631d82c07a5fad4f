package services

import (
	"context"
	"time"

	"notes-qa-platform/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mirror is the best-effort external side channel for document metadata and
// query analytics. Every method is advisory: failures are logged by callers
// and never affect ingestion or query results.
type Mirror interface {
	UpsertDocument(ctx context.Context, doc models.Document) error
	DeleteDocument(ctx context.Context, docID int64) error
	LogQuery(ctx context.Context, entry models.QueryLog) error
}

const mirrorTimeout = 5 * time.Second

// MongoMirror mirrors document metadata into a "documents" collection and
// appends query analytics to "query_logs".
type MongoMirror struct {
	documents *mongo.Collection
	queryLogs *mongo.Collection
}

func NewMongoMirror(db *mongo.Database) *MongoMirror {
	return &MongoMirror{
		documents: db.Collection("documents"),
		queryLogs: db.Collection("query_logs"),
	}
}

func (m *MongoMirror) UpsertDocument(ctx context.Context, doc models.Document) error {
	ctx, cancel := context.WithTimeout(ctx, mirrorTimeout)
	defer cancel()

	_, err := m.documents.UpdateOne(ctx,
		bson.M{"doc_id": doc.ID},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true))
	return err
}

func (m *MongoMirror) DeleteDocument(ctx context.Context, docID int64) error {
	ctx, cancel := context.WithTimeout(ctx, mirrorTimeout)
	defer cancel()

	_, err := m.documents.DeleteOne(ctx, bson.M{"doc_id": docID})
	return err
}

func (m *MongoMirror) LogQuery(ctx context.Context, entry models.QueryLog) error {
	ctx, cancel := context.WithTimeout(ctx, mirrorTimeout)
	defer cancel()

	_, err := m.queryLogs.InsertOne(ctx, entry)
	return err
}
