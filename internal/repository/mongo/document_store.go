package mongo

import (
	"alcyxob/sports-academy/internal/domain"
	"alcyxob/sports-academy/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Fields owned by the store. They are never taken from the caller's record.
var reservedFields = []string{"_id", "createdAt", "updatedAt"}

// DocumentStore implements repository.CloudStore with one MongoDB collection
// per academy collection.
type DocumentStore struct {
	db     *mongo.Database
	logger *zap.Logger
	now    func() time.Time
}

var _ repository.CloudStore = (*DocumentStore)(nil)

// NewDocumentStore creates a cloud store backed by db.
func NewDocumentStore(db *mongo.Database, logger *zap.Logger) *DocumentStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentStore{
		db:     db,
		logger: logger.Named("cloudstore"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Upsert merges record into its document, or creates a new document when the
// record id is pending-local.
func (s *DocumentStore) Upsert(ctx context.Context, collection string, record domain.Record) (string, error) {
	fields, err := toFields(record)
	if err != nil {
		s.logger.Warn("cloud upsert skipped, record not encodable",
			zap.String("collection", collection), zap.String("id", record.RecordID()), zap.Error(err))
		return "", err
	}
	now := s.now()
	coll := s.db.Collection(collection)

	id := record.RecordID()
	if domain.IsPendingLocal(id) {
		newID := primitive.NewObjectID().Hex()
		fields["_id"] = newID
		fields["createdAt"] = now
		fields["updatedAt"] = now
		if _, err := coll.InsertOne(ctx, fields); err != nil {
			s.logger.Warn("cloud create failed",
				zap.String("collection", collection), zap.String("localId", id), zap.Error(err))
			return "", fmt.Errorf("%w: %s: %v", repository.ErrCreateFailed, collection, err)
		}
		return newID, nil
	}

	fields["updatedAt"] = now
	update := bson.M{
		"$set":         fields,
		"$setOnInsert": bson.M{"createdAt": now},
	}
	_, err = coll.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil {
		s.logger.Warn("cloud update failed",
			zap.String("collection", collection), zap.String("id", id), zap.Error(err))
		return "", fmt.Errorf("%w: %s/%s: %v", repository.ErrUpdateFailed, collection, id, err)
	}
	return id, nil
}

// LoadAll fetches every document of collection, oldest first, into out.
func (s *DocumentStore) LoadAll(ctx context.Context, collection string, out any) error {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{}, findOptions)
	if err != nil {
		s.logger.Warn("cloud load failed, continuing with local data", zap.String("collection", collection), zap.Error(err))
		return err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, out); err != nil {
		s.logger.Warn("cloud load failed, continuing with local data", zap.String("collection", collection), zap.Error(err))
		return fmt.Errorf("%w: %s: %v", repository.ErrDecodeFailed, collection, err)
	}
	return nil
}

// Delete removes the document with id. Pending-local ids never reached the
// cloud, so they succeed without a round trip.
func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	if domain.IsPendingLocal(id) {
		return nil
	}
	result, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		s.logger.Warn("cloud delete failed", zap.String("collection", collection), zap.String("id", id), zap.Error(err))
		return fmt.Errorf("%w: %s/%s: %v", repository.ErrDeleteFailed, collection, id, err)
	}
	if result.DeletedCount == 0 {
		// Already gone; deletes are idempotent from the caller's point of view.
		s.logger.Debug("cloud delete matched nothing", zap.String("collection", collection), zap.String("id", id))
	}
	return nil
}

// toFields flattens a record into the fields the caller owns.
func toFields(record domain.Record) (bson.M, error) {
	if record == nil {
		return nil, errors.New("record is nil")
	}
	raw, err := bson.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	fields := bson.M{}
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	for _, f := range reservedFields {
		delete(fields, f)
	}
	return fields, nil
}

// EnsureIndexes creates the indexes used by LoadAll and the admin views.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) {
	for _, name := range domain.Collections {
		indexes := []mongo.IndexModel{
			{
				// LoadAll sorts by creation time
				Keys:    bson.D{{Key: "createdAt", Value: 1}},
				Options: options.Index(),
			},
		}
		switch name {
		case domain.CollectionStudents:
			indexes = append(indexes, mongo.IndexModel{
				Keys:    bson.D{{Key: "parentUsername", Value: 1}},
				Options: options.Index().SetSparse(true),
			})
		case domain.CollectionMedia:
			indexes = append(indexes, mongo.IndexModel{
				Keys:    bson.D{{Key: "status", Value: 1}},
				Options: options.Index(),
			})
		}
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			logger.Warn("failed to create indexes", zap.String("collection", name), zap.Error(err))
		}
	}
}
