package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/noah-isme/wisdomwork-api/internal/models"
)

// MongoDocumentStore maps each collection onto a MongoDB collection keyed by a string _id.
type MongoDocumentStore struct {
	db      *mongo.Database
	metrics queryObserver
}

// NewMongoDocumentStore constructs the store.
func NewMongoDocumentStore(db *mongo.Database, metrics queryObserver) *MongoDocumentStore {
	return &MongoDocumentStore{db: db, metrics: metrics}
}

func fromBSON(raw bson.M) Document {
	doc := make(Document, len(raw))
	for k, v := range raw {
		if k == "_id" {
			doc["id"] = fmt.Sprint(v)
			continue
		}
		doc[k] = v
	}
	return doc
}

// toBSON builds the stored form of fields. An empty id leaves _id out.
func toBSON(id string, fields Document) bson.M {
	doc := bson.M{}
	if id != "" {
		doc["_id"] = id
	}
	for k, v := range withoutID(fields) {
		doc[k] = v
	}
	return doc
}

func equalsFilter(equals map[string]interface{}) bson.M {
	filter := bson.M{}
	for k, v := range equals {
		filter[k] = v
	}
	return filter
}

// List implements DocumentStore.
func (s *MongoDocumentStore) List(ctx context.Context, collection string, equals map[string]interface{}) ([]Document, error) {
	defer observe(s.metrics, "mongo.list."+collection, time.Now())
	cursor, err := s.db.Collection(collection).Find(ctx, equalsFilter(equals))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("read %s: %w", collection, err)
	}

	docs := make([]Document, 0, len(raw))
	for _, r := range raw {
		docs = append(docs, fromBSON(r))
	}
	return docs, nil
}

// Get implements DocumentStore.
func (s *MongoDocumentStore) Get(ctx context.Context, collection, id string) (Document, error) {
	defer observe(s.metrics, "mongo.get."+collection, time.Now())
	var raw bson.M
	if err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("find %s/%s: %w", collection, id, err)
	}
	return fromBSON(raw), nil
}

// Create implements DocumentStore.
func (s *MongoDocumentStore) Create(ctx context.Context, collection string, fields Document) (string, error) {
	defer observe(s.metrics, "mongo.create."+collection, time.Now())
	id := uuid.NewString()
	if _, err := s.db.Collection(collection).InsertOne(ctx, toBSON(id, fields)); err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}
	return id, nil
}

// Insert implements DocumentStore. The _id index rejects a second writer.
func (s *MongoDocumentStore) Insert(ctx context.Context, collection, id string, fields Document) error {
	defer observe(s.metrics, "mongo.insert."+collection, time.Now())
	if _, err := s.db.Collection(collection).InsertOne(ctx, toBSON(id, fields)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDocumentExists
		}
		return fmt.Errorf("insert %s/%s: %w", collection, id, err)
	}
	return nil
}

// Set implements DocumentStore.
func (s *MongoDocumentStore) Set(ctx context.Context, collection, id string, fields Document) error {
	defer observe(s.metrics, "mongo.set."+collection, time.Now())
	opts := options.Replace().SetUpsert(true)
	if _, err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, toBSON("", fields), opts); err != nil {
		return fmt.Errorf("replace %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update implements DocumentStore using $set so untouched fields survive.
func (s *MongoDocumentStore) Update(ctx context.Context, collection, id string, fields Document) error {
	defer observe(s.metrics, "mongo.update."+collection, time.Now())
	patch := withoutID(fields)
	if len(patch) == 0 {
		_, err := s.Get(ctx, collection, id)
		return err
	}
	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(patch)})
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// EnsureIndexes creates the unique email index on the credentials collection.
func (s *MongoDocumentStore) EnsureIndexes(ctx context.Context) error {
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("credential_email"),
	}
	if _, err := s.db.Collection(models.CollectionCredentials).Indexes().CreateOne(ctx, index); err != nil {
		return fmt.Errorf("create credential index: %w", err)
	}
	return nil
}

// Ping implements DocumentStore.
func (s *MongoDocumentStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}
