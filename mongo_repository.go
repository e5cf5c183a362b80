package restblog

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	singleDocTimeout = 5 * time.Second
	multiDocTimeout  = 10 * time.Second
)

type MongoRepository[T Document] struct {
	collection *mongo.Collection
}

// NewMongoRepository uses collectionName when given, otherwise the
// document's own collection name.
func NewMongoRepository[T Document](db *mongo.Database, collectionName ...string) *MongoRepository[T] {
	name := getCollectionName[T]()
	if len(collectionName) > 0 && collectionName[0] != "" {
		name = collectionName[0]
	}
	return &MongoRepository[T]{
		collection: db.Collection(name),
	}
}

func (r *MongoRepository[T]) FindById(ctx context.Context, id interface{}) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, singleDocTimeout)
	defer cancel()

	var result T
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&result)
	if err != nil {
		return result, err
	}
	return result, nil
}

func (r *MongoRepository[T]) FindAll(ctx context.Context, findOpts ...interface{}) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, multiDocTimeout)
	defer cancel()

	var mongoFindOpts []*options.FindOptions
	for _, opt := range findOpts {
		if fo, ok := opt.(*options.FindOptions); ok {
			mongoFindOpts = append(mongoFindOpts, fo)
		}
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, mongoFindOpts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := []T{}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *MongoRepository[T]) Save(ctx context.Context, doc T) error {
	ctx, cancel := context.WithTimeout(ctx, singleDocTimeout)
	defer cancel()
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}

func (r *MongoRepository[T]) SaveOrUpdate(ctx context.Context, doc T) error {
	ctx, cancel := context.WithTimeout(ctx, singleDocTimeout)
	defer cancel()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": getDocumentID(doc)}, doc, options.Replace().SetUpsert(true))
	return err
}

// UpdateFields sets the given fields on one document and returns the
// document as it is after the update. mongo.ErrNoDocuments means no match.
func (r *MongoRepository[T]) UpdateFields(ctx context.Context, id interface{}, fields map[string]interface{}) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, singleDocTimeout)
	defer cancel()

	var result T
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&result)
	return result, err
}

// Increment atomically adds delta to field, creating the document when it
// does not exist yet, and returns the document after the update.
func (r *MongoRepository[T]) Increment(ctx context.Context, id interface{}, field string, delta int64) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, singleDocTimeout)
	defer cancel()

	var result T
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After).SetUpsert(true)
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{field: delta}}, opts).Decode(&result)
	return result, err
}

// Delete removes one document. mongo.ErrNoDocuments means nothing matched.
func (r *MongoRepository[T]) Delete(ctx context.Context, id interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, singleDocTimeout)
	defer cancel()
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MongoRepository[T]) DeleteBy(ctx context.Context, field string, value interface{}) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, multiDocTimeout)
	defer cancel()
	res, err := r.collection.DeleteMany(ctx, bson.M{field: value})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
