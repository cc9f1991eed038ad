package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	arberrors "github.com/arbormap/arbor/pkg/errors"
	"github.com/arbormap/arbor/pkg/tree"
)

const treeCollection = "trees"

// MongoStore persists named trees as documents in MongoDB.
// It offers the same Save/Load/List surface as [FileStore] for
// deployments where local disk is not durable.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// treeDocument is the stored shape: one document per named tree.
type treeDocument struct {
	Name      string     `bson:"_id"`
	Tree      *tree.Tree `bson:"tree"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

// NewMongoStore connects to MongoDB and returns a tree store using the
// given database. The connection is verified with a ping before returning.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(treeCollection),
	}, nil
}

// Save upserts the tree document under the given name.
// Returns the name actually used (a missing name gets a timestamped default).
func (ms *MongoStore) Save(ctx context.Context, name string, t *tree.Tree) (string, error) {
	if name == "" {
		name = fmt.Sprintf("family_tree_%s", time.Now().Format("20060102_150405"))
	}
	doc := treeDocument{Name: name, Tree: t, UpdatedAt: time.Now()}
	_, err := ms.coll.ReplaceOne(ctx, bson.M{"_id": name}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return "", fmt.Errorf("save tree %q: %w", name, err)
	}
	return name, nil
}

// Load reads the named tree document.
func (ms *MongoStore) Load(ctx context.Context, name string) (*tree.Tree, error) {
	var doc treeDocument
	err := ms.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, arberrors.New(arberrors.ErrCodeFileNotFound, "tree not found: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("load tree %q: %w", name, err)
	}
	doc.Tree.Normalize()
	return doc.Tree, nil
}

// List returns the names and timestamps of all stored trees, most
// recently updated first.
func (ms *MongoStore) List(ctx context.Context) ([]FileInfo, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetProjection(bson.M{"_id": 1, "updated_at": 1})
	cur, err := ms.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list trees: %w", err)
	}
	defer cur.Close(ctx)

	var out []FileInfo
	for cur.Next(ctx) {
		var doc treeDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode tree document: %w", err)
		}
		out = append(out, FileInfo{Filename: doc.Name, Modified: doc.UpdatedAt})
	}
	return out, cur.Err()
}

// Delete removes the named tree document. Missing documents are not an error.
func (ms *MongoStore) Delete(ctx context.Context, name string) error {
	_, err := ms.coll.DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return fmt.Errorf("delete tree %q: %w", name, err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (ms *MongoStore) Close(ctx context.Context) error {
	return ms.client.Disconnect(ctx)
}
