// Package memoryindex implements builtintools.MemoryIndex on top of MongoDB,
// the teacher's own durable store for this concern. Grounded directly on
// features/memory/mongo/clients/mongo/client.go: same collection-interface
// seam for testability (a narrow collection interface), same
// ensureIndexes-on-construction pattern, same context-with-timeout-per-call
// shape. The teacher stores per-run event snapshots; create_knowledge has no
// notion of a run, so the document shape here is a flat note (tags, text,
// recorded_at) rather than the teacher's run/event document.
package memoryindex

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	defaultCollection = "agent_memory_notes"
	defaultTimeout    = 5 * time.Second
)

// collection is the subset of *mongo.Collection the index needs, mirroring
// the teacher's own seam so tests can swap in a fake without a live server.
type collection interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
}

type indexView interface {
	CreateOne(ctx context.Context, model mongo.IndexModel, opts ...options.Lister[options.CreateIndexesOptions]) (string, error)
}

// MongoMemoryIndex implements builtintools.MemoryIndex by appending notes to
// a MongoDB collection.
type MongoMemoryIndex struct {
	coll    collection
	timeout time.Duration
}

// Options configures the Mongo-backed memory index.
type Options struct {
	Client     *mongo.Client
	Database   string
	Collection string
	Timeout    time.Duration
}

// New returns a MongoMemoryIndex backed by the provided client, creating the
// tag index used by lookups if it does not already exist.
func New(opts Options) (*MongoMemoryIndex, error) {
	if opts.Client == nil {
		return nil, errors.New("mongo client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("database name is required")
	}
	collName := opts.Collection
	if collName == "" {
		collName = defaultCollection
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	mcoll := opts.Client.Database(opts.Database).Collection(collName)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	idx := mongo.IndexModel{Keys: bson.D{{Key: "tags", Value: 1}}}
	if _, err := mcoll.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, err
	}
	return &MongoMemoryIndex{coll: mcoll, timeout: timeout}, nil
}

// noteDocument is the persisted shape of one create_knowledge note.
type noteDocument struct {
	Tags       []string  `bson:"tags,omitempty"`
	Text       string    `bson:"text"`
	RecordedAt time.Time `bson:"recorded_at"`
}

// Record implements builtintools.MemoryIndex.
func (m *MongoMemoryIndex) Record(tags []string, text string) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	_, err := m.coll.InsertOne(ctx, noteDocument{
		Tags:       tags,
		Text:       text,
		RecordedAt: time.Now().UTC(),
	})
	return err
}
