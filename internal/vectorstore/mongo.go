package vectorstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
)

// MongoConfig holds configuration for the MongoDB-backed store.
type MongoConfig struct {
	// URI is the MongoDB connection string.
	URI string

	// Database is the database name.
	// Default: "ragd"
	Database string

	// Collection is the collection holding the records.
	// Default: "vectors"
	Collection string

	// ConnectTimeout bounds the initial connect + ping.
	// Default: 10s
	ConnectTimeout time.Duration
}

// ApplyDefaults sets default values for unset fields.
func (c *MongoConfig) ApplyDefaults() {
	if c.Database == "" {
		c.Database = "ragd"
	}
	if c.Collection == "" {
		c.Collection = "vectors"
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
}

// Validate validates the configuration.
func (c MongoConfig) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("%w: mongo URI required", ErrInvalidConfig)
	}
	return nil
}

// vectorDoc is the persisted record layout: one document per
// (chunk, embedding) pair, written atomically by InsertOne.
type vectorDoc struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Chunk     string        `bson:"chunk"`
	Embedding []float32     `bson:"embedding"`
}

// MongoStore implements Store on a MongoDB collection.
//
// Each record is a single document, so the (chunk, embedding) pair is
// written atomically; a failed insert leaves no partial record behind.
// There is no update or delete path: the collection is append-only.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.Logger

	mu  sync.Mutex
	dim int
}

// NewMongoStore connects to MongoDB and verifies the connection with a ping.
func NewMongoStore(ctx context.Context, cfg MongoConfig, logger *zap.Logger) (*MongoStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("%w: connecting: %v", ErrStorageUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping failed: %v", ErrStorageUnavailable, err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", cfg.Database),
		zap.String("collection", cfg.Collection))

	return &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		logger:     logger,
	}, nil
}

// Insert appends one record and returns its object ID.
func (s *MongoStore) Insert(ctx context.Context, rec Record) (string, error) {
	if err := validateRecord(rec); err != nil {
		return "", err
	}
	if err := s.checkDimension(len(rec.Embedding)); err != nil {
		return "", err
	}

	res, err := s.collection.InsertOne(ctx, vectorDoc{
		Chunk:     rec.Chunk,
		Embedding: rec.Embedding,
	})
	if err != nil {
		return "", fmt.Errorf("%w: insert failed: %v", ErrStorageUnavailable, err)
	}

	oid, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return fmt.Sprintf("%v", res.InsertedID), nil
	}
	return oid.Hex(), nil
}

// ScanAll materializes every record in the collection.
func (s *MongoStore) ScanAll(ctx context.Context) ([]StoredRecord, error) {
	cur, err := s.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("%w: scan failed: %v", ErrStorageUnavailable, err)
	}

	var docs []vectorDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: reading scan cursor: %v", ErrStorageUnavailable, err)
	}

	records := make([]StoredRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, StoredRecord{
			ID:        doc.ID.Hex(),
			Chunk:     doc.Chunk,
			Embedding: doc.Embedding,
		})
	}
	return records, nil
}

// Count returns the number of stored records.
func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	n, err := s.collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("%w: count failed: %v", ErrStorageUnavailable, err)
	}
	return n, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnecting: %w", err)
	}
	return nil
}

// checkDimension enforces a single embedding dimension per store instance.
// The first insert in this process establishes the dimension.
func (s *MongoStore) checkDimension(dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dim == 0 {
		s.dim = dim
		return nil
	}
	if dim != s.dim {
		return fmt.Errorf("%w: got %d, store holds %d", ErrDimensionMismatch, dim, s.dim)
	}
	return nil
}
