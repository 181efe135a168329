// Package mongo persists classification records to MongoDB for offline
// routing-quality analysis.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sweetpotato0/ragalytics/router"
)

// Config holds MongoDB connection settings.
type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// DefaultConfig returns sensible local defaults.
func DefaultConfig() *Config {
	return &Config{
		URI:        "mongodb://localhost:27017",
		Database:   "ragalytics",
		Collection: "classifications",
		Timeout:    5 * time.Second,
	}
}

// Sink implements router.DiagnosticSink backed by a MongoDB collection.
type Sink struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
}

var _ router.DiagnosticSink = (*Sink)(nil)

// New connects to MongoDB and prepares the classification collection.
func New(ctx context.Context, config *Config) (*Sink, error) {
	if config == nil {
		config = DefaultConfig()
	}

	connectCtx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	return &Sink{
		client:     client,
		collection: client.Database(config.Database).Collection(config.Collection),
		timeout:    config.Timeout,
	}, nil
}

// Record inserts one classification record.
func (s *Sink) Record(ctx context.Context, rec router.Record) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.collection.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert classification record: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *Sink) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
