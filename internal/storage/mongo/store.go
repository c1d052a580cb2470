// Package mongo stores log entries as documents in the daylog.logs
// collection.
package mongo

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/julianstephens/daylog/internal/constants"
)

const connectTimeout = 10 * time.Second

type Store struct {
	uri      string
	database string
	client   *mongo.Client
	logs     *mongo.Collection
}

// New returns a store for the given mongodb:// or mongodb+srv:// URI. The
// database is taken from the URI path when present, otherwise "daylog".
func New(uri string) *Store {
	database := constants.MongoDatabase
	if u, err := url.Parse(uri); err == nil && len(u.Path) > 1 {
		database = u.Path[1:]
	}
	return &Store{uri: uri, database: database}
}

func (s *Store) connect() error {
	if s.client != nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.uri))
	if err != nil {
		return fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("failed to connect to mongo: %w", err)
	}
	s.client = client
	s.logs = client.Database(s.database).Collection(constants.MongoCollection)
	return nil
}

// Init connects and creates the date index used by FindAll.
func (s *Store) Init() error {
	if err := s.connect(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	_, err := s.logs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("idx_logs_date"),
	})
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

func (s *Store) Load() error {
	return s.connect()
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("storage not loaded")
	}
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Backend() string {
	return constants.BackendMongo
}

// GetConfigPath returns the database and collection, never the URI.
func (s *Store) GetConfigPath() string {
	return "mongodb:" + s.database + "." + constants.MongoCollection
}
