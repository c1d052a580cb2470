package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/storage"
)

// logDocument is the stored shape of a log entry.
type logDocument struct {
	ID          string    `bson:"_id"`
	Date        string    `bson:"date"`
	Content     string    `bson:"content"`
	Description string    `bson:"description"`
	StartTime   string    `bson:"start_time"`
	EndTime     string    `bson:"end_time"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func toDocument(e models.LogEntry) logDocument {
	return logDocument{
		ID:          e.ID,
		Date:        e.Date,
		Content:     e.Content,
		Description: e.Description,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		CreatedAt:   e.CreatedAt.UTC(),
		UpdatedAt:   e.UpdatedAt.UTC(),
	}
}

func (d logDocument) entry() models.LogEntry {
	return models.LogEntry{
		ID:          d.ID,
		Date:        d.Date,
		Content:     d.Content,
		Description: d.Description,
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

func (s *Store) Create(ctx context.Context, e models.LogEntry) error {
	if _, err := s.logs.InsertOne(ctx, toDocument(e)); err != nil {
		return fmt.Errorf("failed to insert log: %w", err)
	}
	return nil
}

func (s *Store) FindAll(ctx context.Context) ([]models.LogEntry, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: -1},
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})
	cur, err := s.logs.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}
	defer cur.Close(ctx)

	var docs []logDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode logs: %w", err)
	}
	entries := make([]models.LogEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, d.entry())
	}
	return entries, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (models.LogEntry, error) {
	var d logDocument
	err := s.logs.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.LogEntry{}, storage.ErrNotFound
	}
	if err != nil {
		return models.LogEntry{}, fmt.Errorf("failed to get log %s: %w", id, err)
	}
	return d.entry(), nil
}

func (s *Store) UpdateByID(ctx context.Context, id string, e models.LogEntry) (models.LogEntry, error) {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "date", Value: e.Date},
		{Key: "content", Value: e.Content},
		{Key: "description", Value: e.Description},
		{Key: "start_time", Value: e.StartTime},
		{Key: "end_time", Value: e.EndTime},
		{Key: "updated_at", Value: e.UpdatedAt.UTC()},
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var d logDocument
	err := s.logs.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update, opts).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.LogEntry{}, storage.ErrNotFound
	}
	if err != nil {
		return models.LogEntry{}, fmt.Errorf("failed to update log %s: %w", id, err)
	}
	return d.entry(), nil
}

func (s *Store) DeleteByID(ctx context.Context, id string) error {
	res, err := s.logs.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("failed to delete log %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}
