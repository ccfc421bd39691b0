// Package mongo stores checkpoints in a MongoDB collection, one document per session.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

var (
	_ ports.CheckpointStore = (*Store)(nil)
	_ ports.Lister          = (*Store)(nil)
)

const (
	DefaultDatabase   = "switchboard"
	DefaultCollection = "checkpoints"
)

// checkpointDoc is the persisted representation of a checkpoint.
type checkpointDoc struct {
	ID        string                   `bson:"_id"`
	State     domain.ConversationState `bson:"state"`
	LastNode  string                   `bson:"last_node"`
	Step      int                      `bson:"step"`
	Turn      int                      `bson:"turn"`
	UpdatedAt time.Time                `bson:"updated_at"`
}

func toDoc(cp *domain.Checkpoint) checkpointDoc {
	return checkpointDoc{
		ID:        cp.SessionID,
		State:     cp.State,
		LastNode:  cp.LastNode,
		Step:      cp.Step,
		Turn:      cp.Turn,
		UpdatedAt: cp.UpdatedAt,
	}
}

func (d checkpointDoc) checkpoint() *domain.Checkpoint {
	return &domain.Checkpoint{
		SessionID: d.ID,
		State:     d.State,
		LastNode:  d.LastNode,
		Step:      d.Step,
		Turn:      d.Turn,
		UpdatedAt: d.UpdatedAt,
	}
}

// Store implements ports.CheckpointStore on top of a MongoDB collection.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect dials MongoDB and returns a store on database/collection.
// Empty names fall back to DefaultDatabase and DefaultCollection.
func Connect(ctx context.Context, uri, database, collection string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	if database == "" {
		database = DefaultDatabase
	}
	if collection == "" {
		collection = DefaultCollection
	}
	s := New(client.Database(database).Collection(collection))
	s.client = client
	return s, nil
}

// New wraps an existing collection. The caller keeps ownership of the client.
func New(coll *mongo.Collection) *Store {
	return &Store{collection: coll}
}

// Save upserts the checkpoint document.
func (s *Store) Save(ctx context.Context, cp *domain.Checkpoint) error {
	if cp == nil || cp.SessionID == "" {
		return domain.ErrEmptySessionID
	}
	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"_id": cp.SessionID},
		toDoc(cp),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo save checkpoint: %w", err)
	}
	return nil
}

// Load retrieves the checkpoint of a session.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	var doc checkpointDoc
	err := s.collection.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("mongo load checkpoint: %w", err)
	}
	return doc.checkpoint(), nil
}

// Clear removes the session document.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": sessionID}); err != nil {
		return fmt.Errorf("mongo clear session: %w", err)
	}
	return nil
}

// List returns the session IDs ordered by most recent update.
func (s *Store) List(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "_id", Value: 1}}).
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list sessions: %w", err)
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("mongo decode session: %w", err)
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

// Close disconnects the client when the store owns it.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
