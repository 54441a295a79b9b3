package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/salonpos/internal/domain/models"
	"github.com/mamadbah2/salonpos/internal/session"
)

const (
	sessionsCollection = "sessions"
	currentSessionID   = "current"
)

// sessionDocument is the stored shape of the terminal session.
type sessionDocument struct {
	ID                   string `bson:"_id"`
	models.StoredSession `bson:",inline"`
}

// SessionRepository implements session.Store on MongoDB.
type SessionRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

var _ session.Store = (*SessionRepository)(nil)

// NewSessionRepository connects to MongoDB and verifies the connection.
func NewSessionRepository(ctx context.Context, uri string, dbName string) (*SessionRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &SessionRepository{
		client:   client,
		dbName:   dbName,
		collName: sessionsCollection,
	}, nil
}

func (r *SessionRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// Save upserts the current session.
func (r *SessionRepository) Save(ctx context.Context, s models.StoredSession) error {
	doc := sessionDocument{ID: currentSessionID, StoredSession: s}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection().ReplaceOne(ctx, bson.M{"_id": currentSessionID}, doc, opts); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns the persisted session or session.ErrNoSession.
func (r *SessionRepository) Load(ctx context.Context) (*models.StoredSession, error) {
	var doc sessionDocument
	err := r.collection().FindOne(ctx, bson.M{"_id": currentSessionID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, session.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &doc.StoredSession, nil
}

// Delete removes the persisted session.
func (r *SessionRepository) Delete(ctx context.Context) error {
	if _, err := r.collection().DeleteOne(ctx, bson.M{"_id": currentSessionID}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *SessionRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
