package store

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/acertax/connect/internal/models"
)

type UserStore interface {
	EnsureProfile(ctx context.Context, uid, email string) error
	SetPresence(ctx context.Context, uid string, online bool) error
	Get(ctx context.Context, uid string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

type mongoUsers struct {
	coll *mongo.Collection
}

func NewUserStore(db *mongo.Database) UserStore {
	return &mongoUsers{coll: db.Collection(usersColl)}
}

// EnsureProfile creates the profile with defaults on first sight of a uid.
// Merge semantics: existing fields are never overwritten.
func (s *mongoUsers) EnsureProfile(ctx context.Context, uid, email string) error {
	email = strings.ToLower(email)
	now := time.Now().UTC()
	update := bson.M{"$setOnInsert": bson.M{
		"email":        email,
		"role":         models.RoleEmployee,
		"display_name": strings.SplitN(email, "@", 2)[0],
		"online":       false,
		"last_seen":    now,
		"created_at":   now,
	}}
	_, err := s.coll.UpdateByID(ctx, uid, update, options.Update().SetUpsert(true))
	return err
}

func (s *mongoUsers) SetPresence(ctx context.Context, uid string, online bool) error {
	update := bson.M{"$set": bson.M{
		"online":    online,
		"last_seen": time.Now().UTC(),
	}}
	_, err := s.coll.UpdateByID(ctx, uid, update, options.Update().SetUpsert(true))
	return err
}

func (s *mongoUsers) Get(ctx context.Context, uid string) (*models.User, error) {
	var u models.User
	if err := s.coll.FindOne(ctx, bson.M{"_id": uid}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *mongoUsers) List(ctx context.Context) ([]*models.User, error) {
	cur, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.User
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, cur.Err()
}
