package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/acertax/connect/internal/models"
)

type GroupStore interface {
	Create(ctx context.Context, g *models.Group) (string, error)
	Get(ctx context.Context, id string) (*models.Group, error)
	ListForUser(ctx context.Context, uid string) ([]*models.Group, error)
	Delete(ctx context.Context, id string) error
}

type mongoGroups struct {
	coll *mongo.Collection
}

func NewGroupStore(db *mongo.Database) GroupStore {
	coll := db.Collection(groupsColl)
	// index on the members array for the membership listing
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "members", Value: 1}},
		Options: options.Index().SetName("members_idx"),
	}
	_, _ = coll.Indexes().CreateOne(context.Background(), idx)
	return &mongoGroups{coll: coll}
}

func (s *mongoGroups) Create(ctx context.Context, g *models.Group) (string, error) {
	g.ID = primitive.NewObjectID().Hex()
	g.CreatedAt = time.Now().UTC()
	if _, err := s.coll.InsertOne(ctx, g); err != nil {
		return "", err
	}
	return g.ID, nil
}

func (s *mongoGroups) Get(ctx context.Context, id string) (*models.Group, error) {
	var g models.Group
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (s *mongoGroups) ListForUser(ctx context.Context, uid string) ([]*models.Group, error) {
	cur, err := s.coll.Find(ctx, bson.M{"members": uid})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.Group
	for cur.Next(ctx) {
		var g models.Group
		if err := cur.Decode(&g); err != nil {
			return nil, err
		}
		out = append(out, &g)
	}
	return out, cur.Err()
}

func (s *mongoGroups) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
