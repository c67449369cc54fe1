package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/acertax/connect/internal/models"
)

type UnreadStore interface {
	// Increment atomically adds 1 to the (uid, thread) counter, creating it
	// with the tag fields on first touch.
	Increment(ctx context.Context, c *models.UnreadCounter) error
	Reset(ctx context.Context, uid, threadID string) error
	List(ctx context.Context, uid string) ([]*models.UnreadCounter, error)
	Delete(ctx context.Context, uid, threadID string) error
}

type mongoUnread struct {
	coll *mongo.Collection
}

func NewUnreadStore(db *mongo.Database) UnreadStore {
	return &mongoUnread{coll: db.Collection(unreadColl)}
}

func (s *mongoUnread) Increment(ctx context.Context, c *models.UnreadCounter) error {
	set := bson.M{
		"uid":        c.UID,
		"thread_id":  c.ThreadID,
		"type":       c.Type,
		"updated_ts": time.Now().UTC(),
	}
	if c.OtherUID != "" {
		set["other_uid"] = c.OtherUID
	}
	if c.GroupID != "" {
		set["group_id"] = c.GroupID
	}
	update := bson.M{
		"$inc": bson.M{"count": 1},
		"$set": set,
	}
	_, err := s.coll.UpdateByID(ctx, models.CounterID(c.UID, c.ThreadID), update, options.Update().SetUpsert(true))
	return err
}

func (s *mongoUnread) Reset(ctx context.Context, uid, threadID string) error {
	update := bson.M{"$set": bson.M{
		"uid":        uid,
		"thread_id":  threadID,
		"count":      0,
		"updated_ts": time.Now().UTC(),
	}}
	_, err := s.coll.UpdateByID(ctx, models.CounterID(uid, threadID), update, options.Update().SetUpsert(true))
	return err
}

func (s *mongoUnread) List(ctx context.Context, uid string) ([]*models.UnreadCounter, error) {
	cur, err := s.coll.Find(ctx, bson.M{"uid": uid})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.UnreadCounter
	for cur.Next(ctx) {
		var c models.UnreadCounter
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, cur.Err()
}

func (s *mongoUnread) Delete(ctx context.Context, uid, threadID string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": models.CounterID(uid, threadID)})
	return err
}
