package store

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/acertax/connect/internal/models"
)

// MessageFilter selects one thread: Room equality for direct threads,
// GroupID equality for group threads.
type MessageFilter struct {
	Room    string
	GroupID string
}

func (f MessageFilter) bson() bson.M {
	if f.GroupID != "" {
		return bson.M{"group_id": f.GroupID}
	}
	return bson.M{"room": f.Room}
}

type MessageStore interface {
	Insert(ctx context.Context, m *models.Message) (string, error)
	// History returns the thread's messages visible to requester, sorted
	// ascending by normalized timestamp.
	History(ctx context.Context, requester string, f MessageFilter, limit int64) ([]*models.Message, error)
	// SoftDelete unions requester into deleted_for across the thread,
	// committing in chunks of batchSize.
	SoftDelete(ctx context.Context, requester string, f MessageFilter, batchSize int) error
	PurgeGroup(ctx context.Context, groupID string) error
}

type mongoMessages struct {
	coll *mongo.Collection
}

func NewMessageStore(db *mongo.Database) MessageStore {
	return &mongoMessages{coll: db.Collection(messagesColl)}
}

func (s *mongoMessages) Insert(ctx context.Context, m *models.Message) (string, error) {
	m.ID = primitive.NewObjectID().Hex()
	if m.DeletedFor == nil {
		m.DeletedFor = []string{}
	}
	if _, err := s.coll.InsertOne(ctx, m); err != nil {
		return "", err
	}
	return m.ID, nil
}

func (s *mongoMessages) History(ctx context.Context, requester string, f MessageFilter, limit int64) ([]*models.Message, error) {
	cur, err := s.coll.Find(ctx, f.bson(), options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*models.Message
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		if deletedFor(&m, requester) {
			continue
		}
		out = append(out, &m)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return models.SortKey(out[i].TS) < models.SortKey(out[j].TS)
	})
	return out, nil
}

func deletedFor(m *models.Message, uid string) bool {
	for _, d := range m.DeletedFor {
		if d == uid {
			return true
		}
	}
	return false
}

func (s *mongoMessages) SoftDelete(ctx context.Context, requester string, f MessageFilter, batchSize int) error {
	cur, err := s.coll.Find(ctx, f.bson(), options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	b := newSoftDeleteBatcher(batchSize, requester, func(batch []mongo.WriteModel) error {
		_, err := s.coll.BulkWrite(ctx, batch)
		return err
	})
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return err
		}
		if err := b.add(doc.ID); err != nil {
			return err
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	return b.flush()
}

// softDeleteBatcher partitions deleted_for updates into fixed-size chunks,
// committing each full chunk before collecting the next. A mid-stream
// failure therefore leaves a committed prefix of full chunks rather than a
// half-applied batch.
type softDeleteBatcher struct {
	size      int
	requester string
	commit    func([]mongo.WriteModel) error
	batch     []mongo.WriteModel
}

func newSoftDeleteBatcher(size int, requester string, commit func([]mongo.WriteModel) error) *softDeleteBatcher {
	return &softDeleteBatcher{
		size:      size,
		requester: requester,
		commit:    commit,
		batch:     make([]mongo.WriteModel, 0, size),
	}
}

func (b *softDeleteBatcher) add(id string) error {
	b.batch = append(b.batch, mongo.NewUpdateOneModel().
		SetFilter(bson.M{"_id": id}).
		SetUpdate(bson.M{"$addToSet": bson.M{"deleted_for": b.requester}}))
	if len(b.batch) >= b.size {
		return b.flush()
	}
	return nil
}

func (b *softDeleteBatcher) flush() error {
	if len(b.batch) == 0 {
		return nil
	}
	err := b.commit(b.batch)
	b.batch = b.batch[:0]
	return err
}

func (s *mongoMessages) PurgeGroup(ctx context.Context, groupID string) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{"group_id": groupID})
	return err
}
