// internal/app/store/orphans/orphanstore.go
package orphanstore

import (
	"context"
	"time"

	"github.com/dalemusser/tenderhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection holds storage objects that could not be removed.
const Collection = "storage_orphans"

// maxErrorLen bounds the stored error text.
const maxErrorLen = 500

type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:   db.Collection(Collection),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Record upserts an orphan for storageRef. Recording the same ref again
// bumps its attempt count and keeps the original reason.
func (s *Store) Record(ctx context.Context, storageRef, reason string, cause error) error {
	if storageRef == "" {
		return nil
	}
	now := s.now()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"storage_ref": storageRef},
		bson.M{
			"$setOnInsert": bson.M{
				"_id":        primitive.NewObjectID(),
				"reason":     reason,
				"created_at": now,
			},
			"$set": bson.M{"last_error": errText(cause), "updated_at": now},
			"$inc": bson.M{"attempts": 1},
		},
		options.Update().SetUpsert(true))
	return err
}

// ListDue returns up to limit orphans, least recently attempted first.
func (s *Store) ListDue(ctx context.Context, limit int) ([]models.StorageOrphan, error) {
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.StorageOrphan
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve forgets an orphan after its object was removed.
func (s *Store) Resolve(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// MarkFailed records another failed removal attempt.
func (s *Store) MarkFailed(ctx context.Context, id primitive.ObjectID, cause error) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"last_error": errText(cause), "updated_at": s.now()},
		"$inc": bson.M{"attempts": 1},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Count returns the number of outstanding orphans.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > maxErrorLen {
		msg = msg[:maxErrorLen]
	}
	return msg
}
