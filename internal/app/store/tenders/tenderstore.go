// internal/app/store/tenders/tenderstore.go
package tenderstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/tenderhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the tenders collection name.
const Collection = "tenders"

var (
	ErrDuplicateTenderID = errors.New("a tender with this tenderId already exists")
	ErrNotFound          = errors.New("tender not found")
	// ErrConflict means the tender changed between read and write.
	ErrConflict = errors.New("tender was modified by another request")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// fold refreshes the *_ci search fields from their display values.
func fold(t *models.Tender) {
	t.TenderIDCI = text.Fold(t.TenderID)
	t.OrganizationCI = text.Fold(t.Organization)
	t.DescriptionCI = text.Fold(t.Description)
	if t.Documents == nil {
		t.Documents = []models.Document{}
	}
	if t.Attributes == nil {
		t.Attributes = []models.Attribute{}
	}
}

// Create inserts t, assigning an ID and timestamps when unset.
func (s *Store) Create(ctx context.Context, t models.Tender) (models.Tender, error) {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	if t.CreatedAt.IsZero() {
		// Mongo keeps milliseconds; match it so UpdatedAt round-trips for Replace.
		t.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	fold(&t)

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Tender{}, ErrDuplicateTenderID
		}
		return models.Tender{}, err
	}
	return t, nil
}

// GetByID returns the tender with the given id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Tender, error) {
	var t models.Tender
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Tender{}, ErrNotFound
		}
		return models.Tender{}, err
	}
	return t, nil
}

// ExistsTenderID reports whether another tender already uses tenderID.
// exclude is ignored when zero.
func (s *Store) ExistsTenderID(ctx context.Context, tenderID string, exclude primitive.ObjectID) (bool, error) {
	filter := bson.M{"tender_id": tenderID}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	n, err := s.c.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Replace overwrites the stored tender with t, provided its updated_at is
// still expected. A mismatch returns ErrConflict.
func (s *Store) Replace(ctx context.Context, t models.Tender, expected time.Time) error {
	fold(&t)
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": t.ID, "updated_at": expected}, t)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateTenderID
		}
		return err
	}
	if res.MatchedCount == 0 {
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": t.ID})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

// SetStatus changes only status and updated_at and returns the new record.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string, at time.Time) (models.Tender, error) {
	return s.findAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"status": status, "updated_at": at},
	})
}

// SetDocuments replaces the document list and returns the new record.
func (s *Store) SetDocuments(ctx context.Context, id primitive.ObjectID, docs []models.Document, at time.Time) (models.Tender, error) {
	return s.findAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"documents": docs, "updated_at": at},
	})
}

// PullDocument removes one document, but only while the tender still has at
// least two. ErrNotFound means the guard did not match: the tender or the
// document is gone, or it is now the last document.
func (s *Store) PullDocument(ctx context.Context, id, docID primitive.ObjectID, at time.Time) (models.Tender, error) {
	return s.findAndUpdate(ctx,
		bson.M{
			"_id":           id,
			"documents._id": docID,
			"documents.1":   bson.M{"$exists": true},
		},
		bson.M{
			"$pull": bson.M{"documents": bson.M{"_id": docID}},
			"$set":  bson.M{"updated_at": at},
		})
}

// Delete removes a tender by ID.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) findAndUpdate(ctx context.Context, filter, update bson.M) (models.Tender, error) {
	var t models.Tender
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Tender{}, ErrNotFound
		}
		return models.Tender{}, err
	}
	return t, nil
}
