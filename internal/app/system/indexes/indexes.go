// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	var problems []string

	if err := ensureTenders(ctx, db, logger); err != nil {
		problems = append(problems, "tenders: "+err.Error())
	}
	if err := ensureStorageOrphans(ctx, db, logger); err != nil {
		problems = append(problems, "storage_orphans: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconcile a desired index set for one collection                           */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

type desiredIndex struct {
	model  mongo.IndexModel
	name   string
	unique bool
	sig    string
}

func describe(m mongo.IndexModel) desiredIndex {
	d := desiredIndex{model: m, sig: keySig(m.Keys.(bson.D))}
	if m.Options != nil {
		if m.Options.Name != nil {
			d.name = *m.Options.Name
		}
		d.unique = m.Options.Unique != nil && *m.Options.Unique
	}
	return d
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func listExisting(ctx context.Context, coll *mongo.Collection, logger *zap.Logger) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			logger.Warn("failed to decode existing index",
				zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

// Mongo returns IndexOptionsConflict when an index with the same keys exists
// under a different name or with different options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	return strings.Contains(err.Error(), "E11000")
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, logger *zap.Logger, wanted []mongo.IndexModel) error {
	existing, err := listExisting(ctx, coll, logger)
	if err != nil {
		// A collection that does not exist yet has no indexes to reconcile.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range wanted {
		d := describe(m)
		start := time.Now()
		log := logger.With(
			zap.String("collection", coll.Name()),
			zap.String("name", d.name),
			zap.String("keys", d.sig),
			zap.Bool("unique", d.unique))

		ex, found := existing[d.sig]
		switch {
		case found && (ex.Unique != nil && *ex.Unique) == d.unique && (d.name == "" || ex.Name == d.name):
			log.Debug("reusing existing index")
			continue
		case found:
			// Same keys but a different name or uniqueness: recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", zap.String("existing", ex.Name), zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), d.name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, d.model); err != nil {
			switch {
			case isDuplicateKeyErr(err) && d.unique:
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present on %s)", coll.Name(), d.name, d.sig))
			case isOptionsConflictErr(err):
				errs = append(errs, fmt.Sprintf("%s(%s): conflicting index on %s exists", coll.Name(), d.name, d.sig))
			default:
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), d.name, err))
			}
			log.Warn("index ensure failed", zap.Error(err))
			continue
		}
		log.Info("index ensured", zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureTenders(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	c := db.Collection("tenders")
	return ensureIndexSet(ctx, c, logger, []mongo.IndexModel{
		// tenderId is unique; this index, not the pre-check, decides races.
		{
			Keys:    bson.D{{Key: "tender_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_tenders_tenderid"),
		},
		// Default list order.
		{
			Keys:    bson.D{{Key: "due_date", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_tenders_duedate__id"),
		},
		// Status filter, then due date sort.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "due_date", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_tenders_status_duedate__id"),
		},
		{
			Keys:    bson.D{{Key: "organization_ci", Value: 1}},
			Options: options.Index().SetName("idx_tenders_orgci"),
		},
		{
			Keys:    bson.D{{Key: "submitted_by.id", Value: 1}},
			Options: options.Index().SetName("idx_tenders_submittedby"),
		},
	})
}

func ensureStorageOrphans(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	c := db.Collection("storage_orphans")
	return ensureIndexSet(ctx, c, logger, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "storage_ref", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_orphans_storageref"),
		},
		// Sweeper reads the oldest entries first.
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_orphans_updatedat__id"),
		},
	})
}
