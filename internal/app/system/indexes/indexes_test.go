package indexes_test

import (
	"context"
	"testing"

	"github.com/dalemusser/tenderhub/internal/app/system/indexes"
	"github.com/dalemusser/tenderhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func indexNames(t *testing.T, ctx context.Context, coll *mongo.Collection) map[string]bool {
	t.Helper()
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	want := map[string][]string{
		"tenders": {
			"uniq_tenders_tenderid",
			"idx_tenders_duedate__id",
			"idx_tenders_status_duedate__id",
			"idx_tenders_orgci",
			"idx_tenders_submittedby",
		},
		"storage_orphans": {
			"uniq_orphans_storageref",
			"idx_orphans_updatedat__id",
		},
	}
	for coll, expected := range want {
		names := indexNames(t, ctx, db.Collection(coll))
		for _, name := range expected {
			if !names[name] {
				t.Errorf("expected index %q on %s", name, coll)
			}
		}
	}
}

func TestEnsureAll_RenamesMismatchedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Same keys, wrong name.
	_, err := db.Collection("tenders").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "organization_ci", Value: 1}},
	})
	if err != nil {
		t.Fatalf("seed index: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	names := indexNames(t, ctx, db.Collection("tenders"))
	if !names["idx_tenders_orgci"] {
		t.Error("expected idx_tenders_orgci after reconcile")
	}
	if names["organization_ci_1"] {
		t.Error("expected default-named index to be replaced")
	}
}
