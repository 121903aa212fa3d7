// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	orphanstore "github.com/dalemusser/tenderhub/internal/app/store/orphans"
	"github.com/dalemusser/tenderhub/internal/app/system/docstore"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and storage dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Docs is the document store over the configured storage backend.
	Docs *docstore.Store

	Orphans *orphanstore.Store
}
