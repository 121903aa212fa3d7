// internal/app/bootstrap/connect.go
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	orphanstore "github.com/dalemusser/tenderhub/internal/app/store/orphans"
	"github.com/dalemusser/tenderhub/internal/app/system/docstore"
	"github.com/dalemusser/tenderhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB connects to MongoDB and builds the document storage backend.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	connectCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		logger.Error("MongoDB connect failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Error("MongoDB ping failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Orphans:       orphanstore.New(db),
	}

	objects, err := buildStorage(ctx, appCfg)
	if err != nil {
		_ = client.Disconnect(context.Background())
		logger.Error("storage backend init failed", zap.String("storage_type", appCfg.StorageType), zap.Error(err))
		return DBDeps{}, err
	}
	deps.Docs = docstore.New(objects, logger)
	logger.Info("document storage ready", zap.String("storage_type", objects.Backend()))

	return deps, nil
}

// buildStorage opens the object store named by storage_type.
func buildStorage(ctx context.Context, appCfg AppConfig) (storage.Store, error) {
	switch appCfg.StorageType {
	case "s3":
		baseURL := appCfg.StorageS3PublicURL
		if baseURL == "" && appCfg.StorageS3Endpoint != "" {
			baseURL = strings.TrimSuffix(appCfg.StorageS3Endpoint, "/") + "/" + appCfg.StorageS3Bucket
		}
		s, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:       appCfg.StorageS3Bucket,
			Region:       appCfg.StorageS3Region,
			Endpoint:     appCfg.StorageS3Endpoint,
			UsePathStyle: appCfg.StorageS3Endpoint != "",
			Prefix:       strings.Trim(appCfg.StorageS3Prefix, "/"),
			BaseURL:      strings.TrimSuffix(baseURL, "/"),
		})
		if err != nil {
			return nil, fmt.Errorf("s3 storage: %w", err)
		}
		return s, nil
	default:
		l, err := storage.NewLocal(storage.LocalConfig{
			BasePath: appCfg.StorageLocalPath,
			BaseURL:  appCfg.StorageLocalURL,
		})
		if err != nil {
			return nil, fmt.Errorf("local storage: %w", err)
		}
		return l, nil
	}
}
