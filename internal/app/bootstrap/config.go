// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/tenderhub/internal/app/system/uploads"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for TenderHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, storage_type, etc.
//   - Environment variables: TENDERHUB_MONGO_URI, TENDERHUB_STORAGE_TYPE, etc.
//   - Command-line flags: --mongo_uri, --storage_type, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "tenderhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Identity
	{Name: "session_key", Default: "", Desc: "Session cookie signing key shared with the identity service"},
	{Name: "session_name", Default: "tenderhub-session", Desc: "Session cookie name"},
	{Name: "identity_jwt_secret", Default: "", Desc: "HS256 secret for bearer tokens issued by the identity service"},

	// Document storage
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads/tenders", Desc: "Local storage path for uploaded documents"},
	{Name: "storage_local_url", Default: "/files", Desc: "URL prefix for serving local documents"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "tenderhub/", Desc: "S3 key prefix"},
	{Name: "storage_s3_endpoint", Default: "", Desc: "Custom S3 endpoint (MinIO, LocalStack)"},
	{Name: "storage_s3_public_url", Default: "", Desc: "Public base URL for documents (blank uses the bucket URL)"},

	// Uploads
	{Name: "upload_max_file_size", Default: uploads.DefaultMaxFileSize, Desc: "Maximum size of one document in bytes"},
	{Name: "upload_max_files", Default: uploads.DefaultMaxFiles, Desc: "Maximum documents per request"},
	{Name: "upload_allowed_types", Default: "", Desc: "Comma-separated allowed MIME types (blank uses the built-in list)"},
	{Name: "upload_timeout", Default: "2m", Desc: "Deadline for a create/update request including storage calls"},

	// Cleanup
	{Name: "cleanup_blocking", Default: false, Desc: "Fail tender deletion when documents cannot be removed from storage"},
	{Name: "orphan_sweep_interval", Default: "10m", Desc: "How often failed storage removals are retried"},
	{Name: "orphan_sweep_batch", Default: 100, Desc: "Orphans retried per sweep"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// TENDERHUB_* environment variables, and flags with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TENDERHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:        appValues.String("session_key"),
		SessionName:       appValues.String("session_name"),
		IdentityJWTSecret: appValues.String("identity_jwt_secret"),

		StorageType:        appValues.String("storage_type"),
		StorageLocalPath:   appValues.String("storage_local_path"),
		StorageLocalURL:    appValues.String("storage_local_url"),
		StorageS3Region:    appValues.String("storage_s3_region"),
		StorageS3Bucket:    appValues.String("storage_s3_bucket"),
		StorageS3Prefix:    appValues.String("storage_s3_prefix"),
		StorageS3Endpoint:  appValues.String("storage_s3_endpoint"),
		StorageS3PublicURL: appValues.String("storage_s3_public_url"),

		UploadMaxFileSize:  int64(appValues.Int("upload_max_file_size")),
		UploadMaxFiles:     appValues.Int("upload_max_files"),
		UploadAllowedTypes: uploads.ParseAllowedTypes(appValues.String("upload_allowed_types")),
		UploadTimeout:      appValues.Duration("upload_timeout", 2*time.Minute),

		CleanupBlocking:     appValues.Bool("cleanup_blocking"),
		OrphanSweepInterval: appValues.Duration("orphan_sweep_interval", 10*time.Minute),
		OrphanSweepBatch:    appValues.Int("orphan_sweep_batch"),
	}

	return coreCfg, appCfg, nil
}

// uploadLimits converts the upload settings into orchestrator limits.
func (c AppConfig) uploadLimits() uploads.Limits {
	return uploads.Limits{
		MaxFileSize:  c.UploadMaxFileSize,
		MaxFiles:     c.UploadMaxFiles,
		AllowedTypes: c.UploadAllowedTypes,
	}
}

// ValidateConfig performs app-specific config validation.
//
// It rejects a malformed MongoDB URI, an unknown storage backend, an S3
// backend without a bucket, missing identity secrets, and non-positive
// upload or sweep settings, before anything connects.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	switch appCfg.StorageType {
	case "local":
		if appCfg.StorageLocalPath == "" {
			return errors.New("storage_local_path is required for local storage")
		}
	case "s3":
		if appCfg.StorageS3Bucket == "" {
			return errors.New("storage_s3_bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("storage_type must be 'local' or 's3', got %q", appCfg.StorageType)
	}

	if appCfg.SessionKey == "" && appCfg.IdentityJWTSecret == "" {
		return errors.New("session_key or identity_jwt_secret must be set")
	}

	if appCfg.UploadMaxFileSize <= 0 {
		return errors.New("upload_max_file_size must be positive")
	}
	if appCfg.UploadMaxFiles <= 0 {
		return errors.New("upload_max_files must be positive")
	}
	if appCfg.UploadTimeout <= 0 {
		return errors.New("upload_timeout must be positive")
	}
	if appCfg.OrphanSweepInterval <= 0 {
		return errors.New("orphan_sweep_interval must be positive")
	}
	if appCfg.OrphanSweepBatch <= 0 {
		return errors.New("orphan_sweep_batch must be positive")
	}

	if appCfg.CleanupBlocking {
		logger.Info("blocking storage cleanup enabled: tender deletion fails when documents cannot be removed")
	}

	return nil
}
