// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// ports, TLS, logging, and CORS; everything tender-specific lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Identity. The identity service signs either session cookies with
	// SessionKey or bearer tokens with IdentityJWTSecret.
	SessionKey        string
	SessionName       string // Cookie name (default: tenderhub-session)
	IdentityJWTSecret string

	// Document storage
	StorageType      string // "local" or "s3"
	StorageLocalPath string // Local storage root (e.g., "./uploads/tenders")
	StorageLocalURL  string // URL prefix for serving local files (e.g., "/files")

	// S3 configuration (only used if StorageType is "s3")
	StorageS3Region    string
	StorageS3Bucket    string
	StorageS3Prefix    string // Key prefix (e.g., "tenderhub/")
	StorageS3Endpoint  string // Custom endpoint for MinIO/LocalStack
	StorageS3PublicURL string // Base URL for document links (CDN); blank uses the bucket URL

	// Upload limits
	UploadMaxFileSize  int64
	UploadMaxFiles     int
	UploadAllowedTypes []string
	UploadTimeout      time.Duration

	// Cleanup
	CleanupBlocking     bool          // refuse to delete a tender whose documents cannot be removed
	OrphanSweepInterval time.Duration // how often failed removals are retried
	OrphanSweepBatch    int           // orphans retried per sweep
}
