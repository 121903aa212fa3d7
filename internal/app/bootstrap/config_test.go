package bootstrap

import (
	"testing"
	"time"

	"github.com/dalemusser/tenderhub/internal/app/system/uploads"
	"go.uber.org/zap"
)

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:            "mongodb://localhost:27017",
		MongoDatabase:       "tenderhub",
		SessionKey:          "0123456789abcdef0123456789abcdef",
		StorageType:         "local",
		StorageLocalPath:    "./uploads/tenders",
		StorageLocalURL:     "/files",
		UploadMaxFileSize:   uploads.DefaultMaxFileSize,
		UploadMaxFiles:      uploads.DefaultMaxFiles,
		UploadAllowedTypes:  uploads.DefaultAllowedTypes,
		UploadTimeout:       2 * time.Minute,
		OrphanSweepInterval: 10 * time.Minute,
		OrphanSweepBatch:    100,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"valid local", func(*AppConfig) {}, false},
		{"valid s3", func(c *AppConfig) { c.StorageType = "s3"; c.StorageS3Bucket = "docs" }, false},
		{"jwt only", func(c *AppConfig) { c.SessionKey = ""; c.IdentityJWTSecret = "secret" }, false},
		{"bad mongo uri", func(c *AppConfig) { c.MongoURI = "http://localhost" }, true},
		{"unknown storage", func(c *AppConfig) { c.StorageType = "ftp" }, true},
		{"s3 without bucket", func(c *AppConfig) { c.StorageType = "s3" }, true},
		{"local without path", func(c *AppConfig) { c.StorageLocalPath = "" }, true},
		{"no identity secret", func(c *AppConfig) { c.SessionKey = "" }, true},
		{"zero file size", func(c *AppConfig) { c.UploadMaxFileSize = 0 }, true},
		{"zero max files", func(c *AppConfig) { c.UploadMaxFiles = 0 }, true},
		{"zero upload timeout", func(c *AppConfig) { c.UploadTimeout = 0 }, true},
		{"zero sweep interval", func(c *AppConfig) { c.OrphanSweepInterval = 0 }, true},
		{"zero sweep batch", func(c *AppConfig) { c.OrphanSweepBatch = 0 }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := ValidateConfig(nil, cfg, zap.NewNop())
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestUploadLimits(t *testing.T) {
	cfg := validConfig()
	cfg.UploadMaxFileSize = 1024
	cfg.UploadMaxFiles = 3
	cfg.UploadAllowedTypes = []string{"application/pdf"}

	got := cfg.uploadLimits()
	if got.MaxFileSize != 1024 || got.MaxFiles != 3 {
		t.Errorf("limits = %+v", got)
	}
	if len(got.AllowedTypes) != 1 || got.AllowedTypes[0] != "application/pdf" {
		t.Errorf("allowed types = %v", got.AllowedTypes)
	}
}
