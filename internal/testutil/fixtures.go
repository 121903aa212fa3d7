package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dalemusser/tenderhub/internal/app/system/docstore"
	"github.com/dalemusser/tenderhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Admin returns a privileged principal.
func Admin() models.Principal {
	return models.Principal{ID: primitive.NewObjectID().Hex(), Role: models.RoleAdmin, Name: "Test Admin"}
}

// User returns a non-privileged principal.
func User() models.Principal {
	return models.Principal{ID: primitive.NewObjectID().Hex(), Role: models.RoleUser, Name: "Test User"}
}

// NewTender returns an unsaved pending tender owned by ownerID with docs
// documents. Timestamps are truncated to what Mongo stores.
func NewTender(tenderID, ownerID string, docs int) models.Tender {
	now := time.Now().UTC().Truncate(time.Millisecond)
	t := models.Tender{
		TenderID:     tenderID,
		Organization: "Acme",
		Description:  "road works",
		DueDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Price:        1000,
		Status:       models.StatusPending,
		Attributes:   []models.Attribute{},
		SubmittedBy:  models.Submitter{ID: ownerID},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for i := 0; i < docs; i++ {
		t.Documents = append(t.Documents, NewDocument(fmt.Sprintf("doc-%d.pdf", i+1)))
	}
	return t
}

// NewDocument returns a stored-looking PDF document.
func NewDocument(name string) models.Document {
	id := primitive.NewObjectID()
	ref := "tenders/2025/01/" + id.Hex()[:8] + "-" + name
	return models.Document{
		ID:           id,
		OriginalName: name,
		StorageRef:   ref,
		URL:          "/files/" + ref,
		Size:         int64(len(name)),
		MIMEType:     "application/pdf",
		UploadedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
}

// TempFile writes content to a temporary file, as the HTTP layer spools
// uploads, and returns the matching docstore.File.
func TempFile(t *testing.T, name, mimeType, content string) docstore.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload-"+primitive.NewObjectID().Hex())
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp upload: %v", err)
	}
	return docstore.File{Name: name, MIMEType: mimeType, Size: int64(len(content)), Path: path}
}

// PDF is shorthand for a small PDF upload.
func PDF(t *testing.T, name string) docstore.File {
	t.Helper()
	return TempFile(t, name, "application/pdf", "%PDF-1.4 "+name)
}

// FileExists reports whether path is present on disk.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
