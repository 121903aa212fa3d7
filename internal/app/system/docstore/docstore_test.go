package docstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dalemusser/waffle/pantry/storage"
	"go.uber.org/zap"
)

// failingStore is an in-memory store whose Put and Delete can be made to fail.
type failingStore struct {
	*storage.Memory
	putErr    error
	deleteErr error
	puts      int
}

func newFailingStore() *failingStore {
	return &failingStore{Memory: storage.NewMemory(storage.MemoryConfig{BaseURL: "https://files.example.com"})}
}

func (s *failingStore) Put(ctx context.Context, path string, r io.Reader, opts *storage.PutOptions) error {
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	return s.Memory.Put(ctx, path, r, opts)
}

func (s *failingStore) Delete(ctx context.Context, path string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.Memory.Delete(ctx, path)
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "upload.tmp")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp: %v", err)
	}
	return p
}

func TestStorePut_Success(t *testing.T) {
	mem := storage.NewMemory(storage.MemoryConfig{BaseURL: "/files"})
	store := New(mem, zap.NewNop())

	tmp := writeTemp(t, "%PDF-1.4 test")
	doc, err := store.Put(context.Background(), File{Name: "bid.pdf", MIMEType: "application/pdf", Size: 13, Path: tmp})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if doc.ID.IsZero() {
		t.Error("expected document ID to be assigned")
	}
	if doc.OriginalName != "bid.pdf" || doc.MIMEType != "application/pdf" || doc.Size != 13 {
		t.Errorf("unexpected document metadata: %+v", doc)
	}
	if !strings.HasPrefix(doc.StorageRef, "tenders/") || !strings.HasSuffix(doc.StorageRef, "-bid.pdf") {
		t.Errorf("unexpected storage ref %q", doc.StorageRef)
	}
	if doc.URL != "/files/"+doc.StorageRef {
		t.Errorf("URL = %q", doc.URL)
	}

	data, err := mem.GetBytes(context.Background(), doc.StorageRef)
	if err != nil || string(data) != "%PDF-1.4 test" {
		t.Errorf("stored content mismatch: %q, %v", data, err)
	}
	info, err := mem.Head(context.Background(), doc.StorageRef)
	if err != nil || info.ContentType != "application/pdf" {
		t.Errorf("stored content type mismatch: %+v, %v", info, err)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Error("expected temporary copy to be removed after successful put")
	}
}

func TestStorePut_LocalBackend(t *testing.T) {
	root := t.TempDir()
	local, err := storage.NewLocal(storage.LocalConfig{BasePath: root, BaseURL: "/files/"})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	store := New(local, zap.NewNop())

	doc, err := store.Put(context.Background(), File{Name: "offer.pdf", MIMEType: "application/pdf", Size: 5, Path: writeTemp(t, "%PDF-")})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if doc.URL != "/files/"+doc.StorageRef {
		t.Errorf("URL = %q", doc.URL)
	}
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(doc.StorageRef)))
	if err != nil || string(data) != "%PDF-" {
		t.Errorf("stored content mismatch: %q, %v", data, err)
	}

	if err := store.Remove(context.Background(), doc.StorageRef); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := store.Remove(context.Background(), doc.StorageRef); err != nil {
		t.Errorf("removing a missing object should succeed, got %v", err)
	}
}

func TestStorePut_FailureRemovesTemp(t *testing.T) {
	objects := newFailingStore()
	objects.putErr = errors.New("bucket unavailable")
	store := New(objects, zap.NewNop())

	tmp := writeTemp(t, "data")
	_, err := store.Put(context.Background(), File{Name: "a.pdf", MIMEType: "application/pdf", Size: 4, Path: tmp})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	var se *StorageError
	if !errors.As(err, &se) || se.Op != "put" {
		t.Errorf("expected put StorageError, got %v", err)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Error("expected temporary copy to be removed after failed put")
	}
	if objects.Count() != 0 {
		t.Errorf("expected nothing stored, got %d objects", objects.Count())
	}
}

func TestStorePut_MissingTempFile(t *testing.T) {
	objects := newFailingStore()
	store := New(objects, zap.NewNop())

	_, err := store.Put(context.Background(), File{Name: "a.pdf", Path: filepath.Join(t.TempDir(), "gone")})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if objects.puts != 0 {
		t.Errorf("store should not be called, got %d puts", objects.puts)
	}
}

func TestStoreRemove(t *testing.T) {
	denied := newFailingStore()
	denied.deleteErr = storage.ErrPermissionDenied
	err := New(denied, zap.NewNop()).Remove(context.Background(), "tenders/2025/01/abc-a.pdf")
	if !errors.Is(err, ErrStorage) || !errors.Is(err, storage.ErrPermissionDenied) {
		t.Fatalf("expected wrapped permission error, got %v", err)
	}

	objects := newFailingStore()
	if err := objects.PutBytes(context.Background(), "tenders/x.pdf", []byte("x"), nil); err != nil {
		t.Fatalf("PutBytes: %v", err)
	}
	ok := New(objects, zap.NewNop())
	if err := ok.Remove(context.Background(), "tenders/x.pdf"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if objects.Count() != 0 {
		t.Errorf("expected object to be deleted, %d left", objects.Count())
	}
	if err := ok.Remove(context.Background(), "tenders/x.pdf"); err != nil {
		t.Errorf("missing object should count as removed, got %v", err)
	}
	if err := ok.Remove(context.Background(), ""); err != nil {
		t.Errorf("empty ref should be a no-op, got %v", err)
	}
}

func TestDiscard(t *testing.T) {
	a := writeTemp(t, "a")
	Discard(File{Path: a}, File{Path: ""}, File{Path: filepath.Join(t.TempDir(), "missing")})
	if _, err := os.Stat(a); !os.IsNotExist(err) {
		t.Error("expected file to be discarded")
	}
}
