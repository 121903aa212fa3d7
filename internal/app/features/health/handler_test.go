package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/tenderhub/internal/app/features/health"
	"github.com/dalemusser/tenderhub/internal/testutil"
	"go.uber.org/zap"
)

type countStub struct {
	n   int64
	err error
}

func (c countStub) Count(context.Context) (int64, error) { return c.n, c.err }

type response struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Orphans  *int64 `json:"pending_orphans"`
}

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Serve(rec, httptest.NewRequest("GET", "/health", nil))

	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, resp
}

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := health.NewHandler(db.Client(), countStub{n: 3}, zap.NewNop())

	rec, resp := serve(t, handler)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if contentType := rec.Header().Get("Content-Type"); contentType != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", contentType, "application/json")
	}
	if resp.Status != "ok" {
		t.Errorf("status: got %q, want %q", resp.Status, "ok")
	}
	if resp.Database != "connected" {
		t.Errorf("database: got %q, want %q", resp.Database, "connected")
	}
	if resp.Orphans == nil || *resp.Orphans != 3 {
		t.Errorf("pending_orphans: got %v, want 3", resp.Orphans)
	}
}

func TestServe_OrphanCountFailureStillHealthy(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := health.NewHandler(db.Client(), countStub{err: errors.New("boom")}, zap.NewNop())

	rec, resp := serve(t, handler)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if resp.Orphans != nil {
		t.Errorf("pending_orphans: got %d, want omitted", *resp.Orphans)
	}
}
