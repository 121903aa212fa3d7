package tenders_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	errorsfeature "github.com/dalemusser/tenderhub/internal/app/features/errors"
	"github.com/dalemusser/tenderhub/internal/app/features/tenders"
	"github.com/dalemusser/tenderhub/internal/app/store/queries/tenderqueries"
	"github.com/dalemusser/tenderhub/internal/app/system/lifecycle"
	"github.com/dalemusser/tenderhub/internal/app/system/uploads"
	"github.com/dalemusser/tenderhub/internal/domain/models"
	"github.com/dalemusser/tenderhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type env struct {
	router chi.Router
	store  *testutil.MemTenders
	docs   *testutil.FakeDocuments
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		store: testutil.NewMemTenders(),
		docs:  testutil.NewFakeDocuments(),
	}
	logger := zap.NewNop()
	up := uploads.New(e.docs, testutil.NewFakeOrphans(), uploads.DefaultLimits(), logger)
	mgr := lifecycle.New(e.store, e.store, up, lifecycle.Options{}, logger)
	h := tenders.NewHandler(mgr, up.Limits(), errorsfeature.NewErrorLogger(logger), logger)
	e.router = tenders.Routes(h)
	return e
}

func (e *env) serve(r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, r)
	return rec
}

func (e *env) seed(tenderID, owner string, docs int) models.Tender {
	t := e.store.Insert(testutil.NewTender(tenderID, owner, docs))
	e.docs.Seed(t.Documents...)
	return t
}

func createFields(tenderID string) map[string]string {
	return map[string]string{
		"tenderId":     tenderID,
		"organization": "Acme",
		"description":  "road works",
		"dueDate":      "2025-01-01",
		"price":        "1000",
	}
}

func pdf(name string) testutil.Upload {
	return testutil.Upload{Name: name, MIMEType: "application/pdf", Content: "%PDF-1.4 " + name}
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorsfeature.Body
	testutil.DecodeJSON(t, rec, &body)
	return body.Message
}

/*─────────────────────────────────────────────────────────────────────────────*
| Create                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func TestCreate_Created(t *testing.T) {
	e := newEnv(t)
	req := testutil.MultipartRequest(t, http.MethodPost, "/", createFields("T-1"), pdf("a.pdf"), pdf("b.pdf"))
	req = testutil.WithPrincipal(req, testutil.User())

	rec := e.serve(req)
	testutil.AssertStatus(t, rec, http.StatusCreated)

	var got models.Tender
	testutil.DecodeJSON(t, rec, &got)
	if got.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
	if len(got.Documents) != 2 || got.Documents[0].OriginalName != "a.pdf" || got.Documents[1].OriginalName != "b.pdf" {
		t.Errorf("documents = %+v, want a.pdf, b.pdf in order", got.Documents)
	}
	if e.store.Len() != 1 {
		t.Errorf("stored tenders = %d, want 1", e.store.Len())
	}
}

func TestCreate_BracketFieldAndSniffedType(t *testing.T) {
	e := newEnv(t)
	up := testutil.Upload{Field: "documents[]", Name: "scan.pdf", Content: "%PDF-1.7\n1 0 obj"}
	req := testutil.MultipartRequest(t, http.MethodPost, "/", createFields("T-1"), up)
	req = testutil.WithPrincipal(req, testutil.User())

	rec := e.serve(req)
	testutil.AssertStatus(t, rec, http.StatusCreated)

	var got models.Tender
	testutil.DecodeJSON(t, rec, &got)
	if len(got.Documents) != 1 {
		t.Fatalf("documents = %d, want 1", len(got.Documents))
	}
	if got.Documents[0].MIMEType != "application/pdf" {
		t.Errorf("mime = %q, want application/pdf", got.Documents[0].MIMEType)
	}
}

func TestCreate_MixedFileFieldsKeepOrder(t *testing.T) {
	e := newEnv(t)
	req := testutil.MultipartRequest(t, http.MethodPost, "/", createFields("T-1"),
		testutil.Upload{Field: "documents", Name: "a.pdf", MIMEType: "application/pdf", Content: "%PDF-1.4 a"},
		testutil.Upload{Field: "documents[]", Name: "b.pdf", MIMEType: "application/pdf", Content: "%PDF-1.4 b"},
		testutil.Upload{Field: "documents", Name: "c.pdf", MIMEType: "application/pdf", Content: "%PDF-1.4 c"},
		testutil.Upload{Field: "cover", Name: "ignored.pdf", MIMEType: "application/pdf", Content: "%PDF-1.4 x"},
	)
	req = testutil.WithPrincipal(req, testutil.User())

	rec := e.serve(req)
	testutil.AssertStatus(t, rec, http.StatusCreated)

	var got models.Tender
	testutil.DecodeJSON(t, rec, &got)
	var names []string
	for _, d := range got.Documents {
		names = append(names, d.OriginalName)
	}
	if strings.Join(names, ",") != "a.pdf,b.pdf,c.pdf" {
		t.Errorf("documents = %v, want a.pdf, b.pdf, c.pdf in arrival order", names)
	}
}

func TestCreate_NotMultipart(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("tenderId=T-1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = testutil.WithPrincipal(req, testutil.User())

	rec := e.serve(req)
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	if e.docs.Puts() != 0 {
		t.Errorf("store puts = %d, want 0", e.docs.Puts())
	}
}

func TestCreate_ClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		files  []testutil.Upload
		want   int
	}{
		{"no documents", createFields("T-1"), nil, http.StatusBadRequest},
		{"missing organization", func() map[string]string {
			f := createFields("T-1")
			delete(f, "organization")
			return f
		}(), []testutil.Upload{pdf("a.pdf")}, http.StatusBadRequest},
		{"bad due date", func() map[string]string {
			f := createFields("T-1")
			f["dueDate"] = "tomorrow"
			return f
		}(), []testutil.Upload{pdf("a.pdf")}, http.StatusBadRequest},
		{"disallowed type", createFields("T-1"), []testutil.Upload{
			{Name: "tool.exe", MIMEType: "application/x-msdownload", Content: "MZ"},
		}, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t)
			req := testutil.MultipartRequest(t, http.MethodPost, "/", tc.fields, tc.files...)
			req = testutil.WithPrincipal(req, testutil.User())

			rec := e.serve(req)
			testutil.AssertStatus(t, rec, tc.want)
			if message(t, rec) == "" {
				t.Error("expected a message")
			}
			if e.docs.Puts() != 0 {
				t.Errorf("store puts = %d, want 0", e.docs.Puts())
			}
		})
	}
}

func TestCreate_Duplicate(t *testing.T) {
	e := newEnv(t)
	e.seed("T-1", "someone", 1)

	req := testutil.MultipartRequest(t, http.MethodPost, "/", createFields("T-1"), pdf("a.pdf"))
	req = testutil.WithPrincipal(req, testutil.User())

	rec := e.serve(req)
	testutil.AssertStatus(t, rec, http.StatusConflict)
}

func TestCreate_UploadFailureHidesCause(t *testing.T) {
	e := newEnv(t)
	e.docs.FailPut["b.pdf"] = true

	req := testutil.MultipartRequest(t, http.MethodPost, "/", createFields("T-1"), pdf("a.pdf"), pdf("b.pdf"))
	req = testutil.WithPrincipal(req, testutil.User())

	rec := e.serve(req)
	testutil.AssertStatus(t, rec, http.StatusInternalServerError)
	if strings.Contains(rec.Body.String(), testutil.ErrInjected.Error()) {
		t.Errorf("body leaks cause: %s", rec.Body.String())
	}
	if e.store.Len() != 0 {
		t.Errorf("stored tenders = %d, want 0", e.store.Len())
	}
	if len(e.docs.Stored()) != 0 {
		t.Errorf("objects left in storage: %v", e.docs.Stored())
	}
}

func TestUnauthenticated(t *testing.T) {
	e := newEnv(t)
	rec := e.serve(httptest.NewRequest(http.MethodGet, "/", nil))
	testutil.AssertStatus(t, rec, http.StatusUnauthorized)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Read                                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func TestList_Pagination(t *testing.T) {
	e := newEnv(t)
	for _, id := range []string{"T-1", "T-2", "T-3"} {
		e.seed(id, "owner", 1)
	}

	req := testutil.WithPrincipal(httptest.NewRequest(http.MethodGet, "/?limit=2&page=1", nil), testutil.User())
	rec := e.serve(req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var res tenderqueries.Result
	testutil.DecodeJSON(t, rec, &res)
	if len(res.Tenders) != 2 {
		t.Errorf("tenders = %d, want 2", len(res.Tenders))
	}
	if res.Pagination.Total != 3 || res.Pagination.Pages != 2 || res.Pagination.Page != 1 || res.Pagination.Limit != 2 {
		t.Errorf("pagination = %+v", res.Pagination)
	}
}

func TestList_InvalidNumbersFallBack(t *testing.T) {
	e := newEnv(t)
	e.seed("T-1", "owner", 1)

	req := testutil.WithPrincipal(httptest.NewRequest(http.MethodGet, "/?limit=abc&page=-4", nil), testutil.User())
	rec := e.serve(req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var res tenderqueries.Result
	testutil.DecodeJSON(t, rec, &res)
	if res.Pagination.Page != 1 || res.Pagination.Limit != 10 {
		t.Errorf("pagination = %+v, want page 1 limit 10", res.Pagination)
	}
}

func TestGet(t *testing.T) {
	e := newEnv(t)
	seeded := e.seed("T-1", "owner", 1)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"found", "/" + seeded.ID.Hex(), http.StatusOK},
		{"unknown id", "/" + "0123456789abcdef01234567", http.StatusNotFound},
		{"malformed id", "/not-an-id", http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.WithPrincipal(httptest.NewRequest(http.MethodGet, tc.path, nil), testutil.User())
			testutil.AssertStatus(t, e.serve(req), tc.want)
		})
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Update                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func TestUpdate_JSONByOwner(t *testing.T) {
	e := newEnv(t)
	owner := testutil.User()
	seeded := e.seed("T-1", owner.ID, 1)

	req := testutil.JSONRequest(t, http.MethodPut, "/"+seeded.ID.Hex(), map[string]any{"organization": "Globex"})
	req = testutil.WithPrincipal(req, owner)

	rec := e.serve(req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var got models.Tender
	testutil.DecodeJSON(t, rec, &got)
	if got.Organization != "Globex" {
		t.Errorf("organization = %q, want Globex", got.Organization)
	}
	if got.Description != seeded.Description {
		t.Errorf("description changed to %q", got.Description)
	}
}

func TestUpdate_OtherUserForbidden(t *testing.T) {
	e := newEnv(t)
	seeded := e.seed("T-1", "owner", 1)

	req := testutil.JSONRequest(t, http.MethodPut, "/"+seeded.ID.Hex(), map[string]any{"organization": "Globex"})
	req = testutil.WithPrincipal(req, testutil.User())

	testutil.AssertStatus(t, e.serve(req), http.StatusForbidden)
}

func TestUpdate_MultipartReplacesDocuments(t *testing.T) {
	e := newEnv(t)
	seeded := e.seed("T-1", "owner", 2)

	req := testutil.MultipartRequest(t, http.MethodPut, "/"+seeded.ID.Hex(), nil, pdf("new.pdf"))
	req = testutil.WithPrincipal(req, testutil.Admin())

	rec := e.serve(req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var got models.Tender
	testutil.DecodeJSON(t, rec, &got)
	if len(got.Documents) != 1 || got.Documents[0].OriginalName != "new.pdf" {
		t.Errorf("documents = %+v, want only new.pdf", got.Documents)
	}
	for _, d := range seeded.Documents {
		if e.docs.Has(d.StorageRef) {
			t.Errorf("old document %s still stored", d.StorageRef)
		}
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Status                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func TestStatus(t *testing.T) {
	tests := []struct {
		name   string
		actor  models.Principal
		status string
		want   int
	}{
		{"admin approves", testutil.Admin(), "approved", http.StatusOK},
		{"admin mixed case", testutil.Admin(), "Rejected", http.StatusOK},
		{"invalid status", testutil.Admin(), "archived", http.StatusBadRequest},
		{"user forbidden", testutil.User(), "approved", http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t)
			seeded := e.seed("T-1", "owner", 1)

			req := testutil.JSONRequest(t, http.MethodPatch, "/"+seeded.ID.Hex()+"/status", map[string]string{"status": tc.status})
			req = testutil.WithPrincipal(req, tc.actor)

			rec := e.serve(req)
			testutil.AssertStatus(t, rec, tc.want)
			if tc.want == http.StatusOK {
				var got models.Tender
				testutil.DecodeJSON(t, rec, &got)
				if got.Status != strings.ToLower(tc.status) {
					t.Errorf("status = %q, want %q", got.Status, strings.ToLower(tc.status))
				}
			}
		})
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Delete                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func TestDelete(t *testing.T) {
	e := newEnv(t)
	seeded := e.seed("T-1", "owner", 2)

	userReq := testutil.WithPrincipal(httptest.NewRequest(http.MethodDelete, "/"+seeded.ID.Hex(), nil), testutil.User())
	testutil.AssertStatus(t, e.serve(userReq), http.StatusForbidden)

	adminReq := testutil.WithPrincipal(httptest.NewRequest(http.MethodDelete, "/"+seeded.ID.Hex(), nil), testutil.Admin())
	rec := e.serve(adminReq)
	testutil.AssertStatus(t, rec, http.StatusOK)
	if got := message(t, rec); got != "Tender removed" {
		t.Errorf("message = %q", got)
	}
	if e.store.Len() != 0 {
		t.Errorf("stored tenders = %d, want 0", e.store.Len())
	}
	if len(e.docs.Stored()) != 0 {
		t.Errorf("objects left in storage: %v", e.docs.Stored())
	}
}

func TestDeleteDocument(t *testing.T) {
	e := newEnv(t)
	owner := testutil.User()
	seeded := e.seed("T-1", owner.ID, 2)
	base := "/" + seeded.ID.Hex() + "/documents/"

	req := testutil.WithPrincipal(httptest.NewRequest(http.MethodDelete, base+seeded.Documents[0].ID.Hex(), nil), owner)
	rec := e.serve(req)
	testutil.AssertStatus(t, rec, http.StatusOK)
	if got := message(t, rec); got != "Document deleted successfully" {
		t.Errorf("message = %q", got)
	}

	// One document left: deleting it is refused.
	req = testutil.WithPrincipal(httptest.NewRequest(http.MethodDelete, base+seeded.Documents[1].ID.Hex(), nil), owner)
	testutil.AssertStatus(t, e.serve(req), http.StatusBadRequest)

	req = testutil.WithPrincipal(httptest.NewRequest(http.MethodDelete, base+"0123456789abcdef01234567", nil), owner)
	testutil.AssertStatus(t, e.serve(req), http.StatusNotFound)
}
