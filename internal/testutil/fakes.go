package testutil

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/tenderhub/internal/app/store/queries/tenderqueries"
	tenderstore "github.com/dalemusser/tenderhub/internal/app/store/tenders"
	"github.com/dalemusser/tenderhub/internal/app/system/docstore"
	"github.com/dalemusser/tenderhub/internal/app/system/paging"
	"github.com/dalemusser/tenderhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInjected is returned by fakes configured to fail.
var ErrInjected = errors.New("injected failure")

/*─────────────────────────────────────────────────────────────────────────────*
| FakeDocuments                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// FakeDocuments is an in-memory document store with fault injection. Like
// the real store, Put removes the file's temp copy on every outcome.
type FakeDocuments struct {
	mu sync.Mutex

	// FailPut makes Put fail for files with these names.
	FailPut map[string]bool
	// FailRemove makes Remove fail for these storage refs.
	FailRemove map[string]bool
	// FailAllRemoves makes every Remove fail.
	FailAllRemoves bool

	objects map[string]models.Document
	puts    int
	removes []string
}

// NewFakeDocuments returns an empty FakeDocuments.
func NewFakeDocuments() *FakeDocuments {
	return &FakeDocuments{
		FailPut:    map[string]bool{},
		FailRemove: map[string]bool{},
		objects:    map[string]models.Document{},
	}
}

func (f *FakeDocuments) Put(_ context.Context, file docstore.File) (models.Document, error) {
	defer docstore.Discard(file)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.FailPut[file.Name] {
		return models.Document{}, &docstore.StorageError{Op: "put", Ref: file.Name, Err: ErrInjected}
	}
	d := NewDocument(file.Name)
	d.Size = file.Size
	d.MIMEType = file.MIMEType
	f.objects[d.StorageRef] = d
	return d, nil
}

func (f *FakeDocuments) Remove(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes = append(f.removes, ref)
	if f.FailAllRemoves || f.FailRemove[ref] {
		return &docstore.StorageError{Op: "delete", Ref: ref, Err: ErrInjected}
	}
	delete(f.objects, ref)
	return nil
}

// Seed marks docs as already stored.
func (f *FakeDocuments) Seed(docs ...models.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range docs {
		f.objects[d.StorageRef] = d
	}
}

// Puts returns the number of Put calls.
func (f *FakeDocuments) Puts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

// Removes returns the refs passed to Remove, in call order.
func (f *FakeDocuments) Removes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removes...)
}

// Stored returns the refs currently held.
func (f *FakeDocuments) Stored() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.objects))
	for ref := range f.objects {
		out = append(out, ref)
	}
	sort.Strings(out)
	return out
}

// Has reports whether ref is currently stored.
func (f *FakeDocuments) Has(ref string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[ref]
	return ok
}

/*─────────────────────────────────────────────────────────────────────────────*
| FakeOrphans                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// FakeOrphans collects Record calls.
type FakeOrphans struct {
	mu      sync.Mutex
	records map[string]string // ref -> reason
}

func NewFakeOrphans() *FakeOrphans {
	return &FakeOrphans{records: map[string]string{}}
}

func (o *FakeOrphans) Record(_ context.Context, ref, reason string, _ error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.records[ref]; !ok {
		o.records[ref] = reason
	}
	return nil
}

// Reasons returns a copy of the recorded ref -> reason map.
func (o *FakeOrphans) Reasons() map[string]string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]string, len(o.records))
	for k, v := range o.records {
		out[k] = v
	}
	return out
}

/*─────────────────────────────────────────────────────────────────────────────*
| MemTenders                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// MemTenders is an in-memory tender store with the same uniqueness and
// guard semantics as the Mongo store. It also serves simple list queries.
type MemTenders struct {
	mu      sync.Mutex
	tenders map[primitive.ObjectID]models.Tender

	// FailCreate, FailReplace and FailDelete inject errors into writes.
	FailCreate  error
	FailReplace error
	FailDelete  error

	// BeforeCreate, when set, runs inside Create before the uniqueness
	// check. Tests use it to simulate a concurrent insert.
	BeforeCreate func(m *MemTenders)
}

func NewMemTenders() *MemTenders {
	return &MemTenders{tenders: map[primitive.ObjectID]models.Tender{}}
}

// Insert stores t directly, bypassing every check.
func (m *MemTenders) Insert(t models.Tender) models.Tender {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	m.tenders[t.ID] = clone(t)
	return t
}

// Len returns the number of stored tenders.
func (m *MemTenders) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tenders)
}

func (m *MemTenders) Create(_ context.Context, t models.Tender) (models.Tender, error) {
	if m.BeforeCreate != nil {
		hook := m.BeforeCreate
		m.BeforeCreate = nil
		hook(m)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreate != nil {
		return models.Tender{}, m.FailCreate
	}
	if m.taken(t.TenderID, primitive.NilObjectID) {
		return models.Tender{}, tenderstore.ErrDuplicateTenderID
	}
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	m.tenders[t.ID] = clone(t)
	return clone(t), nil
}

func (m *MemTenders) GetByID(_ context.Context, id primitive.ObjectID) (models.Tender, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenders[id]
	if !ok {
		return models.Tender{}, tenderstore.ErrNotFound
	}
	return clone(t), nil
}

func (m *MemTenders) ExistsTenderID(_ context.Context, tenderID string, exclude primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.taken(tenderID, exclude), nil
}

func (m *MemTenders) Replace(_ context.Context, t models.Tender, expected time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReplace != nil {
		return m.FailReplace
	}
	cur, ok := m.tenders[t.ID]
	if !ok {
		return tenderstore.ErrNotFound
	}
	if !cur.UpdatedAt.Equal(expected) {
		return tenderstore.ErrConflict
	}
	if m.taken(t.TenderID, t.ID) {
		return tenderstore.ErrDuplicateTenderID
	}
	m.tenders[t.ID] = clone(t)
	return nil
}

func (m *MemTenders) SetStatus(_ context.Context, id primitive.ObjectID, status string, at time.Time) (models.Tender, error) {
	return m.mutate(id, func(t *models.Tender) bool {
		t.Status = status
		t.UpdatedAt = at
		return true
	})
}

func (m *MemTenders) SetDocuments(_ context.Context, id primitive.ObjectID, docs []models.Document, at time.Time) (models.Tender, error) {
	return m.mutate(id, func(t *models.Tender) bool {
		t.Documents = append([]models.Document(nil), docs...)
		t.UpdatedAt = at
		return true
	})
}

func (m *MemTenders) PullDocument(_ context.Context, id, docID primitive.ObjectID, at time.Time) (models.Tender, error) {
	return m.mutate(id, func(t *models.Tender) bool {
		idx := t.DocumentIndex(docID)
		if idx < 0 || len(t.Documents) < 2 {
			return false
		}
		t.Documents = append(t.Documents[:idx:idx], t.Documents[idx+1:]...)
		t.UpdatedAt = at
		return true
	})
}

func (m *MemTenders) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDelete != nil {
		return m.FailDelete
	}
	if _, ok := m.tenders[id]; !ok {
		return tenderstore.ErrNotFound
	}
	delete(m.tenders, id)
	return nil
}

// List applies status, organization, and search filters with plain
// lowercase substring matching.
func (m *MemTenders) List(_ context.Context, p tenderqueries.Params) (tenderqueries.Result, error) {
	p = p.Normalize()
	m.mu.Lock()
	var all []models.Tender
	for _, t := range m.tenders {
		if p.Status != "" && t.Status != p.Status {
			continue
		}
		if p.Organization != "" && !containsFold(t.Organization, p.Organization) {
			continue
		}
		if p.Search != "" && !containsFold(t.TenderID, p.Search) &&
			!containsFold(t.Organization, p.Search) && !containsFold(t.Description, p.Search) {
			continue
		}
		all = append(all, clone(t))
	}
	m.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].DueDate.Equal(all[j].DueDate) {
			return all[i].DueDate.Before(all[j].DueDate)
		}
		return all[i].ID.Hex() < all[j].ID.Hex()
	})

	pg := paging.Page{Page: p.Page, Limit: p.Limit}
	res := tenderqueries.Result{
		Tenders: []models.Tender{},
		Pagination: tenderqueries.Pagination{
			Page:  p.Page,
			Limit: p.Limit,
			Total: int64(len(all)),
			Pages: paging.Pages(int64(len(all)), p.Limit),
		},
	}
	start := int(pg.Skip())
	if start < len(all) {
		end := start + p.Limit
		if end > len(all) {
			end = len(all)
		}
		res.Tenders = all[start:end]
	}
	return res, nil
}

func (m *MemTenders) mutate(id primitive.ObjectID, fn func(*models.Tender) bool) (models.Tender, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenders[id]
	if !ok {
		return models.Tender{}, tenderstore.ErrNotFound
	}
	t = clone(t)
	if !fn(&t) {
		return models.Tender{}, tenderstore.ErrNotFound
	}
	m.tenders[id] = t
	return clone(t), nil
}

// taken must be called with mu held.
func (m *MemTenders) taken(tenderID string, exclude primitive.ObjectID) bool {
	for id, t := range m.tenders {
		if id != exclude && t.TenderID == tenderID {
			return true
		}
	}
	return false
}

func clone(t models.Tender) models.Tender {
	docs := make([]models.Document, len(t.Documents))
	copy(docs, t.Documents)
	t.Documents = docs
	attrs := make([]models.Attribute, len(t.Attributes))
	copy(attrs, t.Attributes)
	t.Attributes = attrs
	return t
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
