// Package lifecycle owns tender state: creation with its initial documents,
// partial updates, status transitions, and deletion with storage cleanup.
//
// Every operation goes through tenderpolicy first. Storage side effects are
// ordered so a persisted tender never references an object that was not
// stored, and a stored object is either referenced by exactly one tender or
// handed to the orphan ledger.
package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/tenderhub/internal/app/policy/tenderpolicy"
	"github.com/dalemusser/tenderhub/internal/app/store/queries/tenderqueries"
	tenderstore "github.com/dalemusser/tenderhub/internal/app/store/tenders"
	"github.com/dalemusser/tenderhub/internal/app/system/attrs"
	"github.com/dalemusser/tenderhub/internal/app/system/docstore"
	"github.com/dalemusser/tenderhub/internal/app/system/inputval"
	"github.com/dalemusser/tenderhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store persists tenders. *tenderstore.Store implements it.
type Store interface {
	Create(ctx context.Context, t models.Tender) (models.Tender, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Tender, error)
	ExistsTenderID(ctx context.Context, tenderID string, exclude primitive.ObjectID) (bool, error)
	Replace(ctx context.Context, t models.Tender, expected time.Time) error
	SetStatus(ctx context.Context, id primitive.ObjectID, status string, at time.Time) (models.Tender, error)
	SetDocuments(ctx context.Context, id primitive.ObjectID, docs []models.Document, at time.Time) (models.Tender, error)
	PullDocument(ctx context.Context, id, docID primitive.ObjectID, at time.Time) (models.Tender, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Querier serves list reads. *tenderqueries.Engine implements it.
type Querier interface {
	List(ctx context.Context, p tenderqueries.Params) (tenderqueries.Result, error)
}

// Uploader stores and removes document batches. *uploads.Orchestrator
// implements it.
type Uploader interface {
	Check(files []docstore.File) error
	Upload(ctx context.Context, files []docstore.File) ([]models.Document, error)
	Compensate(ctx context.Context, docs []models.Document)
	Release(ctx context.Context, docs []models.Document, reason string)
	TryRelease(ctx context.Context, docs []models.Document, reason string) []models.Document
}

// Options tune cleanup behavior.
type Options struct {
	// BlockingCleanup makes Delete fail with ErrCleanupBlocked when any
	// document cannot be removed from storage, instead of logging and
	// deleting the record anyway.
	BlockingCleanup bool
}

// Manager applies tender operations on behalf of a principal.
type Manager struct {
	store    Store
	query    Querier
	uploads  Uploader
	blocking bool
	log      *zap.Logger
	now      func() time.Time
}

// New constructs a Manager.
func New(store Store, query Querier, uploads Uploader, opts Options, logger *zap.Logger) *Manager {
	return &Manager{
		store:    store,
		query:    query,
		uploads:  uploads,
		blocking: opts.BlockingCleanup,
		log:      logger,
		// Millisecond precision matches what Mongo stores, so UpdatedAt
		// values returned here can guard later replaces.
		now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// Create validates in, stores its files, and persists a pending tender
// owned by p. Validation, authorization, and duplicate tenderId failures
// happen before any storage call.
func (m *Manager) Create(ctx context.Context, p models.Principal, in CreateInput) (models.Tender, error) {
	files := in.Files
	fail := func(err error) (models.Tender, error) {
		docstore.Discard(files...)
		return models.Tender{}, err
	}

	if err := tenderpolicy.Decide(p, tenderpolicy.ActionCreate, nil); err != nil {
		return fail(err)
	}

	in.normalize()
	if err := inputval.Validate(in).Err(); err != nil {
		return fail(err)
	}
	due, err := ParseDueDate(in.DueDate)
	if err != nil {
		return fail(err)
	}
	price, err := ParsePrice(in.Price)
	if err != nil {
		return fail(err)
	}
	if len(files) == 0 {
		return fail(ErrNoDocuments)
	}
	if err := m.uploads.Check(files); err != nil {
		return fail(err)
	}

	// Fast path only; the unique index decides races below.
	taken, err := m.store.ExistsTenderID(ctx, in.TenderID, primitive.NilObjectID)
	if err != nil {
		return fail(err)
	}
	if taken {
		return fail(tenderstore.ErrDuplicateTenderID)
	}

	docs, err := m.uploads.Upload(ctx, files)
	if err != nil {
		return models.Tender{}, err
	}

	attributes := []models.Attribute{}
	if tenderpolicy.CanEditAttributes(p) {
		attributes = attrs.Parse(in.Attributes, m.log)
	} else if strings.TrimSpace(in.Attributes) != "" {
		m.log.Debug("ignoring attributes from non-privileged principal", zap.String("principal", p.ID))
	}

	now := m.now()
	t := models.Tender{
		TenderID:     in.TenderID,
		Organization: in.Organization,
		Description:  in.Description,
		DueDate:      due,
		Price:        price,
		Status:       models.StatusPending,
		Documents:    docs,
		Attributes:   attributes,
		SubmittedBy:  p.Submitter(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := m.store.Create(ctx, t)
	if err != nil {
		// Includes a duplicate that slipped past the pre-check.
		m.uploads.Compensate(ctx, docs)
		return models.Tender{}, err
	}
	m.log.Info("tender created",
		zap.String("tender_id", created.TenderID),
		zap.String("id", created.ID.Hex()),
		zap.Int("documents", len(created.Documents)))
	return created, nil
}

// Get returns one tender.
func (m *Manager) Get(ctx context.Context, p models.Principal, id primitive.ObjectID) (models.Tender, error) {
	if err := tenderpolicy.Decide(p, tenderpolicy.ActionRead, nil); err != nil {
		return models.Tender{}, err
	}
	return m.store.GetByID(ctx, id)
}

// List returns a filtered page of tenders.
func (m *Manager) List(ctx context.Context, p models.Principal, params tenderqueries.Params) (tenderqueries.Result, error) {
	if err := tenderpolicy.Decide(p, tenderpolicy.ActionRead, nil); err != nil {
		return tenderqueries.Result{}, err
	}
	return m.query.List(ctx, params)
}

// Update applies a partial update. New files replace the whole document
// set: they are stored first, the tender is persisted, and only then are the
// old documents released.
func (m *Manager) Update(ctx context.Context, p models.Principal, id primitive.ObjectID, in UpdateInput) (models.Tender, error) {
	files := in.Files
	fail := func(err error) (models.Tender, error) {
		docstore.Discard(files...)
		return models.Tender{}, err
	}

	cur, err := m.store.GetByID(ctx, id)
	if err != nil {
		return fail(err)
	}
	if err := tenderpolicy.Decide(p, tenderpolicy.ActionUpdate, &cur); err != nil {
		return fail(err)
	}

	in.normalize()
	if err := inputval.Validate(in).Err(); err != nil {
		return fail(err)
	}

	next := cur
	if in.TenderID != "" && in.TenderID != cur.TenderID {
		taken, err := m.store.ExistsTenderID(ctx, in.TenderID, cur.ID)
		if err != nil {
			return fail(err)
		}
		if taken {
			return fail(tenderstore.ErrDuplicateTenderID)
		}
		next.TenderID = in.TenderID
	}
	if in.Organization != "" {
		next.Organization = in.Organization
	}
	if in.Description != "" {
		next.Description = in.Description
	}
	if in.DueDate != "" {
		due, err := ParseDueDate(in.DueDate)
		if err != nil {
			return fail(err)
		}
		next.DueDate = due
	}
	if in.Price != "" {
		price, err := ParsePrice(in.Price)
		if err != nil {
			return fail(err)
		}
		next.Price = price
	}
	if in.Attributes != nil {
		if tenderpolicy.CanEditAttributes(p) {
			next.Attributes = attrs.Parse(*in.Attributes, m.log)
		} else {
			m.log.Debug("ignoring attributes from non-privileged principal",
				zap.String("principal", p.ID), zap.String("id", id.Hex()))
		}
	}

	var replaced []models.Document
	if len(files) > 0 {
		if err := m.uploads.Check(files); err != nil {
			return fail(err)
		}
		docs, err := m.uploads.Upload(ctx, files)
		if err != nil {
			return models.Tender{}, err
		}
		next.Documents = docs
		replaced = cur.Documents
	}

	next.UpdatedAt = m.now()
	if !next.UpdatedAt.After(cur.UpdatedAt) {
		next.UpdatedAt = cur.UpdatedAt.Add(time.Millisecond)
	}

	if err := m.store.Replace(ctx, next, cur.UpdatedAt); err != nil {
		if replaced != nil {
			m.uploads.Compensate(ctx, next.Documents)
		}
		return models.Tender{}, err
	}

	if replaced != nil {
		m.uploads.Release(ctx, replaced, models.OrphanReplaced)
	}
	return next, nil
}

// SetStatus moves a tender to status. Any legal status is reachable from
// any other; an unknown status leaves the tender unchanged.
func (m *Manager) SetStatus(ctx context.Context, p models.Principal, id primitive.ObjectID, status string) (models.Tender, error) {
	if err := tenderpolicy.Decide(p, tenderpolicy.ActionStatus, nil); err != nil {
		return models.Tender{}, err
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if !models.IsValidTenderStatus(status) {
		return models.Tender{}, ErrInvalidStatus
	}
	return m.store.SetStatus(ctx, id, status, m.now())
}

// Delete releases every document of the tender and removes the record.
//
// In best-effort mode failed removals are logged and recorded as orphans
// and the record is removed anyway. In blocking mode the record is kept,
// pruned to the documents that are still stored, and ErrCleanupBlocked is
// returned.
func (m *Manager) Delete(ctx context.Context, p models.Principal, id primitive.ObjectID) error {
	if err := tenderpolicy.Decide(p, tenderpolicy.ActionDelete, nil); err != nil {
		return err
	}
	t, err := m.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if m.blocking {
		failed := m.uploads.TryRelease(ctx, t.Documents, models.OrphanTenderDelete)
		if len(failed) > 0 {
			if _, err := m.store.SetDocuments(ctx, id, failed, m.now()); err != nil {
				m.log.Error("failed to prune tender after blocked cleanup",
					zap.String("id", id.Hex()), zap.Error(err))
			}
			m.log.Warn("tender delete blocked by storage cleanup",
				zap.String("id", id.Hex()), zap.Int("remaining", len(failed)))
			return ErrCleanupBlocked
		}
	} else {
		m.uploads.Release(ctx, t.Documents, models.OrphanTenderDelete)
	}

	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	m.log.Info("tender deleted", zap.String("id", id.Hex()), zap.String("tender_id", t.TenderID))
	return nil
}

// DeleteDocument removes one document from a tender. The record is updated
// atomically (refusing to drop the last document) before the stored object
// is removed.
func (m *Manager) DeleteDocument(ctx context.Context, p models.Principal, id, docID primitive.ObjectID) (models.Tender, error) {
	t, err := m.store.GetByID(ctx, id)
	if err != nil {
		return models.Tender{}, err
	}

	decision := tenderpolicy.Decide(p, tenderpolicy.ActionDeleteDocument, &t)
	if errors.Is(decision, tenderpolicy.ErrUnauthenticated) || errors.Is(decision, tenderpolicy.ErrForbidden) {
		return models.Tender{}, decision
	}
	idx := t.DocumentIndex(docID)
	if idx < 0 {
		return models.Tender{}, ErrDocumentNotFound
	}
	if decision != nil {
		return models.Tender{}, decision
	}
	doc := t.Documents[idx]

	updated, err := m.store.PullDocument(ctx, id, docID, m.now())
	if err != nil {
		if errors.Is(err, tenderstore.ErrNotFound) {
			return models.Tender{}, m.classifyPullMiss(ctx, id, docID)
		}
		return models.Tender{}, err
	}

	m.uploads.Release(ctx, []models.Document{doc}, models.OrphanDocDelete)
	return updated, nil
}

// classifyPullMiss explains why a guarded pull matched nothing: the record
// changed after it was read.
func (m *Manager) classifyPullMiss(ctx context.Context, id, docID primitive.ObjectID) error {
	t, err := m.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t.DocumentIndex(docID) < 0 {
		return ErrDocumentNotFound
	}
	return tenderpolicy.ErrLastDocument
}
