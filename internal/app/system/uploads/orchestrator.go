// Package uploads turns a batch of spooled files into stored tender
// Documents with all-or-nothing semantics, and removes Documents that are
// replaced, deleted, or could not be persisted.
package uploads

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/tenderhub/internal/app/system/docstore"
	"github.com/dalemusser/tenderhub/internal/app/system/inputval"
	"github.com/dalemusser/tenderhub/internal/app/system/metrics"
	"github.com/dalemusser/tenderhub/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DocumentStore is the subset of *docstore.Store the orchestrator uses.
type DocumentStore interface {
	Put(ctx context.Context, f docstore.File) (models.Document, error)
	Remove(ctx context.Context, storageRef string) error
}

// OrphanRecorder remembers storage objects that could not be removed so a
// background sweeper can retry them.
type OrphanRecorder interface {
	Record(ctx context.Context, storageRef, reason string, cause error) error
}

// DefaultCleanupTimeout bounds compensation and release work.
const DefaultCleanupTimeout = 30 * time.Second

// Orchestrator coordinates batch uploads against a DocumentStore.
type Orchestrator struct {
	docs           DocumentStore
	orphans        OrphanRecorder
	limits         Limits
	allowed        map[string]struct{}
	cleanupTimeout time.Duration
	log            *zap.Logger
}

// New builds an Orchestrator. orphans may be nil, in which case failed
// removals are only logged.
func New(docs DocumentStore, orphans OrphanRecorder, limits Limits, logger *zap.Logger) *Orchestrator {
	if limits.MaxFileSize <= 0 {
		limits.MaxFileSize = DefaultMaxFileSize
	}
	if limits.MaxFiles <= 0 {
		limits.MaxFiles = DefaultMaxFiles
	}
	if len(limits.AllowedTypes) == 0 {
		limits.AllowedTypes = append([]string(nil), DefaultAllowedTypes...)
	}
	allowed := make(map[string]struct{}, len(limits.AllowedTypes))
	for _, t := range limits.AllowedTypes {
		allowed[NormalizeMIME(t)] = struct{}{}
	}
	return &Orchestrator{
		docs:           docs,
		orphans:        orphans,
		limits:         limits,
		allowed:        allowed,
		cleanupTimeout: DefaultCleanupTimeout,
		log:            logger,
	}
}

// SetCleanupTimeout overrides the timeout used for compensation and release.
func (o *Orchestrator) SetCleanupTimeout(d time.Duration) {
	if d > 0 {
		o.cleanupTimeout = d
	}
}

// Limits returns the effective batch limits.
func (o *Orchestrator) Limits() Limits { return o.limits }

// Check validates a batch without storing anything. Size and type errors
// are reported as *RejectedFileError naming the first offending file.
func (o *Orchestrator) Check(files []docstore.File) error {
	if len(files) > o.limits.MaxFiles {
		return inputval.Invalid("documents", "At most %d documents may be uploaded at once.", o.limits.MaxFiles)
	}
	for _, f := range files {
		if f.Size <= 0 {
			return &RejectedFileError{File: f.Name, Reason: "is empty"}
		}
		if f.Size > o.limits.MaxFileSize {
			return &RejectedFileError{
				File:   f.Name,
				Reason: fmt.Sprintf("exceeds the maximum size of %s", formatBytes(o.limits.MaxFileSize)),
			}
		}
		if _, ok := o.allowed[NormalizeMIME(f.MIMEType)]; !ok {
			return &RejectedFileError{File: f.Name, Reason: "is not an allowed file type"}
		}
	}
	return nil
}

// Upload stores every file in the batch concurrently. When any store call
// fails, the files that did succeed are removed again and an *UploadError
// for the first failing file (in batch order) is returned.
//
// A rejected batch makes no store calls and its temp copies are discarded.
func (o *Orchestrator) Upload(ctx context.Context, files []docstore.File) ([]models.Document, error) {
	if err := o.Check(files); err != nil {
		docstore.Discard(files...)
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	docs := make([]models.Document, len(files))
	errs := make([]error, len(files))

	// A plain Group: a failure must not cancel the siblings, every attempt
	// settles before compensation is decided.
	var g errgroup.Group
	for i, f := range files {
		g.Go(func() error {
			d, err := o.docs.Put(ctx, f)
			if err != nil {
				errs[i] = err
				metrics.DocumentsStored.WithLabelValues("error").Inc()
				return err
			}
			docs[i] = d
			metrics.DocumentsStored.WithLabelValues("ok").Inc()
			return nil
		})
	}
	_ = g.Wait()

	failed := -1
	var stored []models.Document
	for i := range files {
		if errs[i] != nil {
			if failed < 0 {
				failed = i
			}
			continue
		}
		stored = append(stored, docs[i])
	}
	if failed < 0 {
		return docs, nil
	}

	o.log.Warn("document upload failed; compensating batch",
		zap.String("file", files[failed].Name),
		zap.Int("stored", len(stored)),
		zap.Int("batch", len(files)),
		zap.Error(errs[failed]))
	o.Compensate(ctx, stored)

	return nil, &UploadError{File: files[failed].Name, Err: errs[failed]}
}

// Compensate removes Documents that were stored but will never be
// referenced by a tender. Failures are recorded as orphans.
func (o *Orchestrator) Compensate(ctx context.Context, docs []models.Document) {
	if len(docs) == 0 {
		return
	}
	metrics.UploadCompensations.Inc()
	o.removeAll(ctx, docs, models.OrphanCompensation, true)
}

// Release removes Documents a tender no longer references. It is best
// effort: failures are logged as cleanup warnings, counted, and recorded as
// orphans for the sweeper.
func (o *Orchestrator) Release(ctx context.Context, docs []models.Document, reason string) {
	o.removeAll(ctx, docs, reason, true)
}

// TryRelease removes docs and returns the ones that could not be removed.
// Nothing is recorded as orphaned because the caller keeps referencing the
// failed Documents.
func (o *Orchestrator) TryRelease(ctx context.Context, docs []models.Document, reason string) []models.Document {
	return o.removeAll(ctx, docs, reason, false)
}

// removeAll runs on a context detached from the request so that an aborted
// request still cleans up.
func (o *Orchestrator) removeAll(ctx context.Context, docs []models.Document, reason string, record bool) []models.Document {
	if len(docs) == 0 {
		return nil
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cleanupTimeout)
	defer cancel()

	errs := make([]error, len(docs))
	var g errgroup.Group
	for i, d := range docs {
		g.Go(func() error {
			errs[i] = o.docs.Remove(cctx, d.StorageRef)
			return nil
		})
	}
	_ = g.Wait()

	var failed []models.Document
	for i, err := range errs {
		if err == nil {
			continue
		}
		d := docs[i]
		failed = append(failed, d)
		metrics.CleanupFailures.WithLabelValues(reason).Inc()
		o.log.Warn("storage cleanup failed",
			zap.String("reason", reason),
			zap.String("storage_ref", d.StorageRef),
			zap.String("document", d.OriginalName),
			zap.Error(err))
		if record && o.orphans != nil {
			if rerr := o.orphans.Record(cctx, d.StorageRef, reason, err); rerr != nil {
				o.log.Error("failed to record storage orphan",
					zap.String("storage_ref", d.StorageRef),
					zap.Error(rerr))
			}
		}
	}
	return failed
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%d MiB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%d KiB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
