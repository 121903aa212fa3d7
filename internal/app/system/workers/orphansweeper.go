// internal/app/system/workers/orphansweeper.go
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/tenderhub/internal/app/system/metrics"
	"github.com/dalemusser/tenderhub/internal/domain/models"
	"github.com/go-co-op/gocron/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// OrphanLedger is the subset of the orphan store the sweeper uses.
type OrphanLedger interface {
	ListDue(ctx context.Context, limit int) ([]models.StorageOrphan, error)
	Resolve(ctx context.Context, id primitive.ObjectID) error
	MarkFailed(ctx context.Context, id primitive.ObjectID, cause error) error
}

// Remover deletes stored objects by reference.
type Remover interface {
	Remove(ctx context.Context, storageRef string) error
}

// OrphanSweeper periodically retries removal of storage objects that no
// tender references any more.
type OrphanSweeper struct {
	ledger   OrphanLedger
	docs     Remover
	log      *zap.Logger
	interval time.Duration
	batch    int
	timeout  time.Duration

	scheduler gocron.Scheduler
}

// NewOrphanSweeper creates a sweeper.
//
// Parameters:
//   - ledger: the orphan store
//   - docs: the document store used to retry removals
//   - interval: how often to sweep (e.g., 10 minutes)
//   - batch: how many orphans to retry per sweep
func NewOrphanSweeper(ledger OrphanLedger, docs Remover, logger *zap.Logger, interval time.Duration, batch int) *OrphanSweeper {
	if batch <= 0 {
		batch = 100
	}
	return &OrphanSweeper{
		ledger:   ledger,
		docs:     docs,
		log:      logger,
		interval: interval,
		batch:    batch,
		timeout:  time.Minute,
	}
}

// Start schedules the sweep. A sweep that is still running when the next
// one is due is not started twice.
func (w *OrphanSweeper) Start() error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(w.sweep),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("schedule orphan sweep: %w", err)
	}
	s.Start()
	w.scheduler = s
	w.log.Info("orphan sweeper started",
		zap.Duration("interval", w.interval),
		zap.Int("batch", w.batch))
	return nil
}

// Stop waits for a running sweep to finish and stops the scheduler.
func (w *OrphanSweeper) Stop() {
	if w.scheduler == nil {
		return
	}
	if err := w.scheduler.Shutdown(); err != nil {
		w.log.Warn("orphan sweeper shutdown", zap.Error(err))
	}
	w.scheduler = nil
	w.log.Info("orphan sweeper stopped")
}

func (w *OrphanSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if _, _, err := w.RunOnce(ctx); err != nil {
		w.log.Error("orphan sweep failed", zap.Error(err))
	}
}

// RunOnce retries one batch and reports how many orphans were resolved and
// how many failed again.
func (w *OrphanSweeper) RunOnce(ctx context.Context) (resolved, failed int, err error) {
	due, err := w.ledger.ListDue(ctx, w.batch)
	if err != nil {
		return 0, 0, err
	}

	for _, o := range due {
		if rerr := w.docs.Remove(ctx, o.StorageRef); rerr != nil {
			failed++
			if merr := w.ledger.MarkFailed(ctx, o.ID, rerr); merr != nil {
				w.log.Warn("failed to update orphan", zap.String("storage_ref", o.StorageRef), zap.Error(merr))
			}
			continue
		}
		if err := w.ledger.Resolve(ctx, o.ID); err != nil {
			w.log.Warn("failed to resolve orphan", zap.String("storage_ref", o.StorageRef), zap.Error(err))
			continue
		}
		resolved++
		metrics.OrphansResolved.Inc()
	}

	if resolved > 0 || failed > 0 {
		w.log.Info("orphan sweep",
			zap.Int("resolved", resolved),
			zap.Int("failed", failed))
	}
	return resolved, failed, nil
}
