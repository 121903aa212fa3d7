// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/tenderhub/internal/app/system/timeouts"
	"github.com/dalemusser/tenderhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// sweeper retries failed storage removals in the background. It is started
// in Startup and stopped in Shutdown.
var sweeper *workers.OrphanSweeper

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{Upload: appCfg.UploadTimeout})

	sweeper = workers.NewOrphanSweeper(deps.Orphans, deps.Docs, logger, appCfg.OrphanSweepInterval, appCfg.OrphanSweepBatch)
	if err := sweeper.Start(); err != nil {
		logger.Error("orphan sweeper start failed", zap.Error(err))
		return err
	}
	logger.Info("orphan sweeper started",
		zap.Duration("interval", appCfg.OrphanSweepInterval),
		zap.Int("batch", appCfg.OrphanSweepBatch))
	return nil
}
