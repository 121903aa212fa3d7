// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/tenderhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/tenderhub/internal/app/features/health"
	tendersfeature "github.com/dalemusser/tenderhub/internal/app/features/tenders"
	"github.com/dalemusser/tenderhub/internal/app/store/queries/tenderqueries"
	tenderstore "github.com/dalemusser/tenderhub/internal/app/store/tenders"
	"github.com/dalemusser/tenderhub/internal/app/system/auth"
	"github.com/dalemusser/tenderhub/internal/app/system/lifecycle"
	"github.com/dalemusser/tenderhub/internal/app/system/metrics"
	"github.com/dalemusser/tenderhub/internal/app/system/timeouts"
	"github.com/dalemusser/tenderhub/internal/app/system/uploads"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. The tender API is mounted at /tenders and at
// /api/tenders; /health, /metrics, and (for the local backend) /files sit
// beside it.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	authn, err := auth.NewAuthenticator(appCfg.SessionKey, appCfg.SessionName, appCfg.IdentityJWTSecret, logger)
	if err != nil {
		logger.Error("authenticator init failed", zap.Error(err))
		return nil, err
	}

	up := uploads.New(deps.Docs, deps.Orphans, appCfg.uploadLimits(), logger)
	up.SetCleanupTimeout(timeouts.Cleanup())

	mgr := lifecycle.New(
		tenderstore.New(deps.MongoDatabase),
		tenderqueries.New(deps.MongoDatabase),
		up,
		lifecycle.Options{BlockingCleanup: appCfg.CleanupBlocking},
		logger,
	)

	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()
	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)
	r.Use(metrics.Middleware)

	// Operational endpoints
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Orphans, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	// Locally stored documents. With S3 the document URLs point at the bucket.
	if appCfg.StorageType == "local" {
		prefix := strings.TrimSuffix(appCfg.StorageLocalURL, "/")
		r.Handle(prefix+"/*", fileserver.Handler(prefix, appCfg.StorageLocalPath))
	}

	// Tender API. The principal is resolved from a bearer token or the
	// identity service's session cookie.
	tendersHandler := tendersfeature.NewHandler(mgr, up.Limits(), errLog, logger)
	r.Group(func(r chi.Router) {
		r.Use(authn.LoadPrincipal)
		r.Mount("/tenders", tendersfeature.Routes(tendersHandler))
		r.Mount("/api/tenders", tendersfeature.Routes(tendersHandler))
	})

	r.Get("/api", serveWelcome)

	return r, nil
}

func serveWelcome(w http.ResponseWriter, r *http.Request) {
	errorsfeature.WriteMessage(w, http.StatusOK, "Welcome to the TenderHub API")
}
