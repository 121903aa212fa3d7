// internal/app/features/tenders/handler.go
package tenders

import (
	"context"

	errorsfeature "github.com/dalemusser/tenderhub/internal/app/features/errors"
	"github.com/dalemusser/tenderhub/internal/app/store/queries/tenderqueries"
	"github.com/dalemusser/tenderhub/internal/app/system/lifecycle"
	"github.com/dalemusser/tenderhub/internal/app/system/uploads"
	"github.com/dalemusser/tenderhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Service is the tender lifecycle as seen by the HTTP layer.
// *lifecycle.Manager implements it.
type Service interface {
	Create(ctx context.Context, p models.Principal, in lifecycle.CreateInput) (models.Tender, error)
	Get(ctx context.Context, p models.Principal, id primitive.ObjectID) (models.Tender, error)
	List(ctx context.Context, p models.Principal, params tenderqueries.Params) (tenderqueries.Result, error)
	Update(ctx context.Context, p models.Principal, id primitive.ObjectID, in lifecycle.UpdateInput) (models.Tender, error)
	SetStatus(ctx context.Context, p models.Principal, id primitive.ObjectID, status string) (models.Tender, error)
	Delete(ctx context.Context, p models.Principal, id primitive.ObjectID) error
	DeleteDocument(ctx context.Context, p models.Principal, id, docID primitive.ObjectID) (models.Tender, error)
}

// Handler serves the tender API.
//
// It is constructed once in bootstrap with the lifecycle manager and the
// upload limits used to bound request bodies.
type Handler struct {
	Tenders Service
	Limits  uploads.Limits
	Log     *zap.Logger
	ErrLog  *errorsfeature.ErrorLogger
}

// NewHandler constructs a tender Handler.
func NewHandler(svc Service, limits uploads.Limits, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Tenders: svc,
		Limits:  limits,
		Log:     logger,
		ErrLog:  errLog,
	}
}
