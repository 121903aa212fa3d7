package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/tenderhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// OrphanCounter reports how many stored objects are waiting for cleanup.
// *orphanstore.Store implements it.
type OrphanCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client  *mongo.Client
	Orphans OrphanCounter
	Log     *zap.Logger
}

// NewHandler constructs a health Handler. orphans may be nil.
func NewHandler(client *mongo.Client, orphans OrphanCounter, logger *zap.Logger) *Handler {
	return &Handler{
		Client:  client,
		Orphans: orphans,
		Log:     logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Message  string `json:"message,omitempty"`
	Orphans  *int64 `json:"pending_orphans,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "pending_orphans":0 }
//
// On DB failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable" }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	// Orphan backlog is informational; a failed count does not fail the check.
	if h.Orphans != nil {
		if n, err := h.Orphans.Count(ctx); err != nil {
			h.Log.Warn("health-check: orphan count failed", zap.Error(err))
		} else {
			resp.Orphans = &n
		}
	}

	_ = json.NewEncoder(w).Encode(resp)
}
