package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/PirrosBell/BidHub/internal/auction"
	"github.com/PirrosBell/BidHub/internal/recommend"
	"github.com/PirrosBell/BidHub/internal/scheduler"
)

// AdminHandler exposes operations normally driven by the scheduler.
type AdminHandler struct {
	DB        *sql.DB
	DataDir   string
	Scheduler *scheduler.Scheduler
}

// CloseItem handles POST /api/items/{id}/close, settling an auction without
// waiting for its end time.
func (h *AdminHandler) CloseItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := auction.Close(r.Context(), h.DB, id)
	if errors.Is(err, auction.ErrItemNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if errors.Is(err, auction.ErrInvalidTransition) {
		jsonError(w, http.StatusConflict, "only active auctions can be closed")
		return
	}
	if err != nil {
		slog.Error("closing item failed", "item", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to close item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Train handles POST /api/admin/train, running a full training pass
// synchronously and reporting its outcome.
func (h *AdminHandler) Train(w http.ResponseWriter, r *http.Request) {
	result, err := recommend.Train(r.Context(), h.DB, h.DataDir, recommend.DefaultTrainOptions())
	if errors.Is(err, recommend.ErrNoTrainingData) {
		jsonError(w, http.StatusConflict, "no interaction data to train on")
		return
	}
	if errors.Is(err, recommend.ErrNumericDivergence) {
		jsonError(w, http.StatusConflict, "training diverged, previous model kept")
		return
	}
	if err != nil {
		slog.Error("training failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "training failed")
		return
	}

	slog.Info("training finished", "users", result.Users, "items", result.Items,
		"epochs", result.Epochs, "rmse", result.ValidationRMSE)
	jsonResponse(w, http.StatusOK, result)
}

// Status handles GET /api/admin/status.
func (h *AdminHandler) Status(w http.ResponseWriter, r *http.Request) {
	running := h.Scheduler != nil && h.Scheduler.Running()
	jsonResponse(w, http.StatusOK, map[string]any{"scheduler_running": running})
}
