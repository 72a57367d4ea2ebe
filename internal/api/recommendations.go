package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/PirrosBell/BidHub/internal/model"
	"github.com/PirrosBell/BidHub/internal/recommend"
	"github.com/PirrosBell/BidHub/internal/store"
)

// RecommendationsHandler serves personalized item rankings.
type RecommendationsHandler struct {
	DB      *sql.DB
	DataDir string
}

// List handles GET /api/recommendations. Users without a trained vector
// (new accounts, or no training run yet) get active listings in the default
// soonest-ending order instead of an error.
func (h *RecommendationsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	items, err := recommend.Recommend(r.Context(), h.DB, h.DataDir, claims.UserID)
	if errors.Is(err, recommend.ErrNotTrained) {
		items, err = store.ListItems(r.Context(), h.DB, store.ItemFilter{Status: model.ItemStatusActive})
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list recommendations")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}
