package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/PirrosBell/BidHub/internal/model"
	"github.com/PirrosBell/BidHub/internal/store"
)

// PairsHandler handles winning-pair (sale record) endpoints.
type PairsHandler struct {
	DB *sql.DB
}

// List handles GET /api/winning-pairs: sales where the caller is the seller
// or the winning bidder, excluding the side they have hidden.
func (h *PairsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	pairs, err := store.ListWinningPairsForUser(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list winning pairs")
		return
	}
	if pairs == nil {
		pairs = []model.WinningPair{}
	}
	jsonResponse(w, http.StatusOK, pairs)
}

// Hide handles DELETE /api/winning-pairs/{id}. Each party hides only their
// own side; the record itself is kept, and goes inactive once both sides
// have hidden it.
func (h *PairsHandler) Hide(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid winning pair id")
		return
	}

	claims := GetClaims(r.Context())
	pair, err := store.GetWinningPair(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get winning pair")
		return
	}
	if pair == nil {
		jsonError(w, http.StatusNotFound, "winning pair not found")
		return
	}

	var bySeller bool
	switch claims.UserID {
	case pair.SellerID:
		bySeller = true
	case pair.BidderID:
		bySeller = false
	default:
		jsonError(w, http.StatusForbidden, "not a party to this sale")
		return
	}

	if err := store.HideWinningPair(r.Context(), h.DB, id, bySeller); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hide winning pair")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "winning pair hidden"})
}
