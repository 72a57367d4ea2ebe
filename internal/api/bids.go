package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/PirrosBell/BidHub/internal/auction"
	"github.com/PirrosBell/BidHub/internal/model"
	"github.com/PirrosBell/BidHub/internal/store"
)

// BidsHandler handles bid placement and history endpoints.
type BidsHandler struct {
	DB *sql.DB
}

type placeBidRequest struct {
	Amount json.Number `json:"amount"`
}

// Place handles POST /api/items/{id}/bids. The amount is accepted as a JSON
// number or numeric string; everything else is rejected before it reaches
// the bid engine.
func (h *BidsHandler) Place(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req placeBidRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	amount, err := strconv.ParseFloat(req.Amount.String(), 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "amount must be a number")
		return
	}

	claims := GetClaims(r.Context())
	bid, err := auction.PlaceBid(r.Context(), h.DB, itemID, claims.UserID, amount)
	if err != nil {
		switch {
		case errors.Is(err, auction.ErrItemNotFound):
			jsonError(w, http.StatusNotFound, "item not found")
		case errors.Is(err, auction.ErrItemNotActive), errors.Is(err, auction.ErrAuctionEnded):
			jsonError(w, http.StatusConflict, "auction is not open for bidding")
		case errors.Is(err, auction.ErrOwnBid):
			jsonError(w, http.StatusForbidden, "sellers cannot bid on their own listings")
		case errors.Is(err, auction.ErrInvalidAmount):
			jsonError(w, http.StatusBadRequest, "amount must be a positive number")
		case errors.Is(err, auction.ErrBidTooLow):
			jsonError(w, http.StatusConflict, "bid must exceed the current bid")
		case errors.Is(err, auction.ErrConcurrentUpdate):
			jsonError(w, http.StatusConflict, "item changed, retry with a fresh price")
		default:
			slog.Error("placing bid failed", "item", itemID, "user", claims.UserID, "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to place bid")
		}
		return
	}

	slog.Info("bid placed", "item", itemID, "bidder", claims.Username, "amount", bid.Amount)
	jsonResponse(w, http.StatusCreated, bid)
}

// ListForItem handles GET /api/items/{id}/bids.
func (h *BidsHandler) ListForItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, itemID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	bids, err := store.ListBids(r.Context(), h.DB, itemID, 0)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list bids")
		return
	}
	if bids == nil {
		bids = []model.Bid{}
	}
	jsonResponse(w, http.StatusOK, bids)
}

// ListMine handles GET /api/bids, the caller's bid history across items.
func (h *BidsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	bids, err := store.ListBids(r.Context(), h.DB, 0, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list bids")
		return
	}
	if bids == nil {
		bids = []model.Bid{}
	}
	jsonResponse(w, http.StatusOK, bids)
}
