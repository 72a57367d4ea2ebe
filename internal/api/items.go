package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/PirrosBell/BidHub/internal/auction"
	"github.com/PirrosBell/BidHub/internal/auth"
	"github.com/PirrosBell/BidHub/internal/imaging"
	"github.com/PirrosBell/BidHub/internal/model"
	"github.com/PirrosBell/BidHub/internal/recommend"
	"github.com/PirrosBell/BidHub/internal/store"
)

// ItemsHandler handles listing endpoints.
type ItemsHandler struct {
	DB      *sql.DB
	DataDir string
}

type itemRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	FirstBid    float64    `json:"first_bid"`
	BuyPrice    *float64   `json:"buy_price"`
	Starts      *time.Time `json:"starts"`
	Ends        time.Time  `json:"ends"`
	Categories  []string   `json:"categories"`
}

func (req *itemRequest) validate() string {
	if req.Name == "" {
		return "name is required"
	}
	if req.FirstBid <= 0 {
		return "first_bid must be positive"
	}
	if req.BuyPrice != nil && *req.BuyPrice < req.FirstBid {
		return "buy_price must be at least first_bid"
	}
	if !req.Ends.After(time.Now()) {
		return "ends must be in the future"
	}
	if req.Starts != nil && !req.Ends.After(*req.Starts) {
		return "ends must be after starts"
	}
	for _, c := range req.Categories {
		if c == "" {
			return "categories must not be empty strings"
		}
	}
	return ""
}

// List handles GET /api/items. Anonymous callers see active listings; signed
// in users can request their own listings (?mine=true) or a personalized
// ordering (?ordering=recommended), which falls back to the default
// soonest-ending order until training has produced a vector for them.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	q := r.URL.Query()

	if q.Get("ordering") == "recommended" && claims != nil {
		items, err := recommend.Recommend(r.Context(), h.DB, h.DataDir, claims.UserID)
		if err == nil {
			jsonResponse(w, http.StatusOK, items)
			return
		}
		if !errors.Is(err, recommend.ErrNotTrained) {
			jsonError(w, http.StatusInternalServerError, "failed to rank items")
			return
		}
		// No trained vector yet, fall through to the default ordering.
	}

	filter := store.ItemFilter{Status: model.ItemStatusActive}
	if q.Get("mine") == "true" && claims != nil {
		filter = store.ItemFilter{SellerID: claims.UserID}
	}
	if q.Get("ending_soon") == "true" {
		now := time.Now()
		filter.EndsAfter = now
		filter.EndsBefore = now.Add(24 * time.Hour)
	}
	if v := q.Get("min_price"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinCurrent = f
		}
	}
	if v := q.Get("max_price"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MaxCurrent = f
		}
	}
	filter.Category = q.Get("category")

	items, err := store.ListItems(r.Context(), h.DB, filter)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/items/{id}. Viewing an item as a signed-in non-seller
// records a visit, one of the recommendation signals.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	// A read may observe an auction whose end time passed before the next
	// close sweep; refresh it so callers never see a stale active status.
	if item.Status == model.ItemStatusActive && !item.Ends.After(time.Now().UTC()) {
		if refreshed, err := auction.CheckAndUpdateStatus(r.Context(), h.DB, id); err == nil {
			item = refreshed
		}
	}

	claims := GetClaims(r.Context())
	if !itemVisible(item, claims) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	if claims != nil && claims.UserID != item.SellerID {
		if _, err := store.RecordVisit(r.Context(), h.DB, claims.UserID, item.ID); err != nil {
			slog.Warn("recording visit failed", "item", item.ID, "user", claims.UserID, "error", err)
		}
	}

	if item.Categories, err = store.ListItemCategories(r.Context(), h.DB, item.ID); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Categories handles GET /api/categories, listing the full taxonomy.
func (h *ItemsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := store.ListCategories(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	jsonResponse(w, http.StatusOK, categories)
}

// itemVisible reports whether claims may see a listing: published listings
// are public, unpublished ones only visible to their seller and admins.
func itemVisible(item *model.Item, claims *auth.Claims) bool {
	if item.Status != model.ItemStatusPending {
		return true
	}
	if claims == nil {
		return false
	}
	return claims.UserID == item.SellerID || model.RoleAtLeast(claims.Role, model.RoleAdmin)
}

// Create handles POST /api/items. New listings start pending; they go live
// via the publish sweep (when starts is set) or an explicit publish call.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, claims.UserID, req.Name, req.Description,
		req.FirstBid, req.BuyPrice, req.Starts, req.Ends)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}
	if len(req.Categories) > 0 {
		if err := store.SetItemCategories(r.Context(), h.DB, item.ID, req.Categories); err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to tag item")
			return
		}
		item.Categories, _ = store.ListItemCategories(r.Context(), h.DB, item.ID)
	}

	slog.Info("listing created", "item", item.ID, "seller", claims.Username)
	jsonResponse(w, http.StatusCreated, item)
}

// Update handles PUT /api/items/{id}. A listing is editable by its seller
// while pending, or while active with no bids yet.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	item, ok := h.editableItem(w, r)
	if !ok {
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	if err := store.UpdateItem(r.Context(), h.DB, item.ID, req.Name, req.Description,
		req.FirstBid, req.BuyPrice, req.Starts, req.Ends); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}
	// PUT replaces the whole listing: an omitted or empty list untags it.
	if err := store.SetItemCategories(r.Context(), h.DB, item.ID, req.Categories); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to tag item")
		return
	}

	updated, err := store.GetItem(r.Context(), h.DB, item.ID)
	if err != nil || updated == nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	updated.Categories, _ = store.ListItemCategories(r.Context(), h.DB, item.ID)
	jsonResponse(w, http.StatusOK, updated)
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	item, ok := h.editableItem(w, r)
	if !ok {
		return
	}

	result, err := imaging.Process(http.MaxBytesReader(w, r.Body, 10<<20))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, item.ID, result.Data, result.MIME); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to store image")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image updated"})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if len(data) == 0 {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Write(data)
}

// Publish handles POST /api/items/{id}/publish, putting a pending listing
// live immediately instead of waiting for its scheduled start.
func (h *ItemsHandler) Publish(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	claims := GetClaims(r.Context())
	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if item.SellerID != claims.UserID && !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		jsonError(w, http.StatusForbidden, "not your listing")
		return
	}

	published, err := auction.Publish(r.Context(), h.DB, id)
	if errors.Is(err, auction.ErrInvalidTransition) {
		jsonError(w, http.StatusConflict, "only pending listings can be published")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to publish item")
		return
	}
	jsonResponse(w, http.StatusOK, published)
}

// editableItem loads the item and checks the caller may modify it.
func (h *ItemsHandler) editableItem(w http.ResponseWriter, r *http.Request) (*model.Item, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return nil, false
	}

	claims := GetClaims(r.Context())
	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return nil, false
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return nil, false
	}
	if item.SellerID != claims.UserID && !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		jsonError(w, http.StatusForbidden, "not your listing")
		return nil, false
	}

	editable := item.Status == model.ItemStatusPending ||
		(item.Status == model.ItemStatusActive && item.BidCount == 0)
	if !editable {
		jsonError(w, http.StatusConflict, "listing can no longer be modified")
		return nil, false
	}
	return item, true
}
