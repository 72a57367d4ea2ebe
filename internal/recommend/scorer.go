package recommend

import (
	"context"
	"database/sql"
	"sort"

	"github.com/PirrosBell/BidHub/internal/model"
	"github.com/PirrosBell/BidHub/internal/store"
)

// Recommend ranks the active items for a user by the dot product of the
// user's latent vector with each item's vector, best match first. Items the
// user is selling are excluded, as are items training has never seen (no
// assigned index); those simply drop out of the personalized ordering.
//
// Returns ErrNotTrained when no matrices are persisted or the user has no
// trained vector; callers should fall back to a non-personalized ordering.
func Recommend(ctx context.Context, db *sql.DB, dataDir string, userID int64) ([]model.Item, error) {
	user, err := store.GetUser(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.RecIndex == nil {
		return nil, ErrNotTrained
	}

	userFactors, itemFactors, err := LoadMatrices(dataDir)
	if err != nil {
		return nil, err
	}
	if int(*user.RecIndex) >= userFactors.Rows {
		// Stale index from before the last training run.
		return nil, ErrNotTrained
	}
	userVec := userFactors.Row(int(*user.RecIndex))

	items, err := store.ListItems(ctx, db, store.ItemFilter{Status: model.ItemStatusActive})
	if err != nil {
		return nil, err
	}

	type scored struct {
		item  model.Item
		score float64
	}
	ranked := make([]scored, 0, len(items))
	for _, item := range items {
		if item.SellerID == userID {
			continue
		}
		if item.RecIndex == nil || int(*item.RecIndex) >= itemFactors.Rows {
			continue
		}
		score := dot(itemFactors.Row(int(*item.RecIndex)), userVec)
		ranked = append(ranked, scored{item: item, score: score})
	}

	// Ties break on item ID so the ranking is reproducible.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].item.ID < ranked[j].item.ID
	})

	out := make([]model.Item, len(ranked))
	for i, r := range ranked {
		out[i] = r.item
	}
	return out, nil
}
