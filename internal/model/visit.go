package model

import "time"

// Visit records a user viewing an item's detail page. Visits feed the
// recommendation trainer as weight-1 interaction signals.
type Visit struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ItemID    int64     `json:"item_id"`
	VisitedAt time.Time `json:"visited_at"`
}
