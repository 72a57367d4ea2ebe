package model

import "time"

// Bid is a single accepted bid on an item. Bids are immutable once created.
type Bid struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	BidderID  int64     `json:"bidder_id"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`

	// Joined fields (not always populated).
	BidderName string `json:"bidder_name,omitempty"`
}
