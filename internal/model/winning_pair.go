package model

import "time"

// WinningPair links a sold item to its winning bid and bidder. At most one
// pair exists per item. Each side can hide the pair independently without
// losing the audit record; the pair goes inactive only when both have.
type WinningPair struct {
	ID              int64     `json:"id"`
	ItemID          int64     `json:"item_id"`
	BidID           int64     `json:"bid_id"`
	BidderID        int64     `json:"bidder_id"`
	Status          string    `json:"status"`
	DeletedBySeller bool      `json:"-"`
	DeletedByBidder bool      `json:"-"`
	CreatedAt       time.Time `json:"created_at"`

	// Joined fields (not always populated).
	ItemName   string  `json:"item_name,omitempty"`
	SellerID   int64   `json:"seller_id,omitempty"`
	Amount     float64 `json:"amount,omitempty"`
	BidderName string  `json:"bidder_name,omitempty"`
}

// WinningPair statuses.
const (
	PairStatusActive   = "active"
	PairStatusInactive = "inactive"
)
