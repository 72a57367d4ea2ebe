package model

import "time"

// Item represents one auction listing.
type Item struct {
	ID          int64      `json:"id"`
	SellerID    int64      `json:"seller_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	FirstBid    float64    `json:"first_bid"`
	CurrentBid  float64    `json:"current_bid"`
	BuyPrice    *float64   `json:"buy_price,omitempty"`
	BidCount    int        `json:"bid_count"`
	Starts      *time.Time `json:"starts,omitempty"`
	Ends        time.Time  `json:"ends"`
	Status      string     `json:"status"`
	RecIndex    *int64     `json:"-"`
	ImageMime   string     `json:"image_mime,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Joined fields (not always populated).
	SellerName string   `json:"seller_name,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// Item statuses. pending → active → sold | expired | cancelled.
const (
	ItemStatusPending   = "pending"
	ItemStatusActive    = "active"
	ItemStatusSold      = "sold"
	ItemStatusExpired   = "expired"
	ItemStatusCancelled = "cancelled"
)

// Terminal reports whether status is a final state that no transition leaves.
func Terminal(status string) bool {
	switch status {
	case ItemStatusSold, ItemStatusExpired, ItemStatusCancelled:
		return true
	}
	return false
}
