package auction

import "errors"

// Engine errors. Bid validation errors are reported to the caller without any
// state mutation; ErrConcurrentUpdate means the lost-update guard tripped and
// the caller should retry the bid.
var (
	ErrItemNotFound      = errors.New("item not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrItemNotActive     = errors.New("item is not active")
	ErrAuctionEnded      = errors.New("auction has ended")
	ErrInvalidAmount     = errors.New("bid amount must be a positive number")
	ErrBidTooLow         = errors.New("bid amount must exceed the current bid")
	ErrOwnBid            = errors.New("sellers cannot bid on their own items")
	ErrConcurrentUpdate  = errors.New("item was modified concurrently, retry the bid")
)
