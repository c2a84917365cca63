package market

import (
	"time"
)

type Side int

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "bid"
	}
	return "ask"
}

// Order is a standing bid or ask in a double-auction round. Limit carries
// the owner's private valuation (bids) or production cost (asks) so the
// matcher can compute trade profits without a player lookup. An order is
// deactivated exactly once: when it trades, or when the round ends.
type Order struct {
	ID        string    `json:"id"`
	RoundID   string    `json:"round_id"`
	PlayerID  string    `json:"player_id"`
	Side      Side      `json:"side"`
	Price     float64   `json:"price"`
	Limit     float64   `json:"-"` // valuation (bids) or cost (asks)
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Trade is the immutable result of a successful match.
type Trade struct {
	ID           string    `json:"id"`
	RoundID      string    `json:"round_id"`
	BidID        string    `json:"bid_id"`
	AskID        string    `json:"ask_id"`
	BuyerID      string    `json:"buyer_id"`
	SellerID     string    `json:"seller_id"`
	Price        float64   `json:"price"`
	BuyerProfit  float64   `json:"buyer_profit"`
	SellerProfit float64   `json:"seller_profit"`
	ExecutedAt   time.Time `json:"executed_at"`
}
