package market

import (
	"testing"
	"time"
)

func bid(player string, price, valuation float64, at time.Time) *Order {
	return &Order{
		ID:        "bid-" + player,
		PlayerID:  player,
		Side:      Bid,
		Price:     price,
		Limit:     valuation,
		Active:    true,
		CreatedAt: at,
	}
}

func ask(player string, price, cost float64, at time.Time) *Order {
	return &Order{
		ID:        "ask-" + player,
		PlayerID:  player,
		Side:      Ask,
		Price:     price,
		Limit:     cost,
		Active:    true,
		CreatedAt: at,
	}
}

func TestMatchMidpointPricing(t *testing.T) {
	now := time.Now()
	bids := []*Order{bid("b1", 100, 120, now)}
	asks := []*Order{ask("s1", 70, 50, now)}

	trades := Match(bids, asks)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}

	tr := trades[0]
	if tr.Price != 85 {
		t.Errorf("expected midpoint price 85, got %v", tr.Price)
	}
	if tr.BuyerProfit != 35 {
		t.Errorf("expected buyer profit 35, got %v", tr.BuyerProfit)
	}
	if tr.SellerProfit != 35 {
		t.Errorf("expected seller profit 35, got %v", tr.SellerProfit)
	}
	if tr.BuyerID != "b1" || tr.SellerID != "s1" {
		t.Errorf("wrong counterparties: buyer=%s seller=%s", tr.BuyerID, tr.SellerID)
	}
}

func TestMatchNoCross(t *testing.T) {
	now := time.Now()
	bids := []*Order{bid("b1", 80, 120, now)}
	asks := []*Order{ask("s1", 90, 50, now)}

	if trades := Match(bids, asks); len(trades) != 0 {
		t.Fatalf("expected no trades for bid 80 vs ask 90, got %d", len(trades))
	}
}

func TestMatchPriceTimePriority(t *testing.T) {
	now := time.Now()
	// Two bids at the same price; the earlier one must trade.
	bids := []*Order{
		bid("late", 100, 120, now.Add(time.Second)),
		bid("early", 100, 120, now),
	}
	asks := []*Order{ask("s1", 60, 40, now)}

	trades := Match(bids, asks)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if trades[0].BuyerID != "early" {
		t.Errorf("expected earlier bid to win the tie, got buyer %s", trades[0].BuyerID)
	}
}

func TestMatchHighestBidFirst(t *testing.T) {
	now := time.Now()
	bids := []*Order{
		bid("low", 80, 120, now),
		bid("high", 110, 130, now),
	}
	asks := []*Order{ask("s1", 70, 40, now)}

	trades := Match(bids, asks)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if trades[0].BuyerID != "high" {
		t.Errorf("expected highest bid to trade first, got %s", trades[0].BuyerID)
	}
}

func TestMatchWalksBothSides(t *testing.T) {
	now := time.Now()
	bids := []*Order{
		bid("b1", 100, 120, now),
		bid("b2", 90, 110, now),
		bid("b3", 60, 80, now),
	}
	asks := []*Order{
		ask("s1", 50, 30, now),
		ask("s2", 70, 40, now),
		ask("s3", 95, 60, now),
	}

	trades := Match(bids, asks)
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	// First pair: 100 vs 50, second: 90 vs 70. Third pair 60 vs 95 does
	// not cross and stops the walk.
	if trades[0].Price != 75 {
		t.Errorf("expected first trade at 75, got %v", trades[0].Price)
	}
	if trades[1].Price != 80 {
		t.Errorf("expected second trade at 80, got %v", trades[1].Price)
	}
}

func TestMatchEachOrderTradesAtMostOnce(t *testing.T) {
	now := time.Now()
	bids := []*Order{
		bid("b1", 100, 120, now),
		bid("b2", 95, 120, now),
	}
	asks := []*Order{ask("s1", 50, 30, now)}

	trades := Match(bids, asks)
	if len(trades) != 1 {
		t.Fatalf("expected exactly 1 trade with a single ask, got %d", len(trades))
	}

	seen := make(map[string]bool)
	for _, tr := range trades {
		if seen[tr.BidID] || seen[tr.AskID] {
			t.Fatalf("order matched twice")
		}
		seen[tr.BidID] = true
		seen[tr.AskID] = true
	}
}

func TestMatchIgnoresInactiveOrders(t *testing.T) {
	now := time.Now()
	filled := bid("b1", 100, 120, now)
	filled.Active = false
	asks := []*Order{ask("s1", 50, 30, now)}

	if trades := Match([]*Order{filled}, asks); len(trades) != 0 {
		t.Fatalf("inactive order must not match, got %d trades", len(trades))
	}
}

func TestMatchDoesNotMutateInputs(t *testing.T) {
	now := time.Now()
	b := bid("b1", 100, 120, now)
	a := ask("s1", 50, 30, now)

	Match([]*Order{b}, []*Order{a})
	if !b.Active || !a.Active {
		t.Errorf("Match must leave order state to the caller")
	}
}
