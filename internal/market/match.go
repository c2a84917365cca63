package market

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Match computes the trades implied by the given active book under
// price-time priority: bids sorted descending by price, asks ascending,
// ties broken by earlier submission. A single greedy two-cursor walk pairs
// crossing orders at the midpoint price and stops at the first
// non-crossing pair; the unmatched remainder is left untouched.
//
// Match skips inactive orders, does not mutate the orders it is given and
// does not validate price legality, which happened before the orders
// entered the book. The caller is responsible for deactivating the matched
// orders atomically with recording the trades.
func Match(bids, asks []*Order) []Trade {
	sortedBids := activeOnly(bids)
	sortedAsks := activeOnly(asks)
	if len(sortedBids) == 0 || len(sortedAsks) == 0 {
		return nil
	}

	sort.SliceStable(sortedBids, func(i, j int) bool {
		if sortedBids[i].Price != sortedBids[j].Price {
			return sortedBids[i].Price > sortedBids[j].Price
		}
		return sortedBids[i].CreatedAt.Before(sortedBids[j].CreatedAt)
	})

	sort.SliceStable(sortedAsks, func(i, j int) bool {
		if sortedAsks[i].Price != sortedAsks[j].Price {
			return sortedAsks[i].Price < sortedAsks[j].Price
		}
		return sortedAsks[i].CreatedAt.Before(sortedAsks[j].CreatedAt)
	})

	var trades []Trade
	for i, j := 0, 0; i < len(sortedBids) && j < len(sortedAsks); i, j = i+1, j+1 {
		bid, ask := sortedBids[i], sortedAsks[j]
		if bid.Price < ask.Price {
			break
		}

		price := (bid.Price + ask.Price) / 2
		trades = append(trades, Trade{
			ID:           uuid.New().String(),
			RoundID:      bid.RoundID,
			BidID:        bid.ID,
			AskID:        ask.ID,
			BuyerID:      bid.PlayerID,
			SellerID:     ask.PlayerID,
			Price:        price,
			BuyerProfit:  bid.Limit - price,
			SellerProfit: price - ask.Limit,
			ExecutedAt:   time.Now(),
		})
	}

	return trades
}

func activeOnly(orders []*Order) []*Order {
	out := make([]*Order, 0, len(orders))
	for _, o := range orders {
		if o.Active {
			out = append(out, o)
		}
	}
	return out
}
