package market

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RoundBook holds the active bids and asks of one double-auction round.
// Submissions are matched as they arrive, so the book at rest never
// contains a crossing pair. The book's mutex makes "deactivate matched
// orders + record trades" a single atomic step, which is what guarantees
// an order trades at most once.
type RoundBook struct {
	RoundID string

	mu     sync.Mutex
	orders map[string]*Order
	bids   []*Order // arrival order
	asks   []*Order // arrival order
	trades []Trade
	closed bool
}

func NewRoundBook(roundID string) *RoundBook {
	return &RoundBook{
		RoundID: roundID,
		orders:  make(map[string]*Order),
	}
}

// Submit accepts an order into the book and runs a matching pass over the
// active book. The returned trades (possibly none) are the ones this
// submission caused. Price legality against the owner's valuation or cost
// was checked by the caller before the order got here.
func (b *RoundBook) Submit(order *Order) []Trade {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	order.RoundID = b.RoundID
	order.Active = true

	b.orders[order.ID] = order
	if order.Side == Bid {
		b.bids = append(b.bids, order)
	} else {
		b.asks = append(b.asks, order)
	}

	trades := Match(b.activeLocked(Bid), b.activeLocked(Ask))
	for _, t := range trades {
		b.orders[t.BidID].Active = false
		b.orders[t.AskID].Active = false
	}
	b.trades = append(b.trades, trades...)

	return trades
}

// activeLocked returns the active orders on one side, in arrival order.
// Caller holds b.mu.
func (b *RoundBook) activeLocked(side Side) []*Order {
	src := b.bids
	if side == Ask {
		src = b.asks
	}
	var out []*Order
	for _, o := range src {
		if o.Active {
			out = append(out, o)
		}
	}
	return out
}

// Close deactivates every remaining order without trading and stops the
// book from accepting further submissions. Calling it again is a no-op
// with the same final state. It returns the number of orders expired by
// this call.
func (b *RoundBook) Close() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	expired := 0
	for _, o := range b.orders {
		if o.Active {
			o.Active = false
			expired++
		}
	}
	return expired
}

// ActiveOrders returns copies of the active orders on one side, in
// arrival order.
func (b *RoundBook) ActiveOrders(side Side) []Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	live := b.activeLocked(side)
	out := make([]Order, len(live))
	for i, o := range live {
		out[i] = *o
	}
	return out
}

// Trades returns all trades executed in this round so far.
func (b *RoundBook) Trades() []Trade {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Trade, len(b.trades))
	copy(out, b.trades)
	return out
}

// Quote is the current best bid and ask. A zero price means that side of
// the book is empty.
type Quote struct {
	BestBid float64 `json:"best_bid"`
	BestAsk float64 `json:"best_ask"`
}

func (b *RoundBook) Quote() Quote {
	b.mu.Lock()
	defer b.mu.Unlock()

	var q Quote
	for _, o := range b.bids {
		if o.Active && o.Price > q.BestBid {
			q.BestBid = o.Price
		}
	}
	for _, o := range b.asks {
		if o.Active && (q.BestAsk == 0 || o.Price < q.BestAsk) {
			q.BestAsk = o.Price
		}
	}
	return q
}

// BookSnapshot is the wire shape of the active book.
type BookSnapshot struct {
	RoundID string  `json:"round_id"`
	Bids    []Order `json:"bids"`
	Asks    []Order `json:"asks"`
}

func (b *RoundBook) Snapshot() BookSnapshot {
	return BookSnapshot{
		RoundID: b.RoundID,
		Bids:    b.ActiveOrders(Bid),
		Asks:    b.ActiveOrders(Ask),
	}
}
