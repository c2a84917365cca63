package market

import (
	"testing"
)

func TestRoundBookMatchOnSubmit(t *testing.T) {
	book := NewRoundBook("r1")

	if trades := book.Submit(&Order{PlayerID: "s1", Side: Ask, Price: 70, Limit: 50}); len(trades) != 0 {
		t.Fatalf("lone ask must not trade, got %d trades", len(trades))
	}

	got := book.Submit(&Order{PlayerID: "b1", Side: Bid, Price: 100, Limit: 120})
	if len(got) != 1 {
		t.Fatalf("crossing bid must trade immediately, got %d trades", len(got))
	}
	if got[0].Price != 85 {
		t.Errorf("expected trade at 85, got %v", got[0].Price)
	}

	// Both sides of the fill must be out of the book.
	if n := len(book.ActiveOrders(Bid)) + len(book.ActiveOrders(Ask)); n != 0 {
		t.Errorf("expected empty book after fill, found %d active orders", n)
	}
}

func TestRoundBookPartialBookSurvives(t *testing.T) {
	book := NewRoundBook("r1")

	book.Submit(&Order{PlayerID: "s1", Side: Ask, Price: 70, Limit: 50})
	book.Submit(&Order{PlayerID: "s2", Side: Ask, Price: 95, Limit: 60})
	trades := book.Submit(&Order{PlayerID: "b1", Side: Bid, Price: 80, Limit: 120})

	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	asks := book.ActiveOrders(Ask)
	if len(asks) != 1 || asks[0].Price != 95 {
		t.Fatalf("expected the 95 ask to remain standing, got %v", asks)
	}
}

func TestRoundBookQuote(t *testing.T) {
	book := NewRoundBook("r1")

	if q := book.Quote(); q.BestBid != 0 || q.BestAsk != 0 {
		t.Fatalf("empty book must quote zeros, got %+v", q)
	}

	book.Submit(&Order{PlayerID: "b1", Side: Bid, Price: 40, Limit: 120})
	book.Submit(&Order{PlayerID: "b2", Side: Bid, Price: 55, Limit: 120})
	book.Submit(&Order{PlayerID: "s1", Side: Ask, Price: 90, Limit: 50})
	book.Submit(&Order{PlayerID: "s2", Side: Ask, Price: 80, Limit: 50})

	q := book.Quote()
	if q.BestBid != 55 {
		t.Errorf("expected best bid 55, got %v", q.BestBid)
	}
	if q.BestAsk != 80 {
		t.Errorf("expected best ask 80, got %v", q.BestAsk)
	}
}

func TestRoundBookCloseExpiresRemaining(t *testing.T) {
	book := NewRoundBook("r1")

	book.Submit(&Order{PlayerID: "b1", Side: Bid, Price: 40, Limit: 120})
	book.Submit(&Order{PlayerID: "s1", Side: Ask, Price: 90, Limit: 50})

	if expired := book.Close(); expired != 2 {
		t.Fatalf("expected 2 expired orders, got %d", expired)
	}
	if n := len(book.ActiveOrders(Bid)) + len(book.ActiveOrders(Ask)); n != 0 {
		t.Errorf("expected no active orders after close, found %d", n)
	}
}

func TestRoundBookCloseIdempotent(t *testing.T) {
	book := NewRoundBook("r1")
	book.Submit(&Order{PlayerID: "b1", Side: Bid, Price: 40, Limit: 120})

	book.Close()
	if expired := book.Close(); expired != 0 {
		t.Fatalf("second close must expire nothing, got %d", expired)
	}
}

func TestRoundBookRejectsAfterClose(t *testing.T) {
	book := NewRoundBook("r1")
	book.Close()

	trades := book.Submit(&Order{PlayerID: "b1", Side: Bid, Price: 40, Limit: 120})
	if trades != nil {
		t.Fatalf("closed book must not trade, got %d trades", len(trades))
	}
	if len(book.ActiveOrders(Bid)) != 0 {
		t.Errorf("closed book must not accept orders")
	}
}
