package store

import (
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSessionRoundTrip(t *testing.T) {
	st := openTestStore(t)

	row := SessionRow{
		ID:         "s1",
		Code:       "ABC123",
		GameType:   "double_auction",
		MarketSize: 8,
		RoundCount: 5,
		Status:     "waiting",
		CreatedAt:  time.Now().UTC(),
	}
	if err := st.CreateSession(row); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := st.SessionByCode("ABC123")
	if err != nil {
		t.Fatalf("SessionByCode: %v", err)
	}
	if got.ID != "s1" || got.GameType != "double_auction" || got.MarketSize != 8 {
		t.Errorf("unexpected row back: %+v", got)
	}

	if err := st.UpdateSessionStatus("s1", "active"); err != nil {
		t.Fatalf("UpdateSessionStatus: %v", err)
	}
	got, _ = st.SessionByCode("ABC123")
	if got.Status != "active" {
		t.Errorf("expected active, got %s", got.Status)
	}
}

func TestRoundsAndPlayers(t *testing.T) {
	st := openTestStore(t)
	st.CreateSession(SessionRow{ID: "s1", Code: "C", GameType: "ultimatum", MarketSize: 4, RoundCount: 2, Status: "waiting", CreatedAt: time.Now()})

	for i, id := range []string{"r1", "r2"} {
		if err := st.CreateRound(RoundRow{ID: id, SessionID: "s1", Number: i + 1, Status: "waiting"}); err != nil {
			t.Fatalf("CreateRound: %v", err)
		}
	}
	rounds, err := st.RoundsBySession("s1")
	if err != nil {
		t.Fatalf("RoundsBySession: %v", err)
	}
	if len(rounds) != 2 || rounds[0].Number != 1 || rounds[1].Number != 2 {
		t.Fatalf("expected rounds in order, got %+v", rounds)
	}

	if err := st.CreatePlayer(PlayerRow{ID: "p1", SessionID: "s1", Name: "alice", Role: "first_mover", Active: true}); err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}
	if err := st.UpdatePlayerProfit("p1", 12.5); err != nil {
		t.Fatalf("UpdatePlayerProfit: %v", err)
	}
	players, err := st.PlayersBySession("s1")
	if err != nil {
		t.Fatalf("PlayersBySession: %v", err)
	}
	if len(players) != 1 || players[0].Profit != 12.5 {
		t.Fatalf("expected profit 12.5, got %+v", players)
	}
}

func TestOrderLifecycle(t *testing.T) {
	st := openTestStore(t)
	st.CreateSession(SessionRow{ID: "s1", Code: "C", GameType: "double_auction", MarketSize: 2, RoundCount: 1, Status: "active", CreatedAt: time.Now()})
	st.CreateRound(RoundRow{ID: "r1", SessionID: "s1", Number: 1, Status: "active"})

	for _, o := range []OrderRow{
		{ID: "o1", RoundID: "r1", PlayerID: "p1", Side: "bid", Price: 50, Active: true, CreatedAt: time.Now()},
		{ID: "o2", RoundID: "r1", PlayerID: "p2", Side: "ask", Price: 70, Active: true, CreatedAt: time.Now()},
	} {
		if err := st.SaveOrder(o); err != nil {
			t.Fatalf("SaveOrder: %v", err)
		}
	}

	if err := st.DeactivateOrder("o1"); err != nil {
		t.Fatalf("DeactivateOrder: %v", err)
	}
	active, err := st.ActiveOrdersByRound("r1")
	if err != nil {
		t.Fatalf("ActiveOrdersByRound: %v", err)
	}
	if len(active) != 1 || active[0].ID != "o2" {
		t.Fatalf("expected only o2 active, got %+v", active)
	}

	// Round-end expiry clears the rest and is idempotent.
	if err := st.DeactivateRoundOrders("r1"); err != nil {
		t.Fatalf("DeactivateRoundOrders: %v", err)
	}
	if err := st.DeactivateRoundOrders("r1"); err != nil {
		t.Fatalf("second DeactivateRoundOrders: %v", err)
	}
	active, _ = st.ActiveOrdersByRound("r1")
	if len(active) != 0 {
		t.Fatalf("expected no active orders, got %+v", active)
	}
}

func TestTradesActionsResults(t *testing.T) {
	st := openTestStore(t)

	if err := st.SaveTrade(TradeRow{
		ID: "t1", RoundID: "r1", BidID: "o1", AskID: "o2",
		BuyerID: "p1", SellerID: "p2",
		Price: 45, BuyerProfit: 15, SellerProfit: 15,
		ExecutedAt: time.Now(),
	}); err != nil {
		t.Fatalf("SaveTrade: %v", err)
	}
	trades, err := st.TradesByRound("r1")
	if err != nil {
		t.Fatalf("TradesByRound: %v", err)
	}
	if len(trades) != 1 || trades[0].Price != 45 {
		t.Fatalf("expected trade at 45, got %+v", trades)
	}

	if err := st.SaveAction(ActionRow{RoundID: "r1", PlayerID: "p1", Kind: "contribution", Amount: 10}); err != nil {
		t.Fatalf("SaveAction: %v", err)
	}

	if err := st.SaveResult(ResultRow{ID: "res1", RoundID: "r1", PlayerID: "p1", Profit: 26}); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	results, err := st.ResultsByRound("r1")
	if err != nil {
		t.Fatalf("ResultsByRound: %v", err)
	}
	if len(results) != 1 || results[0].Profit != 26 {
		t.Fatalf("expected result profit 26, got %+v", results)
	}
}
